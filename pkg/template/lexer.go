package template

import "strings"

// SiteContext classifies the syntactic position of an interpolation.
type SiteContext uint8

const (
	// SiteContent is between tags: the value renders as content.
	SiteContent SiteContext = iota

	// SiteAttr is inside an attribute value.
	SiteAttr

	// SiteTag is inside an open tag but not in an attribute value: the
	// value attaches to the element itself.
	SiteTag
)

// String returns the string representation of the SiteContext.
func (c SiteContext) String() string {
	switch c {
	case SiteContent:
		return "Content"
	case SiteAttr:
		return "Attr"
	case SiteTag:
		return "Tag"
	default:
		return "Unknown"
	}
}

// Site records everything the assembler needs to know about one
// interpolation point.
type Site struct {
	// Context is the syntactic classification.
	Context SiteContext

	// Enclosing is the nearest open tag around a content site, or ""
	// at the top level.
	Enclosing string

	// Owner is the tag being opened for tag and attribute sites.
	Owner string

	// Attr is the attribute name for attribute sites.
	Attr string

	// Quoted reports whether an attribute site sits inside quotes.
	Quoted bool
}

type lexState uint8

const (
	stText lexState = iota
	stTagOpen
	stTagName
	stEndTagOpen
	stEndTagName
	stInTag
	stAttrName
	stBeforeValue
	stAttrValueDQ
	stAttrValueSQ
	stAttrValueUQ
	stSelfClosing
	stBang
	stComment
	stRawText
	stRawTextLT
)

// voidTags cannot have children and never go on the open-tag stack.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// rawTextTags switch the lexer into raw-text mode until the matching
// end tag: markup syntax inside them is inert.
var rawTextTags = map[string]bool{
	"script": true, "style": true, "textarea": true, "title": true,
}

// lexer is a single forward scanner over the template's literal text.
// It maintains an open-tag stack so every interpolation site knows its
// nearest enclosing tag, including nested same-named tags.
type lexer struct {
	state lexState
	stack []string

	tagBuf  strings.Builder // open-tag name under construction
	endBuf  strings.Builder // end-tag name under construction
	attrBuf strings.Builder // attribute name under construction

	pendingTag string // completed open-tag name, not yet pushed
	attrName   string // completed attribute name for the current value

	bangBuf strings.Builder // after "<!", to detect comments
	dashes  int             // consecutive '-' inside a comment

	rawTag string          // active raw-text element
	rawBuf strings.Builder // potential end tag inside raw text

	firstTag string // first element opened at stack depth zero
}

// feed consumes literal markup text, advancing the scan state.
func (l *lexer) feed(s string) {
	for i := 0; i < len(s); i++ {
		l.step(s[i])
	}
}

func (l *lexer) step(b byte) {
	switch l.state {
	case stText:
		if b == '<' {
			l.state = stTagOpen
		}

	case stTagOpen:
		switch {
		case b == '/':
			l.state = stEndTagOpen
			l.endBuf.Reset()
		case b == '!':
			l.state = stBang
			l.bangBuf.Reset()
		case isNameByte(b):
			l.state = stTagName
			l.tagBuf.Reset()
			l.tagBuf.WriteByte(lower(b))
		default:
			// Stray '<' in text.
			l.state = stText
		}

	case stTagName:
		switch {
		case isNameByte(b):
			l.tagBuf.WriteByte(lower(b))
		case b == '>':
			l.pendingTag = l.tagBuf.String()
			l.finishOpen(false)
		case b == '/':
			l.pendingTag = l.tagBuf.String()
			l.state = stSelfClosing
		case isSpace(b):
			l.pendingTag = l.tagBuf.String()
			l.state = stInTag
		}

	case stEndTagOpen:
		switch {
		case isNameByte(b):
			l.state = stEndTagName
			l.endBuf.WriteByte(lower(b))
		case b == '>':
			l.state = stText
		}

	case stEndTagName:
		switch {
		case isNameByte(b):
			l.endBuf.WriteByte(lower(b))
		case b == '>':
			l.closeTag(l.endBuf.String())
			l.state = stText
		}
		// Whitespace before '>' is consumed silently.

	case stInTag:
		switch {
		case b == '>':
			l.finishOpen(false)
		case b == '/':
			l.state = stSelfClosing
		case isSpace(b):
		default:
			l.state = stAttrName
			l.attrBuf.Reset()
			l.attrBuf.WriteByte(lower(b))
		}

	case stAttrName:
		switch {
		case b == '=':
			l.attrName = l.attrBuf.String()
			l.state = stBeforeValue
		case b == '>':
			l.finishOpen(false)
		case b == '/':
			l.state = stSelfClosing
		case isSpace(b):
			l.state = stInTag
		default:
			l.attrBuf.WriteByte(lower(b))
		}

	case stBeforeValue:
		switch {
		case b == '"':
			l.state = stAttrValueDQ
		case b == '\'':
			l.state = stAttrValueSQ
		case b == '>':
			l.finishOpen(false)
		case isSpace(b):
		default:
			l.state = stAttrValueUQ
		}

	case stAttrValueDQ:
		if b == '"' {
			l.state = stInTag
		}

	case stAttrValueSQ:
		if b == '\'' {
			l.state = stInTag
		}

	case stAttrValueUQ:
		switch {
		case isSpace(b):
			l.state = stInTag
		case b == '>':
			l.finishOpen(false)
		}

	case stSelfClosing:
		if b == '>' {
			l.finishOpen(true)
		} else {
			l.state = stInTag
		}

	case stBang:
		l.bangBuf.WriteByte(b)
		switch {
		case l.bangBuf.String() == "--":
			l.state = stComment
			l.dashes = 0
		case b == '>':
			// Doctype or similar: consumed without affecting the stack.
			l.state = stText
		}

	case stComment:
		switch {
		case b == '-':
			l.dashes++
		case b == '>' && l.dashes >= 2:
			l.state = stText
		default:
			l.dashes = 0
		}

	case stRawText:
		if b == '<' {
			l.state = stRawTextLT
			l.rawBuf.Reset()
		}

	case stRawTextLT:
		l.rawBuf.WriteByte(lower(b))
		want := "/" + l.rawTag
		have := l.rawBuf.String()
		switch {
		case have == want+">":
			l.closeTag(l.rawTag)
			l.rawTag = ""
			l.state = stText
		case strings.HasPrefix(want+">", have):
			// Still matching the end tag.
		default:
			l.state = stRawText
		}
	}
}

// finishOpen completes the tag being opened, pushing it on the stack
// unless it is void or self-closed, and entering raw-text mode for
// script-like elements.
func (l *lexer) finishOpen(selfClosed bool) {
	tag := l.pendingTag
	l.pendingTag = ""
	l.state = stText

	if tag == "" {
		return
	}
	if l.firstTag == "" && len(l.stack) == 0 {
		l.firstTag = tag
	}
	if selfClosed || voidTags[tag] {
		return
	}
	if rawTextTags[tag] {
		l.rawTag = tag
		l.state = stRawText
		return
	}
	l.stack = append(l.stack, tag)
}

// closeTag pops the stack down to and including the nearest matching
// open tag. Unmatched end tags are ignored.
func (l *lexer) closeTag(name string) {
	for i := len(l.stack) - 1; i >= 0; i-- {
		if l.stack[i] == name {
			l.stack = l.stack[:i]
			return
		}
	}
}

// enclosing returns the nearest open tag, or "" at the top level.
func (l *lexer) enclosing() string {
	if l.rawTag != "" {
		return l.rawTag
	}
	if len(l.stack) == 0 {
		return ""
	}
	return l.stack[len(l.stack)-1]
}

// site classifies the current scan position as an interpolation site.
func (l *lexer) site() Site {
	switch l.state {
	case stText, stComment, stRawText, stRawTextLT:
		return Site{Context: SiteContent, Enclosing: l.enclosing()}
	case stAttrValueDQ, stAttrValueSQ:
		return Site{Context: SiteAttr, Owner: l.pendingTag, Attr: l.attrName, Quoted: true, Enclosing: l.enclosing()}
	case stAttrValueUQ, stBeforeValue:
		return Site{Context: SiteAttr, Owner: l.pendingTag, Attr: l.attrName, Enclosing: l.enclosing()}
	default:
		owner := l.pendingTag
		if l.state == stTagName {
			owner = l.tagBuf.String()
		}
		return Site{Context: SiteTag, Owner: owner, Enclosing: l.enclosing()}
	}
}

// noteUnquotedValue moves the scanner into an unquoted attribute value,
// used when a synthetic token is emitted directly after '='.
func (l *lexer) noteUnquotedValue() {
	if l.state == stBeforeValue {
		l.state = stAttrValueUQ
	}
}

// breakTagName ends the tag-name token so a synthetic attribute can be
// emitted, mirroring what the space before the attribute does to a real
// parser.
func (l *lexer) breakTagName() {
	if l.state == stTagName {
		l.pendingTag = l.tagBuf.String()
		l.state = stInTag
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

func isNameByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' ||
		b >= '0' && b <= '9' || b == '-' || b == '_' || b == ':'
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
