package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SlotAttr carries an element's index in its logical target list, so
// visual order tracks logical order independent of physical attach order.
const SlotAttr = "data-loom-slot"

// Element creates a detached element node.
func Element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// Text creates a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Anchor creates a comment node used to hold a render site's position
// while its content is detached or hidden.
func Anchor(label string) *html.Node {
	return &html.Node{Type: html.CommentNode, Data: label}
}

// Detach removes n from its parent, if attached.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// IsAttached reports whether n currently has a parent.
func IsAttached(n *html.Node) bool {
	return n != nil && n.Parent != nil
}

// ReplaceWith swaps old for repl in old's parent. It is a no-op when old
// is detached.
func ReplaceWith(old, repl *html.Node) {
	if old == nil || old.Parent == nil || repl == nil {
		return
	}
	parent := old.Parent
	Detach(repl)
	parent.InsertBefore(repl, old)
	parent.RemoveChild(old)
}

// InsertAfter places n immediately after ref under ref's parent.
func InsertAfter(ref, n *html.Node) {
	if ref == nil || ref.Parent == nil || n == nil {
		return
	}
	Detach(n)
	if ref.NextSibling != nil {
		ref.Parent.InsertBefore(n, ref.NextSibling)
	} else {
		ref.Parent.AppendChild(n)
	}
}

// Append attaches n as parent's last child, detaching it first.
func Append(parent, n *html.Node) {
	if parent == nil || n == nil {
		return
	}
	Detach(n)
	parent.AppendChild(n)
}

// Attr returns the value of the named attribute.
func Attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether the named attribute is present.
func HasAttr(n *html.Node, name string) bool {
	_, ok := Attr(n, name)
	return ok
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *html.Node, name, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: val})
}

// RemoveAttr removes the named attribute, if present.
func RemoveAttr(n *html.Node, name string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// SetSlot records the element's index in its logical target list.
func SetSlot(n *html.Node, i int) {
	SetAttr(n, SlotAttr, strconv.Itoa(i))
}

// Slot returns the element's recorded logical index.
func Slot(n *html.Node) (int, bool) {
	v, ok := Attr(n, SlotAttr)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

// SetTextContent replaces n's children with a single text node.
func SetTextContent(n *html.Node, s string) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
	n.AppendChild(Text(s))
}

// TextContent concatenates the text nodes under n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			walk(gc)
		}
	}
	walk(n)
	return b.String()
}

// WalkElements visits every element under each root exactly once, in
// document order, roots included. Returning false from fn stops the walk.
func WalkElements(roots []*html.Node, fn func(*html.Node) bool) {
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if !fn(n) {
				return false
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	for _, root := range roots {
		if !walk(root) {
			return
		}
	}
}

// IsWhitespaceText reports whether n is a text node containing only
// whitespace.
func IsWhitespaceText(n *html.Node) bool {
	return n.Type == html.TextNode && strings.TrimSpace(n.Data) == ""
}

// ChildElements returns n's element children.
func ChildElements(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}
