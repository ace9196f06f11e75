package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/loom-ui/loom/internal/errors"
	"github.com/loom-ui/loom/pkg/dom"
)

const (
	// MarkerTag is the generic synthetic element standing in for a
	// non-primitive content interpolation.
	MarkerTag = "loom-slot"

	// MarkerIndexAttr carries a content marker's originating value index.
	MarkerIndexAttr = "data-loom-idx"

	// markerTagAttrPrefix marks an element carrying a tag-context value;
	// the value index follows the prefix.
	markerTagAttrPrefix = "data-loom-tag-"

	// tokenPrefix starts an attribute-value marker token.
	tokenPrefix = "loom://"
)

// Fragment is a markup template: literal segments interleaved
// positionally with interpolated values. The interleaving is fixed at
// construction: segment[0], value[0], segment[1], value[1], ...
type Fragment struct {
	segments []string
	values   []any
}

// New creates a fragment from explicit segments and values. There must
// be exactly one more segment than there are values.
func New(segments []string, values ...any) (*Fragment, error) {
	if len(segments) != len(values)+1 {
		return nil, errors.New("L001").
			WithDetail("%d segments, %d values", len(segments), len(values))
	}
	return &Fragment{segments: segments, values: values}, nil
}

// Interp builds a fragment by splitting markup on "{}" interpolation
// holes, one per value in order.
func Interp(markup string, values ...any) (*Fragment, error) {
	return New(strings.Split(markup, "{}"), values...)
}

// Values returns the interpolated values in template order.
func (f *Fragment) Values() []any {
	return f.values
}

// Token returns the attribute-value marker for value index i.
func Token(i int) string {
	return tokenPrefix + strconv.Itoa(i)
}

// assembled is the output of the forward assembly scan: the concrete
// markup string plus the classification of every interpolation site.
type assembled struct {
	markup     string
	sites      []Site
	contextTag string
}

// assemble runs the single forward pass: lex the literal segments,
// substitute primitives directly, and emit synthetic markers for
// non-primitive values according to each site's classification.
func (f *Fragment) assemble() *assembled {
	var b strings.Builder
	l := &lexer{}
	sites := make([]Site, len(f.values))

	for i, seg := range f.segments {
		l.feed(seg)
		b.WriteString(seg)
		if i >= len(f.values) {
			continue
		}

		site := l.site()
		sites[i] = site

		if text, ok := primitiveString(f.values[i]); ok {
			// Primitives are markup text: they go through the lexer
			// so tag state stays honest.
			l.feed(text)
			b.WriteString(text)
			continue
		}

		switch site.Context {
		case SiteContent:
			tag := MarkerTag
			if m, ok := dom.CompatibleChildTag(site.Enclosing); ok {
				tag = m
			}
			fmt.Fprintf(&b, `<%s %s="%d"></%s>`, tag, MarkerIndexAttr, i, tag)
		case SiteAttr:
			b.WriteString(Token(i))
			l.noteUnquotedValue()
		case SiteTag:
			l.breakTagName()
			fmt.Fprintf(&b, ` %s%d=""`, markerTagAttrPrefix, i)
		}
	}

	return &assembled{
		markup:     b.String(),
		sites:      sites,
		contextTag: fragmentContextFor(l.firstTag),
	}
}

// fragmentContext maps a structurally constrained top-level tag to the
// parse context that keeps the underlying parser from dropping it.
var fragmentContext = map[string]string{
	"tr": "tbody", "td": "tr", "th": "tr",
	"tbody": "table", "thead": "table", "tfoot": "table",
	"caption": "table", "colgroup": "table", "col": "colgroup",
	"option": "select", "optgroup": "select",
	"li": "ul", "dt": "dl", "dd": "dl", "source": "picture",
}

func fragmentContextFor(firstTag string) string {
	if ctx, ok := fragmentContext[firstTag]; ok {
		return ctx
	}
	return "div"
}

// primitiveString reports whether v substitutes directly into markup,
// and its textual form if so.
func primitiveString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int8:
		return strconv.FormatInt(int64(val), 10), true
	case int16:
		return strconv.FormatInt(int64(val), 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint8:
		return strconv.FormatUint(uint64(val), 10), true
	case uint16:
		return strconv.FormatUint(uint64(val), 10), true
	case uint32:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}
