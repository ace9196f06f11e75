package dom

import (
	"fmt"
	"strconv"

	"golang.org/x/net/html"
)

// Kind discriminates the placeable variant.
type Kind uint8

const (
	Empty    Kind = iota // renders nothing
	TextKind             // renders a single text node
	NodeKind             // renders one element or text node
	Fragment             // renders an ordered run of nodes
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case Empty:
		return "Empty"
	case TextKind:
		return "Text"
	case NodeKind:
		return "Node"
	case Fragment:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// Value is the closed placeable variant: the one shape binding outputs
// and reconciler compose results are coerced into before touching the
// tree. The classification happens once, up front, instead of run-time
// value sniffing at every render site.
type Value struct {
	Kind  Kind
	Text  string
	Node  *html.Node
	Nodes []*html.Node
}

// IsEmpty reports whether the value renders nothing.
func (v Value) IsEmpty() bool {
	return v.Kind == Empty
}

// AsNodes materializes the value as detached nodes. Empty yields nil;
// Text yields a fresh text node each call.
func (v Value) AsNodes() []*html.Node {
	switch v.Kind {
	case TextKind:
		return []*html.Node{Text(v.Text)}
	case NodeKind:
		return []*html.Node{v.Node}
	case Fragment:
		return v.Nodes
	default:
		return nil
	}
}

// Coerce turns an arbitrary value into a placeable. nil, false, and the
// empty string coerce to Empty so bindings can hide their site; nodes
// and node slices pass through; everything else renders as text.
// Argument-less functions are invoked once and their result coerced.
func Coerce(v any) Value {
	switch val := v.(type) {
	case nil:
		return Value{Kind: Empty}
	case Value:
		return val
	case *html.Node:
		if val == nil {
			return Value{Kind: Empty}
		}
		return Value{Kind: NodeKind, Node: val}
	case []*html.Node:
		switch len(val) {
		case 0:
			return Value{Kind: Empty}
		case 1:
			return Value{Kind: NodeKind, Node: val[0]}
		default:
			return Value{Kind: Fragment, Nodes: val}
		}
	case string:
		if val == "" {
			return Value{Kind: Empty}
		}
		return Value{Kind: TextKind, Text: val}
	case bool:
		if !val {
			return Value{Kind: Empty}
		}
		return Value{Kind: TextKind, Text: "true"}
	case int:
		return Value{Kind: TextKind, Text: strconv.Itoa(val)}
	case int64:
		return Value{Kind: TextKind, Text: strconv.FormatInt(val, 10)}
	case float64:
		return Value{Kind: TextKind, Text: strconv.FormatFloat(val, 'f', -1, 64)}
	case func() any:
		return Coerce(val())
	case fmt.Stringer:
		return Coerce(val.String())
	default:
		return Value{Kind: TextKind, Text: fmt.Sprintf("%v", v)}
	}
}

// CoerceString flattens a value to the string form used for attribute
// targets. Empty values yield "".
func CoerceString(v any) string {
	pv := Coerce(v)
	switch pv.Kind {
	case TextKind:
		return pv.Text
	case NodeKind:
		return TextContent(pv.Node)
	case Fragment:
		s := ""
		for _, n := range pv.Nodes {
			s += TextContent(n)
		}
		return s
	default:
		return ""
	}
}
