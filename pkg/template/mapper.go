package template

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/loom-ui/loom/pkg/dom"
)

// RefAttr is the attribute naming a single or grouped (two-part) node
// reference; RefsAttr collects repeated references under one name.
const (
	RefAttr  = "w-ref"
	RefsAttr = "w-refs"
)

// Placeholder stands in 1:1 for one non-primitive content value,
// resolved by marker identity back to its originating index.
type Placeholder struct {
	Index int
	Node  *html.Node
	Value any
	Site  Site
}

// TagBinding attaches a tag-context value to the element it was
// interpolated into.
type TagBinding struct {
	Index int
	Node  *html.Node
	Value any
}

// AttrSite is an attribute whose value resolves to one or more
// interpolated values: a reactive-attribute node.
type AttrSite struct {
	Node *html.Node
	Name string

	// Template is the raw attribute value with marker tokens in place;
	// re-rendering substitutes current source values into it.
	Template string

	// Indices are the value indexes referenced by the template.
	Indices []int
}

// DirectiveSite is a node whose attribute name matched the registered
// directive table.
type DirectiveSite struct {
	Node *html.Node
	Name string
	Raw  string
	Indices []int
}

// View is the mapped output of one template build: the detached element
// tree plus every bucket the engine consumes. Buckets are mutually
// exclusive per node role, but a node carrying several independent
// attributes may appear in several buckets.
type View struct {
	Roots []*html.Node

	Values []any
	Sites  []Site

	Placeholders  []Placeholder
	TagBindings   []TagBinding
	ReactiveAttrs []AttrSite
	Directives    []DirectiveSite

	Refs      map[string]*html.Node
	Groups    map[string]map[string]*html.Node
	Collected map[string][]*html.Node
}

// Build assembles, parses, and maps the fragment in one pass each.
// isDirective identifies registered directive attribute names; it is a
// predicate rather than the table itself so the engine's registry stays
// on the engine.
func (f *Fragment) Build(isDirective func(name string) bool) (*View, error) {
	asm := f.assemble()

	roots, err := dom.ParseFragment(asm.markup, asm.contextTag)
	if err != nil {
		return nil, err
	}

	view := &View{
		Roots:     roots,
		Values:    f.values,
		Sites:     asm.sites,
		Refs:      make(map[string]*html.Node),
		Groups:    make(map[string]map[string]*html.Node),
		Collected: make(map[string][]*html.Node),
	}
	if isDirective == nil {
		isDirective = func(string) bool { return false }
	}

	// Single traversal: every element visited exactly once.
	dom.WalkElements(roots, func(n *html.Node) bool {
		view.mapNode(n, isDirective)
		return true
	})
	return view, nil
}

// mapNode buckets one element by its attributes and marker identity.
func (v *View) mapNode(n *html.Node, isDirective func(string) bool) {
	if idxStr, ok := dom.Attr(n, MarkerIndexAttr); ok {
		if idx, err := strconv.Atoi(idxStr); err == nil && idx < len(v.Values) {
			v.Placeholders = append(v.Placeholders, Placeholder{
				Index: idx,
				Node:  n,
				Value: v.Values[idx],
				Site:  v.Sites[idx],
			})
		}
		dom.RemoveAttr(n, MarkerIndexAttr)
	}

	// Attributes are copied up front: bucketing removes marker and ref
	// attributes as it goes.
	attrs := make([]html.Attribute, len(n.Attr))
	copy(attrs, n.Attr)

	for _, a := range attrs {
		switch {
		case a.Key == RefAttr:
			if group, field, ok := strings.Cut(a.Val, "."); ok {
				if v.Groups[group] == nil {
					v.Groups[group] = make(map[string]*html.Node)
				}
				v.Groups[group][field] = n
			} else if a.Val != "" {
				v.Refs[a.Val] = n
			}
			dom.RemoveAttr(n, RefAttr)

		case a.Key == RefsAttr:
			if a.Val != "" {
				v.Collected[a.Val] = append(v.Collected[a.Val], n)
			}
			dom.RemoveAttr(n, RefsAttr)

		case strings.HasPrefix(a.Key, markerTagAttrPrefix):
			if idx, err := strconv.Atoi(a.Key[len(markerTagAttrPrefix):]); err == nil && idx < len(v.Values) {
				v.TagBindings = append(v.TagBindings, TagBinding{
					Index: idx,
					Node:  n,
					Value: v.Values[idx],
				})
			}
			dom.RemoveAttr(n, a.Key)

		case isDirective(a.Key):
			v.Directives = append(v.Directives, DirectiveSite{
				Node: n,
				Name: a.Key,
				Raw:  a.Val,
				Indices: TokenIndices(a.Val),
			})

		case strings.Contains(a.Val, tokenPrefix):
			v.ReactiveAttrs = append(v.ReactiveAttrs, AttrSite{
				Node:     n,
				Name:     a.Key,
				Template: a.Val,
				Indices:  TokenIndices(a.Val),
			})
		}
	}
}

// TokenIndices extracts the value indexes referenced by marker tokens
// in an attribute value, in order of appearance.
func TokenIndices(s string) []int {
	var out []int
	for {
		at := strings.Index(s, tokenPrefix)
		if at < 0 {
			return out
		}
		s = s[at+len(tokenPrefix):]
		end := 0
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		if end > 0 {
			if idx, err := strconv.Atoi(s[:end]); err == nil {
				out = append(out, idx)
			}
		}
		s = s[end:]
	}
}

// ExpandTokens substitutes each marker token in an attribute template
// with the string produced by resolve for its index.
func ExpandTokens(tmpl string, resolve func(i int) string) string {
	var b strings.Builder
	for {
		at := strings.Index(tmpl, tokenPrefix)
		if at < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		b.WriteString(tmpl[:at])
		tmpl = tmpl[at+len(tokenPrefix):]
		end := 0
		for end < len(tmpl) && tmpl[end] >= '0' && tmpl[end] <= '9' {
			end++
		}
		if end == 0 {
			b.WriteString(tokenPrefix)
			continue
		}
		idx, _ := strconv.Atoi(tmpl[:end])
		b.WriteString(resolve(idx))
		tmpl = tmpl[end:]
	}
}

// SoleIndex returns the only value index referenced by a directive
// attribute, or -1 when it references none or several.
func SoleIndex(raw string) int {
	idxs := TokenIndices(raw)
	if len(idxs) != 1 {
		return -1
	}
	return idxs[0]
}
