package dom

import (
	"golang.org/x/net/html"

	"github.com/loom-ui/loom/internal/errors"
)

// constraint describes the content model of a container that silently
// drops or relocates children it does not permit.
type constraint struct {
	allowed map[string]bool
	marker  string // structurally compatible stand-in child tag
}

func tags(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// constrained lists containers with strict child-type constraints.
// "script" and "template" are permitted everywhere the HTML parser
// permits them.
var constrained = map[string]constraint{
	"table":    {allowed: tags("caption", "colgroup", "thead", "tbody", "tfoot", "tr", "script", "template"), marker: "tbody"},
	"thead":    {allowed: tags("tr", "script", "template"), marker: "tr"},
	"tbody":    {allowed: tags("tr", "script", "template"), marker: "tr"},
	"tfoot":    {allowed: tags("tr", "script", "template"), marker: "tr"},
	"tr":       {allowed: tags("td", "th", "script", "template"), marker: "td"},
	"select":   {allowed: tags("option", "optgroup", "hr", "script", "template"), marker: "option"},
	"optgroup": {allowed: tags("option", "script", "template"), marker: "option"},
	"ul":       {allowed: tags("li", "script", "template"), marker: "li"},
	"ol":       {allowed: tags("li", "script", "template"), marker: "li"},
	"menu":     {allowed: tags("li", "script", "template"), marker: "li"},
	"dl":       {allowed: tags("dt", "dd", "div", "script", "template"), marker: "dd"},
	"colgroup": {allowed: tags("col", "template"), marker: "col"},
	"picture":  {allowed: tags("source", "img", "script", "template"), marker: "source"},
}

// CompatibleChildTag returns the stand-in child tag for a constrained
// container, or ok=false when the container accepts arbitrary children.
func CompatibleChildTag(parentTag string) (string, bool) {
	c, ok := constrained[parentTag]
	if !ok {
		return "", false
	}
	return c.marker, true
}

// AllowsChild reports whether an element child with the given tag is
// permitted inside the container. Unconstrained containers allow
// everything.
func AllowsChild(parentTag, childTag string) bool {
	c, ok := constrained[parentTag]
	if !ok {
		return true
	}
	return c.allowed[childTag]
}

// AppendChecked attaches n under parent, raising a structure error when
// the container's content model forbids the node instead of letting the
// markup parser silently drop or relocate it. Text nodes inside
// row/table containers are rejected the same way.
func AppendChecked(parent, n *html.Node) error {
	if err := CheckInsert(parent, n); err != nil {
		return err
	}
	Append(parent, n)
	return nil
}

// CheckInsert validates that n may live directly under parent.
func CheckInsert(parent, n *html.Node) error {
	if parent == nil || n == nil || parent.Type != html.ElementNode {
		return nil
	}
	c, ok := constrained[parent.Data]
	if !ok {
		return nil
	}
	switch n.Type {
	case html.ElementNode:
		if !c.allowed[n.Data] {
			return errors.New("L201").WithDetail("<%s> inside <%s>", n.Data, parent.Data)
		}
	case html.TextNode:
		if !IsWhitespaceText(n) {
			return errors.New("L201").WithDetail("text inside <%s>", parent.Data)
		}
	}
	return nil
}
