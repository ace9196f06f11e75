package dom

import "testing"

func TestReplaceWith(t *testing.T) {
	parent := Element("div")
	old := Element("span")
	Append(parent, old)

	repl := Element("b")
	ReplaceWith(old, repl)

	if parent.FirstChild != repl || repl.NextSibling != nil {
		t.Errorf("replacement not in place")
	}
	if old.Parent != nil {
		t.Errorf("old node still attached")
	}
}

func TestInsertAfter(t *testing.T) {
	parent := Element("div")
	a := Element("a")
	c := Element("c")
	Append(parent, a)
	Append(parent, c)

	b := Element("b")
	InsertAfter(a, b)

	var order []string
	for n := parent.FirstChild; n != nil; n = n.NextSibling {
		order = append(order, n.Data)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("order = %v", order)
	}

	// Insert after the last child.
	d := Element("d")
	InsertAfter(c, d)
	if parent.LastChild != d {
		t.Errorf("expected d last")
	}
}

func TestAttrHelpers(t *testing.T) {
	n := Element("div")

	SetAttr(n, "class", "a")
	SetAttr(n, "class", "b")
	if v, _ := Attr(n, "class"); v != "b" {
		t.Errorf("class = %q", v)
	}
	if len(n.Attr) != 1 {
		t.Errorf("SetAttr duplicated the attribute: %v", n.Attr)
	}

	RemoveAttr(n, "class")
	if HasAttr(n, "class") {
		t.Errorf("attribute not removed")
	}
}

func TestSlotMarker(t *testing.T) {
	n := Element("li")

	if _, ok := Slot(n); ok {
		t.Errorf("unexpected slot on fresh element")
	}
	SetSlot(n, 7)
	if i, ok := Slot(n); !ok || i != 7 {
		t.Errorf("Slot = %d,%v", i, ok)
	}
}

func TestSetTextContent(t *testing.T) {
	n := Element("p")
	n.AppendChild(Text("old"))
	n.AppendChild(Element("b"))

	SetTextContent(n, "new")
	if TextContent(n) != "new" {
		t.Errorf("text = %q", TextContent(n))
	}
	if n.FirstChild == nil || n.FirstChild.NextSibling != nil {
		t.Errorf("expected a single text child")
	}
}

func TestDetachTolerantOfDetached(t *testing.T) {
	n := Element("div")
	Detach(n) // no parent: must not panic
	if IsAttached(n) {
		t.Errorf("detached node reports attached")
	}
}
