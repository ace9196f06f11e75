package cond

import (
	"testing"

	"golang.org/x/net/html"

	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/reactive"
)

// chain builds a parent with n attached child blocks.
func chain(n int) (parent *html.Node, blocks []*html.Node) {
	parent = dom.Element("div")
	for i := 0; i < n; i++ {
		b := dom.Element("section")
		dom.SetAttr(b, "id", string(rune('a'+i)))
		dom.Append(parent, b)
		blocks = append(blocks, b)
	}
	return parent, blocks
}

func attached(parent *html.Node) []*html.Node {
	return dom.ChildElements(parent)
}

func TestGroupShowsFirstTruthyBlock(t *testing.T) {
	parent, blocks := chain(3)
	a := reactive.NewCell(false)
	b := reactive.NewCell(true)

	g := NewGroup(nil, nil).
		Add(blocks[0], When(a), nil).
		Add(blocks[1], When(b), nil).
		AddElse(blocks[2]).
		Seal()

	got := attached(parent)
	if len(got) != 1 || got[0] != blocks[1] {
		t.Errorf("attached = %v", got)
	}
	if g.Active() != blocks[1] {
		t.Error("active pointer disagrees with tree")
	}
}

func TestGroupFallsThroughToElse(t *testing.T) {
	parent, blocks := chain(3)
	a := reactive.NewCell(false)
	b := reactive.NewCell(false)

	NewGroup(nil, nil).
		Add(blocks[0], When(a), nil).
		Add(blocks[1], When(b), nil).
		AddElse(blocks[2]).
		Seal()

	got := attached(parent)
	if len(got) != 1 || got[0] != blocks[2] {
		t.Errorf("attached = %v", got)
	}
}

func TestGroupNoElseAllFalseShowsNothing(t *testing.T) {
	parent, blocks := chain(2)
	a := reactive.NewCell(false)
	b := reactive.NewCell(false)

	g := NewGroup(nil, nil).
		Add(blocks[0], When(a), nil).
		Add(blocks[1], When(b), nil).
		Seal()

	if got := attached(parent); len(got) != 0 {
		t.Errorf("attached = %v", got)
	}
	if g.Active() != nil {
		t.Error("active should be nil")
	}
}

func TestGroupFirstDeclaredWins(t *testing.T) {
	parent, blocks := chain(2)
	a := reactive.NewCell(true)
	b := reactive.NewCell(true)

	NewGroup(nil, nil).
		Add(blocks[0], When(a), nil).
		Add(blocks[1], When(b), nil).
		Seal()

	got := attached(parent)
	if len(got) != 1 || got[0] != blocks[0] {
		t.Errorf("attached = %v", got)
	}
}

func TestGroupReEvaluatesOnChange(t *testing.T) {
	parent, blocks := chain(3)
	a := reactive.NewCell(true)
	b := reactive.NewCell(false)

	g := NewGroup(nil, nil).
		Add(blocks[0], When(a), nil).
		Add(blocks[1], When(b), nil).
		AddElse(blocks[2]).
		Seal()

	a.Set(false)
	if got := attached(parent); len(got) != 1 || got[0] != blocks[2] {
		t.Errorf("after a=false: %v", got)
	}

	b.Set(true)
	if got := attached(parent); len(got) != 1 || got[0] != blocks[1] {
		t.Errorf("after b=true: %v", got)
	}

	a.Set(true)
	if got := attached(parent); len(got) != 1 || got[0] != blocks[0] {
		t.Errorf("after a=true: %v", got)
	}
	if g.Active() != blocks[0] {
		t.Error("active pointer stale")
	}
}

func TestGroupSecondaryOrCondition(t *testing.T) {
	parent, blocks := chain(1)
	primary := reactive.NewCell(false)
	fallback := reactive.NewCell(true)

	NewGroup(nil, nil).
		Add(blocks[0], When(primary), When(fallback)).
		Seal()

	if got := attached(parent); len(got) != 1 {
		t.Fatalf("secondary did not show block: %v", got)
	}

	// Secondary only matters while the primary is falsy.
	fallback.Set(false)
	if got := attached(parent); len(got) != 0 {
		t.Errorf("block still shown: %v", got)
	}

	primary.Set(true)
	if got := attached(parent); len(got) != 1 {
		t.Errorf("primary did not show block: %v", got)
	}
}

func TestGroupNAryCombiner(t *testing.T) {
	parent, blocks := chain(1)
	x := reactive.NewCell(2)
	y := reactive.NewCell(3)

	both := func(vals []any) bool {
		return vals[0].(int) > 0 && vals[1].(int) > 0
	}
	NewGroup(nil, nil).
		Add(blocks[0], WhenAll(both, x, y), nil).
		Seal()

	if got := attached(parent); len(got) != 1 {
		t.Fatalf("combiner did not show block: %v", got)
	}

	y.Set(0)
	if got := attached(parent); len(got) != 0 {
		t.Errorf("block still shown: %v", got)
	}
}

func TestGroupPredicateCondition(t *testing.T) {
	parent, blocks := chain(1)
	n := reactive.NewCell(5)

	NewGroup(nil, nil).
		Add(blocks[0], WhenFunc(n, func(v any) bool { return v.(int) > 10 }), nil).
		Seal()

	if got := attached(parent); len(got) != 0 {
		t.Fatalf("predicate should fail: %v", got)
	}
	n.Set(11)
	if got := attached(parent); len(got) != 1 {
		t.Errorf("predicate should pass: %v", got)
	}
}

func TestGroupSubscribesEachSourceOnce(t *testing.T) {
	_, blocks := chain(2)
	shared := reactive.NewCell(true)

	NewGroup(nil, nil).
		Add(blocks[0], When(shared), nil).
		Add(blocks[1], When(shared), nil).
		Seal()

	if n := shared.Subscribers(); n != 1 {
		t.Errorf("subscribers = %d, want 1", n)
	}
}

func TestGroupScopeDisposalStopsEvaluation(t *testing.T) {
	parent, blocks := chain(2)
	a := reactive.NewCell(true)
	scope := reactive.NewScope(nil)

	NewGroup(scope, nil).
		Add(blocks[0], When(a), nil).
		AddElse(blocks[1]).
		Seal()

	scope.Dispose()
	a.Set(false)

	// The tree stays as last evaluated; no else swap after disposal.
	got := attached(parent)
	if len(got) != 1 || got[0] != blocks[0] {
		t.Errorf("attached after dispose = %v", got)
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    any
		want bool
	}{
		{nil, false}, {false, false}, {true, true},
		{"", false}, {"x", true},
		{0, false}, {7, true}, {int64(0), false},
		{0.0, false}, {0.5, true},
		{struct{}{}, true},
	}
	for _, c := range cases {
		if got := Truthy(c.v); got != c.want {
			t.Errorf("Truthy(%#v) = %v", c.v, got)
		}
	}
}
