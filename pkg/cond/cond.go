// Package cond evaluates groups of mutually exclusive conditional
// blocks. A group is an ordered chain: non-terminal blocks carry a
// primary condition and an optional secondary one consulted only when
// the primary is falsy; an optional terminal block closes the chain.
// Whenever any dependency changes the whole group re-evaluates and the
// first matching block, in declaration order, is the only one shown.
package cond

import (
	"log/slog"

	"golang.org/x/net/html"

	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/reactive"
)

// Condition is one gate: a set of reactive sources plus a combining
// predicate over their current values.
type Condition struct {
	Sources []reactive.Source

	// Combine decides the gate from the sources' current values, in
	// declaration order. When nil, the first value's truthiness decides.
	Combine func(vals []any) bool
}

// Truthy is the default predicate: nil, false, empty string, and zero
// numbers are falsy; everything else is truthy.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	case uint:
		return val != 0
	default:
		return true
	}
}

// When gates on a single source's truthiness.
func When(src reactive.Source) *Condition {
	return &Condition{Sources: []reactive.Source{src}}
}

// WhenFunc gates on a predicate over a single source's value.
func WhenFunc(src reactive.Source, pred func(any) bool) *Condition {
	return &Condition{
		Sources: []reactive.Source{src},
		Combine: func(vals []any) bool { return pred(vals[0]) },
	}
}

// WhenAll gates on an n-ary combiner over several sources' values.
func WhenAll(combine func(vals []any) bool, srcs ...reactive.Source) *Condition {
	return &Condition{Sources: srcs, Combine: combine}
}

func (c *Condition) holds() bool {
	vals := make([]any, len(c.Sources))
	for i, s := range c.Sources {
		vals[i] = s.Value()
	}
	if c.Combine != nil {
		return c.Combine(vals)
	}
	return len(vals) > 0 && Truthy(vals[0])
}

// block is one chain entry. Terminal blocks have no conditions.
type block struct {
	node      *html.Node
	anchor    *html.Node
	primary   *Condition
	secondary *Condition
	terminal  bool
}

// matches reports whether the block should show: primary, or secondary
// when the primary is falsy.
func (b *block) matches() bool {
	if b.terminal {
		return false
	}
	if b.primary != nil && b.primary.holds() {
		return true
	}
	return b.secondary != nil && b.secondary.holds()
}

// Group is a live conditional chain. Construction order is declaration
// order; ties break strictly first-declared-wins.
type Group struct {
	id     uint64
	blocks []*block
	subs   map[uint64]*reactive.Subscription
	scope  *reactive.Scope
	logger *slog.Logger
	active *html.Node
	sealed bool
}

// NewGroup creates an empty group. Blocks are added in declaration
// order, then Seal subscribes and runs the first evaluation.
func NewGroup(scope *reactive.Scope, logger *slog.Logger) *Group {
	if logger == nil {
		logger = slog.Default()
	}
	return &Group{
		id:     reactive.NextID(),
		subs:   make(map[uint64]*reactive.Subscription),
		scope:  scope,
		logger: logger,
	}
}

// Add appends a non-terminal block. secondary may be nil.
func (g *Group) Add(node *html.Node, primary, secondary *Condition) *Group {
	g.append(&block{node: node, primary: primary, secondary: secondary})
	return g
}

// AddElse appends the terminal block shown when nothing else matched.
func (g *Group) AddElse(node *html.Node) *Group {
	g.append(&block{node: node, terminal: true})
	return g
}

func (g *Group) append(b *block) {
	// The anchor keeps the block's tree position while it is hidden.
	b.anchor = dom.Anchor("loom-cond")
	if b.node.Parent != nil {
		b.node.Parent.InsertBefore(b.anchor, b.node)
	}
	g.blocks = append(g.blocks, b)
}

// Seal subscribes the group to every condition source, deduplicated by
// source identity, and evaluates once.
func (g *Group) Seal() *Group {
	g.sealed = true
	for _, b := range g.blocks {
		for _, c := range []*Condition{b.primary, b.secondary} {
			if c == nil {
				continue
			}
			for _, src := range c.Sources {
				if _, ok := g.subs[src.ID()]; ok {
					continue
				}
				sub := src.Subscribe(g)
				if g.scope != nil {
					g.scope.Track(sub)
				}
				g.subs[src.ID()] = sub
			}
		}
	}
	g.Evaluate()
	return g
}

// ID implements reactive.Subscriber.
func (g *Group) ID() uint64 { return g.id }

// Stale ties the group's registry liveness to its owning scope.
func (g *Group) Stale() bool {
	return g.scope != nil && g.scope.IsDisposed()
}

// Invalidate implements reactive.Subscriber: any dependency change
// re-evaluates the whole group.
func (g *Group) Invalidate(reactive.Mutation) {
	if g.Stale() {
		return
	}
	g.Evaluate()
}

// Evaluate hides every block, then shows the first whose condition
// holds, the terminal block when none did, or nothing at all.
func (g *Group) Evaluate() {
	for _, b := range g.blocks {
		g.hide(b)
	}
	g.active = nil

	var terminal *block
	for _, b := range g.blocks {
		if b.terminal {
			if terminal == nil {
				terminal = b
			}
			continue
		}
		if b.matches() {
			g.show(b)
			return
		}
	}
	if terminal != nil {
		g.show(terminal)
	}
}

// Active returns the currently shown block's node, or nil.
func (g *Group) Active() *html.Node {
	return g.active
}

func (g *Group) hide(b *block) {
	dom.Detach(b.node)
}

func (g *Group) show(b *block) {
	if b.anchor.Parent != nil {
		dom.InsertAfter(b.anchor, b.node)
	}
	g.active = b.node
}

// Dispose closes every source subscription.
func (g *Group) Dispose() {
	for _, sub := range g.subs {
		sub.Close()
	}
}
