package engine

import (
	"time"

	"golang.org/x/net/html"

	"github.com/loom-ui/loom/internal/errors"
	"github.com/loom-ui/loom/pkg/cond"
	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/list"
	"github.com/loom-ui/loom/pkg/reactive"
	"github.com/loom-ui/loom/pkg/template"
)

// Each configures the list directive.
type Each struct {
	// List is the upstream: a collection, or a derived value resolving
	// to one. Required.
	List any

	// Compose builds one item's node. Required.
	Compose list.Compose

	// Debounce coalesces upstream bursts. Zero coalesces to the next
	// loop turn.
	Debounce time.Duration

	// Range restricts rendering to [Start, End) of the collection.
	Range *list.Window

	// Offset shifts the range.
	Offset int

	// Filter keeps only matching items, applied after the range.
	Filter func(item any) bool

	// After runs at the end of every reconciliation pass.
	After func()

	// Key extracts item identity. Defaults to the item value itself.
	Key func(item any) any
}

// condKind discriminates conditional block roles.
type condKind uint8

const (
	specIf condKind = iota
	specElif
	specElse
)

// condSpec is one conditional block collected during directive
// processing, assembled into a group afterwards.
type condSpec struct {
	node      *html.Node
	kind      condKind
	primary   *cond.Condition
	secondary *cond.Condition
}

// wireDirectives processes every directive site once per node and
// attribute, then assembles conditional chains. Construction errors
// abort; anything else isolates to the node.
func (inst *Instance) wireDirectives() error {
	specs := make(map[*html.Node]*condSpec)
	var order []*condSpec

	for _, site := range inst.view.Directives {
		st := inst.state(site.Node)
		if st.processed[site.Name] {
			continue
		}
		st.processed[site.Name] = true

		value := inst.soleValue(site)
		err := inst.applyDirective(site, value, specs, &order)
		dom.RemoveAttr(site.Node, site.Name)
		if err == nil {
			continue
		}
		if errors.IsConstruction(err) || errors.IsStructure(err) {
			return err
		}
		inst.fail(site.Node, site.Name, err)
	}

	inst.assembleConditionals(specs, order)
	return nil
}

// soleValue resolves the single interpolated value a directive
// attribute references, or nil.
func (inst *Instance) soleValue(site template.DirectiveSite) any {
	idx := template.SoleIndex(site.Raw)
	if idx < 0 || idx >= len(inst.view.Values) {
		return nil
	}
	return inst.view.Values[idx]
}

func (inst *Instance) applyDirective(site template.DirectiveSite, value any, specs map[*html.Node]*condSpec, order *[]*condSpec) error {
	switch site.Name {
	case DirIf, DirElif:
		c, err := conditionFor(value)
		if err != nil {
			return err
		}
		kind := specIf
		if site.Name == DirElif {
			kind = specElif
		}
		inst.noteCond(specs, order, site.Node, kind, func(s *condSpec) { s.primary = c })
		return nil

	case DirElse:
		inst.noteCond(specs, order, site.Node, specElse, func(*condSpec) {})
		return nil

	case DirOr:
		c, err := conditionFor(value)
		if err != nil {
			return err
		}
		inst.noteCond(specs, order, site.Node, specIf, func(s *condSpec) { s.secondary = c })
		return nil

	case DirEach:
		return inst.wireEach(site.Node, value)
	}

	if typ, ok := inst.engine.events[site.Name]; ok {
		h, ok := asHandler(value)
		if !ok {
			return errors.New("L101").WithDetail("%s value is %T, want a handler", site.Name, value)
		}
		inst.addHandler(site.Node, typ, h)
		return nil
	}

	if fn, ok := inst.engine.directives[site.Name]; ok {
		return fn(&DirectiveContext{
			Instance: inst,
			Node:     site.Node,
			Name:     site.Name,
			Raw:      site.Raw,
			Value:    value,
		})
	}
	return errors.New("L102").WithDetail("%s", site.Name)
}

// noteCond records or updates a node's conditional spec. An inline "or"
// may be seen before or after the node's primary directive, so the
// kind set by the primary wins.
func (inst *Instance) noteCond(specs map[*html.Node]*condSpec, order *[]*condSpec, n *html.Node, kind condKind, set func(*condSpec)) {
	s := specs[n]
	if s == nil {
		s = &condSpec{node: n, kind: kind}
		specs[n] = s
		*order = append(*order, s)
	} else if s.kind == specIf && kind != specIf {
		s.kind = kind
	}
	set(s)
}

// conditionFor turns a directive's interpolated value into a condition:
// a prepared condition passes through, a reactive source gates on its
// truthiness, a nullary predicate is re-evaluated per group pass, and a
// literal is a fixed gate.
func conditionFor(v any) (*cond.Condition, error) {
	switch val := v.(type) {
	case *cond.Condition:
		return val, nil
	case reactive.Source:
		return cond.When(val), nil
	case func() bool:
		return &cond.Condition{Combine: func([]any) bool { return val() }}, nil
	default:
		fixed := cond.Truthy(v)
		return &cond.Condition{Combine: func([]any) bool { return fixed }}, nil
	}
}

// wireEach validates the list directive's configuration and builds its
// reconciler with the node as the container.
func (inst *Instance) wireEach(n *html.Node, value any) error {
	var cfg Each
	switch v := value.(type) {
	case Each:
		cfg = v
	case *Each:
		if v == nil {
			return errors.New("L003").WithDetail("each config")
		}
		cfg = *v
	default:
		return errors.New("L003").WithDetail("%s wants an Each config, got %T", DirEach, value)
	}
	if cfg.List == nil {
		return errors.New("L003").WithDetail("list")
	}
	if cfg.Compose == nil {
		return errors.New("L003").WithDetail("compose")
	}

	after := cfg.After
	r, err := list.New(list.Config{
		Source:    cfg.List,
		Compose:   cfg.Compose,
		Container: n,
		Key:       cfg.Key,
		Debounce:  cfg.Debounce,
		Window:    cfg.Range,
		Offset:    cfg.Offset,
		Filter:    cfg.Filter,
		After: func() {
			if after != nil {
				after()
			}
			inst.notifyUpdated()
		},
		Scheduler: inst.engine.sched,
		Scope:     inst.scope,
		Logger:    inst.engine.logger,
	})
	if err != nil {
		return err
	}
	inst.lists = append(inst.lists, r)
	return nil
}

// assembleConditionals chains blocks into groups: an establishing block
// starts a chain; elif and else blocks attach to the nearest preceding
// sibling already in a chain. Orphans are isolated as binding failures.
func (inst *Instance) assembleConditionals(specs map[*html.Node]*condSpec, order []*condSpec) {
	chains := make(map[*html.Node][]*condSpec)
	owner := make(map[*html.Node]*html.Node)
	var heads []*html.Node

	for _, s := range order {
		if s.kind == specIf {
			chains[s.node] = []*condSpec{s}
			owner[s.node] = s.node
			heads = append(heads, s.node)
			continue
		}

		head := inst.findChainHead(s.node, owner)
		if head == nil {
			inst.fail(s.node, "conditional chain", errors.New("L004"))
			continue
		}
		chains[head] = append(chains[head], s)
		owner[s.node] = head
	}

	for _, head := range heads {
		g := cond.NewGroup(inst.scope, inst.engine.logger)
		for _, s := range chains[head] {
			if s.kind == specElse {
				g.AddElse(s.node)
			} else {
				g.Add(s.node, s.primary, s.secondary)
			}
		}
		g.Seal()
		inst.groups = append(inst.groups, g)
	}
}

// findChainHead walks backward through preceding element siblings to
// the nearest block already belonging to a chain. Any other element in
// between breaks the chain.
func (inst *Instance) findChainHead(n *html.Node, owner map[*html.Node]*html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type != html.ElementNode {
			continue
		}
		if head, ok := owner[s]; ok {
			return head
		}
		return nil
	}
	return nil
}
