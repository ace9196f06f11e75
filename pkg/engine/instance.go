package engine

import (
	"strconv"

	"golang.org/x/net/html"

	"github.com/loom-ui/loom/internal/errors"
	"github.com/loom-ui/loom/pkg/bind"
	"github.com/loom-ui/loom/pkg/cond"
	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/list"
	"github.com/loom-ui/loom/pkg/reactive"
	"github.com/loom-ui/loom/pkg/template"
)

// nodeState is one entry in the instance's node side table: processed
// markers so a directive never re-applies, the errored flag, and the
// node's event handlers.
type nodeState struct {
	processed map[string]bool
	errored   bool
	handlers  map[string]Handler
	id        string
}

// Instance is one rendered component: the live tree plus everything
// wired into it.
type Instance struct {
	Roots []*html.Node

	// Refs, Groups, and Collected expose the template's named nodes.
	Refs      map[string]*html.Node
	Groups    map[string]map[string]*html.Node
	Collected map[string][]*html.Node

	engine *Engine
	view   *template.View
	scope  *reactive.Scope

	states map[*html.Node]*nodeState
	byID   map[string]*html.Node
	nextID int

	bindings []*bind.Binding
	groups   []*cond.Group
	lists    []*list.Reconciler
	children []*Instance
	parent   *Instance

	// updated fires after work the instance scheduled for a later turn
	// completes, currently every list reconcile pass. Live sessions use
	// it to push a patch behind deferred turns.
	updated func()
}

// Render builds the fragment's tree and wires every binding, directive,
// and conditional group. Construction and structure errors abort the
// render; per-node binding failures are logged, the node marked
// errored, and siblings wired normally.
func (e *Engine) Render(f *template.Fragment) (*Instance, error) {
	view, err := f.Build(e.IsDirective)
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		Roots:     view.Roots,
		Refs:      view.Refs,
		Groups:    view.Groups,
		Collected: view.Collected,
		engine:    e,
		view:      view,
		scope:     reactive.NewScope(nil),
		states:    make(map[*html.Node]*nodeState),
		byID:      make(map[string]*html.Node),
	}

	if err := inst.wirePlaceholders(); err != nil {
		return nil, err
	}
	inst.wireTagBindings()
	if err := inst.wireAttrs(); err != nil {
		return nil, err
	}
	if err := inst.wireDirectives(); err != nil {
		return nil, err
	}
	return inst, nil
}

// state returns the side-table entry for a node, creating it on first
// use.
func (inst *Instance) state(n *html.Node) *nodeState {
	st := inst.states[n]
	if st == nil {
		st = &nodeState{
			processed: make(map[string]bool),
			handlers:  make(map[string]Handler),
		}
		inst.states[n] = st
	}
	return st
}

// fail isolates one node's wiring failure: log, mark errored, move on.
func (inst *Instance) fail(n *html.Node, what string, err error) {
	inst.state(n).errored = true
	inst.engine.logger.Error("node wiring failed",
		"directive", what, "node", n.Data, "error", err)
}

// Errored reports whether a directive failure left the node unbound.
func (inst *Instance) Errored(n *html.Node) bool {
	st := inst.states[n]
	return st != nil && st.errored
}

// ensureID assigns the node an addressable id on first use.
func (inst *Instance) ensureID(n *html.Node) string {
	st := inst.state(n)
	if st.id == "" {
		inst.nextID++
		st.id = "n" + strconv.Itoa(inst.nextID)
		inst.byID[st.id] = n
		dom.SetAttr(n, NodeIDAttr, st.id)
	}
	return st.id
}

// NodeID returns the node's assigned id, allocating one if needed.
func (inst *Instance) NodeID(n *html.Node) string {
	return inst.ensureID(n)
}

// wirePlaceholders binds every content placeholder. A nested fragment
// renders as a child instance in place; everything else becomes a
// content-mode binding.
func (inst *Instance) wirePlaceholders() error {
	for _, p := range inst.view.Placeholders {
		if sub, ok := p.Value.(*template.Fragment); ok {
			if err := inst.renderNested(sub, p.Node); err != nil {
				return err
			}
			continue
		}
		b, err := bind.New(bind.Config{
			Source:    p.Value,
			Node:      p.Node,
			Mode:      bind.ModeContent,
			Scheduler: inst.engine.sched,
			Scope:     inst.scope,
			Logger:    inst.engine.logger,
		})
		if err != nil {
			return err
		}
		inst.bindings = append(inst.bindings, b)
	}
	return nil
}

// renderNested renders a child fragment where a placeholder stood.
func (inst *Instance) renderNested(f *template.Fragment, site *html.Node) error {
	child, err := inst.engine.Render(f)
	if err != nil {
		return err
	}
	ref := site
	for _, root := range child.Roots {
		if err := dom.CheckInsert(site.Parent, root); err != nil {
			return err
		}
		dom.InsertAfter(ref, root)
		ref = root
	}
	dom.Detach(site)
	child.parent = inst
	inst.children = append(inst.children, child)
	return nil
}

// OnUpdate registers a callback fired after every deferred-turn update
// (a list reconcile pass in this instance or a nested one).
func (inst *Instance) OnUpdate(fn func()) {
	inst.updated = fn
}

func (inst *Instance) notifyUpdated() {
	if inst.updated != nil {
		inst.updated()
	}
	if inst.parent != nil {
		inst.parent.notifyUpdated()
	}
}

// wireTagBindings applies tag-context values to their elements: a map
// mixes attributes and event handlers; a bare handler wires click.
func (inst *Instance) wireTagBindings() {
	for _, tb := range inst.view.TagBindings {
		if err := inst.applyTagValue(tb.Node, tb.Value); err != nil {
			inst.fail(tb.Node, "tag binding", err)
		}
	}
}

func (inst *Instance) applyTagValue(n *html.Node, v any) error {
	switch val := v.(type) {
	case Handler:
		inst.addHandler(n, "click", val)
	case func(Event):
		inst.addHandler(n, "click", val)
	case map[string]any:
		for key, item := range val {
			if typ, ok := inst.engine.events[key]; ok {
				h, ok := asHandler(item)
				if !ok {
					return errors.New("L101").WithDetail("%s is %T, want a handler", key, item)
				}
				inst.addHandler(n, typ, h)
				continue
			}
			if err := inst.bindAttrSource(n, key, item); err != nil {
				return err
			}
		}
	default:
		return errors.New("L101").WithDetail("tag value %T", v)
	}
	return nil
}

func asHandler(v any) (Handler, bool) {
	switch h := v.(type) {
	case Handler:
		return h, true
	case func(Event):
		return h, true
	case func():
		return func(Event) { h() }, true
	}
	return nil, false
}

func (inst *Instance) addHandler(n *html.Node, eventType string, h Handler) {
	inst.ensureID(n)
	inst.state(n).handlers[eventType] = h
}

// bindAttrSource wires one attribute to one value, static or reactive.
func (inst *Instance) bindAttrSource(n *html.Node, attr string, v any) error {
	b, err := bind.New(bind.Config{
		Source:    v,
		Node:      n,
		Mode:      bind.ModeAttr,
		Attr:      attr,
		Deferred:  bind.DeferredAttr(n.Data, attr),
		Scheduler: inst.engine.sched,
		Scope:     inst.scope,
		Logger:    inst.engine.logger,
	})
	if err != nil {
		return err
	}
	inst.bindings = append(inst.bindings, b)
	return nil
}

// wireAttrs binds every reactive-attribute site. A site whose value is
// exactly one token binds that value directly; composite templates get
// one binding per referenced source, each re-expanding the whole
// template.
func (inst *Instance) wireAttrs() error {
	for _, site := range inst.view.ReactiveAttrs {
		if len(site.Indices) == 1 && site.Template == template.Token(site.Indices[0]) {
			v := inst.view.Values[site.Indices[0]]
			if err := inst.bindAttrSource(site.Node, site.Name, v); err != nil {
				return err
			}
			continue
		}
		if err := inst.wireCompositeAttr(site); err != nil {
			return err
		}
	}
	return nil
}

func (inst *Instance) wireCompositeAttr(site template.AttrSite) error {
	expand := func(any) any {
		return template.ExpandTokens(site.Template, func(i int) string {
			if i >= len(inst.view.Values) {
				return ""
			}
			return dom.CoerceString(resolveValue(inst.view.Values[i]))
		})
	}

	var sources []reactive.Source
	for _, i := range site.Indices {
		if i >= len(inst.view.Values) {
			return errors.New("L103").WithDetail("index %d", i)
		}
		if src, ok := inst.view.Values[i].(reactive.Source); ok {
			sources = append(sources, src)
		}
	}

	if len(sources) == 0 {
		// Fully static template: render once.
		dom.SetAttr(site.Node, site.Name, expand(nil).(string))
		return nil
	}
	for _, src := range sources {
		b, err := bind.New(bind.Config{
			Source:    src,
			Transform: expand,
			Node:      site.Node,
			Mode:      bind.ModeAttr,
			Attr:      site.Name,
			Scheduler: inst.engine.sched,
			Scope:     inst.scope,
			Logger:    inst.engine.logger,
		})
		if err != nil {
			return err
		}
		inst.bindings = append(inst.bindings, b)
	}
	return nil
}

// resolveValue reads a value's current state without subscribing.
func resolveValue(v any) any {
	switch val := v.(type) {
	case reactive.Source:
		return val.Value()
	case func() any:
		return val()
	default:
		return v
	}
}

// Scope returns the instance's ownership scope. Subscriptions tracked
// on it die with the instance.
func (inst *Instance) Scope() *reactive.Scope {
	return inst.scope
}

// Lists returns the instance's list reconcilers in wiring order.
func (inst *Instance) Lists() []*list.Reconciler {
	return inst.lists
}

// ConditionalGroups returns the instance's conditional groups.
func (inst *Instance) ConditionalGroups() []*cond.Group {
	return inst.groups
}

// HTML serializes the instance's current tree.
func (inst *Instance) HTML() (string, error) {
	return dom.RenderString(inst.Roots...)
}

// Dispatch routes one event to the handler registered for the node id,
// posting it to the loop. Unknown targets fail synchronously.
func (inst *Instance) Dispatch(nodeID, eventType string, data map[string]any) error {
	n, ok := inst.byID[nodeID]
	if !ok {
		return errors.New("L402").WithDetail("node %q", nodeID)
	}
	st := inst.states[n]
	if st == nil {
		return errors.New("L402").WithDetail("node %q has no handlers", nodeID)
	}
	h, ok := st.handlers[eventType]
	if !ok {
		return errors.New("L402").WithDetail("%s on node %q", eventType, nodeID)
	}
	inst.engine.sched.Post(func() {
		h(Event{Type: eventType, Node: n, Data: data})
	})
	return nil
}

// Dispose tears the instance down: child instances, reconcilers,
// groups, bindings, and finally the scope.
func (inst *Instance) Dispose() {
	for _, child := range inst.children {
		child.Dispose()
	}
	for _, r := range inst.lists {
		r.Dispose()
	}
	for _, g := range inst.groups {
		g.Dispose()
	}
	for _, b := range inst.bindings {
		b.Dispose()
	}
	inst.scope.Dispose()
}
