// Package bind attaches one reactive source, with an optional transform,
// to one render target. The source's shape is classified once, at bind
// time, into a closed variant; every later notification re-renders
// exactly this binding's target and nothing else.
//
// Content-mode bindings track the node run they currently have in the
// tree behind a stable anchor comment. Re-rendering swaps that run, not
// the original placeholder, and an empty value leaves only the anchor.
package bind

import (
	"log/slog"

	"golang.org/x/net/html"

	"github.com/loom-ui/loom/internal/errors"
	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/loop"
	"github.com/loom-ui/loom/pkg/reactive"
)

// Mode selects the render target shape.
type Mode uint8

const (
	// ModeContent replaces a placeholder site with rendered nodes.
	ModeContent Mode = iota

	// ModeText sets the target element's text content.
	ModeText

	// ModeAttr sets one attribute on the target element.
	ModeAttr
)

// String returns the string representation of the Mode.
func (m Mode) String() string {
	switch m {
	case ModeContent:
		return "Content"
	case ModeText:
		return "Text"
	case ModeAttr:
		return "Attr"
	default:
		return "Unknown"
	}
}

// kind is the source classification, decided once at bind time.
type kind uint8

const (
	kindStatic kind = iota // plain value, rendered once
	kindFunc               // argument-less producer, re-invoked per render
	kindScalar             // cell or derived value
	kindList               // collection
)

// Transform maps a source value to the value actually rendered.
type Transform func(any) any

// Config describes one binding.
type Config struct {
	// Source is the bound value: a literal, func() any, Source, or
	// ListSource.
	Source any

	// Transform, when set, maps the resolved source value before
	// coercion.
	Transform Transform

	// Node is the target: the placeholder element for content mode, the
	// owning element for text and attribute modes.
	Node *html.Node

	Mode Mode

	// Attr is the attribute name for ModeAttr.
	Attr string

	// Deferred delays the initial render by one scheduler turn. Used for
	// form-control value attributes whose displayed state depends on the
	// element being attached first.
	Deferred bool

	// Scheduler runs deferred initial renders. Required when Deferred.
	Scheduler loop.Scheduler

	// Scope, when set, owns the subscription: disposing the scope makes
	// the binding stale without an explicit Dispose.
	Scope *reactive.Scope

	// Logger receives notification-time render failures. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Binding is one live source-to-target attachment.
type Binding struct {
	id        uint64
	kind      kind
	src       reactive.Source
	list      reactive.ListSource
	static    any
	fn        func() any
	transform Transform

	mode Mode
	node *html.Node
	attr string

	// anchor holds the content site's position; current is the node run
	// rendered behind it.
	anchor  *html.Node
	current []*html.Node

	scope  *reactive.Scope
	sub    *reactive.Subscription
	logger *slog.Logger
	closed bool
}

// New wires a binding per cfg: classify the source, render once
// (immediately or one turn later when cfg.Deferred), then subscribe.
func New(cfg Config) (*Binding, error) {
	if cfg.Node == nil {
		return nil, errors.New("L003").WithDetail("binding target node")
	}
	if cfg.Mode == ModeAttr && cfg.Attr == "" {
		return nil, errors.New("L003").WithDetail("attribute name")
	}

	b := &Binding{
		id:        reactive.NextID(),
		transform: cfg.Transform,
		mode:      cfg.Mode,
		node:      cfg.Node,
		attr:      cfg.Attr,
		scope:     cfg.Scope,
		logger:    cfg.Logger,
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}

	switch src := cfg.Source.(type) {
	case reactive.ListSource:
		b.kind, b.list, b.src = kindList, src, src
	case reactive.Source:
		b.kind, b.src = kindScalar, src
	case func() any:
		b.kind, b.fn = kindFunc, src
	default:
		b.kind, b.static = kindStatic, src
	}

	if b.mode == ModeContent {
		b.anchor = dom.Anchor("loom")
		dom.ReplaceWith(b.node, b.anchor)
	}

	if cfg.Deferred && cfg.Scheduler != nil {
		cfg.Scheduler.Post(func() {
			if err := b.render(); err != nil {
				b.logger.Error("deferred render failed", "binding", b.id, "error", err)
			}
		})
	} else if err := b.render(); err != nil {
		return nil, err
	}

	if b.src != nil {
		sub := b.src.Subscribe(b)
		if b.scope != nil {
			b.scope.Track(sub)
		}
		b.sub = sub
	}
	return b, nil
}

// ID implements reactive.Subscriber.
func (b *Binding) ID() uint64 { return b.id }

// Stale reports whether the binding's owning scope is gone; the registry
// prunes stale subscribers without an explicit unsubscribe.
func (b *Binding) Stale() bool {
	return b.closed || (b.scope != nil && b.scope.IsDisposed())
}

// Invalidate implements reactive.Subscriber: one notification, one
// re-render of this binding's target.
func (b *Binding) Invalidate(reactive.Mutation) {
	if b.Stale() {
		return
	}
	if err := b.render(); err != nil {
		b.logger.Error("render failed", "binding", b.id, "mode", b.mode.String(), "error", err)
	}
}

// Refresh forces a re-render outside any notification.
func (b *Binding) Refresh() error {
	return b.render()
}

// Dispose closes the subscription and marks the binding inert. Rendered
// nodes stay in the tree.
func (b *Binding) Dispose() {
	b.closed = true
	if b.sub != nil {
		b.sub.Close()
	}
}

// resolve reads the current source value and applies the transform.
func (b *Binding) resolve() any {
	var v any
	switch b.kind {
	case kindStatic:
		v = b.static
	case kindFunc:
		v = b.fn()
	case kindScalar:
		v = b.src.Value()
	case kindList:
		v = b.list.Values()
	}
	if b.transform != nil {
		v = b.transform(v)
	}
	return v
}

func (b *Binding) render() error {
	switch b.mode {
	case ModeContent:
		return b.renderContent()
	case ModeText:
		dom.SetTextContent(b.node, dom.CoerceString(b.resolve()))
		return nil
	case ModeAttr:
		pv := dom.Coerce(b.resolve())
		if pv.IsEmpty() {
			dom.RemoveAttr(b.node, b.attr)
		} else {
			dom.SetAttr(b.node, b.attr, dom.CoerceString(pv))
		}
		return nil
	}
	return nil
}

// renderContent swaps the tracked node run behind the anchor for the
// newly coerced one. Empty detaches the run and leaves the anchor alone.
func (b *Binding) renderContent() error {
	fresh := b.placeableNodes()

	if b.anchor.Parent != nil {
		for _, n := range fresh {
			if err := dom.CheckInsert(b.anchor.Parent, n); err != nil {
				return err
			}
		}
	}

	for _, n := range b.current {
		dom.Detach(n)
	}
	b.current = fresh

	ref := b.anchor
	for _, n := range fresh {
		dom.InsertAfter(ref, n)
		ref = n
	}
	return nil
}

// placeableNodes coerces the resolved value into detached nodes. A list
// source renders each item in order as one fragment.
func (b *Binding) placeableNodes() []*html.Node {
	if b.kind == kindList && b.transform == nil {
		var out []*html.Node
		for _, item := range b.list.Values() {
			out = append(out, dom.Coerce(item).AsNodes()...)
		}
		return out
	}
	return dom.Coerce(b.resolve()).AsNodes()
}

// DeferredAttr reports whether an attribute on the given element needs
// its initial render deferred one turn, because the displayed state
// depends on the element being attached first.
func DeferredAttr(tag, attr string) bool {
	switch tag {
	case "input", "textarea":
		return attr == "value" || attr == "checked"
	case "select":
		return attr == "value"
	case "option":
		return attr == "selected"
	}
	return false
}
