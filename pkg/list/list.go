// Package list reconciles a reactive collection against a set of
// rendered elements. The attached-element set always matches the current
// target view of the collection: window slice first, then filter, with
// an item-to-element map kept consistent in both directions so elements
// are reused rather than rebuilt as the view shifts. Upstream bursts are
// coalesced into one debounced pass per interval.
package list

import (
	"log/slog"
	"time"

	"golang.org/x/net/html"

	"github.com/loom-ui/loom/internal/errors"
	"github.com/loom-ui/loom/pkg/dom"
	"github.com/loom-ui/loom/pkg/loop"
	"github.com/loom-ui/loom/pkg/reactive"
)

// Compose builds the rendered node for one item. The result goes
// through the placeable coercion; an empty result skips the item.
type Compose func(item any) any

// Window restricts rendering to the [Start, End) index range of the
// collection, before the filter applies.
type Window struct {
	Start int
	End   int
}

// Config describes one reconciler.
type Config struct {
	// Source drives the reconciler: a collection, or a derived value
	// resolving to one. nil renders an empty list until switched.
	Source any

	// Compose is required.
	Compose Compose

	// Container receives the rendered elements.
	Container *html.Node

	// Key extracts the item identity used by the item-to-element map.
	// Defaults to the item value itself, which must then be comparable.
	Key func(item any) any

	// Debounce is the coalescing interval for upstream bursts. Zero
	// still coalesces, to the next scheduler turn.
	Debounce time.Duration

	Window *Window
	Offset int

	// Filter keeps only matching items, applied after the window.
	Filter func(item any) bool

	// After runs at the end of every reconciliation pass.
	After func()

	// Scheduler is required; it owns debouncing.
	Scheduler loop.Scheduler

	Scope  *reactive.Scope
	Logger *slog.Logger
}

// Reconciler keeps a container's children in sync with its upstream.
type Reconciler struct {
	compose Compose
	keyOf   func(any) any
	filter  func(any) bool
	after   func()

	container *html.Node
	window    *Window
	offset    int

	upstream reactive.ListSource
	derived  reactive.Source

	byKey  map[any]*html.Node
	keyFor map[*html.Node]any

	debounce time.Duration
	sched    loop.Scheduler
	timer    *loop.Timer
	pending  bool

	soloKey    any
	soloActive bool

	upstreamSub *reactive.Subscription
	derivedSub  *reactive.Subscription

	scope    *reactive.Scope
	logger   *slog.Logger
	disposed bool
}

// relay adapts one source's notifications onto a reconciler method, so
// the derived wrapper and the resolved collection stay distinguishable.
type relay struct {
	id uint64
	r  *Reconciler
	fn func(reactive.Mutation)
}

func (s *relay) ID() uint64                     { return s.id }
func (s *relay) Invalidate(mu reactive.Mutation) { s.fn(mu) }
func (s *relay) Stale() bool                    { return s.r.Stale() }

// New validates the configuration, resolves the upstream, subscribes,
// and runs the first pass synchronously.
func New(cfg Config) (*Reconciler, error) {
	if cfg.Compose == nil {
		return nil, errors.New("L003").WithDetail("compose")
	}
	if cfg.Container == nil {
		return nil, errors.New("L003").WithDetail("container")
	}
	if cfg.Scheduler == nil {
		return nil, errors.New("L003").WithDetail("scheduler")
	}

	r := &Reconciler{
		compose:   cfg.Compose,
		keyOf:     cfg.Key,
		filter:    cfg.Filter,
		after:     cfg.After,
		container: cfg.Container,
		window:    cfg.Window,
		offset:    cfg.Offset,
		byKey:     make(map[any]*html.Node),
		keyFor:    make(map[*html.Node]any),
		debounce:  cfg.Debounce,
		sched:     cfg.Scheduler,
		scope:     cfg.Scope,
		logger:    cfg.Logger,
	}
	if r.keyOf == nil {
		r.keyOf = func(item any) any { return item }
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	switch src := cfg.Source.(type) {
	case nil:
		// Empty until a derived upstream delivers one.
	case reactive.ListSource:
		r.upstream = src
	case reactive.Source:
		r.derived = src
		if err := r.resolveDerived(); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("L002").WithDetail("%T", cfg.Source)
	}

	if r.derived != nil {
		sub := r.derived.Subscribe(&relay{
			id: reactive.NextID(),
			r:  r,
			fn: func(reactive.Mutation) { r.switchUpstream() },
		})
		r.track(sub)
		r.derivedSub = sub
	}
	r.subscribeUpstream()

	return r, r.Reconcile()
}

// resolveDerived reads the derivation's current value into the resolved
// upstream. A nil result means empty; anything else must be a
// collection.
func (r *Reconciler) resolveDerived() error {
	v := r.derived.Value()
	if v == nil {
		r.upstream = nil
		return nil
	}
	ls, ok := v.(reactive.ListSource)
	if !ok {
		return errors.New("L002").WithDetail("derivation yielded %T", v)
	}
	r.upstream = ls
	return nil
}

func (r *Reconciler) subscribeUpstream() {
	if r.upstream == nil {
		return
	}
	sub := r.upstream.Subscribe(&relay{
		id: reactive.NextID(),
		r:  r,
		fn: func(reactive.Mutation) { r.schedule() },
	})
	r.track(sub)
	r.upstreamSub = sub
}

func (r *Reconciler) track(sub *reactive.Subscription) {
	if r.scope != nil {
		r.scope.Track(sub)
	}
}

// switchUpstream swaps the resolved collection under a derived source:
// unsubscribe the old, resolve the new, resubscribe, reconcile.
func (r *Reconciler) switchUpstream() {
	if r.upstreamSub != nil {
		r.upstreamSub.Close()
		r.upstreamSub = nil
	}
	if err := r.resolveDerived(); err != nil {
		r.logger.Error("upstream switch failed", "error", err)
		r.upstream = nil
	}
	r.subscribeUpstream()
	r.schedule()
}

// Stale ties registry liveness to the owning scope.
func (r *Reconciler) Stale() bool {
	return r.disposed || (r.scope != nil && r.scope.IsDisposed())
}

// schedule arranges one reconciliation pass, coalescing bursts: with a
// debounce interval each new notification restarts the timer; with a
// zero interval the pass runs on the next scheduler turn.
func (r *Reconciler) schedule() {
	if r.Stale() {
		return
	}
	if r.debounce <= 0 {
		if r.pending {
			return
		}
		r.pending = true
		r.sched.Post(r.run)
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = r.sched.After(r.debounce, r.run)
}

func (r *Reconciler) run() {
	r.pending = false
	r.timer = nil
	if r.Stale() {
		return
	}
	if err := r.Reconcile(); err != nil {
		r.logger.Error("reconciliation failed", "error", err)
	}
}

// items returns the upstream's full item list.
func (r *Reconciler) items() []any {
	if r.upstream == nil {
		return nil
	}
	return r.upstream.Values()
}

// target computes the item view actually rendered: solo short-circuits
// the pipeline; otherwise window slice with offset, then filter.
func (r *Reconciler) target() []any {
	all := r.items()

	if r.soloActive {
		for _, item := range all {
			if r.keyOf(item) == r.soloKey {
				return []any{item}
			}
		}
		return nil
	}

	if r.window != nil {
		start := clamp(r.window.Start+r.offset, 0, len(all))
		end := clamp(r.window.End+r.offset, start, len(all))
		all = all[start:end]
	}
	if r.filter == nil {
		return all
	}
	var kept []any
	for _, item := range all {
		if r.filter(item) {
			kept = append(kept, item)
		}
	}
	return kept
}

// Reconcile runs one pass synchronously: detach leavers, attach or
// reuse per target item in order, stamp slot markers, prune map entries
// for items gone from the upstream entirely.
func (r *Reconciler) Reconcile() error {
	target := r.target()

	inTarget := make(map[any]bool, len(target))
	for _, item := range target {
		inTarget[r.keyOf(item)] = true
	}

	// Leavers are detached but kept in the map while their item is still
	// in the collection, so a window shift back reuses them.
	for key, el := range r.byKey {
		if !inTarget[key] {
			dom.Detach(el)
		}
	}

	for i, item := range target {
		key := r.keyOf(item)
		el := r.byKey[key]
		if el == nil {
			built, err := r.build(item)
			if err != nil {
				return err
			}
			if built == nil {
				continue
			}
			el = built
			r.byKey[key] = el
			r.keyFor[el] = key
		}
		if !dom.IsAttached(el) {
			if err := dom.AppendChecked(r.container, el); err != nil {
				return err
			}
		}
		dom.SetSlot(el, i)
	}

	r.prune()

	if r.after != nil {
		r.after()
	}
	return nil
}

// build composes one item's element. Empty results render nothing; the
// item-to-element map needs exactly one node per item, so multi-node
// fragments are rejected.
func (r *Reconciler) build(item any) (*html.Node, error) {
	nodes := dom.Coerce(r.compose(item)).AsNodes()
	switch len(nodes) {
	case 0:
		return nil, nil
	case 1:
		return nodes[0], nil
	default:
		return nil, errors.New("L006").
			WithDetail("compose produced %d nodes for one item", len(nodes))
	}
}

// prune drops map entries whose item has left the collection for good.
func (r *Reconciler) prune() {
	live := make(map[any]bool)
	for _, item := range r.items() {
		live[r.keyOf(item)] = true
	}
	for key, el := range r.byKey {
		if !live[key] {
			dom.Detach(el)
			delete(r.byKey, key)
			delete(r.keyFor, el)
		}
	}
}

// Element returns the rendered element for an item key.
func (r *Reconciler) Element(key any) (*html.Node, bool) {
	el, ok := r.byKey[key]
	return el, ok
}

// Key returns the item key for a rendered element.
func (r *Reconciler) Key(el *html.Node) (any, bool) {
	key, ok := r.keyFor[el]
	return key, ok
}

// Solo bypasses the window and filter to render exactly the one item
// with the given key, detaching every other element.
func (r *Reconciler) Solo(key any) error {
	r.soloActive = true
	r.soloKey = key
	return r.Reconcile()
}

// Unsolo restores the windowed, filtered pipeline.
func (r *Reconciler) Unsolo() error {
	r.soloActive = false
	r.soloKey = nil
	return r.Reconcile()
}

// SetWindow changes the window and reconciles immediately. nil removes
// the window.
func (r *Reconciler) SetWindow(w *Window) error {
	r.window = w
	return r.Reconcile()
}

// SetOffset shifts the window and reconciles immediately.
func (r *Reconciler) SetOffset(offset int) error {
	r.offset = offset
	return r.Reconcile()
}

// SetFilter replaces the filter and reconciles immediately.
func (r *Reconciler) SetFilter(filter func(any) bool) error {
	r.filter = filter
	return r.Reconcile()
}

// Dispose stops the debounce timer and closes all subscriptions.
// Rendered elements stay in the tree.
func (r *Reconciler) Dispose() {
	r.disposed = true
	if r.timer != nil {
		r.timer.Stop()
	}
	if r.upstreamSub != nil {
		r.upstreamSub.Close()
	}
	if r.derivedSub != nil {
		r.derivedSub.Close()
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
