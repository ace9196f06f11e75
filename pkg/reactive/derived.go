package reactive

// Derived is a computed value over explicit dependency sources. It
// recomputes synchronously whenever any dependency notifies, and
// notifies its own subscribers iff the computed value changed. A Derived
// whose computation resolves to a ListSource is the switchable upstream
// form consumed by the list reconciler.
type Derived[T any] struct {
	id      uint64
	compute func() T
	value   T
	equal   func(T, T) bool
	reg     Registry

	deps []*Subscription
}

// NewDerived creates a derived value recomputed from the given
// dependencies. The computation runs once immediately.
func NewDerived[T any](compute func() T, deps ...Source) *Derived[T] {
	d := &Derived[T]{
		id:      nextID(),
		compute: compute,
	}
	d.value = compute()
	for _, dep := range deps {
		if dep != nil {
			d.deps = append(d.deps, dep.Subscribe(d))
		}
	}
	return d
}

// Get returns the current computed value.
func (d *Derived[T]) Get() T {
	return d.value
}

// Value implements Source.
func (d *Derived[T]) Value() any {
	return d.value
}

// ID implements Source.
func (d *Derived[T]) ID() uint64 {
	return d.id
}

// Subscribe implements Source.
func (d *Derived[T]) Subscribe(sub Subscriber) *Subscription {
	return d.reg.Subscribe(sub)
}

// WithEquals configures a custom equality function and returns the
// derived value.
func (d *Derived[T]) WithEquals(fn func(T, T) bool) *Derived[T] {
	d.equal = fn
	return d
}

// Invalidate implements Subscriber: a dependency changed, so recompute
// and propagate iff the result differs.
func (d *Derived[T]) Invalidate(Mutation) {
	next := d.compute()
	if d.equals(d.value, next) {
		return
	}
	d.value = next
	d.reg.Notify(Mutation{Op: OpSet})
}

// Detach closes the dependency subscriptions. The derived value keeps
// its last computed result but stops updating.
func (d *Derived[T]) Detach() {
	for _, s := range d.deps {
		s.Close()
	}
	d.deps = nil
}

func (d *Derived[T]) equals(a, b T) bool {
	if d.equal != nil {
		return d.equal(a, b)
	}
	return defaultEquals(a, b)
}
