package reactive

// Scope owns the subscriptions and cleanup hooks of one component
// instance. Disposing a scope disposes its children (last created
// first), closes every tracked subscription, and runs cleanups in
// reverse order. Subscribers that report staleness through a disposed
// scope are excluded from registry iteration on the next pass without
// any explicit unsubscribe call.
type Scope struct {
	parent   *Scope
	children []*Scope

	subs     []*Subscription
	cleanups []func()

	disposed bool
}

// NewScope creates a scope under the given parent. A nil parent creates
// a root scope.
func NewScope(parent *Scope) *Scope {
	s := &Scope{parent: parent}
	if parent != nil {
		parent.children = append(parent.children, s)
	}
	return s
}

// IsDisposed reports whether Dispose has run.
func (s *Scope) IsDisposed() bool {
	return s == nil || s.disposed
}

// Track registers a subscription to be closed when the scope is
// disposed. It returns the subscription for chaining.
func (s *Scope) Track(sub *Subscription) *Subscription {
	if s.disposed {
		sub.Close()
		return sub
	}
	s.subs = append(s.subs, sub)
	return sub
}

// OnCleanup registers fn to run when the scope is disposed. If the
// scope is already disposed, fn runs immediately.
func (s *Scope) OnCleanup(fn func()) {
	if s.disposed {
		fn()
		return
	}
	s.cleanups = append(s.cleanups, fn)
}

// Dispose tears the scope down. It is idempotent.
func (s *Scope) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true

	if s.parent != nil {
		s.parent.removeChild(s)
	}

	for i := len(s.children) - 1; i >= 0; i-- {
		s.children[i].Dispose()
	}
	s.children = nil

	for _, sub := range s.subs {
		sub.Close()
	}
	s.subs = nil

	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
}

func (s *Scope) removeChild(child *Scope) {
	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}
