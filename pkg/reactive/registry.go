package reactive

// Subscription is the disposer handle returned from Subscribe.
// Closing it removes the subscriber from the registry; the entry is
// physically pruned during the next notification or size scan.
type Subscription struct {
	closed bool
}

// Close marks the subscription as ended. A subscriber closed during a
// notification pass is not invoked later in that same pass. Close is
// idempotent and safe on a nil subscription.
func (s *Subscription) Close() {
	if s != nil {
		s.closed = true
	}
}

// Closed reports whether Close has been called.
func (s *Subscription) Closed() bool {
	return s == nil || s.closed
}

type entry struct {
	sub    Subscriber
	handle *Subscription
}

// stale reports whether the entry should be skipped and pruned: either
// its disposer was closed, or the subscriber's owning scope is gone.
func (e *entry) stale() bool {
	if e.handle.closed {
		return true
	}
	if s, ok := e.sub.(staleSubscriber); ok && s.Stale() {
		return true
	}
	return false
}

// Registry is an ordered subscriber set embedded in every reactive
// source. Notification order equals registration order at notify time.
// Pruning of stale entries happens opportunistically during the forward
// scans performed by Notify and Len; there is no separate sweep pass.
type Registry struct {
	entries []entry

	// depth counts active notification passes. Compaction would shrink
	// the slice under an outer pass's index, so it waits until the
	// outermost pass has finished.
	depth int
}

// Subscribe adds a subscriber and returns its disposer. Adding is
// idempotent per subscriber identity: resubscribing an ID that is
// already live returns the existing subscription.
func (r *Registry) Subscribe(sub Subscriber) *Subscription {
	if sub == nil {
		return &Subscription{closed: true}
	}

	id := sub.ID()
	for i := range r.entries {
		e := &r.entries[i]
		if !e.stale() && e.sub.ID() == id {
			return e.handle
		}
	}

	handle := &Subscription{}
	r.entries = append(r.entries, entry{sub: sub, handle: handle})
	return handle
}

// Unsubscribe closes the subscription for the given subscriber identity,
// if present.
func (r *Registry) Unsubscribe(sub Subscriber) {
	if sub == nil {
		return
	}
	id := sub.ID()
	for i := range r.entries {
		e := &r.entries[i]
		if !e.stale() && e.sub.ID() == id {
			e.handle.closed = true
			return
		}
	}
}

// Notify invokes every live subscriber in registration order.
// The scan is forward-only over the length captured at entry: a
// subscriber that unsubscribes mid-pass is skipped via its staleness
// check, and no guarantee covers subscribers added mid-pass. A
// subscriber may re-enter Notify on the same registry; pruning is
// deferred until the outermost pass returns.
func (r *Registry) Notify(mu Mutation) {
	r.depth++
	n := len(r.entries)
	for i := 0; i < n; i++ {
		e := &r.entries[i]
		if e.stale() {
			continue
		}
		e.sub.Invalidate(mu)
	}
	r.depth--
	if r.depth == 0 {
		r.compact()
	}
}

// Len returns the number of live subscribers. Outside a notification
// pass it also prunes stale entries; during one it only counts, so the
// active scan's indexes stay valid.
func (r *Registry) Len() int {
	if r.depth > 0 {
		live := 0
		for i := range r.entries {
			if !r.entries[i].stale() {
				live++
			}
		}
		return live
	}
	r.compact()
	return len(r.entries)
}

// compact removes stale entries in place, preserving order.
func (r *Registry) compact() {
	kept := r.entries[:0]
	for _, e := range r.entries {
		if !e.stale() {
			kept = append(kept, e)
		}
	}
	// Zero the tail so dropped subscribers are collectible.
	for i := len(kept); i < len(r.entries); i++ {
		r.entries[i] = entry{}
	}
	r.entries = kept
}
