package reactive

import "sort"

// Collection is an ordered reactive sequence. Every structural mutation
// notifies subscribers synchronously with the mutating method and its
// positional arguments (see Mutation), enabling incremental consumption.
// Mutators return the collection so calls chain.
type Collection[T any] struct {
	id    uint64
	items []T
	reg   Registry
}

// NewCollection creates a collection holding the given items.
func NewCollection[T any](items ...T) *Collection[T] {
	c := &Collection[T]{id: nextID()}
	c.items = append(c.items, items...)
	return c
}

// Items returns a copy of the current items.
func (c *Collection[T]) Items() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len implements ListSource.
func (c *Collection[T]) Len() int {
	return len(c.items)
}

// At implements ListSource. It panics if i is out of range.
func (c *Collection[T]) At(i int) any {
	return c.items[i]
}

// Item returns the typed item at index i. It panics if i is out of range.
func (c *Collection[T]) Item(i int) T {
	return c.items[i]
}

// Values implements ListSource.
func (c *Collection[T]) Values() []any {
	out := make([]any, len(c.items))
	for i, it := range c.items {
		out[i] = it
	}
	return out
}

// Value implements Source.
func (c *Collection[T]) Value() any {
	return c.Items()
}

// ID implements Source.
func (c *Collection[T]) ID() uint64 {
	return c.id
}

// Subscribe implements Source.
func (c *Collection[T]) Subscribe(sub Subscriber) *Subscription {
	return c.reg.Subscribe(sub)
}

// Unsubscribe closes the subscription held by the given subscriber.
func (c *Collection[T]) Unsubscribe(sub Subscriber) {
	c.reg.Unsubscribe(sub)
}

// Subscribers returns the number of live subscribers.
func (c *Collection[T]) Subscribers() int {
	return c.reg.Len()
}

// Append adds items at the end.
func (c *Collection[T]) Append(items ...T) *Collection[T] {
	at := len(c.items)
	c.items = append(c.items, items...)
	c.reg.Notify(Mutation{Op: OpAppend, Index: at, Count: len(items), Items: payload(items)})
	return c
}

// Prepend adds items at the front.
func (c *Collection[T]) Prepend(items ...T) *Collection[T] {
	c.items = append(append(make([]T, 0, len(c.items)+len(items)), items...), c.items...)
	c.reg.Notify(Mutation{Op: OpPrepend, Count: len(items), Items: payload(items)})
	return c
}

// InsertAt inserts an item at index i, clamping i into [0, Len].
func (c *Collection[T]) InsertAt(i int, item T) *Collection[T] {
	if i < 0 {
		i = 0
	}
	if i > len(c.items) {
		i = len(c.items)
	}
	c.items = append(c.items, item)
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = item
	c.reg.Notify(Mutation{Op: OpInsert, Index: i, Count: 1, Items: []any{item}})
	return c
}

// RemoveAt removes the item at index i. Out-of-range indexes are a
// silent no-op with no notification.
func (c *Collection[T]) RemoveAt(i int) *Collection[T] {
	if i < 0 || i >= len(c.items) {
		return c
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.reg.Notify(Mutation{Op: OpRemove, Index: i, Count: 1})
	return c
}

// Replace swaps the entire contents for the given items.
func (c *Collection[T]) Replace(items ...T) *Collection[T] {
	c.items = append(c.items[:0:0], items...)
	c.reg.Notify(Mutation{Op: OpReplace, Count: len(items), Items: payload(items)})
	return c
}

// Clear removes every item.
func (c *Collection[T]) Clear() *Collection[T] {
	n := len(c.items)
	c.items = nil
	c.reg.Notify(Mutation{Op: OpClear, Count: n})
	return c
}

// payload boxes typed items for the notification.
func payload[T any](items []T) []any {
	if len(items) == 0 {
		return nil
	}
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

// Sort reorders the items in place using a stable sort.
func (c *Collection[T]) Sort(less func(a, b T) bool) *Collection[T] {
	sort.SliceStable(c.items, func(i, j int) bool {
		return less(c.items[i], c.items[j])
	})
	c.reg.Notify(Mutation{Op: OpSort, Count: len(c.items)})
	return c
}
