package reactive

import "reflect"

// Cell is a single reactive value slot. Setting a value that equals the
// current one is a no-op: no notification fires. Equality defaults to ==
// for comparable kinds and reflect.DeepEqual otherwise; override it with
// WithEquals for types where that is wrong or too expensive.
type Cell[T any] struct {
	id    uint64
	value T

	// equal overrides the default equality check when non-nil.
	equal func(T, T) bool

	reg Registry
}

// NewCell creates a cell holding the given initial value.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		id:    nextID(),
		value: initial,
	}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	return c.value
}

// Set replaces the value and notifies subscribers iff it changed.
func (c *Cell[T]) Set(value T) {
	if c.equals(c.value, value) {
		return
	}
	c.value = value
	c.reg.Notify(Mutation{Op: OpSet})
}

// Update applies fn to the current value and stores the result,
// notifying subscribers iff the value changed.
func (c *Cell[T]) Update(fn func(T) T) {
	c.Set(fn(c.value))
}

// WithEquals configures a custom equality function and returns the cell.
func (c *Cell[T]) WithEquals(fn func(T, T) bool) *Cell[T] {
	c.equal = fn
	return c
}

// Subscribe implements Source.
func (c *Cell[T]) Subscribe(sub Subscriber) *Subscription {
	return c.reg.Subscribe(sub)
}

// Unsubscribe closes the subscription held by the given subscriber.
func (c *Cell[T]) Unsubscribe(sub Subscriber) {
	c.reg.Unsubscribe(sub)
}

// Value implements Source.
func (c *Cell[T]) Value() any {
	return c.value
}

// ID implements Source.
func (c *Cell[T]) ID() uint64 {
	return c.id
}

// Subscribers returns the number of live subscribers.
func (c *Cell[T]) Subscribers() int {
	return c.reg.Len()
}

func (c *Cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals provides type-appropriate equality checking.
// Uses == for common comparable types and reflect.DeepEqual for others.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
