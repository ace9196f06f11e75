package reactive

import "sync/atomic"

// globalIDCounter is the source of unique IDs for all reactive primitives.
var globalIDCounter uint64

// nextID returns the next unique ID for a reactive primitive.
// IDs are monotonically increasing and never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// NextID issues a subscriber identity for consumers outside the package.
// Bindings, conditional groups, and reconcilers draw from the same
// counter as the primitives so identities never collide.
func NextID() uint64 {
	return nextID()
}
