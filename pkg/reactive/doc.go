// Package reactive provides the primitives that drive Loom's rendering:
// single-value cells, ordered collections, derived values, and the
// subscription registry that connects them to render targets.
//
// All reactive state is owned by a single event loop goroutine (see
// package loop). Mutation and notification are synchronous: Set returns
// after every live subscriber has been invoked. Because there is no
// concurrent access, the primitives carry no locks; the registry instead
// guarantees that its forward notification scan tolerates subscribers
// unsubscribing mid-pass.
package reactive
