// Package middleware wraps live-session event dispatch with
// cross-cutting concerns: Prometheus metrics and OpenTelemetry spans.
package middleware

// Event describes one dispatched client interaction.
type Event struct {
	// Session is the owning session id.
	Session string

	// Node is the target node id.
	Node string

	// Type is the event type ("click", "input", ...).
	Type string
}

// Next runs the rest of the dispatch chain.
type Next func() error

// Middleware wraps one event dispatch.
type Middleware func(ev Event, next Next) error

// Chain composes middlewares so the first listed runs outermost.
func Chain(mws ...Middleware) Middleware {
	return func(ev Event, next Next) error {
		run := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw, inner := mws[i], run
			run = func() error { return mw(ev, inner) }
		}
		return run()
	}
}
