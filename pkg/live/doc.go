// Package live serves rendered views over WebSocket sessions. Each
// session owns a scheduler loop, an engine instance rendered from the
// application's view factory, and a writer goroutine. Client events
// arrive as protocol frames, pass through the configured middleware
// chain, and are dispatched on the session's loop; after the handler
// turn the session pushes a patch frame with the re-rendered HTML.
package live
