// Package server provides HTTP routing, middleware, and lifecycle helpers for the readlog web UI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /sessions"), so one path can be
// registered for several methods and unmatched methods get a 405 from the mux.
//
// # Middleware
//
//   - [Logging] : Logs method, path, status and duration of every request with charmbracelet/log
//   - [Recover] : Turns handler panics into 500 responses
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Lifecycle
//
// [Serve] runs an [http.Server] until its context is canceled and then shuts it down gracefully.
package server
