// Package server provides HTTP routing, middleware, and the local listener a list view exposes to
// detached form views.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Local Listener
//
// A running list view starts a [Listener] on the configured refresh address. The refresh package mounts
// one form-closed inbox per entity on it, and [MetricsHandler] exposes the Prometheus registry.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
