// Package observe provides observability primitives for cache operations.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. The dispatch package wraps every request in its
// Middleware.
package observe
