// Package dispatch maps incoming wire event tags onto router
// operations and packages their results back into replies.
//
// The registry it builds on is modeled after the reference
// implementation's event bus: a handler is bound to an event tag once,
// at startup, and a second registration for the same tag is refused
// rather than silently replacing the first. There is no runtime
// subscribe/unsubscribe in the running server.
package dispatch
