// Package server implements the Unix domain stream socket front end:
// an accept loop plus one goroutine per connection reading
// newline-delimited JSON requests and writing newline-delimited JSON
// replies.
//
// Framing and the accept-loop shape follow the reference
// implementation's SocketHandler, translated from a detached
// std::thread per connection to a goroutine per connection, and from
// a blocking accept() to one that unblocks on listener Close during
// shutdown.
package server
