// Package protocol defines the newline-delimited JSON wire messages
// exchanged over the cache's Unix domain socket: one request type per
// event tag (SET, GET KEY, GET GROUP, DELETE KEY, DELETE GROUP, LIST)
// and the corresponding reply shape.
package protocol
