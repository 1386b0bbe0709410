// Package router implements the storage routing layer that sits
// between the request dispatcher and the two storage tiers.
//
// SET routes exclusively to one tier based on the request's persistent
// flag. GET KEY checks memory first and falls through to durable
// storage without promoting a durable hit back into memory. GET GROUP
// and LIST query both tiers concurrently and concatenate their
// results, memory entries first, with no deduplication. DELETE KEY and
// DELETE GROUP run against both tiers and sum the counts removed.
package router
