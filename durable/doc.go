// Package durable implements the on-disk tier of the cache on top of
// SQLite, the persistence engine the reference implementation used
// through its C API.
//
// Unlike the in-memory tier, durable entries have no TTL: persistence
// is the point, and SEM-SET never attaches an expiry to a row written
// here.
package durable
