// Package memstore implements the in-memory tier of the cache: a
// concurrency-safe keyed store with per-entry TTL, a group tag for
// batch retrieval/deletion, and FIFO-by-insertion size eviction.
//
// Goals for this package:
//   - Make the core data structures explicit (map + insertion-ordered
//     doubly-linked list), mirroring how the reference RamHandler used
//     a std::unordered_map alongside a std::multimap eviction queue.
//   - Provide O(1) Set/GetKey/DeleteKey via map index + list handle.
//   - Be concurrency-safe (RWMutex) with correctness as the primary goal.
//   - Own and cleanly stop the background expiry/eviction goroutine.
//
// Eviction here is FIFO on insertion time, not LRU on access: reads
// never reorder the eviction queue. Only a Set that replaces an
// existing key moves that key's position, since the replacement is
// itself a fresh insertion.
package memstore
