// Package cache provides the in-memory, TTL-bounded result cache used by the
// browser.
//
// Listings and lookup lists are cached per distinct request key for a short
// freshness window so that paging back and forth or toggling a filter does not
// refetch what was just shown. Key features:
//   - In-memory only: nothing outlives the process
//   - Per-entry TTL (5 minutes for listings, 10 minutes for lookup lists)
//   - Least-recently-used eviction once MaxEntries is reached
//   - Expired entries are evicted on read and refetched ("stale-then-refetch")
//   - Concurrent loads of the same key share a single upstream request
//   - SHA256-based cache keys for deterministic lookups
//
// Values are stored as JSON so a cached result can never be mutated through a
// slice handed to a caller.
package cache
