/*
Package api declares the public contract of the cache.

Collaborators (request handlers, invalidation hooks, the middleware) should
depend on this interface, not on the concrete cache, so tests can substitute
a fake without spinning up sweeper goroutines.
*/
package api

import (
	"context"
	"time"

	"apicache"
	"apicache/stats"
	"apicache/types"
)

// Cache is the full operation surface consumed by collaborators.
type Cache interface {

	// Set inserts or fully replaces the entry for key.
	// ttl <= 0 uses the cache's default TTL. Eviction runs before the insert
	// when a capacity bound is reached. Failure is reserved for the cache
	// being closed, never for normal operation.
	Set(key string, value any, ttl time.Duration) error

	// Get returns the live value for key. A stale entry is removed on
	// detection and reported as absent. Hits update recency; both outcomes
	// update the statistics.
	Get(key string) (any, bool)

	// Has reports existence with the same expiry check as Get but without
	// touching recency or statistics.
	Has(key string) bool

	// Delete removes key if present and reports whether anything was removed.
	Delete(key string) bool

	// Clear removes all entries and returns the prior count. Cumulative
	// statistics are untouched.
	Clear() int

	// GetOrSet returns the cached value or, on a miss, runs the producer,
	// stores its result and returns it. Producer errors propagate verbatim
	// and are never cached. Concurrent misses on one key are NOT coalesced.
	GetOrSet(ctx context.Context, key string, producer types.Producer, ttl time.Duration) (any, error)

	// Stats returns a snapshot of counters, occupancy and configured limits.
	Stats() stats.Snapshot

	// Keys returns all stored keys matching the regular expression,
	// including expired-but-not-yet-swept keys.
	Keys(pattern string) ([]string, error)

	// DeletePattern removes every matching key and returns the count.
	DeletePattern(pattern string) (int, error)

	// Export returns a copy of all current entries.
	Export() []types.SnapshotEntry

	// Import restores entries whose expiry is still in the future and
	// returns how many were restored. Statistics are unaffected.
	Import(entries []types.SnapshotEntry) int

	// OptimizeMemory evicts 20% of entries when usage exceeds 80% of the
	// memory budget. Manual lever; returns the number evicted.
	OptimizeMemory() int

	// Close stops background maintenance and rejects further writes.
	// Idempotent.
	Close() error
}

// Contract check against the concrete implementation.
var _ Cache = (*apicache.Cache)(nil)
