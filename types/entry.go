package types

import "time"

/*
CacheEntry is one stored value plus the metadata the cache needs to manage it.

The entry is owned exclusively by the store. Nothing outside the cache holds a
reference to it; callers only ever see the Value.

Mutability rules:
- LastAccessed is the ONLY field mutated after insertion (updated on reads)
- A re-set of the same key replaces the whole entry, it never patches one
*/
type CacheEntry struct {
	// Value is the cached payload. Anything JSON-serializable.
	Value any

	// ExpireAt is the absolute wall-clock time after which the entry is stale.
	ExpireAt time.Time

	// Size is a byte estimate of the serialized value, used for the memory
	// budget. It is an estimate: when serialization fails at write time the
	// cache falls back to a fixed guess rather than failing the write.
	Size int64

	// LastAccessed is updated on every successful Get. Eviction removes the
	// entries with the smallest LastAccessed first.
	LastAccessed time.Time
}

// Expired reports whether the entry is stale at the given instant.
// A stale entry still physically in the map must be treated as absent by
// every read path.
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpireAt)
}

// Touch marks the entry as just read.
func (e *CacheEntry) Touch(now time.Time) {
	e.LastAccessed = now
}
