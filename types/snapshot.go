package types

import "time"

// SnapshotEntry is one exported cache entry. Unlike CacheEntry it carries its
// key and is safe to hand outside the cache: it is a copy, never aliased by
// the live store.
type SnapshotEntry struct {
	Key          string    `json:"key"`
	Value        any       `json:"value"`
	ExpireAt     time.Time `json:"expire_at"`
	Size         int64     `json:"size"`
	LastAccessed time.Time `json:"last_accessed"`
}
