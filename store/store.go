package store

import (
	"apicache/types"
)

/*
Store holds the key → entry mapping and the byte accounting for the memory
budget.

Store is storage ONLY. It does not know about TTLs, eviction order, statistics
or locking. The cache orchestrator makes every policy decision and serializes
access; Store just keeps the map and the running byte total consistent.

Store is NOT safe for concurrent use on its own. The owning cache guards
every operation with its mutex.
*/
type Store struct {
	entries map[string]*types.CacheEntry
	bytes   int64
}

func New() *Store {
	return &Store{entries: make(map[string]*types.CacheEntry)}
}

// Get retrieves an entry by key. The entry may already be stale; expiry is
// the caller's decision.
func (s *Store) Get(key string) (*types.CacheEntry, bool) {
	ent, ok := s.entries[key]
	return ent, ok
}

// Put inserts or replaces an entry. Replacing an entry swaps its size out of
// the byte total, so the total always reflects what the map currently holds.
func (s *Store) Put(key string, ent *types.CacheEntry) {
	if old, ok := s.entries[key]; ok {
		s.bytes -= old.Size
	}
	s.entries[key] = ent
	s.bytes += ent.Size
}

// Delete removes an entry and reports whether anything was removed.
func (s *Store) Delete(key string) bool {
	ent, ok := s.entries[key]
	if !ok {
		return false
	}
	s.bytes -= ent.Size
	delete(s.entries, key)
	return true
}

// Clear removes every entry and returns how many were removed.
func (s *Store) Clear() int {
	n := len(s.entries)
	s.entries = make(map[string]*types.CacheEntry)
	s.bytes = 0
	return n
}

// Len returns the number of entries physically present, including entries
// that have expired but not been swept yet.
func (s *Store) Len() int {
	return len(s.entries)
}

// Bytes returns the current byte total of all stored entries.
func (s *Store) Bytes() int64 {
	return s.bytes
}

// Range calls fn for every entry until fn returns false.
// Mutating the store inside fn is not allowed; collect keys first, then
// delete.
func (s *Store) Range(fn func(key string, ent *types.CacheEntry) bool) {
	for k, ent := range s.entries {
		if !fn(k, ent) {
			return
		}
	}
}
