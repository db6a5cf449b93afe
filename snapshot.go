package apicache

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"apicache/types"
)

/*
Export returns a full copy of all current entries for diagnostics or ad hoc
persistence.

The copy includes expired-but-not-yet-swept entries; Import is the side that
filters. Every returned entry is a copy, so holding the export does not alias
live store state.
*/
func (c *Cache) Export() []types.SnapshotEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.SnapshotEntry, 0, c.entries.Len())
	c.entries.Range(func(key string, ent *types.CacheEntry) bool {
		out = append(out, types.SnapshotEntry{
			Key:          key,
			Value:        ent.Value,
			ExpireAt:     ent.ExpireAt,
			Size:         ent.Size,
			LastAccessed: ent.LastAccessed,
		})
		return true
	})
	return out
}

/*
Import re-inserts snapshot entries into the store and returns how many were
restored.

BEHAVIOR:
- an entry is restored only if its recorded expiry is still in the future;
  expired snapshot entries are silently dropped
- the capacity bounds hold: an insert that would exceed them evicts first,
  exactly like Set
- the statistics counters are NOT affected; a warm restart is not traffic
*/
func (c *Cache) Import(entries []types.SnapshotEntry) int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0
	}

	restored := 0
	for _, ent := range entries {
		if !ent.ExpireAt.After(now) {
			continue
		}
		if c.policy.ShouldEvict(c.entries.Len(), c.entries.Bytes()) {
			c.evictLocked(1)
		}
		c.entries.Put(ent.Key, &types.CacheEntry{
			Value:        ent.Value,
			ExpireAt:     ent.ExpireAt,
			Size:         ent.Size,
			LastAccessed: ent.LastAccessed,
		})
		restored++
	}
	return restored
}

// SaveSnapshot writes the current export to path as JSON, via a temp file
// and rename so a crash mid-write never leaves a torn snapshot behind.
// Best effort: a failure here loses warmth, not data.
func (c *Cache) SaveSnapshot(path string) error {
	data, err := json.MarshalIndent(c.Export(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadSnapshot reads a snapshot file and imports it, returning how many
// entries were restored. Entries that expired while the snapshot sat on disk
// are dropped by Import.
func (c *Cache) LoadSnapshot(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read snapshot: %w", err)
	}

	var entries []types.SnapshotEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}
	return c.Import(entries), nil
}
