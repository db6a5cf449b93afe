package apicache

import (
	"time"

	"apicache/types"
)

/*
sweepLoop is the background expiration sweeper.

Lazy expiration on Get only reclaims keys that are read again after they
expire. Keys written once and never touched again would sit in memory
forever, so a ticker-driven pass removes every stale entry regardless of
access recency.

Each pass is O(live entries) under the write lock and has no backpressure
control. The loop is owned by the cache: Close cancels the context and waits
for it, so no timer or goroutine leaks at teardown.
*/
func (c *Cache) sweepLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case now := <-ticker.C:
			c.sweep(now)
		}
	}
}

// sweep removes every entry already stale at now.
// Sweep removals touch no counter: they are neither deletes (caller intent)
// nor evictions (capacity pressure).
func (c *Cache) sweep(now time.Time) int {
	c.mu.Lock()
	var stale []string
	c.entries.Range(func(key string, ent *types.CacheEntry) bool {
		if ent.Expired(now) {
			stale = append(stale, key)
		}
		return true
	})
	for _, key := range stale {
		c.entries.Delete(key)
	}
	c.mu.Unlock()

	if len(stale) > 0 {
		c.log.Debug("cache_cleanup", "removed", len(stale))
	}
	return len(stale)
}
