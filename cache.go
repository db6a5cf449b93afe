package apicache

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"apicache/eviction"
	"apicache/stats"
	"apicache/store"
	"apicache/types"
)

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("cache is closed")

/*
Config controls capacity, expiry and maintenance behavior. All fields are
fixed at construction.

Zero values mean defaults:
- MaxEntries:      1000
- MaxMemoryBytes:  100 MiB
- DefaultTTL:      5 minutes
- CleanupInterval: 60 seconds (<= 0 after explicit set disables the sweeper;
  lazy expiration on reads still works)
- Logger:          slog.Default()
*/
type Config struct {
	MaxEntries      int
	MaxMemoryBytes  int64
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	Logger          *slog.Logger

	// NoSweeper disables the background sweep entirely. Tests use this to
	// exercise lazy expiration deterministically.
	NoSweeper bool
}

const (
	defaultMaxEntries      = 1000
	defaultMaxMemoryBytes  = 100 << 20
	defaultTTL             = 5 * time.Minute
	defaultCleanupInterval = time.Minute
)

/*
Cache is the orchestrator that connects:
- the entry store (storage + byte accounting)
- the eviction policy (when and what to shed)
- the statistics tracker
- the background expiration sweeper

One RWMutex serializes every store mutation. Reads also take the write lock
because a hit mutates LastAccessed and a stale hit deletes the entry; the
critical sections are map operations and stay sub-millisecond.

Ownership model: Cache owns its sweeper goroutine. Construct with New, pass
by reference to every consumer, and call Close at teardown. There is no
package-level instance.
*/
type Cache struct {
	mu      sync.RWMutex
	entries *store.Store
	policy  eviction.Policy
	metrics *stats.Tracker
	log     *slog.Logger

	defaultTTL   time.Duration
	cleanupEvery time.Duration

	// Goroutine ownership.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// New constructs a cache and starts the background sweeper (if enabled).
// New never returns nil.
func New(cfg Config) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaultMaxEntries
	}
	if cfg.MaxMemoryBytes <= 0 {
		cfg.MaxMemoryBytes = defaultMaxMemoryBytes
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = defaultTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaultCleanupInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Cache{
		entries: store.New(),
		policy: eviction.Policy{
			MaxEntries:     cfg.MaxEntries,
			MaxMemoryBytes: cfg.MaxMemoryBytes,
		},
		metrics:      stats.NewTracker(),
		log:          cfg.Logger,
		defaultTTL:   cfg.DefaultTTL,
		cleanupEvery: cfg.CleanupInterval,
		ctx:          ctx,
		cancel:       cancel,
	}

	if !cfg.NoSweeper {
		c.wg.Add(1)
		go c.sweepLoop()
	}

	return c
}

// Close stops the sweeper and rejects further writes.
// Safe to call more than once.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	// Cancel outside the lock so shutdown never blocks a reader.
	cancel()
	c.wg.Wait()
	return nil
}

/*
Set inserts or fully replaces the entry for key.

BEHAVIOR:
- ttl <= 0 uses the configured default TTL
- the value is sized by serialization; unserializable values are charged a
  fixed fallback so the write still succeeds
- if either capacity bound is already reached, a batch of the least recently
  accessed entries is evicted BEFORE the insert, so a single write never
  grows the store unbounded (transient overshoot by the size of the new
  entry is accepted)
*/
func (c *Cache) Set(key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	size := store.EstimateSize(value)
	now := time.Now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	if c.policy.ShouldEvict(c.entries.Len(), c.entries.Bytes()) {
		c.evictLocked(eviction.DefaultBatch)
	}

	c.entries.Put(key, &types.CacheEntry{
		Value:        value,
		ExpireAt:     now.Add(ttl),
		Size:         size,
		LastAccessed: now,
	})
	c.metrics.Set()
	c.mu.Unlock()

	c.log.Debug("cache_set", "key", key, "size", size, "ttl", ttl)
	return nil
}

/*
Get retrieves the value for key.

BEHAVIOR:
- absent → miss
- present but stale → the entry is removed right here (lazy expiration) and
  the read counts as a miss; a stale entry is never visible to callers even
  before the sweeper reaches it
- present and live → LastAccessed is updated and the read counts as a hit
*/
func (c *Cache) Get(key string) (any, bool) {
	now := time.Now()

	c.mu.Lock()
	ent, ok := c.entries.Get(key)
	if !ok {
		c.mu.Unlock()
		c.metrics.Miss()
		c.log.Debug("cache_miss", "key", key)
		return nil, false
	}
	if ent.Expired(now) {
		c.entries.Delete(key)
		c.mu.Unlock()
		c.metrics.Miss()
		c.log.Debug("cache_expired", "key", key)
		return nil, false
	}
	ent.Touch(now)
	value := ent.Value
	c.mu.Unlock()

	c.metrics.Hit()
	c.log.Debug("cache_hit", "key", key)
	return value, true
}

// Has reports whether key holds a live entry. Like Get it removes a stale
// entry on detection, but it never touches LastAccessed or the statistics;
// an existence probe must not distort the hit rate or the eviction order.
func (c *Cache) Has(key string) bool {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries.Get(key)
	if !ok {
		return false
	}
	if ent.Expired(now) {
		c.entries.Delete(key)
		return false
	}
	return true
}

// Delete removes key if present and reports whether anything was removed.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	removed := c.entries.Delete(key)
	c.mu.Unlock()

	if removed {
		c.metrics.Delete(1)
		c.log.Debug("cache_delete", "key", key)
	}
	return removed
}

// Clear removes every entry and returns how many were removed.
// The cumulative statistics are untouched; counters are process history,
// not current contents.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Clear()
}

/*
GetOrSet is the cache-aside accessor.

BEHAVIOR:
- hit → the cached value is returned and the producer never runs
- miss → the producer runs, its result is stored under the given ttl and
  returned
- producer error → propagated to the caller verbatim, nothing is cached
  (failures are never negatively cached)

The producer executes OUTSIDE the cache lock, so producers for distinct keys
run in parallel. Concurrent misses on the SAME key each run their own
producer; there is no single-flight coalescing. The cache imposes no timeout
on the producer; bound it through ctx.
*/
func (c *Cache) GetOrSet(ctx context.Context, key string, producer types.Producer, ttl time.Duration) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := producer(ctx)
	if err != nil {
		return nil, err
	}

	// A failed store (cache already closed) does not invalidate the produced
	// value; the cache is an optimization, not the source of truth.
	_ = c.Set(key, v, ttl)
	return v, nil
}

/*
Keys returns every stored key matching the regular expression.

The scan reports what the map physically holds: expired-but-not-yet-swept
keys are included. Callers invalidating by pattern must not assume only live
entries come back.
*/
func (c *Cache) Keys(pattern string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var keys []string
	c.entries.Range(func(key string, _ *types.CacheEntry) bool {
		if re.MatchString(key) {
			keys = append(keys, key)
		}
		return true
	})
	return keys, nil
}

// DeletePattern removes every key matching the regular expression and
// returns how many were removed. Used to invalidate whole key families
// (for example a namespace prefix) after an external mutation.
//
// The scan is O(all keys) and unindexed; fine at this cache's cardinality.
func (c *Cache) DeletePattern(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	var victims []string
	c.entries.Range(func(key string, _ *types.CacheEntry) bool {
		if re.MatchString(key) {
			victims = append(victims, key)
		}
		return true
	})
	for _, key := range victims {
		c.entries.Delete(key)
	}
	c.mu.Unlock()

	if len(victims) > 0 {
		c.metrics.Delete(int64(len(victims)))
	}
	c.log.Debug("cache_delete_pattern", "pattern", pattern, "deleted", len(victims))
	return len(victims), nil
}

// Stats returns a point-in-time snapshot of counters, occupancy and limits.
func (c *Cache) Stats() stats.Snapshot {
	c.mu.RLock()
	count := c.entries.Len()
	used := c.entries.Bytes()
	c.mu.RUnlock()

	return c.metrics.Snapshot(count, used, c.policy.MaxEntries, c.policy.MaxMemoryBytes)
}

// Len returns the number of entries physically present, including stale
// entries the sweeper has not reached yet.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries.Len()
}

// UsedBytes returns the current estimated memory footprint of all entries.
func (c *Cache) UsedBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries.Bytes()
}

/*
OptimizeMemory is a manual maintenance lever, more aggressive than the
per-write eviction check: if usage is past 80% of the memory budget it
evicts 20% of all entries (rounded up), least recently accessed first.

It is never triggered automatically. Returns the number of entries evicted.
*/
func (c *Cache) OptimizeMemory() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.policy.UnderMemoryPressure(c.entries.Bytes()) {
		return 0
	}
	return c.evictLocked(c.policy.OptimizeCount(c.entries.Len()))
}

// evictLocked removes the n least recently accessed entries.
// Caller must hold mu.
func (c *Cache) evictLocked(n int) int {
	candidates := make([]eviction.Candidate, 0, c.entries.Len())
	c.entries.Range(func(key string, ent *types.CacheEntry) bool {
		candidates = append(candidates, eviction.Candidate{
			Key:          key,
			LastAccessed: ent.LastAccessed,
		})
		return true
	})

	victims := eviction.SelectVictims(candidates, n)
	for _, key := range victims {
		c.entries.Delete(key)
	}

	if len(victims) > 0 {
		c.metrics.Eviction(int64(len(victims)))
		c.log.Debug("cache_eviction", "evicted", len(victims))
	}
	return len(victims)
}
