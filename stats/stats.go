/*
Package stats tracks what the cache has been doing since process start.

All counters are monotonic for the lifetime of the process and are never
reset implicitly; Clear() on the cache wipes entries, not history.

Counters are plain atomics so the hot paths never take a lock to record an
event.
*/
package stats

import "sync/atomic"

// Tracker accumulates cache lifecycle counters.
type Tracker struct {
	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Hit records a read served from the cache.
func (t *Tracker) Hit() { t.hits.Add(1) }

// Miss records a read that found nothing, including reads that found only a
// stale entry.
func (t *Tracker) Miss() { t.misses.Add(1) }

// Set records a write.
func (t *Tracker) Set() { t.sets.Add(1) }

// Delete records an explicit removal. Expiry and eviction do not count here.
func (t *Tracker) Delete(n int64) { t.deletes.Add(n) }

// Eviction records n entries removed to satisfy capacity bounds.
func (t *Tracker) Eviction(n int64) { t.evictions.Add(n) }

// HitRate returns hits / (hits + misses) as a percentage.
// Defined as 0 when no reads have happened yet.
func (t *Tracker) HitRate() float64 {
	hits := t.hits.Load()
	total := hits + t.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

/*
Efficiency blends hit rate with memory headroom into one diagnostic
percentage:

	0.7 × hitRateFraction + 0.3 × (1 − usedBytes/maxBytes)

This is an operational gauge only. Eviction decisions use raw occupancy and
never look at this number.
*/
func (t *Tracker) Efficiency(usedBytes, maxBytes int64) float64 {
	headroom := 1 - float64(usedBytes)/float64(maxBytes)
	if headroom < 0 {
		headroom = 0
	}
	return (0.7*(t.HitRate()/100) + 0.3*headroom) * 100
}

// Snapshot is a point-in-time view of the counters plus current occupancy
// and the configured limits.
type Snapshot struct {
	Entries        int     `json:"entries"`
	UsedBytes      int64   `json:"used_bytes"`
	MaxEntries     int     `json:"max_entries"`
	MaxMemoryBytes int64   `json:"max_memory_bytes"`
	Hits           int64   `json:"hits"`
	Misses         int64   `json:"misses"`
	Sets           int64   `json:"sets"`
	Deletes        int64   `json:"deletes"`
	Evictions      int64   `json:"evictions"`
	HitRate        float64 `json:"hit_rate"`
	Efficiency     float64 `json:"efficiency"`
}

// Snapshot captures the counters together with occupancy supplied by the
// store. Counter reads are individually atomic; the snapshot as a whole is
// "at most slightly stale", which is all a diagnostic needs.
func (t *Tracker) Snapshot(entries int, usedBytes int64, maxEntries int, maxBytes int64) Snapshot {
	return Snapshot{
		Entries:        entries,
		UsedBytes:      usedBytes,
		MaxEntries:     maxEntries,
		MaxMemoryBytes: maxBytes,
		Hits:           t.hits.Load(),
		Misses:         t.misses.Load(),
		Sets:           t.sets.Load(),
		Deletes:        t.deletes.Load(),
		Evictions:      t.evictions.Load(),
		HitRate:        t.HitRate(),
		Efficiency:     t.Efficiency(usedBytes, maxBytes),
	}
}
