/*
Package eviction decides WHEN the cache must shed entries and WHICH entries
go first.

It is deliberately pure: the policy never touches the store. The cache hands
it counts, byte totals and access timestamps; the policy hands back victim
keys. The cache then does the actual removal and records the eviction
statistics.
*/
package eviction

import (
	"math"
	"sort"
	"time"
)

// DefaultBatch is how many entries a single over-capacity write evicts.
// Evicting a small batch instead of exactly one keeps a hot write path from
// paying the selection sort on every insert.
const DefaultBatch = 10

// memoryPressureThreshold is the fraction of the memory budget above which
// OptimizeCount recommends an aggressive sweep.
const memoryPressureThreshold = 0.8

// optimizeFraction is the fraction of all entries removed by a memory
// optimization pass.
const optimizeFraction = 0.2

// Policy holds the capacity bounds fixed at cache construction.
type Policy struct {
	MaxEntries     int
	MaxMemoryBytes int64
}

// ShouldEvict reports whether a write arriving now must evict first.
// Either bound being reached is enough.
func (p Policy) ShouldEvict(entryCount int, usedBytes int64) bool {
	return entryCount >= p.MaxEntries || usedBytes >= p.MaxMemoryBytes
}

// UnderMemoryPressure reports whether usage is past the aggressive-cleanup
// threshold (80% of the memory budget).
func (p Policy) UnderMemoryPressure(usedBytes int64) bool {
	return float64(usedBytes) > memoryPressureThreshold*float64(p.MaxMemoryBytes)
}

// OptimizeCount returns how many entries a memory optimization pass should
// evict: 20% of the current population, rounded up so pressure always
// shrinks a non-empty cache.
func (p Policy) OptimizeCount(entryCount int) int {
	return int(math.Ceil(optimizeFraction * float64(entryCount)))
}

// Candidate is one entry as the policy sees it: a key and when it was last
// read. Nothing else matters for victim selection.
type Candidate struct {
	Key          string
	LastAccessed time.Time
}

/*
SelectVictims returns the keys of the n candidates with the smallest
LastAccessed, approximating least-recently-used.

The full sort is O(k log k) over all candidates. That is acceptable at this
cache's cardinality (bounded by MaxEntries); a heap would only pay off at key
counts this cache is not built for.
*/
func SelectVictims(candidates []Candidate, n int) []string {
	if n <= 0 || len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].LastAccessed.Before(candidates[j].LastAccessed)
	})

	if n > len(candidates) {
		n = len(candidates)
	}

	victims := make([]string, n)
	for i := 0; i < n; i++ {
		victims[i] = candidates[i].Key
	}
	return victims
}
