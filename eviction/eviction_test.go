package eviction

import (
	"testing"
	"time"
)

func TestShouldEvict(t *testing.T) {
	p := Policy{MaxEntries: 10, MaxMemoryBytes: 1000}

	if p.ShouldEvict(9, 999) {
		t.Fatalf("under both bounds: no eviction")
	}
	if !p.ShouldEvict(10, 0) {
		t.Fatalf("at the entry bound: eviction")
	}
	if !p.ShouldEvict(0, 1000) {
		t.Fatalf("at the byte bound: eviction")
	}
}

func TestUnderMemoryPressure(t *testing.T) {
	p := Policy{MaxEntries: 10, MaxMemoryBytes: 1000}

	if p.UnderMemoryPressure(800) {
		t.Fatalf("80%% exactly is not past the threshold")
	}
	if !p.UnderMemoryPressure(801) {
		t.Fatalf("above 80%% is pressure")
	}
}

func TestOptimizeCountRoundsUp(t *testing.T) {
	p := Policy{}

	cases := map[int]int{0: 0, 1: 1, 5: 1, 9: 2, 10: 2, 11: 3}
	for entries, want := range cases {
		if got := p.OptimizeCount(entries); got != want {
			t.Fatalf("OptimizeCount(%d): expected %d, got %d", entries, want, got)
		}
	}
}

func TestSelectVictimsOrdersByLastAccessed(t *testing.T) {
	base := time.Now()
	candidates := []Candidate{
		{Key: "newest", LastAccessed: base.Add(3 * time.Second)},
		{Key: "oldest", LastAccessed: base},
		{Key: "middle", LastAccessed: base.Add(time.Second)},
	}

	victims := SelectVictims(candidates, 2)
	if len(victims) != 2 || victims[0] != "oldest" || victims[1] != "middle" {
		t.Fatalf("expected [oldest middle], got %v", victims)
	}
}

func TestSelectVictimsBounds(t *testing.T) {
	base := time.Now()
	candidates := []Candidate{
		{Key: "a", LastAccessed: base},
		{Key: "b", LastAccessed: base.Add(time.Second)},
	}

	// Asking for more than exists returns everything, oldest first.
	victims := SelectVictims(candidates, 10)
	if len(victims) != 2 {
		t.Fatalf("expected 2 victims, got %v", victims)
	}

	if got := SelectVictims(nil, 5); got != nil {
		t.Fatalf("expected nil for no candidates, got %v", got)
	}
	if got := SelectVictims(candidates, 0); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
}
