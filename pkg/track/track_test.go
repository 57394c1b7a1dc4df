package track

import (
	"testing"
	"time"
)

func TestBeginEnd(t *testing.T) {
	trk := New(0)

	trk.Begin("a", 1000)
	d, ok := trk.End("a", 1350)
	if !ok {
		t.Fatal("expected tracked entry for a")
	}
	if d != 350 {
		t.Errorf("duration = %d, want 350", d)
	}
	if trk.Len() != 0 {
		t.Errorf("entry not consumed, len = %d", trk.Len())
	}
}

func TestEndUnknownID(t *testing.T) {
	trk := New(0)
	if _, ok := trk.End("nope", 100); ok {
		t.Error("End on unknown id must report ok=false")
	}
}

func TestDuplicateBeginReplaces(t *testing.T) {
	trk := New(0)
	trk.Begin("a", 1000)
	trk.Begin("a", 2000)
	if trk.Len() != 1 {
		t.Fatalf("len = %d, want 1", trk.Len())
	}
	d, ok := trk.End("a", 2500)
	if !ok || d != 500 {
		t.Errorf("End = (%d, %v), want (500, true)", d, ok)
	}
}

func TestNegativeDurationClamped(t *testing.T) {
	trk := New(0)
	trk.Begin("a", 5000)
	d, ok := trk.End("a", 4000)
	if !ok {
		t.Fatal("entry must still be consumable")
	}
	if d != 0 {
		t.Errorf("duration = %d, want 0 (clamped)", d)
	}
}

func TestStaleEviction(t *testing.T) {
	trk := New(time.Minute)

	base := time.Now()
	trk.now = func() time.Time { return base }
	trk.Begin("old", 1000)

	// Advance past the eviction horizon; the next Begin sweeps it out.
	trk.now = func() time.Time { return base.Add(2 * time.Minute) }
	trk.Begin("fresh", 2000)

	if trk.Len() != 1 {
		t.Fatalf("len = %d, want 1 after eviction", trk.Len())
	}
	if _, ok := trk.End("old", 3000); ok {
		t.Error("evicted entry must not be matchable")
	}
	if _, ok := trk.End("fresh", 3000); !ok {
		t.Error("fresh entry must survive the sweep")
	}
}

func TestConcurrentUse(t *testing.T) {
	trk := New(0)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				id := string(rune('a'+n)) + "-" + string(rune('0'+j%10))
				trk.Begin(id, int64(j))
				trk.End(id, int64(j+1))
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
