package track

import (
	"sync"
	"time"
)

// DefaultEvictAfter bounds how long an unmatched start entry may live.
// A finish that never arrives would otherwise leak the entry forever.
const DefaultEvictAfter = 10 * time.Minute

type inflightEntry struct {
	startTS int64
	added   time.Time
}

// Tracker maps in-flight transaction ids to their start timestamp so a
// finish event can compute the elapsed duration. Entries are transient:
// consumed on End, or evicted once they have been in flight longer than
// the configured age.
type Tracker struct {
	mu         sync.Mutex
	inflight   map[string]inflightEntry
	evictAfter time.Duration
	now        func() time.Time
}

// New creates a tracker. evictAfter <= 0 selects DefaultEvictAfter.
func New(evictAfter time.Duration) *Tracker {
	if evictAfter <= 0 {
		evictAfter = DefaultEvictAfter
	}
	return &Tracker{
		inflight:   make(map[string]inflightEntry),
		evictAfter: evictAfter,
		now:        time.Now,
	}
}

// Begin records the start timestamp for id. A duplicate start for the
// same id silently replaces the previous entry (treated as a restart).
func (t *Tracker) Begin(id string, startTS int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictStaleLocked()
	t.inflight[id] = inflightEntry{startTS: startTS, added: t.now()}
}

// End removes the entry for id and returns the elapsed duration in
// milliseconds. ok is false when the start was never observed (or was
// evicted); the duration is then meaningless. Clock skew between the
// two capture points is clamped so the duration is never negative.
func (t *Tracker) End(id string, finishTS int64) (durationMS int64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictStaleLocked()
	entry, found := t.inflight[id]
	if !found {
		return 0, false
	}
	delete(t.inflight, id)
	d := finishTS - entry.startTS
	if d < 0 {
		d = 0
	}
	return d, true
}

// Len returns the number of in-flight entries.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

func (t *Tracker) evictStaleLocked() {
	cutoff := t.now().Add(-t.evictAfter)
	for id, entry := range t.inflight {
		if entry.added.Before(cutoff) {
			delete(t.inflight, id)
		}
	}
}
