package store

import (
	"sort"
	"sync"

	"github.com/httpledger/httpledger/pkg/record"
)

// DefaultMaxEntries bounds the in-memory history.
const DefaultMaxEntries = 1000

// Store is the source of truth for captured transactions. Implementations
// must be safe for concurrent use from multiple capture goroutines.
type Store interface {
	// Upsert inserts or fully replaces the record with the same id.
	Upsert(rec *record.Record) error
	// Get returns the record for id, or false if it was never stored
	// or removed by Clear.
	Get(id string) (*record.Record, bool)
	// List returns a snapshot of all records, most recently started
	// first. Ties on start time keep insertion order. The snapshot is
	// detached from later writes.
	List() []*record.Record
	// Clear atomically removes all records.
	Clear() error
	// Len returns the number of stored records.
	Len() int
	// Close releases any underlying resources.
	Close() error
}

type memEntry struct {
	rec *record.Record
	seq uint64
}

// MemoryStore keeps records in a mutex-protected map with an insertion
// sequence for stable ordering. History is bounded: when the capacity is
// exceeded the oldest-started record is evicted.
type MemoryStore struct {
	mu         sync.RWMutex
	items      map[string]memEntry
	nextSeq    uint64
	maxEntries int

	// onEvict, when set, observes capacity evictions. Used for metrics.
	onEvict func(id string)
}

// NewMemory creates a bounded in-memory store. maxEntries <= 0 selects
// DefaultMaxEntries.
func NewMemory(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		items:      make(map[string]memEntry),
		maxEntries: maxEntries,
	}
}

// SetEvictionHook registers a callback invoked (with the lock held) for
// every record dropped by the capacity bound.
func (s *MemoryStore) SetEvictionHook(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = fn
}

// Upsert inserts or replaces the record at rec.ID. The stored copy is
// detached from the caller's record.
func (s *MemoryStore) Upsert(rec *record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.nextSeq
	if existing, ok := s.items[rec.ID]; ok {
		seq = existing.seq
	} else {
		s.nextSeq++
	}
	s.items[rec.ID] = memEntry{rec: rec.Clone(), seq: seq}
	s.evictOverCapacityLocked()
	return nil
}

// Get returns a copy of the record for id.
func (s *MemoryStore) Get(id string) (*record.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	if !ok {
		return nil, false
	}
	return e.rec.Clone(), true
}

// List returns a copy-then-sort snapshot, newest start first.
func (s *MemoryStore) List() []*record.Record {
	s.mu.RLock()
	entries := make([]memEntry, 0, len(s.items))
	for _, e := range s.items {
		entries = append(entries, memEntry{rec: e.rec.Clone(), seq: e.seq})
	}
	s.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].rec.StartTS != entries[j].rec.StartTS {
			return entries[i].rec.StartTS > entries[j].rec.StartTS
		}
		return entries[i].seq < entries[j].seq
	})
	out := make([]*record.Record, len(entries))
	for i, e := range entries {
		out[i] = e.rec
	}
	return out
}

// Clear removes all records.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]memEntry)
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) evictOverCapacityLocked() {
	for len(s.items) > s.maxEntries {
		victim := ""
		var victimTS int64
		var victimSeq uint64
		for id, e := range s.items {
			if victim == "" || e.rec.StartTS < victimTS ||
				(e.rec.StartTS == victimTS && e.seq < victimSeq) {
				victim = id
				victimTS = e.rec.StartTS
				victimSeq = e.seq
			}
		}
		delete(s.items, victim)
		if s.onEvict != nil {
			s.onEvict(victim)
		}
	}
}
