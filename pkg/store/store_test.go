package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/httpledger/httpledger/pkg/record"
)

func rec(id string, startTS int64) *record.Record {
	return &record.Record{ID: id, StartTS: startTS, Method: "GET", URL: "https://example.com/" + id}
}

func TestListNewestFirst(t *testing.T) {
	s := NewMemory(0)
	require.NoError(t, s.Upsert(rec("a", 100)))
	require.NoError(t, s.Upsert(rec("b", 300)))
	require.NoError(t, s.Upsert(rec("c", 200)))

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "c", list[1].ID)
	assert.Equal(t, "a", list[2].ID)
}

func TestListTiesKeepInsertionOrder(t *testing.T) {
	s := NewMemory(0)
	require.NoError(t, s.Upsert(rec("first", 500)))
	require.NoError(t, s.Upsert(rec("second", 500)))
	require.NoError(t, s.Upsert(rec("third", 500)))

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0].ID)
	assert.Equal(t, "second", list[1].ID)
	assert.Equal(t, "third", list[2].ID)
}

func TestUpsertReplacesKeepingInsertionOrder(t *testing.T) {
	s := NewMemory(0)
	require.NoError(t, s.Upsert(rec("a", 100)))
	require.NoError(t, s.Upsert(rec("b", 100)))

	updated := rec("a", 100)
	updated.Method = "POST"
	require.NoError(t, s.Upsert(updated))

	assert.Equal(t, 2, s.Len())
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "POST", got.Method)

	// Replacing "a" must not move it behind "b" in the tie order.
	list := s.List()
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestGetUnknown(t *testing.T) {
	s := NewMemory(0)
	_, ok := s.Get("missing")
	assert.False(t, ok)
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewMemory(0)
	original := rec("a", 100)
	require.NoError(t, s.Upsert(original))

	// Mutating the caller's record after Upsert must not leak in.
	original.Method = "DELETE"
	got, _ := s.Get("a")
	assert.Equal(t, "GET", got.Method)

	// Mutating a returned snapshot must not leak back.
	list := s.List()
	list[0].Method = "PATCH"
	got, _ = s.Get("a")
	assert.Equal(t, "GET", got.Method)
}

func TestClear(t *testing.T) {
	s := NewMemory(0)
	require.NoError(t, s.Upsert(rec("a", 100)))
	require.NoError(t, s.Upsert(rec("b", 200)))
	require.NoError(t, s.Clear())

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.List())
	_, ok := s.Get("a")
	assert.False(t, ok)
}

func TestCapacityEviction(t *testing.T) {
	s := NewMemory(2)
	var evicted []string
	s.SetEvictionHook(func(id string) { evicted = append(evicted, id) })

	require.NoError(t, s.Upsert(rec("oldest", 100)))
	require.NoError(t, s.Upsert(rec("middle", 200)))
	require.NoError(t, s.Upsert(rec("newest", 300)))

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get("oldest")
	assert.False(t, ok, "oldest-started record must be evicted")
	assert.Equal(t, []string{"oldest"}, evicted)
}

func TestConcurrentAccess(t *testing.T) {
	s := NewMemory(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := fmt.Sprintf("w%d-%d", n, j)
				_ = s.Upsert(rec(id, int64(j)))
				s.Get(id)
				s.List()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8*50, s.Len())
}
