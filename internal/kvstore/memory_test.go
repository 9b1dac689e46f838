package kvstore

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v"))
	val, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestMemorySetNX(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	ok, err := s.SetNX(ctx, "k", "first")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, "k", "second")
	require.NoError(t, err)
	assert.False(t, ok, "second SetNX on the same key must not write")

	val, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "first", val)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	// Swap the clock so expiry can be tested without sleeping.
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.SetEx(ctx, "k", "v", time.Minute))

	val, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	// Past the deadline the key reads as absent even though no sweep ran.
	now = now.Add(time.Minute + time.Second)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySetClearsExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.SetEx(ctx, "k", "v", time.Minute))
	require.NoError(t, s.Set(ctx, "k", "v2"))

	now = now.Add(time.Hour)
	val, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", val, "unconditional Set must clear the old deadline")
}

func TestMemoryIncr(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	n, err := s.Incr(ctx, "seq")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Incr(ctx, "seq")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMemoryIncrConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				if _, err := s.Incr(ctx, "seq"); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	n, err := s.Incr(ctx, "seq")
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines*perGoroutine+1), n, "no increments may be lost")
}

func TestMemoryHash(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	// A missing hash reads as an empty map, not an error.
	m, err := s.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Empty(t, m)

	require.NoError(t, s.HSet(ctx, "h", map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, s.HSet(ctx, "h", map[string]string{"b": "3"}))

	m, err = s.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "3"}, m)

	// Mutating the returned map must not leak back into the store.
	m["a"] = "mutated"
	m2, err := s.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, "1", m2["a"])
}

func TestMemorySets(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	added, err := s.SAdd(ctx, "s", "a", "b", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), added)

	ok, err := s.SIsMember(ctx, "s", "a")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := s.SCard(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	members, err := s.SMembers(ctx, "s")
	require.NoError(t, err)
	sort.Strings(members)
	assert.Equal(t, []string{"a", "b"}, members)

	removed, err := s.SRem(ctx, "s", "a", "zzz")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	ok, err = s.SIsMember(ctx, "s", "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryDel(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	existed, err := s.Del(ctx, "k")
	require.NoError(t, err)
	assert.False(t, existed)

	require.NoError(t, s.Set(ctx, "k", "v"))
	existed, err = s.Del(ctx, "k")
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
