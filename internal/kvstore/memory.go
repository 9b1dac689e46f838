package kvstore

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is the in-process fallback implementation of Store, used for
// development and tests without a Redis instance. Four maps hold scalar
// values, hashes, sets, and expiry deadlines, all guarded by a single mutex.
// Coarse-grained locking is fine here -- this is a fallback, not a
// performance-critical path.
//
// Only scalar keys support expiry. Expired keys are swept lazily: every
// operation evicts passed deadlines before acting, so an expired key reads
// as absent even though no background cleanup exists.
type MemoryStore struct {
	mu       sync.Mutex
	kv       map[string]string
	hashes   map[string]map[string]string
	sets     map[string]map[string]struct{}
	deadline map[string]time.Time

	// now is swappable in tests to exercise expiry without sleeping.
	now func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		kv:       make(map[string]string),
		hashes:   make(map[string]map[string]string),
		sets:     make(map[string]map[string]struct{}),
		deadline: make(map[string]time.Time),
		now:      time.Now,
	}
}

// sweep evicts scalar keys whose deadline has passed. Callers must hold mu.
func (s *MemoryStore) sweep() {
	now := s.now()
	for k, t := range s.deadline {
		if !t.After(now) {
			delete(s.kv, k)
			delete(s.deadline, k)
		}
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	val, ok := s.kv[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	s.kv[key] = value
	delete(s.deadline, key)
	return nil
}

func (s *MemoryStore) SetNX(ctx context.Context, key, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	if _, exists := s.kv[key]; exists {
		return false, nil
	}
	s.kv[key] = value
	delete(s.deadline, key)
	return true, nil
}

func (s *MemoryStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	s.kv[key] = value
	s.deadline[key] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	// A missing or non-numeric value counts as 0. Counter keys are only
	// ever written by Incr in correct usage, so parse failures don't occur.
	cur, _ := strconv.ParseInt(s.kv[key], 10, 64)
	cur++
	s.kv[key] = strconv.FormatInt(cur, 10)
	return cur, nil
}

func (s *MemoryStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	for f, v := range fields {
		h[f] = v
	}
	return nil
}

func (s *MemoryStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	// Copy so callers never observe a torn or mutated hash.
	out := make(map[string]string, len(s.hashes[key]))
	for f, v := range s.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (s *MemoryStore) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	var added int64
	for _, m := range members {
		if _, exists := set[m]; !exists {
			set[m] = struct{}{}
			added++
		}
	}
	return added, nil
}

func (s *MemoryStore) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	set := s.sets[key]
	var removed int64
	for _, m := range members {
		if _, exists := set[m]; exists {
			delete(set, m)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) SMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	out := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		out = append(out, m)
	}
	return out, nil
}

func (s *MemoryStore) SIsMember(ctx context.Context, key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	_, ok := s.sets[key][member]
	return ok, nil
}

func (s *MemoryStore) SCard(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	return int64(len(s.sets[key])), nil
}

func (s *MemoryStore) Del(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	_, existed := s.kv[key]
	delete(s.kv, key)
	delete(s.deadline, key)
	return existed, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
