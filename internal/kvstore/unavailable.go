package kvstore

import (
	"context"
	"fmt"
	"time"
)

// UnavailableStore is the explicit "store never came up" state. When the
// Redis connection fails at startup the process still boots with this
// implementation installed: the health check reports disconnected, and
// every real use fails fast with the original connection error instead of
// a nil-pointer panic.
type UnavailableStore struct {
	err error
}

// NewUnavailable wraps the startup error that made the store unusable.
func NewUnavailable(err error) *UnavailableStore {
	return &UnavailableStore{err: err}
}

func (s *UnavailableStore) fail() error {
	return fmt.Errorf("store unavailable: %w", s.err)
}

func (s *UnavailableStore) Get(ctx context.Context, key string) (string, error) {
	return "", s.fail()
}

func (s *UnavailableStore) Set(ctx context.Context, key, value string) error {
	return s.fail()
}

func (s *UnavailableStore) SetNX(ctx context.Context, key, value string) (bool, error) {
	return false, s.fail()
}

func (s *UnavailableStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.fail()
}

func (s *UnavailableStore) Incr(ctx context.Context, key string) (int64, error) {
	return 0, s.fail()
}

func (s *UnavailableStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	return s.fail()
}

func (s *UnavailableStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return nil, s.fail()
}

func (s *UnavailableStore) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	return 0, s.fail()
}

func (s *UnavailableStore) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	return 0, s.fail()
}

func (s *UnavailableStore) SMembers(ctx context.Context, key string) ([]string, error) {
	return nil, s.fail()
}

func (s *UnavailableStore) SIsMember(ctx context.Context, key, member string) (bool, error) {
	return false, s.fail()
}

func (s *UnavailableStore) SCard(ctx context.Context, key string) (int64, error) {
	return 0, s.fail()
}

func (s *UnavailableStore) Del(ctx context.Context, key string) (bool, error) {
	return false, s.fail()
}

func (s *UnavailableStore) Ping(ctx context.Context) error {
	return s.fail()
}

func (s *UnavailableStore) Close() error {
	return nil
}
