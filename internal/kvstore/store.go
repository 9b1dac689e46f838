// Package kvstore defines the key-value store abstraction that all
// persistence in ning-backend goes through. Records live in a single flat
// namespace partitioned by key prefixes (user:*, session:*, forum:*,
// study:*, agent:*) -- the prefix convention is the only namespacing.
//
// Two implementations exist: a Redis-backed store for real deployments
// (redis.go) and an in-memory fallback for development and tests
// (memory.go). Both are safe for unbounded concurrent callers.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key doesn't exist or has expired.
var ErrNotFound = errors.New("key not found")

// Store is the capability set required of any backing implementation.
// There is no multi-operation transaction support; each call is an
// independent synchronization point.
type Store interface {
	// Get retrieves a scalar value. Returns ErrNotFound if the key is
	// absent or its expiry has passed.
	Get(ctx context.Context, key string) (string, error)

	// Set writes a scalar value unconditionally and clears any expiry.
	Set(ctx context.Context, key, value string) error

	// SetNX writes only if the key holds no value. Returns whether the
	// write happened. Used for uniqueness enforcement (set-if-absent).
	SetNX(ctx context.Context, key, value string) (bool, error)

	// SetEx writes a scalar value with an expiry. After the TTL elapses,
	// reads behave as if the key never existed.
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error

	// Incr atomically increments the integer at key (absent counts as 0)
	// and returns the new value. No lost updates under concurrency.
	Incr(ctx context.Context, key string) (int64, error)

	// HSet merges field/value pairs into the hash at key.
	HSet(ctx context.Context, key string, fields map[string]string) error

	// HGetAll returns all fields of the hash at key. A missing key yields
	// an empty map, not an error.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// SAdd adds members to the set at key, returning how many were new.
	SAdd(ctx context.Context, key string, members ...string) (int64, error)

	// SRem removes members from the set at key, returning how many were
	// actually present.
	SRem(ctx context.Context, key string, members ...string) (int64, error)

	// SMembers returns all members of the set at key.
	SMembers(ctx context.Context, key string) ([]string, error)

	// SIsMember reports whether member is in the set at key.
	SIsMember(ctx context.Context, key, member string) (bool, error)

	// SCard returns the cardinality of the set at key.
	SCard(ctx context.Context, key string) (int64, error)

	// Del removes a scalar key. Returns whether it existed.
	Del(ctx context.Context, key string) (bool, error)

	// Ping verifies the store is reachable. Used by the health check.
	Ping(ctx context.Context) error

	// Close releases the underlying connection, if any.
	Close() error
}
