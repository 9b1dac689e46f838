package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ninglab/ning-backend/internal/apperror"
	"github.com/ninglab/ning-backend/internal/kvstore"
)

// Key patterns for the auth namespace.
const (
	userSeqKey         = "users:seq"
	userKeyPrefix      = "user:"
	userByNamePrefix   = "user:byname:"
	sessionKeyPrefix   = "session:"
	userSessionsPrefix = "user:sessions:"
)

func userKey(id string) string         { return userKeyPrefix + id }
func userByNameKey(name string) string { return userByNamePrefix + name }
func sessionKey(token string) string   { return sessionKeyPrefix + token }
func userSessionsKey(uid string) string {
	return userSessionsPrefix + uid
}

// Repository defines the data access contract for users and sessions.
// All key naming and hash (de)serialization lives in the concrete
// implementation -- no store keys leak out.
type Repository interface {
	// NextUserID allocates a new user id from the global counter.
	NextUserID(ctx context.Context) (int64, error)

	// BindUsername creates the unique username -> id binding via
	// set-if-absent. Returns false if the username is already taken.
	BindUsername(ctx context.Context, username string, id int64) (bool, error)

	// SaveUser persists the full user record hash.
	SaveUser(ctx context.Context, user *User) error

	// FindUserByID loads a user record. Returns apperror.NotFound if the
	// record hash is empty.
	FindUserByID(ctx context.Context, id string) (*User, error)

	// FindUserIDByName resolves a username to its bound user id.
	// Returns apperror.NotFound if no binding exists.
	FindUserIDByName(ctx context.Context, username string) (string, error)

	// CreateSession stores token -> uid with the given TTL and records the
	// token in the user's active-token set.
	CreateSession(ctx context.Context, token, uid string, ttl time.Duration) error

	// FindSessionUID resolves a token to its user id. Returns
	// apperror.NotFound if the token is unknown or expired.
	FindSessionUID(ctx context.Context, token string) (string, error)

	// DeleteSession removes the token mapping and the entry in the user's
	// active-token set.
	DeleteSession(ctx context.Context, token, uid string) error
}

// storeRepository implements Repository against the key-value store.
type storeRepository struct {
	store kvstore.Store
}

// NewRepository creates a repository backed by the given store.
func NewRepository(store kvstore.Store) Repository {
	return &storeRepository{store: store}
}

func (r *storeRepository) NextUserID(ctx context.Context) (int64, error) {
	id, err := r.store.Incr(ctx, userSeqKey)
	if err != nil {
		return 0, fmt.Errorf("allocating user id: %w", err)
	}
	return id, nil
}

func (r *storeRepository) BindUsername(ctx context.Context, username string, id int64) (bool, error) {
	ok, err := r.store.SetNX(ctx, userByNameKey(username), strconv.FormatInt(id, 10))
	if err != nil {
		return false, fmt.Errorf("binding username: %w", err)
	}
	return ok, nil
}

func (r *storeRepository) SaveUser(ctx context.Context, user *User) error {
	err := r.store.HSet(ctx, userKey(user.ID), map[string]string{
		"id":            user.ID,
		"username":      user.Username,
		"password_hash": user.PasswordHash,
		"created_at":    user.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

func (r *storeRepository) FindUserByID(ctx context.Context, id string) (*User, error) {
	fields, err := r.store.HGetAll(ctx, userKey(id))
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, apperror.NewNotFound("user not found")
	}
	return &User{
		ID:           fields["id"],
		Username:     fields["username"],
		PasswordHash: fields["password_hash"],
		CreatedAt:    fields["created_at"],
	}, nil
}

func (r *storeRepository) FindUserIDByName(ctx context.Context, username string) (string, error) {
	uid, err := r.store.Get(ctx, userByNameKey(username))
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", apperror.NewNotFound("user not found")
	}
	if err != nil {
		return "", fmt.Errorf("resolving username: %w", err)
	}
	return uid, nil
}

func (r *storeRepository) CreateSession(ctx context.Context, token, uid string, ttl time.Duration) error {
	if err := r.store.SetEx(ctx, sessionKey(token), uid, ttl); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	// Tracked for per-device logout. If the token later expires passively,
	// this set keeps a stale reference; lookups against the vanished
	// session key still fail closed.
	if _, err := r.store.SAdd(ctx, userSessionsKey(uid), token); err != nil {
		return fmt.Errorf("recording session token: %w", err)
	}
	return nil
}

func (r *storeRepository) FindSessionUID(ctx context.Context, token string) (string, error) {
	uid, err := r.store.Get(ctx, sessionKey(token))
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", apperror.NewNotFound("session not found")
	}
	if err != nil {
		return "", fmt.Errorf("resolving session: %w", err)
	}
	return uid, nil
}

func (r *storeRepository) DeleteSession(ctx context.Context, token, uid string) error {
	if _, err := r.store.Del(ctx, sessionKey(token)); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if _, err := r.store.SRem(ctx, userSessionsKey(uid), token); err != nil {
		return fmt.Errorf("removing session token: %w", err)
	}
	return nil
}
