package agent

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ninglab/ning-backend/internal/apperror"
	"github.com/ninglab/ning-backend/internal/kvstore"
)

func sessionSeqKey(uid string) string      { return "agent:" + uid + ":session_seq" }
func sessionKey(uid, sid string) string    { return "agent:" + uid + ":session:" + sid }
func sessionSetKey(uid string) string      { return "agent:" + uid + ":sessions" }
func msgSeqKey(uid, sid string) string     { return "agent:" + uid + ":session:" + sid + ":msg_seq" }
func msgKey(uid, sid, n string) string     { return "agent:" + uid + ":session:" + sid + ":msg:" + n }

// Repository defines the data access contract for agent sessions and
// transcripts. All keys are scoped to a user id.
type Repository interface {
	// NextSessionID allocates a new session id from the user's counter.
	NextSessionID(ctx context.Context, uid string) (int64, error)

	// SaveSession persists the session hash and adds the id to the
	// owning set.
	SaveSession(ctx context.Context, uid string, sess *Session) error

	// FindSession loads a session. Returns apperror.NotFound when the
	// hash is empty.
	FindSession(ctx context.Context, uid, sid string) (*Session, error)

	// MessageCount returns the session's highest message index (0 when
	// the transcript is empty).
	MessageCount(ctx context.Context, uid, sid string) (int64, error)

	// AppendMessage writes turn n and advances the message index to n.
	AppendMessage(ctx context.Context, uid, sid string, n int64, msg *Message) error

	// FindMessage loads turn n. Returns apperror.NotFound when absent.
	FindMessage(ctx context.Context, uid, sid string, n int64) (*Message, error)
}

type storeRepository struct {
	store kvstore.Store
}

// NewRepository creates a repository backed by the given store.
func NewRepository(store kvstore.Store) Repository {
	return &storeRepository{store: store}
}

func (r *storeRepository) NextSessionID(ctx context.Context, uid string) (int64, error) {
	id, err := r.store.Incr(ctx, sessionSeqKey(uid))
	if err != nil {
		return 0, fmt.Errorf("allocating session id: %w", err)
	}
	return id, nil
}

func (r *storeRepository) SaveSession(ctx context.Context, uid string, sess *Session) error {
	err := r.store.HSet(ctx, sessionKey(uid, sess.ID), map[string]string{
		"session_id": sess.ID,
		"created_at": sess.CreatedAt,
		"role":       sess.Role,
		"focus":      sess.Focus,
	})
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if _, err := r.store.SAdd(ctx, sessionSetKey(uid), sess.ID); err != nil {
		return fmt.Errorf("recording session id: %w", err)
	}
	return nil
}

func (r *storeRepository) FindSession(ctx context.Context, uid, sid string) (*Session, error) {
	fields, err := r.store.HGetAll(ctx, sessionKey(uid, sid))
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sid, err)
	}
	if len(fields) == 0 {
		return nil, apperror.NewNotFound("session not found")
	}
	return &Session{
		ID:        fields["session_id"],
		Role:      fields["role"],
		Focus:     fields["focus"],
		CreatedAt: fields["created_at"],
	}, nil
}

func (r *storeRepository) MessageCount(ctx context.Context, uid, sid string) (int64, error) {
	raw, err := r.store.Get(ctx, msgSeqKey(uid, sid))
	if errors.Is(err, kvstore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading message index: %w", err)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing message index: %w", err)
	}
	return n, nil
}

func (r *storeRepository) AppendMessage(ctx context.Context, uid, sid string, n int64, msg *Message) error {
	idx := strconv.FormatInt(n, 10)
	err := r.store.HSet(ctx, msgKey(uid, sid, idx), map[string]string{
		"role":    msg.Role,
		"content": msg.Content,
		"time":    msg.Time,
	})
	if err != nil {
		return fmt.Errorf("saving message %s: %w", idx, err)
	}
	if err := r.store.Set(ctx, msgSeqKey(uid, sid), idx); err != nil {
		return fmt.Errorf("advancing message index: %w", err)
	}
	return nil
}

func (r *storeRepository) FindMessage(ctx context.Context, uid, sid string, n int64) (*Message, error) {
	fields, err := r.store.HGetAll(ctx, msgKey(uid, sid, strconv.FormatInt(n, 10)))
	if err != nil {
		return nil, fmt.Errorf("loading message %d: %w", n, err)
	}
	if len(fields) == 0 {
		return nil, apperror.NewNotFound("message not found")
	}
	return &Message{
		Role:    fields["role"],
		Content: fields["content"],
		Time:    fields["time"],
	}, nil
}
