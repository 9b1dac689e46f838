package study

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ninglab/ning-backend/internal/apperror"
	"github.com/ninglab/ning-backend/internal/kvstore"
)

func mistakeSeqKey(uid string) string        { return "study:" + uid + ":mistakes_seq" }
func mistakeKey(uid, id string) string       { return "study:" + uid + ":mistake:" + id }
func mistakeSetKey(uid string) string        { return "study:" + uid + ":mistakes" }
func difficultyKey(uid, d string) string     { return "study:" + uid + ":difficulty:" + d }
func tagKey(uid, tag string) string          { return "study:" + uid + ":tag:" + tag }
func trendKey(uid, day string) string        { return "study:" + uid + ":trend:" + day }

// Repository defines the data access contract for the study tracker. All
// keys are scoped to a user id.
type Repository interface {
	// NextMistakeID allocates a new id from the user's counter.
	NextMistakeID(ctx context.Context, uid string) (int64, error)

	// SaveMistake persists the record hash and adds the id to the owning set.
	SaveMistake(ctx context.Context, uid string, m *Mistake) error

	// FindMistake loads a record. Returns apperror.NotFound when the hash
	// is empty (deleted or never existed).
	FindMistake(ctx context.Context, uid, id string) (*Mistake, error)

	// MistakeIDs returns the ids in the owning set, unordered.
	MistakeIDs(ctx context.Context, uid string) ([]string, error)

	// MistakeCount returns the owning set's cardinality.
	MistakeCount(ctx context.Context, uid string) (int64, error)

	// DeleteMistake hard-deletes the record hash and removes the id from
	// the owning set. The difficulty/tag counters are left untouched.
	DeleteMistake(ctx context.Context, uid, id string) error

	// Side-effect counters, incremented at create time.
	IncrDifficulty(ctx context.Context, uid, difficulty string) error
	IncrTag(ctx context.Context, uid, tag string) error
	IncrTrend(ctx context.Context, uid, day string) error

	// Counter reads for stats. Absent counters read as 0.
	DifficultyCount(ctx context.Context, uid, difficulty string) (int64, error)
	TrendCount(ctx context.Context, uid, day string) (int64, error)
}

type storeRepository struct {
	store kvstore.Store
}

// NewRepository creates a repository backed by the given store.
func NewRepository(store kvstore.Store) Repository {
	return &storeRepository{store: store}
}

func (r *storeRepository) NextMistakeID(ctx context.Context, uid string) (int64, error) {
	id, err := r.store.Incr(ctx, mistakeSeqKey(uid))
	if err != nil {
		return 0, fmt.Errorf("allocating mistake id: %w", err)
	}
	return id, nil
}

func (r *storeRepository) SaveMistake(ctx context.Context, uid string, m *Mistake) error {
	err := r.store.HSet(ctx, mistakeKey(uid, m.ID), map[string]string{
		"id":         m.ID,
		"titleSlug":  m.TitleSlug,
		"title":      m.Title,
		"difficulty": m.Difficulty,
		"tags":       joinTags(m.Tags),
		"note":       m.Note,
		"created_at": m.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("saving mistake: %w", err)
	}
	if _, err := r.store.SAdd(ctx, mistakeSetKey(uid), m.ID); err != nil {
		return fmt.Errorf("recording mistake id: %w", err)
	}
	return nil
}

func (r *storeRepository) FindMistake(ctx context.Context, uid, id string) (*Mistake, error) {
	fields, err := r.store.HGetAll(ctx, mistakeKey(uid, id))
	if err != nil {
		return nil, fmt.Errorf("loading mistake %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, apperror.NewNotFound("mistake not found")
	}
	return &Mistake{
		ID:         fields["id"],
		TitleSlug:  fields["titleSlug"],
		Title:      fields["title"],
		Difficulty: fields["difficulty"],
		Tags:       splitTags(fields["tags"]),
		Note:       fields["note"],
		CreatedAt:  fields["created_at"],
	}, nil
}

func (r *storeRepository) MistakeIDs(ctx context.Context, uid string) ([]string, error) {
	ids, err := r.store.SMembers(ctx, mistakeSetKey(uid))
	if err != nil {
		return nil, fmt.Errorf("listing mistake ids: %w", err)
	}
	return ids, nil
}

func (r *storeRepository) MistakeCount(ctx context.Context, uid string) (int64, error) {
	n, err := r.store.SCard(ctx, mistakeSetKey(uid))
	if err != nil {
		return 0, fmt.Errorf("counting mistakes: %w", err)
	}
	return n, nil
}

func (r *storeRepository) DeleteMistake(ctx context.Context, uid, id string) error {
	if _, err := r.store.Del(ctx, mistakeKey(uid, id)); err != nil {
		return fmt.Errorf("deleting mistake %s: %w", id, err)
	}
	if _, err := r.store.SRem(ctx, mistakeSetKey(uid), id); err != nil {
		return fmt.Errorf("removing mistake id %s: %w", id, err)
	}
	return nil
}

func (r *storeRepository) IncrDifficulty(ctx context.Context, uid, difficulty string) error {
	if _, err := r.store.Incr(ctx, difficultyKey(uid, difficulty)); err != nil {
		return fmt.Errorf("incrementing difficulty counter: %w", err)
	}
	return nil
}

func (r *storeRepository) IncrTag(ctx context.Context, uid, tag string) error {
	if _, err := r.store.Incr(ctx, tagKey(uid, tag)); err != nil {
		return fmt.Errorf("incrementing tag counter: %w", err)
	}
	return nil
}

func (r *storeRepository) IncrTrend(ctx context.Context, uid, day string) error {
	if _, err := r.store.Incr(ctx, trendKey(uid, day)); err != nil {
		return fmt.Errorf("incrementing trend counter: %w", err)
	}
	return nil
}

func (r *storeRepository) DifficultyCount(ctx context.Context, uid, difficulty string) (int64, error) {
	return r.counter(ctx, difficultyKey(uid, difficulty))
}

func (r *storeRepository) TrendCount(ctx context.Context, uid, day string) (int64, error) {
	return r.counter(ctx, trendKey(uid, day))
}

// counter reads an integer counter key, treating absence as 0.
func (r *storeRepository) counter(ctx context.Context, key string) (int64, error) {
	raw, err := r.store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading counter %s: %w", key, err)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing counter %s: %w", key, err)
	}
	return n, nil
}
