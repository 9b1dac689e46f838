package forum

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ninglab/ning-backend/internal/apperror"
	"github.com/ninglab/ning-backend/internal/kvstore"
)

// Key patterns for the forum namespace.
const postSeqKey = "forum:post_seq"

func postKey(id string) string         { return "forum:post:" + id }
func postLikesKey(id string) string    { return "forum:post:" + id + ":likes" }
func commentCountKey(id string) string { return "forum:post:" + id + ":comments_cnt" }
func commentKey(postID, id string) string {
	return "forum:comment:" + postID + ":" + id
}

// Repository defines the data access contract for posts, comments, and
// likes. Key naming and hash (de)serialization live here.
type Repository interface {
	// NextPostID allocates a new post id from the global counter.
	NextPostID(ctx context.Context) (int64, error)

	// MaxPostID returns the highest allocated post id (0 when none exist).
	// The post listing scans downward from here.
	MaxPostID(ctx context.Context) (int64, error)

	// SavePost persists the full post record hash.
	SavePost(ctx context.Context, post *Post) error

	// FindPost loads a post record, including soft-deleted ones -- the
	// service decides how deletion surfaces. Returns apperror.NotFound
	// when the hash is empty.
	FindPost(ctx context.Context, id string) (*Post, error)

	// UpdatePostFields merges the given fields into the post hash.
	UpdatePostFields(ctx context.Context, id string, fields map[string]string) error

	// Likes.
	LikeCount(ctx context.Context, postID string) (int64, error)
	HasLiked(ctx context.Context, postID, userID string) (bool, error)
	AddLike(ctx context.Context, postID, userID string) error
	RemoveLike(ctx context.Context, postID, userID string) error

	// Comments. The counter doubles as the id allocator: comment n lives
	// at forum:comment:{postID}:{n} for n in 1..CommentCount.
	CommentCount(ctx context.Context, postID string) (int64, error)
	SetCommentCount(ctx context.Context, postID string, n int64) error
	SaveComment(ctx context.Context, comment *Comment) error
	FindComment(ctx context.Context, postID, id string) (*Comment, error)
	MarkCommentDeleted(ctx context.Context, postID, id string) error
}

type storeRepository struct {
	store kvstore.Store
}

// NewRepository creates a repository backed by the given store.
func NewRepository(store kvstore.Store) Repository {
	return &storeRepository{store: store}
}

func (r *storeRepository) NextPostID(ctx context.Context) (int64, error) {
	id, err := r.store.Incr(ctx, postSeqKey)
	if err != nil {
		return 0, fmt.Errorf("allocating post id: %w", err)
	}
	return id, nil
}

func (r *storeRepository) MaxPostID(ctx context.Context) (int64, error) {
	return r.counter(ctx, postSeqKey)
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

func (r *storeRepository) SavePost(ctx context.Context, post *Post) error {
	err := r.store.HSet(ctx, postKey(post.ID), map[string]string{
		"id":         post.ID,
		"title":      post.Title,
		"content":    post.Content,
		"author":     post.Author,
		"author_id":  post.AuthorID,
		"created_at": post.CreatedAt,
		"deleted":    deletedFlag(post.Deleted),
	})
	if err != nil {
		return fmt.Errorf("saving post: %w", err)
	}
	return nil
}

func (r *storeRepository) FindPost(ctx context.Context, id string) (*Post, error) {
	fields, err := r.store.HGetAll(ctx, postKey(id))
	if err != nil {
		return nil, fmt.Errorf("loading post %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, apperror.NewNotFound("post not found")
	}
	return &Post{
		ID:        id,
		Title:     fields["title"],
		Content:   fields["content"],
		Author:    authorOr(fields["author"]),
		AuthorID:  fields["author_id"],
		CreatedAt: fields["created_at"],
		Deleted:   fields["deleted"] == "1",
	}, nil
}

func (r *storeRepository) UpdatePostFields(ctx context.Context, id string, fields map[string]string) error {
	if err := r.store.HSet(ctx, postKey(id), fields); err != nil {
		return fmt.Errorf("updating post %s: %w", id, err)
	}
	return nil
}

func (r *storeRepository) LikeCount(ctx context.Context, postID string) (int64, error) {
	n, err := r.store.SCard(ctx, postLikesKey(postID))
	if err != nil {
		return 0, fmt.Errorf("counting likes: %w", err)
	}
	return n, nil
}

func (r *storeRepository) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	ok, err := r.store.SIsMember(ctx, postLikesKey(postID), userID)
	if err != nil {
		return false, fmt.Errorf("checking like: %w", err)
	}
	return ok, nil
}

func (r *storeRepository) AddLike(ctx context.Context, postID, userID string) error {
	if _, err := r.store.SAdd(ctx, postLikesKey(postID), userID); err != nil {
		return fmt.Errorf("adding like: %w", err)
	}
	return nil
}

func (r *storeRepository) RemoveLike(ctx context.Context, postID, userID string) error {
	if _, err := r.store.SRem(ctx, postLikesKey(postID), userID); err != nil {
		return fmt.Errorf("removing like: %w", err)
	}
	return nil
}

func (r *storeRepository) CommentCount(ctx context.Context, postID string) (int64, error) {
	return r.counter(ctx, commentCountKey(postID))
}

func (r *storeRepository) SetCommentCount(ctx context.Context, postID string, n int64) error {
	if err := r.store.Set(ctx, commentCountKey(postID), strconv.FormatInt(n, 10)); err != nil {
		return fmt.Errorf("setting comment count: %w", err)
	}
	return nil
}

func (r *storeRepository) SaveComment(ctx context.Context, comment *Comment) error {
	err := r.store.HSet(ctx, commentKey(comment.PostID, comment.ID), map[string]string{
		"id":         comment.ID,
		"post_id":    comment.PostID,
		"author":     comment.Author,
		"author_id":  comment.AuthorID,
		"content":    comment.Content,
		"created_at": comment.CreatedAt,
		"deleted":    deletedFlag(comment.Deleted),
	})
	if err != nil {
		return fmt.Errorf("saving comment: %w", err)
	}
	return nil
}

func (r *storeRepository) FindComment(ctx context.Context, postID, id string) (*Comment, error) {
	fields, err := r.store.HGetAll(ctx, commentKey(postID, id))
	if err != nil {
		return nil, fmt.Errorf("loading comment %s/%s: %w", postID, id, err)
	}
	if len(fields) == 0 {
		return nil, apperror.NewNotFound("comment not found")
	}
	return &Comment{
		ID:        id,
		PostID:    postID,
		Author:    authorOr(fields["author"]),
		AuthorID:  fields["author_id"],
		Content:   fields["content"],
		CreatedAt: fields["created_at"],
		Deleted:   fields["deleted"] == "1",
	}, nil
}

func (r *storeRepository) MarkCommentDeleted(ctx context.Context, postID, id string) error {
	if err := r.store.HSet(ctx, commentKey(postID, id), map[string]string{"deleted": "1"}); err != nil {
		return fmt.Errorf("deleting comment %s/%s: %w", postID, id, err)
	}
	return nil
}

func deletedFlag(deleted bool) string {
	if deleted {
		return "1"
	}
	return "0"
}

func authorOr(author string) string {
	if author == "" {
		return anonymousAuthor
	}
	return author
}
