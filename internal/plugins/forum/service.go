package forum

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ninglab/ning-backend/internal/apperror"
	"github.com/ninglab/ning-backend/internal/plugins/auth"
	"github.com/ninglab/ning-backend/internal/sanitize"
)

// Title length bound enforced at creation and update.
const titleMaxLen = 200

// Default and maximum page sizes for the post listing.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service defines the business logic contract for the forum.
type Service interface {
	ListPosts(ctx context.Context, offset, limit int) ([]PostPublic, error)
	CreatePost(ctx context.Context, caller *auth.User, req PostCreateRequest) (*PostPublic, error)
	GetPost(ctx context.Context, id string) (*PostPublic, error)
	UpdatePost(ctx context.Context, caller *auth.User, id string, req PostUpdateRequest) (*PostPublic, error)
	DeletePost(ctx context.Context, caller *auth.User, id string) error
	ToggleLike(ctx context.Context, caller *auth.User, postID string) (*LikeResult, error)
	ListComments(ctx context.Context, postID string) ([]CommentPublic, error)
	CreateComment(ctx context.Context, caller *auth.User, postID string, req CommentCreateRequest) (*CommentPublic, error)
	DeleteComment(ctx context.Context, caller *auth.User, postID, commentID string) error
}

type service struct {
	repo Repository
}

// NewService creates a new forum service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// ListPosts scans the id space downward from the highest allocated id.
// The offset is consumed per scanned id, before visibility is checked, so
// soft-deleted and missing ids use up offset slots; only the limit counts
// visible posts. O(maxId), deliberately unindexed for the scale this serves.
func (s *service) ListPosts(ctx context.Context, offset, limit int) ([]PostPublic, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	maxID, err := s.repo.MaxPostID(ctx)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}

	items := make([]PostPublic, 0, limit)
	skip := offset
	for id := maxID; id > 0 && len(items) < limit; id-- {
		if skip > 0 {
			skip--
			continue
		}
		post, err := s.repo.FindPost(ctx, strconv.FormatInt(id, 10))
		if err != nil {
			if apperror.IsNotFound(err) {
				continue
			}
			return nil, apperror.WrapStore(err)
		}
		if post.Deleted {
			continue
		}
		pub, err := s.project(ctx, post)
		if err != nil {
			return nil, err
		}
		items = append(items, *pub)
	}
	return items, nil
}

// CreatePost allocates an id from the global counter and writes the record.
// The id allocation and the record write are independent store calls; a
// crash in between loses the record but not the id, which is accepted.
func (s *service) CreatePost(ctx context.Context, caller *auth.User, req PostCreateRequest) (*PostPublic, error) {
	req.Title = sanitize.Text(req.Title)
	req.Content = sanitize.Text(req.Content)
	if req.Title == "" || req.Content == "" {
		return nil, apperror.NewBadRequest("title and content are required")
	}
	if len(req.Title) > titleMaxLen {
		return nil, apperror.NewValidation(fmt.Sprintf("title must be at most %d characters", titleMaxLen))
	}

	id, err := s.repo.NextPostID(ctx)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}

	post := &Post{
		ID:        strconv.FormatInt(id, 10),
		Title:     req.Title,
		Content:   req.Content,
		Author:    caller.Username,
		AuthorID:  caller.ID,
		CreatedAt: nowISO(),
	}
	if err := s.repo.SavePost(ctx, post); err != nil {
		return nil, apperror.WrapStore(err)
	}

	slog.Info("post created",
		slog.String("post_id", post.ID),
		slog.String("user_id", caller.ID),
	)

	return &PostPublic{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		Author:    post.Author,
		CreatedAt: post.CreatedAt,
	}, nil
}

// GetPost returns a single post. Soft-deleted posts read as not found.
func (s *service) GetPost(ctx context.Context, id string) (*PostPublic, error) {
	post, err := s.visiblePost(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, post)
}

// UpdatePost partially updates title/content. Only the author may update;
// the existence check runs before the ownership check, so a missing or
// deleted post yields NotFound even for non-owners.
func (s *service) UpdatePost(ctx context.Context, caller *auth.User, id string, req PostUpdateRequest) (*PostPublic, error) {
	post, err := s.visiblePost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != caller.ID {
		return nil, apperror.NewForbidden("not the post author")
	}

	fields := make(map[string]string)
	if req.Title != nil {
		title := sanitize.Text(*req.Title)
		if title == "" || len(title) > titleMaxLen {
			return nil, apperror.NewValidation(fmt.Sprintf("title must be 1-%d characters", titleMaxLen))
		}
		fields["title"] = title
	}
	if req.Content != nil {
		content := sanitize.Text(*req.Content)
		if content == "" {
			return nil, apperror.NewValidation("content must not be empty")
		}
		fields["content"] = content
	}
	if len(fields) > 0 {
		if err := s.repo.UpdatePostFields(ctx, id, fields); err != nil {
			return nil, apperror.WrapStore(err)
		}
	}

	updated, err := s.repo.FindPost(ctx, id)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}
	return s.project(ctx, updated)
}

// DeletePost soft-deletes a post by flipping the deleted flag. The record
// and its likes/comments stay in the store.
func (s *service) DeletePost(ctx context.Context, caller *auth.User, id string) error {
	post, err := s.visiblePost(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != caller.ID {
		return apperror.NewForbidden("not the post author")
	}

	if err := s.repo.UpdatePostFields(ctx, id, map[string]string{"deleted": "1"}); err != nil {
		return apperror.WrapStore(err)
	}

	slog.Info("post deleted",
		slog.String("post_id", id),
		slog.String("user_id", caller.ID),
	)
	return nil
}

// ToggleLike flips the caller's membership in the post's like set and
// reports the new state and cardinality. The check-then-flip is not atomic
// against a concurrent toggle by the same user; the worst case is one extra
// flip, and the cardinality read afterwards is accurate.
func (s *service) ToggleLike(ctx context.Context, caller *auth.User, postID string) (*LikeResult, error) {
	if _, err := s.visiblePost(ctx, postID); err != nil {
		return nil, err
	}

	liked, err := s.repo.HasLiked(ctx, postID, caller.ID)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}
	if liked {
		err = s.repo.RemoveLike(ctx, postID, caller.ID)
	} else {
		err = s.repo.AddLike(ctx, postID, caller.ID)
	}
	if err != nil {
		return nil, apperror.WrapStore(err)
	}

	likes, err := s.repo.LikeCount(ctx, postID)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}
	return &LikeResult{Liked: !liked, Likes: likes}, nil
}

// ListComments iterates comment ids 1..count, skipping soft-deleted and
// missing entries.
func (s *service) ListComments(ctx context.Context, postID string) ([]CommentPublic, error) {
	count, err := s.repo.CommentCount(ctx, postID)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}

	items := make([]CommentPublic, 0, count)
	for i := int64(1); i <= count; i++ {
		comment, err := s.repo.FindComment(ctx, postID, strconv.FormatInt(i, 10))
		if err != nil {
			if apperror.IsNotFound(err) {
				continue
			}
			return nil, apperror.WrapStore(err)
		}
		if comment.Deleted {
			continue
		}
		items = append(items, CommentPublic{
			ID:        comment.ID,
			Content:   comment.Content,
			Author:    comment.Author,
			CreatedAt: comment.CreatedAt,
		})
	}
	return items, nil
}

// CreateComment appends a comment under the post's per-post counter. The
// counter is read, the comment written, then the counter stored back; a
// crash in between leaves an orphaned comment hash that never surfaces.
func (s *service) CreateComment(ctx context.Context, caller *auth.User, postID string, req CommentCreateRequest) (*CommentPublic, error) {
	req.Content = sanitize.Text(req.Content)
	if req.Content == "" {
		return nil, apperror.NewBadRequest("content is required")
	}
	if _, err := s.visiblePost(ctx, postID); err != nil {
		return nil, err
	}

	count, err := s.repo.CommentCount(ctx, postID)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}
	next := count + 1

	comment := &Comment{
		ID:        strconv.FormatInt(next, 10),
		PostID:    postID,
		Author:    caller.Username,
		AuthorID:  caller.ID,
		Content:   req.Content,
		CreatedAt: nowISO(),
	}
	if err := s.repo.SaveComment(ctx, comment); err != nil {
		return nil, apperror.WrapStore(err)
	}
	if err := s.repo.SetCommentCount(ctx, postID, next); err != nil {
		return nil, apperror.WrapStore(err)
	}

	return &CommentPublic{
		ID:        comment.ID,
		Content:   comment.Content,
		Author:    comment.Author,
		CreatedAt: comment.CreatedAt,
	}, nil
}

// DeleteComment soft-deletes a comment. Only the author may delete.
func (s *service) DeleteComment(ctx context.Context, caller *auth.User, postID, commentID string) error {
	comment, err := s.repo.FindComment(ctx, postID, commentID)
	if err != nil {
		return apperror.WrapStore(err)
	}
	if comment.Deleted {
		return apperror.NewNotFound("comment not found")
	}
	if comment.AuthorID != caller.ID {
		return apperror.NewForbidden("not the comment author")
	}

	if err := s.repo.MarkCommentDeleted(ctx, postID, commentID); err != nil {
		return apperror.WrapStore(err)
	}
	return nil
}

// visiblePost loads a post and converts soft-deleted into NotFound.
func (s *service) visiblePost(ctx context.Context, id string) (*Post, error) {
	post, err := s.repo.FindPost(ctx, id)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}
	if post.Deleted {
		return nil, apperror.NewNotFound("post not found")
	}
	return post, nil
}

// project builds the public view of a post with its derived counts.
func (s *service) project(ctx context.Context, post *Post) (*PostPublic, error) {
	likes, err := s.repo.LikeCount(ctx, post.ID)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}
	comments, err := s.repo.CommentCount(ctx, post.ID)
	if err != nil {
		return nil, apperror.WrapStore(err)
	}
	return &PostPublic{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		Author:    post.Author,
		Likes:     likes,
		Comments:  comments,
		CreatedAt: post.CreatedAt,
	}, nil
}
