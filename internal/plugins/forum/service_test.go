package forum

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ninglab/ning-backend/internal/apperror"
	"github.com/ninglab/ning-backend/internal/kvstore"
	"github.com/ninglab/ning-backend/internal/plugins/auth"
)

var (
	alice = &auth.User{ID: "1", Username: "alice"}
	bob   = &auth.User{ID: "2", Username: "bob"}
)

func newTestService() Service {
	return NewService(NewRepository(kvstore.NewMemory()))
}

func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

func strptr(s string) *string { return &s }

func mustCreatePost(t *testing.T, svc Service, caller *auth.User, title, content string) *PostPublic {
	t.Helper()
	post, err := svc.CreatePost(context.Background(), caller, PostCreateRequest{Title: title, Content: content})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return post
}

// --- Post Tests ---

func TestCreatePost_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, alice, PostCreateRequest{Title: "", Content: "body"})
	assertAppError(t, err, http.StatusBadRequest)

	long := make([]byte, titleMaxLen+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = svc.CreatePost(ctx, alice, PostCreateRequest{Title: string(long), Content: "body"})
	assertAppError(t, err, http.StatusUnprocessableEntity)
}

func TestListPosts_NewestFirst(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	mustCreatePost(t, svc, alice, "first", "a")
	mustCreatePost(t, svc, alice, "second", "b")
	mustCreatePost(t, svc, bob, "third", "c")

	posts, err := svc.ListPosts(ctx, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	if posts[0].Title != "third" || posts[1].Title != "second" || posts[2].Title != "first" {
		t.Errorf("expected newest-first order, got %s, %s, %s", posts[0].Title, posts[1].Title, posts[2].Title)
	}
}

func TestListPosts_OffsetLimit(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, title := range []string{"p1", "p2", "p3", "p4", "p5"} {
		mustCreatePost(t, svc, alice, title, "body")
	}

	posts, err := svc.ListPosts(ctx, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].Title != "p4" || posts[1].Title != "p3" {
		t.Errorf("expected p4, p3, got %s, %s", posts[0].Title, posts[1].Title)
	}
}

func TestListPosts_DeletedPostConsumesOffsetSlot(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	mustCreatePost(t, svc, alice, "p1", "body")
	mustCreatePost(t, svc, alice, "p2", "body")
	doomed := mustCreatePost(t, svc, alice, "p3", "body")

	if err := svc.DeletePost(ctx, alice, doomed.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The offset applies per scanned id: the deleted newest post uses up
	// the single offset slot, so both live posts come back.
	posts, err := svc.ListPosts(ctx, 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].Title != "p2" || posts[1].Title != "p1" {
		t.Errorf("expected p2, p1, got %s, %s", posts[0].Title, posts[1].Title)
	}
}

func TestDeletePost_SoftDeleteHidesEverywhere(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	post := mustCreatePost(t, svc, alice, "doomed", "body")
	keep := mustCreatePost(t, svc, alice, "kept", "body")

	if err := svc.DeletePost(ctx, alice, post.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Gone from the listing.
	posts, err := svc.ListPosts(ctx, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != keep.ID {
		t.Fatalf("expected only the kept post, got %d posts", len(posts))
	}

	// Reads and mutations see NotFound, indistinguishable from never-existed.
	_, err = svc.GetPost(ctx, post.ID)
	assertAppError(t, err, http.StatusNotFound)

	_, err = svc.UpdatePost(ctx, alice, post.ID, PostUpdateRequest{Title: strptr("new")})
	assertAppError(t, err, http.StatusNotFound)

	err = svc.DeletePost(ctx, alice, post.ID)
	assertAppError(t, err, http.StatusNotFound)
}

func TestUpdatePost_Partial(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	post := mustCreatePost(t, svc, alice, "title", "content")

	updated, err := svc.UpdatePost(ctx, alice, post.ID, PostUpdateRequest{Title: strptr("new title")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "new title" {
		t.Errorf("expected new title, got %s", updated.Title)
	}
	if updated.Content != "content" {
		t.Errorf("expected content untouched, got %s", updated.Content)
	}
}

func TestUpdatePost_NotOwner(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	post := mustCreatePost(t, svc, alice, "title", "content")

	_, err := svc.UpdatePost(ctx, bob, post.ID, PostUpdateRequest{Title: strptr("hijacked")})
	assertAppError(t, err, http.StatusForbidden)

	err = svc.DeletePost(ctx, bob, post.ID)
	assertAppError(t, err, http.StatusForbidden)

	// Any non-owner is rejected, not just a particular one.
	carol := &auth.User{ID: "3", Username: "carol"}
	err = svc.DeletePost(ctx, carol, post.ID)
	assertAppError(t, err, http.StatusForbidden)
}

func TestGetPost_Missing(t *testing.T) {
	svc := newTestService()

	_, err := svc.GetPost(context.Background(), "999")
	assertAppError(t, err, http.StatusNotFound)
}

// --- Like Tests ---

func TestToggleLike_Involution(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	post := mustCreatePost(t, svc, alice, "title", "content")

	res, err := svc.ToggleLike(ctx, bob, post.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Liked || res.Likes != 1 {
		t.Errorf("expected liked=true likes=1, got liked=%v likes=%d", res.Liked, res.Likes)
	}

	res, err = svc.ToggleLike(ctx, bob, post.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Liked || res.Likes != 0 {
		t.Errorf("expected liked=false likes=0, got liked=%v likes=%d", res.Liked, res.Likes)
	}
}

func TestToggleLike_CountsDistinctUsers(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	post := mustCreatePost(t, svc, alice, "title", "content")

	if _, err := svc.ToggleLike(ctx, alice, post.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := svc.ToggleLike(ctx, bob, post.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Likes != 2 {
		t.Errorf("expected 2 likes, got %d", res.Likes)
	}

	got, err := svc.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Likes != 2 {
		t.Errorf("expected 2 likes in projection, got %d", got.Likes)
	}
}

func TestToggleLike_MissingPost(t *testing.T) {
	svc := newTestService()

	_, err := svc.ToggleLike(context.Background(), alice, "999")
	assertAppError(t, err, http.StatusNotFound)
}

// --- Comment Tests ---

func TestComments_Lifecycle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	post := mustCreatePost(t, svc, alice, "title", "content")

	c1, err := svc.CreateComment(ctx, bob, post.ID, CommentCreateRequest{Content: "nice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c1.ID != "1" {
		t.Errorf("expected comment id 1, got %s", c1.ID)
	}

	c2, err := svc.CreateComment(ctx, alice, post.ID, CommentCreateRequest{Content: "thanks"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c2.ID != "2" {
		t.Errorf("expected comment id 2, got %s", c2.ID)
	}

	comments, err := svc.ListComments(ctx, post.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
	if comments[0].Content != "nice" || comments[1].Content != "thanks" {
		t.Errorf("expected insertion order, got %s, %s", comments[0].Content, comments[1].Content)
	}

	// Only the author may delete.
	err = svc.DeleteComment(ctx, alice, post.ID, c1.ID)
	assertAppError(t, err, http.StatusForbidden)

	if err := svc.DeleteComment(ctx, bob, post.ID, c1.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	comments, err = svc.ListComments(ctx, post.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comments) != 1 || comments[0].ID != c2.ID {
		t.Fatalf("expected only comment 2 to remain, got %d comments", len(comments))
	}

	// The per-post counter does not shrink; the next comment gets id 3.
	got, err := svc.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Comments != 2 {
		t.Errorf("expected comment counter to stay at 2, got %d", got.Comments)
	}

	c3, err := svc.CreateComment(ctx, bob, post.ID, CommentCreateRequest{Content: "again"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c3.ID != "3" {
		t.Errorf("expected comment id 3, got %s", c3.ID)
	}
}

func TestCreateComment_MissingPost(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateComment(context.Background(), alice, "999", CommentCreateRequest{Content: "hi"})
	assertAppError(t, err, http.StatusNotFound)
}

func TestDeleteComment_Twice(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	post := mustCreatePost(t, svc, alice, "title", "content")
	c, err := svc.CreateComment(ctx, alice, post.ID, CommentCreateRequest{Content: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.DeleteComment(ctx, alice, post.ID, c.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = svc.DeleteComment(ctx, alice, post.ID, c.ID)
	assertAppError(t, err, http.StatusNotFound)
}
