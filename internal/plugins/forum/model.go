// Package forum implements the discussion forum: posts with soft delete,
// per-post comments, and a like toggle backed by a set of liking user ids.
//
// Key layout: forum:post_seq (global id counter), forum:post:{id} (record
// hash), forum:post:{id}:likes (set of user ids), forum:post:{id}:comments_cnt
// (per-post comment counter), forum:comment:{postID}:{n} (comment hash).
package forum

import "time"

// anonymousAuthor is rendered when a post or comment hash is missing its
// author field.
const anonymousAuthor = "匿名宁友"

// Post is the domain model for a forum post. Soft delete is a flag on the
// record; deleted posts stay in the store but never surface in reads.
type Post struct {
	ID        string
	Title     string
	Content   string
	Author    string
	AuthorID  string
	CreatedAt string
	Deleted   bool
}

// Comment is the domain model for a post comment. Comment ids are scoped
// per post, not globally unique.
type Comment struct {
	ID        string
	PostID    string
	Author    string
	AuthorID  string
	Content   string
	CreatedAt string
	Deleted   bool
}

// --- Request/response DTOs ---

// PostCreateRequest is the body of POST /forum/posts.
type PostCreateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PostUpdateRequest is the body of PUT /forum/posts/:id. Nil fields are
// left unchanged.
type PostUpdateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// CommentCreateRequest is the body of POST /forum/posts/:id/comment.
type CommentCreateRequest struct {
	Content string `json:"content"`
}

// PostPublic is the caller-facing projection of a post, including the
// derived like and comment counts.
type PostPublic struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	Likes     int64  `json:"likes"`
	Comments  int64  `json:"comments"`
	CreatedAt string `json:"createdAt"`
}

// CommentPublic is the caller-facing projection of a comment.
type CommentPublic struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	CreatedAt string `json:"createdAt"`
}

// LikeResult reports the new membership state and cardinality after a
// like toggle.
type LikeResult struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
