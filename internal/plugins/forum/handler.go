package forum

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ninglab/ning-backend/internal/apperror"
	"github.com/ninglab/ning-backend/internal/plugins/auth"
)

// Handler handles HTTP requests for the forum. Read endpoints are
// anonymous; mutation endpoints run behind auth.RequireUser.
type Handler struct {
	service Service
}

// NewHandler creates a new forum handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// intQuery parses an integer query parameter, returning def when the
// parameter is absent and a 400 when it is present but not an integer.
func intQuery(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewBadRequest(name + " must be an integer")
	}
	return v, nil
}

// ListPosts returns a page of posts (GET /forum/posts?offset=&limit=).
func (h *Handler) ListPosts(c echo.Context) error {
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		return err
	}
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		return err
	}

	items, err := h.service.ListPosts(c.Request().Context(), offset, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string][]PostPublic{"items": items})
}

// CreatePost creates a post (POST /forum/posts).
func (h *Handler) CreatePost(c echo.Context) error {
	var req PostCreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	post, err := h.service.CreatePost(c.Request().Context(), auth.GetUser(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// GetPost returns a single post (GET /forum/posts/:id).
func (h *Handler) GetPost(c echo.Context) error {
	post, err := h.service.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// UpdatePost partially updates a post (PUT /forum/posts/:id).
func (h *Handler) UpdatePost(c echo.Context) error {
	var req PostUpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	post, err := h.service.UpdatePost(c.Request().Context(), auth.GetUser(c), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost soft-deletes a post (DELETE /forum/posts/:id).
func (h *Handler) DeletePost(c echo.Context) error {
	if err := h.service.DeletePost(c.Request().Context(), auth.GetUser(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// ToggleLike flips the caller's like on a post (POST /forum/posts/:id/like).
func (h *Handler) ToggleLike(c echo.Context) error {
	result, err := h.service.ToggleLike(c.Request().Context(), auth.GetUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// ListComments returns a post's comments (GET /forum/posts/:id/comments).
func (h *Handler) ListComments(c echo.Context) error {
	items, err := h.service.ListComments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string][]CommentPublic{"items": items})
}

// CreateComment adds a comment to a post (POST /forum/posts/:id/comment).
func (h *Handler) CreateComment(c echo.Context) error {
	var req CommentCreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	comment, err := h.service.CreateComment(c.Request().Context(), auth.GetUser(c), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

// DeleteComment soft-deletes a comment
// (DELETE /forum/comments/:id?post_id=N). Comment ids are scoped per post,
// so the owning post id comes in as a query parameter.
func (h *Handler) DeleteComment(c echo.Context) error {
	postID := c.QueryParam("post_id")
	if postID == "" {
		return apperror.NewBadRequest("post_id is required")
	}

	if err := h.service.DeleteComment(c.Request().Context(), auth.GetUser(c), postID, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
