package study

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ninglab/ning-backend/internal/apperror"
	"github.com/ninglab/ning-backend/internal/plugins/auth"
)

// Handler handles HTTP requests for the study tracker. Every endpoint
// requires a valid bearer token.
type Handler struct {
	service Service
}

// NewHandler creates a new study handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// AddMistake records a mistake (POST /study/mistakes).
func (h *Handler) AddMistake(c echo.Context) error {
	var req MistakeCreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	m, err := h.service.AddMistake(c.Request().Context(), auth.GetUser(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

// ListMistakes returns all of the caller's mistakes (GET /study/mistakes).
func (h *Handler) ListMistakes(c echo.Context) error {
	items, err := h.service.ListMistakes(c.Request().Context(), auth.GetUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string][]MistakePublic{"items": items})
}

// DeleteMistake hard-deletes a mistake (DELETE /study/mistakes/:id).
func (h *Handler) DeleteMistake(c echo.Context) error {
	if err := h.service.DeleteMistake(c.Request().Context(), auth.GetUser(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
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

// Stats returns aggregate statistics (GET /study/stats?days=7).
func (h *Handler) Stats(c echo.Context) error {
	days, err := intQuery(c, "days", 0)
	if err != nil {
		return err
	}

	stats, err := h.service.Stats(c.Request().Context(), auth.GetUser(c), days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Recommendations returns practice suggestions
// (GET /study/recommendations?limit=10).
func (h *Handler) Recommendations(c echo.Context) error {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		return err
	}

	recs, err := h.service.Recommendations(c.Request().Context(), auth.GetUser(c), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string][]Recommendation{"items": recs})
}
