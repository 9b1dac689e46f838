package agent

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ninglab/ning-backend/internal/apperror"
	"github.com/ninglab/ning-backend/internal/plugins/auth"
)

// Handler handles HTTP requests for the interview agent. Every endpoint
// requires a valid bearer token.
type Handler struct {
	service Service
}

// NewHandler creates a new agent handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateSession starts an interview session (POST /agent/session). The
// body is optional; an empty one starts a generic session.
func (h *Handler) CreateSession(c echo.Context) error {
	var req SessionCreateRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return apperror.NewBadRequest("invalid request body")
		}
	}

	sess, err := h.service.CreateSession(c.Request().Context(), auth.GetUser(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// Chat sends a message to the agent (POST /agent/chat).
func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	reply, err := h.service.Chat(c.Request().Context(), auth.GetUser(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reply)
}

// GetSession returns a session's transcript (GET /agent/session/:id).
func (h *Handler) GetSession(c echo.Context) error {
	detail, err := h.service.GetSession(c.Request().Context(), auth.GetUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}
