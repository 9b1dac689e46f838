package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ninglab/ning-backend/internal/apperror"
)

// Handler handles HTTP requests for authentication. Handlers are thin: they
// bind the request, call the service, and write the JSON response. No
// business logic lives here.
type Handler struct {
	service Service
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register creates a new account (POST /auth/register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	user, err := h.service.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Public())
}

// Login authenticates and issues a bearer token (POST /auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	token, err := h.service.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, LoginResponse{Token: token})
}

// Me returns the caller's public identity (GET /auth/me). The RequireUser
// middleware has already resolved the token.
func (h *Handler) Me(c echo.Context) error {
	user := GetUser(c)
	if user == nil {
		return apperror.NewUnauthorized("missing bearer token")
	}
	return c.JSON(http.StatusOK, user.Public())
}

// Logout destroys the caller's session (POST /auth/logout). Deliberately not
// behind RequireUser: logging out an expired or unknown token must succeed
// silently, so only the presence of the header is checked here.
func (h *Handler) Logout(c echo.Context) error {
	token := BearerToken(c)
	if token == "" {
		return apperror.NewUnauthorized("missing bearer token")
	}

	if err := h.service.Logout(c.Request().Context(), token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
