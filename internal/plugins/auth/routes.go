package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ninglab/ning-backend/internal/middleware"
)

// RegisterRoutes sets up all auth routes under /auth. Register, login, and
// logout are public; /auth/me requires a valid bearer token. The RequireUser
// middleware is exported separately for other plugins to use on their own
// route groups.
func RegisterRoutes(e *echo.Echo, h *Handler, service Service) {
	g := e.Group("/auth")

	// Credential endpoints are brute-force targets.
	limiter := middleware.RateLimit(10, time.Minute)

	g.POST("/register", h.Register, limiter)
	g.POST("/login", h.Login, limiter)
	g.GET("/me", h.Me, RequireUser(service))
	g.POST("/logout", h.Logout)
}
