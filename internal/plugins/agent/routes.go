package agent

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all agent routes under /agent, all behind the
// token middleware.
func RegisterRoutes(e *echo.Echo, h *Handler, requireUser echo.MiddlewareFunc) {
	g := e.Group("/agent", requireUser)

	g.POST("/session", h.CreateSession)
	g.POST("/chat", h.Chat)
	g.GET("/session/:id", h.GetSession)
}
