package study

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all study routes under /study. Everything here is
// per-user data, so the whole group runs behind the token middleware.
func RegisterRoutes(e *echo.Echo, h *Handler, requireUser echo.MiddlewareFunc) {
	g := e.Group("/study", requireUser)

	g.POST("/mistakes", h.AddMistake)
	g.GET("/mistakes", h.ListMistakes)
	g.DELETE("/mistakes/:id", h.DeleteMistake)
	g.GET("/stats", h.Stats)
	g.GET("/recommendations", h.Recommendations)
}
