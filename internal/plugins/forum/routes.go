package forum

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all forum routes under /forum. Listing and reads
// are public; every mutation requires a valid bearer token.
func RegisterRoutes(e *echo.Echo, h *Handler, requireUser echo.MiddlewareFunc) {
	g := e.Group("/forum")

	g.GET("/posts", h.ListPosts)
	g.POST("/posts", h.CreatePost, requireUser)
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost, requireUser)
	g.DELETE("/posts/:id", h.DeletePost, requireUser)
	g.POST("/posts/:id/like", h.ToggleLike, requireUser)
	g.GET("/posts/:id/comments", h.ListComments)
	g.POST("/posts/:id/comment", h.CreateComment, requireUser)
	g.DELETE("/comments/:id", h.DeleteComment, requireUser)
}
