package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ninglab/ning-backend/internal/plugins/agent"
	"github.com/ninglab/ning-backend/internal/plugins/auth"
	"github.com/ninglab/ning-backend/internal/plugins/forum"
	"github.com/ninglab/ning-backend/internal/plugins/study"
)

// RegisterRoutes constructs every plugin's repository/service/handler chain
// and registers all application routes. This is the single place where the
// route surface is aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Health check for liveness probes. Reports store connectivity instead
	// of failing, so a dead store shows up as connected=false, not a 500.
	e.GET("/healthz", a.healthz)

	// --- Plugins ---

	authRepo := auth.NewRepository(a.Store)
	authService := auth.NewService(authRepo, a.Config.Auth.SessionTTL)
	auth.RegisterRoutes(e, auth.NewHandler(authService), authService)

	// Mutation endpoints in the other plugins resolve the caller through
	// the auth plugin's token middleware.
	requireUser := auth.RequireUser(authService)

	forumService := forum.NewService(forum.NewRepository(a.Store))
	forum.RegisterRoutes(e, forum.NewHandler(forumService), requireUser)

	studyService := study.NewService(study.NewRepository(a.Store))
	study.RegisterRoutes(e, study.NewHandler(studyService), requireUser)

	agentService := agent.NewService(agent.NewRepository(a.Store))
	agent.RegisterRoutes(e, agent.NewHandler(agentService), requireUser)
}

// healthz reports process liveness and store connectivity
// (GET /healthz).
func (a *App) healthz(c echo.Context) error {
	status := map[string]any{"ok": true}

	if err := a.Store.Ping(c.Request().Context()); err != nil {
		status["redis"] = map[string]any{
			"connected": false,
			"error":     err.Error(),
		}
	} else {
		status["redis"] = map[string]any{"connected": true}
	}

	return c.JSON(http.StatusOK, status)
}
