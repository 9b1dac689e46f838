// Package app is the application bootstrap and dependency injection root.
// It creates and holds the shared infrastructure (key-value store, Echo
// instance) and wires together all plugins.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ninglab/ning-backend/internal/apperror"
	"github.com/ninglab/ning-backend/internal/config"
	"github.com/ninglab/ning-backend/internal/kvstore"
	"github.com/ninglab/ning-backend/internal/middleware"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
// The store handle is constructed at startup and closed at shutdown;
// nothing else in the codebase holds a bare global.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// Store is the key-value store shared by all plugins.
	Store kvstore.Store

	// Echo is the HTTP server instance.
	Echo *echo.Echo
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling.
func New(cfg *config.Config, store kvstore.Store) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	app := &App{
		Config: cfg,
		Store:  store,
		Echo:   e,
	}

	// Register global middleware in order of execution.
	app.setupMiddleware()

	// Register the custom error handler that maps AppErrors to HTTP responses.
	e.HTTPErrorHandler = app.errorHandler

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Recovery is outermost so it catches panics from everything else.
func (a *App) setupMiddleware() {
	a.Echo.Use(middleware.Recovery())

	// Request logging -- log every request with method, path, status, latency.
	a.Echo.Use(middleware.RequestLogger())

	// Hardening headers on every response.
	a.Echo.Use(middleware.SecurityHeaders())

	// CORS -- the frontend runs on a different origin.
	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   a.Config.CORSOrigins,
		AllowCredentials: true,
	}))
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to their HTTP status and a JSON body with the machine-readable
// type and client-safe message. Internal details are logged, never exposed.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := map[string]string{
		"type":    "internal_error",
		"message": "An unexpected error occurred",
	}

	var appErr *apperror.AppError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		body["type"] = appErr.Type
		body["message"] = appErr.Message
	case errors.As(err, &httpErr):
		code = httpErr.Code
		body["type"] = http.StatusText(httpErr.Code)
		body["message"] = fmt.Sprintf("%v", httpErr.Message)
	}

	// 5xx means something actually broke -- log the full error chain.
	if code >= 500 {
		slog.Error("request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
			slog.Any("error", err),
		)
	}

	if writeErr := c.JSON(code, body); writeErr != nil {
		slog.Error("writing error response", slog.Any("error", writeErr))
	}
}

// Start begins listening on the configured port. Blocks until shutdown.
func (a *App) Start() error {
	return a.Echo.Start(fmt.Sprintf(":%d", a.Config.Port))
}
