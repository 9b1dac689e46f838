// Package main is the entry point for the ning-backend server. It loads
// configuration, connects the key-value store, wires together all plugins,
// and starts the HTTP server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ninglab/ning-backend/internal/app"
	"github.com/ninglab/ning-backend/internal/config"
	"github.com/ninglab/ning-backend/internal/kvstore"
)

func main() {
	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	slog.Info("starting ning-backend",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
	)

	// --- Connect the Store ---
	store := newStore(cfg)
	defer store.Close()

	// --- Create Application ---
	application := app.New(cfg, store)
	application.RegisterRoutes()

	// --- Graceful Shutdown ---
	// Listen for interrupt/term signals to drain connections cleanly.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		// Give in-flight requests 10 seconds to complete.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Echo.Shutdown(ctx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}
	}()

	// --- Start Server ---
	if err := application.Start(); err != nil {
		// Echo returns http.ErrServerClosed on graceful shutdown, which is expected.
		slog.Info("server stopped", slog.Any("reason", err))
	}
}

// newStore selects and connects the key-value store. A failed Redis
// connection does not abort startup: the process boots with an explicit
// unavailable store so /healthz reports the problem and every real use
// fails fast with StoreUnavailable.
func newStore(cfg *config.Config) kvstore.Store {
	if cfg.Store.UseFallback() {
		slog.Info("using in-process fallback store")
		return kvstore.NewMemory()
	}

	store, err := kvstore.NewRedis(cfg.Store.RedisURL)
	if err != nil {
		slog.Error("failed to connect to redis", slog.Any("error", err))
		return kvstore.NewUnavailable(err)
	}
	slog.Info("connected to redis")
	return store
}

// setupLogging configures the global slog logger based on the environment.
// Development uses text format for readability. Production uses JSON for
// structured log aggregation.
func setupLogging(cfg *config.Config) {
	var handler slog.Handler

	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	slog.SetDefault(slog.New(handler))
}
