// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development. Everything
// is read once at process startup.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// Store holds key-value store connection settings.
	Store StoreConfig

	// Auth holds authentication-related settings.
	Auth AuthConfig

	// CORSOrigins is the list of origins allowed to make cross-origin
	// requests, parsed from a comma-separated env var.
	CORSOrigins []string
}

// StoreConfig holds key-value store connection parameters.
type StoreConfig struct {
	// RedisURL is the Redis connection URL (e.g., "redis://localhost:6379/0").
	// A "memory://" URL selects the in-process fallback store.
	RedisURL string

	// UseMemory forces the in-process fallback store regardless of RedisURL.
	UseMemory bool
}

// UseFallback reports whether the in-process store should be used instead
// of a real Redis connection.
func (s StoreConfig) UseFallback() bool {
	return s.UseMemory || strings.HasPrefix(s.RedisURL, "memory://")
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// SessionTTL is how long bearer-token sessions last before expiring.
	SessionTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnvInt("PORT", 8080),

		Store: StoreConfig{
			RedisURL:  getEnv("REDIS_URL", "redis://localhost:6379/0"),
			UseMemory: getEnvBool("USE_MEMORY_STORE", false),
		},

		Auth: AuthConfig{
			// 7 days by default, configured in seconds.
			SessionTTL: time.Duration(getEnvInt("SESSION_TTL_SECONDS", 604800)) * time.Second,
		},

		CORSOrigins: splitOrigins(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// splitOrigins parses a comma-separated origin list, dropping empty entries.
func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvBool reads a boolean env var ("1", "true", "yes" are truthy) or
// returns the default.
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(val) {
		case "1", "true", "yes":
			return true
		case "0", "false", "no":
			return false
		}
	}
	return defaultVal
}
