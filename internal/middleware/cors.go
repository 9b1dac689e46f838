package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is the origin whitelist, read from CORS_ALLOW_ORIGINS
	// at startup. "*" allows every origin.
	AllowedOrigins []string

	// AllowCredentials lets the browser send the Authorization header on
	// cross-origin requests. The frontend authenticates with a bearer
	// token, so this is on in normal deployments.
	AllowCredentials bool
}

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Requested-With"
	corsMaxAge       = "3600"
)

// CORS returns middleware answering cross-origin requests from the
// configured origins. Requests from origins outside the whitelist pass
// through without CORS headers and get blocked by the browser; preflight
// OPTIONS requests are answered here with 204.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	wildcard := false
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = true
	}

	// A wildcard origin combined with credentials would let any site make
	// authenticated calls. Keep the wildcard, drop the credentials.
	if wildcard && cfg.AllowCredentials {
		slog.Warn("CORS: wildcard origin with credentials is insecure; credentials disabled, list explicit origins to re-enable")
		cfg.AllowCredentials = false
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get("Origin")
			if origin == "" || (!wildcard && !allowed[origin]) {
				return next(c)
			}

			h := c.Response().Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if c.Request().Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}
