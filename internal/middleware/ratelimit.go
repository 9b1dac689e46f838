package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// window tracks request counts for one client IP.
type window struct {
	count int
	start time.Time
}

// RateLimit returns middleware that allows at most max requests per client
// IP within the given period, answering 429 beyond that. Counters live in
// process memory; with multiple replicas each one enforces its own limit.
// Intended for the credential endpoints, which are brute-force targets.
func RateLimit(max int, period time.Duration) echo.MiddlewareFunc {
	var mu sync.Mutex
	windows := make(map[string]*window)

	// Drop idle windows so the map doesn't grow with every IP ever seen.
	go func() {
		for {
			time.Sleep(time.Minute)
			mu.Lock()
			now := time.Now()
			for ip, w := range windows {
				if now.Sub(w.start) > 2*period {
					delete(windows, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			mu.Lock()
			w, ok := windows[ip]
			now := time.Now()
			if !ok || now.Sub(w.start) > period {
				windows[ip] = &window{count: 1, start: now}
				mu.Unlock()
				return next(c)
			}
			w.count++
			over := w.count > max
			mu.Unlock()

			if over {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"type":    "rate_limited",
					"message": "Too many requests, slow down",
				})
			}
			return next(c)
		}
	}
}
