package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/darkroom/pkg/models"
	"golang.org/x/time/rate"
)

func newAccountMiddleware(cookieSession sessions.Session[*models.Account], excludedPaths []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				err     error
				account *models.Account
			)

			path := r.URL.Path

			/*
			 * If this path is excluded, keep going.
			 */
			for _, excludedPath := range excludedPaths {
				if strings.HasPrefix(path, excludedPath) {
					next.ServeHTTP(w, r)
					return
				}
			}

			if account, err = cookieSession.Get(r); err != nil || account == nil || account.ID == 0 {
				http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
				return
			}

			ctx := context.WithValue(r.Context(), "account", account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// portalRateLimiter throttles the public portal per client address.
type portalRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newPortalRateLimiter(requestsPerSecond, burst int) *portalRateLimiter {
	return &portalRateLimiter{
		limiters: map[string]*rate.Limiter{},
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (rl *portalRateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}

	return limiter
}

func (rl *portalRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientAddress(r)

		if !rl.getLimiter(key).Allow() {
			slog.Warn("portal rate limit exceeded", "key", key, "path", r.URL.Path, "method", r.Method)
			httphelpers.WriteText(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// cleanup drops every limiter once the map grows large; a fresh limiter starts with a full burst.
func (rl *portalRateLimiter) cleanup(maxEntries int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.limiters) > maxEntries {
		rl.limiters = map[string]*rate.Limiter{}
	}
}

func (rl *portalRateLimiter) startCleanup(interval time.Duration, quit <-chan struct{}) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				rl.cleanup(10000)
			}
		}
	}()
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
