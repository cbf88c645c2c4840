package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortalRateLimiterPerAddress(t *testing.T) {
	rl := newPortalRateLimiter(1, 2)

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/portal/abc", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:1002"))

	// A different address has its own bucket.
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000"))
}

func TestPortalRateLimiterCleanup(t *testing.T) {
	rl := newPortalRateLimiter(1, 1)
	rl.getLimiter("a")
	rl.getLimiter("b")

	rl.cleanup(5)
	assert.Len(t, rl.limiters, 2)

	rl.cleanup(1)
	assert.Empty(t, rl.limiters)
}

func TestClientAddress(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	req.RemoteAddr = "192.168.1.5:4431"
	assert.Equal(t, "192.168.1.5", clientAddress(req))

	req.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", clientAddress(req))
}
