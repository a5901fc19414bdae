package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/nexttrip/backend/internal/middleware"
)

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/trips", nil)
	req.RemoteAddr = addr
	return req
}

func TestRateLimiter_Handler_RejectsOverBurst(t *testing.T) {
	h := middleware.NewRateLimiter(0.001, 2).Handler(trivialHandler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("10.0.0.1:5000"))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "port changes share the client's bucket")
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"rate_limited"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestFrom("10.0.0.2:5000"))
	assert.Equal(t, http.StatusOK, rec.Code, "other clients have their own bucket")
}

func TestRateLimiter_DisabledWhenRateIsZero(t *testing.T) {
	rl := middleware.NewRateLimiter(0, 0)

	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow("client"))
	}
}

func TestRateLimiter_Prune(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 1)
	rl.Allow("a")
	rl.Allow("b")

	assert.Equal(t, 2, rl.Prune(time.Hour))
	assert.Equal(t, 0, rl.Prune(-time.Second))
}
