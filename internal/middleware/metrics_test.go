package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/nexttrip/backend/internal/middleware"
)

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	m := middleware.NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/v1/trips/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/trips/123", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/trips/456", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body),
		`nexttrip_http_requests_total{method="GET",route="/api/v1/trips/{id}",status="404"} 2`)
	assert.Contains(t, string(body), "nexttrip_http_request_duration_seconds_bucket")
	assert.Contains(t, string(body), "go_goroutines")
	assert.NotContains(t, string(body), "/api/v1/trips/123")
}
