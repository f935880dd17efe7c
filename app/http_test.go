package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Black-And-White-Club/fitleague/app/shared/httpapi"
	"github.com/Black-And-White-Club/fitleague/pkg/jwt"
)

func TestHTTPHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	var healthErr error
	health := func(context.Context) error { return healthErr }
	mount := func(r chi.Router) {
		r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	}
	handler := newHTTPHandler(logger, reg, httpapi.NewKeyedRateLimiter(rate.Inf, 1), nil, health, mount)

	do := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	t.Run("healthy", func(t *testing.T) {
		rec := do("/healthz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("unhealthy", func(t *testing.T) {
		healthErr = errors.New("db down")
		defer func() { healthErr = nil }()
		rec := do("/healthz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		rec := do("/metrics")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "test_total 1")
	})

	t.Run("mounted routes carry a correlation id", func(t *testing.T) {
		rec := do("/api/ping")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
	})
}

func TestHTTPHandler_RateLimited(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mount := func(r chi.Router) {
		r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	}
	handler := newHTTPHandler(logger, prometheus.NewRegistry(), httpapi.NewKeyedRateLimiter(rate.Every(1<<62), 1), nil,
		func(context.Context) error { return nil }, mount)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	health := httptest.NewRecorder()
	handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestHTTPHandler_RequiresTokenWhenConfigured(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := jwt.NewService("secret")
	mount := func(r chi.Router) {
		r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	}
	handler := newHTTPHandler(logger, prometheus.NewRegistry(), httpapi.NewKeyedRateLimiter(rate.Inf, 1), tokens,
		func(context.Context) error { return nil }, mount)

	anonymous := httptest.NewRecorder()
	handler.ServeHTTP(anonymous, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)

	token, err := tokens.GenerateToken(uuid.New(), time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authed := httptest.NewRecorder()
	handler.ServeHTTP(authed, req)
	assert.Equal(t, http.StatusNoContent, authed.Code)

	health := httptest.NewRecorder()
	handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, health.Code, "health stays public")
}
