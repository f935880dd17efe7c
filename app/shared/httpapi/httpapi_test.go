package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
	"github.com/Black-And-White-Club/fitleague/pkg/jwt"
)

func TestWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation carries the field",
			err:        fmt.Errorf("wrapped: %w", leagueerr.Validation("date", "bad date")),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"kind":"validation","reason":"bad date","field":"date"}`,
		},
		{
			name:       "authorization",
			err:        &leagueerr.AuthorizationError{Reason: "nope"},
			wantStatus: http.StatusForbidden,
			wantBody:   `{"kind":"authorization","reason":"nope"}`,
		},
		{
			name:       "window expired",
			err:        &leagueerr.WindowExpiredError{Reason: "closed"},
			wantStatus: http.StatusGone,
			wantBody:   `{"kind":"window_expired","reason":"closed"}`,
		},
		{
			name:       "state",
			err:        leagueerr.State("league closed"),
			wantStatus: http.StatusConflict,
			wantBody:   `{"kind":"state","reason":"league closed"}`,
		},
		{
			name:       "infrastructure fault hides the cause",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"kind":"unavailable","reason":"temporarily unavailable, retry shortly"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), logger, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestCallerID(t *testing.T) {
	id := uuid.New()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := CallerID(r)
	assert.Error(t, err)

	r.Header.Set(UserIDHeader, "bob")
	_, err = CallerID(r)
	assert.Error(t, err)

	r.Header.Set(UserIDHeader, id.String())
	got, err := CallerID(r)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	fromToken := uuid.New()
	got, err = CallerID(r.WithContext(WithCaller(r.Context(), fromToken)))
	require.NoError(t, err)
	assert.Equal(t, fromToken, got, "a verified token wins over the header")
}

func TestAuthMiddleware(t *testing.T) {
	tokens := jwt.NewService("secret")
	userID := uuid.New()
	valid, err := tokens.GenerateToken(userID, time.Hour)
	require.NoError(t, err)

	var seen uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CallerID(r)
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("valid token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+valid)
		req.Header.Set(UserIDHeader, uuid.NewString())
		AuthMiddleware(tokens)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, userID, seen)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(UserIDHeader, uuid.NewString())
		AuthMiddleware(tokens)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nonsense")
		AuthMiddleware(tokens)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		AuthMiddleware(nil)(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestKeyedRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewKeyedRateLimiter(rate.Every(time.Minute), 2)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("b"), "keys have separate buckets")

	now = now.Add(time.Minute)
	assert.True(t, limiter.Allow("a"))
}
