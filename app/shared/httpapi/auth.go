package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Black-And-White-Club/fitleague/pkg/jwt"
)

type callerKey struct{}

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.CallerClaims, error)
}

// WithCaller stores the authenticated caller on ctx.
func WithCaller(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, callerKey{}, id)
}

func callerFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(callerKey{}).(uuid.UUID)
	return id, ok
}

// AuthMiddleware requires a valid bearer token and records its subject as
// the caller. A nil validator leaves identity to UserIDHeader, set by a
// trusted gateway.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if validator == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeUnauthenticated(w, "missing bearer token")
				return
			}
			claims, err := validator.ValidateToken(raw)
			if err != nil {
				writeUnauthenticated(w, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), claims.UserID())))
		})
	}
}

func writeUnauthenticated(w http.ResponseWriter, reason string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="fitleague"`)
	WriteJSON(w, http.StatusUnauthorized, ErrorBody{Kind: "unauthenticated", Reason: reason})
}
