// Package httpapi holds the JSON plumbing shared by the module HTTP handlers.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
	"github.com/Black-And-White-Club/fitleague/pkg/attr"
)

// UserIDHeader carries the caller when bearer tokens are disabled and a
// gateway in front of this service authenticates instead.
const UserIDHeader = "X-User-ID"

const maxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Reason  string `json:"reason"`
	Field   string `json:"field,omitempty"`
	Details any    `json:"existing,omitempty"`
}

// detailer is implemented by errors that carry the record they conflict with.
type detailer interface {
	ErrorDetails() any
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind leagueerr.Kind) int {
	switch kind {
	case leagueerr.KindValidation:
		return http.StatusUnprocessableEntity
	case leagueerr.KindConflict, leagueerr.KindState:
		return http.StatusConflict
	case leagueerr.KindAuthorization:
		return http.StatusForbidden
	case leagueerr.KindWindowExpired:
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a typed domain error with its reason, or a generic 503
// for infrastructure faults so clients know to retry.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind, reason, ok := leagueerr.Classify(err)
	if !ok {
		logger.ErrorContext(r.Context(), "Request failed",
			attr.ExtractCorrelationID(r.Context()),
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		WriteJSON(w, http.StatusServiceUnavailable, ErrorBody{Kind: "unavailable", Reason: "temporarily unavailable, retry shortly"})
		return
	}

	body := ErrorBody{Kind: string(kind), Reason: reason}
	var verr *leagueerr.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}
	var d detailer
	if errors.As(err, &d) {
		body.Details = d.ErrorDetails()
	}
	WriteJSON(w, StatusFor(kind), body)
}

// BadRequest writes a 400 for requests that could not be parsed at all.
func BadRequest(w http.ResponseWriter, reason string) {
	WriteJSON(w, http.StatusBadRequest, ErrorBody{Kind: "bad_request", Reason: reason})
}

// DecodeJSON reads a JSON body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// URLUUID parses a chi route parameter as a UUID.
func URLUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s %q is not a valid id", name, raw)
	}
	return id, nil
}

// CallerID returns the authenticated user, from the bearer token when
// AuthMiddleware verified one and from UserIDHeader otherwise.
func CallerID(r *http.Request) (uuid.UUID, error) {
	if id, ok := callerFrom(r.Context()); ok {
		return id, nil
	}
	raw := r.Header.Get(UserIDHeader)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing %s header", UserIDHeader)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid id", UserIDHeader)
	}
	return id, nil
}

// CorrelationMiddleware copies the request id chi assigned into the
// correlation id used by logs and events.
func CorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Correlation-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Correlation-ID", id)
		next.ServeHTTP(w, r.WithContext(attr.WithCorrelationID(r.Context(), id)))
	})
}
