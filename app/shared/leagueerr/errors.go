// Package leagueerr holds the typed failures returned to callers of the
// scoring engine. Every failure carries a reason a member can act on.
package leagueerr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindAuthorization Kind = "authorization"
	KindWindowExpired Kind = "window_expired"
	KindState         Kind = "state"
)

// Typed is implemented by every domain failure.
type Typed interface {
	error
	Kind() Kind
	UserReason() string
}

// ValidationError rejects input that can never succeed as submitted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
	}
	return "validation failed: " + e.Reason
}
func (e *ValidationError) Kind() Kind         { return KindValidation }
func (e *ValidationError) UserReason() string { return e.Reason }

// Validation builds a ValidationError with a formatted reason.
func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// AuthorizationError is returned both when the caller lacks authority and when
// the target does not exist, so existence never leaks.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string      { return "not authorized: " + e.Reason }
func (e *AuthorizationError) Kind() Kind         { return KindAuthorization }
func (e *AuthorizationError) UserReason() string { return e.Reason }

// WindowExpiredError is returned when a replacement arrives after its deadline.
type WindowExpiredError struct {
	Reason string
}

func (e *WindowExpiredError) Error() string      { return "window expired: " + e.Reason }
func (e *WindowExpiredError) Kind() Kind         { return KindWindowExpired }
func (e *WindowExpiredError) UserReason() string { return e.Reason }

// StateError is returned when an operation is not allowed in the current
// lifecycle state.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string      { return "invalid state: " + e.Reason }
func (e *StateError) Kind() Kind         { return KindState }
func (e *StateError) UserReason() string { return e.Reason }

// State builds a StateError with a formatted reason.
func State(format string, args ...any) *StateError {
	return &StateError{Reason: fmt.Sprintf(format, args...)}
}

// Classify reports whether err is a domain failure and returns its kind and
// reason. Infrastructure errors return ok=false.
func Classify(err error) (kind Kind, reason string, ok bool) {
	var typed Typed
	if errors.As(err, &typed) {
		return typed.Kind(), typed.UserReason(), true
	}
	return "", "", false
}

// Is reports whether err is a domain failure of kind k.
func Is(err error, k Kind) bool {
	got, _, ok := Classify(err)
	return ok && got == k
}
