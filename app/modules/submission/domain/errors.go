package submissiondomain

import (
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
)

// ConflictError reports that a current entry already exists for the day. It
// carries that entry so the caller can offer an overwrite.
type ConflictError struct {
	Existing Entry
	Reason   string
}

func NewConflictError(existing Entry, concurrent bool) *ConflictError {
	reason := "an entry already exists for " + calendar.Format(existing.Date) + "; resubmit with overwrite to replace it"
	if concurrent {
		reason = "the entry for " + calendar.Format(existing.Date) + " was replaced by another request; review it before overwriting"
	}
	return &ConflictError{Existing: existing, Reason: reason}
}

func (e *ConflictError) Error() string        { return "conflict: " + e.Reason }
func (e *ConflictError) Kind() leagueerr.Kind { return leagueerr.KindConflict }
func (e *ConflictError) UserReason() string   { return e.Reason }

// ErrorDetails exposes the existing entry to API clients.
func (e *ConflictError) ErrorDetails() any { return e.Existing }
