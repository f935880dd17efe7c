package submissiondb

import "errors"

var (
	// ErrNotFound is returned when no submission matches.
	ErrNotFound = errors.New("submission not found")
	// ErrVersionConflict is returned when a conditional update lost a race.
	ErrVersionConflict = errors.New("submission version conflict")
	// ErrDuplicateCurrent is returned when a second current row is inserted
	// for the same member and day.
	ErrDuplicateCurrent = errors.New("current submission already exists")
)
