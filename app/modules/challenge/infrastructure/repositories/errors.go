package challengedb

import "errors"

var (
	ErrNotFound = errors.New("challenge not found")
	// ErrSubmissionNotFound is returned when no challenge submission matches.
	ErrSubmissionNotFound = errors.New("challenge submission not found")
	// ErrVersionConflict is returned when a conditional update lost a race.
	ErrVersionConflict = errors.New("challenge version conflict")
)
