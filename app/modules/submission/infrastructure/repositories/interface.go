package submissiondb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for submission persistence.
type Repository interface {
	// GetByID retrieves any submission, current or superseded.
	GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*Submission, error)

	// GetCurrent retrieves the current submission for a member's day.
	GetCurrent(ctx context.Context, db bun.IDB, leagueID, memberID uuid.UUID, day time.Time) (*Submission, error)

	// Insert stores a new current submission. It returns ErrDuplicateCurrent
	// when another current row already exists for the day.
	Insert(ctx context.Context, db bun.IDB, s *Submission) error

	// Supersede retires the current row if its version still matches.
	Supersede(ctx context.Context, db bun.IDB, id uuid.UUID, expectedVersion int64, supersededBy uuid.UUID) error

	// ApplyReview writes a review decision if the version still matches.
	ApplyReview(ctx context.Context, db bun.IDB, id uuid.UUID, expectedVersion int64, update ReviewUpdate) error

	// ListStalePending returns current pending submissions created before cutoff.
	ListStalePending(ctx context.Context, db bun.IDB, cutoff time.Time, limit int) ([]Submission, error)

	// ListForLeague returns the current submissions of a league dated within
	// [from, to], ordered by date then id.
	ListForLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID, from, to time.Time) ([]Submission, error)

	// ListHistory returns every version of a member's day, oldest first.
	ListHistory(ctx context.Context, db bun.IDB, leagueID, memberID uuid.UUID, day time.Time) ([]Submission, error)
}
