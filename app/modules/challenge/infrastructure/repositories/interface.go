package challengedb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	challengedomain "github.com/Black-And-White-Club/fitleague/app/modules/challenge/domain"
)

// Repository defines the contract for challenge persistence.
type Repository interface {
	GetChallenge(ctx context.Context, db bun.IDB, id uuid.UUID) (*Challenge, error)
	InsertChallenge(ctx context.Context, db bun.IDB, c *Challenge) error

	// UpdateStatus moves a challenge between stages if it is still in from.
	UpdateStatus(ctx context.Context, db bun.IDB, id uuid.UUID, from, to challengedomain.Status) error

	GetSubmission(ctx context.Context, db bun.IDB, challengeID, submissionID uuid.UUID) (*Submission, error)
	InsertSubmission(ctx context.Context, db bun.IDB, s *Submission) error

	// ApplyAward writes a review if the submission version still matches.
	ApplyAward(ctx context.Context, db bun.IDB, id uuid.UUID, expectedVersion int64, update AwardUpdate) error

	// CountPending counts submissions awaiting review. Callers lock the
	// challenge row first so no new pending entry can slip in.
	CountPending(ctx context.Context, db bun.IDB, challengeID uuid.UUID) (int, error)

	// LockChallenge takes a row lock for the rest of the transaction.
	LockChallenge(ctx context.Context, db bun.IDB, id uuid.UUID) (*Challenge, error)

	// ListAwards returns approved awards from published or closed challenges
	// whose end date falls in [from, to].
	ListAwards(ctx context.Context, db bun.IDB, leagueID uuid.UUID, from, to time.Time) ([]Award, error)
}
