package submissionservice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	leaguedb "github.com/Black-And-White-Club/fitleague/app/modules/league/infrastructure/repositories"
	submissiondomain "github.com/Black-And-White-Club/fitleague/app/modules/submission/domain"
)

// Service is the submission lifecycle API.
type Service interface {
	// SubmitEntry scores and stores a member's entry for one day.
	SubmitEntry(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
	// ReviewSubmission applies a reviewer's decision.
	ReviewSubmission(ctx context.Context, req ReviewRequest) (*submissiondomain.Entry, error)
	// SweepAutoApprovals materializes approvals for entries pending past 48h.
	SweepAutoApprovals(ctx context.Context, batchSize int) (int, error)
	// History lists every version of a member's day, oldest first.
	History(ctx context.Context, leagueID, memberID uuid.UUID, day time.Time) ([]submissiondomain.Entry, error)
}

// LeagueReader is the slice of the league read model this module needs.
type LeagueReader interface {
	GetLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (*leaguedb.League, error)
	GetMembership(ctx context.Context, db bun.IDB, leagueID, userID uuid.UUID) (*leaguedb.Membership, error)
}

// SubmitRequest is one member's entry for one day.
type SubmitRequest struct {
	LeagueID        uuid.UUID
	MemberID        uuid.UUID
	Date            time.Time
	TZOffsetMinutes int
	Kind            submissiondomain.EntryKind
	Subtype         string
	Metrics         []submissiondomain.WorkoutMetric
	ProofRef        string
	Overwrite       bool
	// ExpectedCurrentID is the entry the caller saw when deciding to
	// overwrite. When set, the overwrite only applies if it is still current.
	ExpectedCurrentID *uuid.UUID
}

type SubmitResult struct {
	SubmissionID uuid.UUID
	RR           float64
	Status       submissiondomain.Status
	Replaced     *uuid.UUID
}

type ReviewRequest struct {
	SubmissionID uuid.UUID
	ReviewerID   uuid.UUID
	Decision     submissiondomain.Decision
}
