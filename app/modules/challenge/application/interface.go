package challengeservice

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	challengedomain "github.com/Black-And-White-Club/fitleague/app/modules/challenge/domain"
	leaguedb "github.com/Black-And-White-Club/fitleague/app/modules/league/infrastructure/repositories"
)

// Service manages challenge awards and the challenge lifecycle.
type Service interface {
	// DistributeChallengePoints validates and stores a reviewer's award.
	DistributeChallengePoints(ctx context.Context, req AwardRequest) (*Award, error)
	// PublishChallenge moves a challenge whose submissions are all reviewed
	// to published.
	PublishChallenge(ctx context.Context, challengeID, actorID uuid.UUID) (*challengedomain.Challenge, error)
	// AdvanceChallenge moves a challenge one stage forward.
	AdvanceChallenge(ctx context.Context, challengeID, actorID uuid.UUID, to challengedomain.Status) (*challengedomain.Challenge, error)
	// VisibleAward reports a submission's award as players see it.
	VisibleAward(ctx context.Context, challengeID, submissionID uuid.UUID) (*Award, error)
}

// LeagueReader is the slice of the league read model this module needs.
type LeagueReader interface {
	GetMembership(ctx context.Context, db bun.IDB, leagueID, userID uuid.UUID) (*leaguedb.Membership, error)
	TeamSizes(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (map[uuid.UUID]int, error)
	SubTeamSizes(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (map[uuid.UUID]int, error)
}

// AwardRequest is a reviewer's decision on a challenge submission. An empty
// Action approves pending submissions and updates approved ones.
type AwardRequest struct {
	ChallengeID   uuid.UUID
	SubmissionID  uuid.UUID
	ReviewerID    uuid.UUID
	Action        challengedomain.Action
	AwardedPoints *float64
}

// Award is a stored award with both of its representations.
type Award struct {
	Submission challengedomain.Submission `json:"submission"`
	Caps       challengedomain.Caps       `json:"caps"`
	Internal   float64                    `json:"internal_points"`
	Visible    float64                    `json:"visible_points"`
}
