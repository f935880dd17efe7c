package challengedb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	challengedomain "github.com/Black-And-White-Club/fitleague/app/modules/challenge/domain"
)

type Challenge struct {
	bun.BaseModel `bun:"table:challenges,alias:c"`

	ID          uuid.UUID              `bun:"id,pk,type:uuid"`
	LeagueID    uuid.UUID              `bun:"league_id,type:uuid,notnull"`
	Name        string                 `bun:"name,notnull"`
	Type        challengedomain.Type   `bun:"type,notnull"`
	TotalPoints float64                `bun:"total_points,notnull"`
	Status      challengedomain.Status `bun:"status,notnull"`
	StartDate   time.Time              `bun:"start_date,type:date,notnull"`
	EndDate     time.Time              `bun:"end_date,type:date,notnull"`
	PublishedAt *time.Time             `bun:"published_at"`
	CreatedAt   time.Time              `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time              `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (c *Challenge) ToDomain() challengedomain.Challenge {
	return challengedomain.Challenge{
		ID:          c.ID,
		LeagueID:    c.LeagueID,
		Name:        c.Name,
		Type:        c.Type,
		TotalPoints: c.TotalPoints,
		Status:      c.Status,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
	}
}

// Submission is a member's entry into a challenge. Team and sub-team are
// copied from the roster when the entry is made.
type Submission struct {
	bun.BaseModel `bun:"table:challenge_submissions,alias:cs"`

	ID            uuid.UUID                        `bun:"id,pk,type:uuid"`
	ChallengeID   uuid.UUID                        `bun:"challenge_id,type:uuid,notnull"`
	LeagueID      uuid.UUID                        `bun:"league_id,type:uuid,notnull"`
	MemberID      uuid.UUID                        `bun:"member_id,type:uuid,notnull"`
	TeamID        *uuid.UUID                       `bun:"team_id,type:uuid"`
	SubTeamID     *uuid.UUID                       `bun:"sub_team_id,type:uuid"`
	Status        challengedomain.SubmissionStatus `bun:"status,notnull"`
	AwardedPoints *float64                         `bun:"awarded_points"`
	ProofRef      string                           `bun:"proof_ref,notnull,default:''"`
	ReviewerID    *uuid.UUID                       `bun:"reviewer_id,type:uuid"`
	ReviewedAt    *time.Time                       `bun:"reviewed_at"`
	Version       int64                            `bun:"version,notnull,default:1"`
	CreatedAt     time.Time                        `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time                        `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (s *Submission) ToDomain() challengedomain.Submission {
	return challengedomain.Submission{
		ID:            s.ID,
		ChallengeID:   s.ChallengeID,
		LeagueID:      s.LeagueID,
		MemberID:      s.MemberID,
		TeamID:        s.TeamID,
		SubTeamID:     s.SubTeamID,
		Status:        s.Status,
		AwardedPoints: s.AwardedPoints,
		ProofRef:      s.ProofRef,
		ReviewerID:    s.ReviewerID,
		ReviewedAt:    s.ReviewedAt,
		Version:       s.Version,
		CreatedAt:     s.CreatedAt,
	}
}

// AwardUpdate is the state a review writes.
type AwardUpdate struct {
	Status        challengedomain.SubmissionStatus
	AwardedPoints *float64
	ReviewerID    uuid.UUID
	ReviewedAt    time.Time
}

// Award is one approved award from a published challenge, joined with the
// challenge fields the leaderboard needs to scale it.
type Award struct {
	SubmissionID  uuid.UUID            `bun:"submission_id"`
	ChallengeID   uuid.UUID            `bun:"challenge_id"`
	ChallengeType challengedomain.Type `bun:"challenge_type"`
	TotalPoints   float64              `bun:"total_points"`
	MemberID      uuid.UUID            `bun:"member_id"`
	TeamID        *uuid.UUID           `bun:"team_id"`
	SubTeamID     *uuid.UUID           `bun:"sub_team_id"`
	AwardedPoints float64              `bun:"awarded_points"`
}
