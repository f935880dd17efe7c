package challengedomain

import (
	"time"

	"github.com/google/uuid"

	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
)

// Type decides how a challenge's total points are shared.
type Type string

const (
	// TypeIndividual: TotalPoints is each member's own maximum.
	TypeIndividual Type = "individual"
	// TypeTeam: TotalPoints is the pool for a whole team.
	TypeTeam Type = "team"
	// TypeSubTeam: TotalPoints is the pool for one sub-team.
	TypeSubTeam Type = "sub_team"
)

func (t Type) Valid() bool {
	switch t {
	case TypeIndividual, TypeTeam, TypeSubTeam:
		return true
	}
	return false
}

// Status is a challenge's lifecycle stage.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusScheduled        Status = "scheduled"
	StatusActive           Status = "active"
	StatusSubmissionClosed Status = "submission_closed"
	StatusPublished        Status = "published"
	StatusClosed           Status = "closed"
)

var lifecycle = []Status{
	StatusDraft,
	StatusScheduled,
	StatusActive,
	StatusSubmissionClosed,
	StatusPublished,
	StatusClosed,
}

// Next returns the stage after s, or false if s is terminal or unknown.
func (s Status) Next() (Status, bool) {
	for i, st := range lifecycle {
		if st == s && i+1 < len(lifecycle) {
			return lifecycle[i+1], true
		}
	}
	return "", false
}

// AcceptsReviews reports whether awards may still change.
func (s Status) AcceptsReviews() bool {
	return s == StatusActive || s == StatusSubmissionClosed
}

// CountsTowardLeaderboard reports whether awards are final and visible.
func (s Status) CountsTowardLeaderboard() bool {
	return s == StatusPublished || s == StatusClosed
}

// Challenge is a league event whose awards add to the leaderboard once published.
type Challenge struct {
	ID          uuid.UUID `json:"id"`
	LeagueID    uuid.UUID `json:"league_id"`
	Name        string    `json:"name"`
	Type        Type      `json:"type"`
	TotalPoints float64   `json:"total_points"`
	Status      Status    `json:"status"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

// Transition validates moving a challenge from its current stage to to.
// Stages only move forward one step at a time.
func Transition(current, to Status) error {
	next, ok := current.Next()
	if !ok {
		return leagueerr.State("challenge is %s and cannot change stage", current)
	}
	if next != to {
		return leagueerr.State("challenge is %s; the next stage is %s, not %s", current, next, to)
	}
	return nil
}

// CheckPublishable enforces that every submission was reviewed before
// results are published.
func CheckPublishable(ch Challenge, pending int) error {
	if err := Transition(ch.Status, StatusPublished); err != nil {
		return err
	}
	if pending > 0 {
		return leagueerr.State("%d submission(s) are still pending review; review them before publishing", pending)
	}
	return nil
}
