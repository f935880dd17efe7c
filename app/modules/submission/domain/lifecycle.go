package submissiondomain

import (
	"time"

	"github.com/google/uuid"

	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
)

// EntryKind distinguishes workouts from rest days.
type EntryKind string

const (
	KindWorkout EntryKind = "workout"
	KindRest    EntryKind = "rest"
)

// Status is the stored review state of a submission.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Decision is a reviewer's verdict.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// AutoApproveAfter is how long a submission may sit unreviewed before it
// counts as approved.
const AutoApproveAfter = 48 * time.Hour

// Entry is the domain view of one stored submission.
type Entry struct {
	ID              uuid.UUID      `json:"id"`
	LeagueID        uuid.UUID      `json:"league_id"`
	MemberID        uuid.UUID      `json:"member_id"`
	TeamID          *uuid.UUID     `json:"team_id,omitempty"`
	Date            time.Time      `json:"date"`
	Kind            EntryKind      `json:"kind"`
	Subtype         string         `json:"subtype,omitempty"`
	Metric          *WorkoutMetric `json:"metric,omitempty"`
	RR              float64        `json:"rr"`
	Status          Status         `json:"status"`
	ProofRef        string         `json:"proof_ref,omitempty"`
	ReviewerID      *uuid.UUID     `json:"reviewer_id,omitempty"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
	AutoApproved    bool           `json:"auto_approved"`
	AwardedPoints   int            `json:"awarded_points"`
	TZOffsetMinutes int            `json:"tz_offset_minutes"`
	ReuploadOf      *uuid.UUID     `json:"reupload_of,omitempty"`
	Version         int64          `json:"version"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// EffectiveStatus treats a submission left pending for more than
// AutoApproveAfter as approved. Aggregation uses this instead of the stored
// status so scoring does not depend on the sweep job having run.
func EffectiveStatus(status Status, createdAt, now time.Time) Status {
	if status == StatusPending && now.Sub(createdAt) > AutoApproveAfter {
		return StatusApproved
	}
	return status
}

func (e Entry) EffectiveStatus(now time.Time) Status {
	return EffectiveStatus(e.Status, e.CreatedAt, now)
}

// Target is the status a decision moves a submission to.
func (d Decision) Target() (Status, bool) {
	switch d {
	case DecisionApprove:
		return StatusApproved, true
	case DecisionReject:
		return StatusRejected, true
	}
	return "", false
}

// AwardFor is the day's point value after a decision: one for approval,
// zero for rejection.
func AwardFor(status Status) int {
	if status == StatusApproved {
		return 1
	}
	return 0
}

// ReviewTransition validates a reviewer decision against the current state.
// Pending entries can be approved or rejected, and a reviewer may reverse an
// earlier decision. Repeating the current decision and any change in a closed
// league are state errors.
func ReviewTransition(current Status, d Decision, leagueClosed bool) (Status, error) {
	target, ok := d.Target()
	if !ok {
		return "", leagueerr.Validation("decision", "decision must be approve or reject, got %q", d)
	}
	if leagueClosed {
		return "", leagueerr.State("the league is closed; submissions can no longer be reviewed")
	}
	if current == target {
		return "", leagueerr.State("submission is already %s", current)
	}
	return target, nil
}
