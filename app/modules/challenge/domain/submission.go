package challengedomain

import (
	"time"

	"github.com/google/uuid"

	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
)

// SubmissionStatus is the review state of a challenge submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Action is what a reviewer does to a challenge submission.
type Action string

const (
	ActionApprove Action = "approve"
	ActionUpdate  Action = "update"
	ActionReject  Action = "reject"
)

// Submission is a member's entry into a challenge.
type Submission struct {
	ID            uuid.UUID        `json:"id"`
	ChallengeID   uuid.UUID        `json:"challenge_id"`
	LeagueID      uuid.UUID        `json:"league_id"`
	MemberID      uuid.UUID        `json:"member_id"`
	TeamID        *uuid.UUID       `json:"team_id,omitempty"`
	SubTeamID     *uuid.UUID       `json:"sub_team_id,omitempty"`
	Status        SubmissionStatus `json:"status"`
	AwardedPoints *float64         `json:"awarded_points,omitempty"`
	ProofRef      string           `json:"proof_ref,omitempty"`
	ReviewerID    *uuid.UUID       `json:"reviewer_id,omitempty"`
	ReviewedAt    *time.Time       `json:"reviewed_at,omitempty"`
	Version       int64            `json:"version"`
	CreatedAt     time.Time        `json:"created_at"`
}

// InferAction picks approve for pending submissions and update for approved ones.
func InferAction(current SubmissionStatus) Action {
	if current == SubmissionApproved {
		return ActionUpdate
	}
	return ActionApprove
}

// ReviewTransition validates a reviewer action and returns the new status.
// A value may be approved once and adjusted afterwards with update; reject
// zeroes the award and is final.
func ReviewTransition(current SubmissionStatus, action Action, challenge Status) (SubmissionStatus, error) {
	if !challenge.AcceptsReviews() {
		return "", leagueerr.State("challenge is %s; awards can only change while it is active or closed for submissions", challenge)
	}
	switch action {
	case ActionApprove:
		if current != SubmissionPending {
			return "", leagueerr.State("submission is already %s; use update to change its points", current)
		}
		return SubmissionApproved, nil
	case ActionUpdate:
		if current != SubmissionApproved {
			return "", leagueerr.State("only approved submissions can be updated, this one is %s", current)
		}
		return SubmissionApproved, nil
	case ActionReject:
		if current == SubmissionRejected {
			return "", leagueerr.State("submission is already rejected")
		}
		return SubmissionRejected, nil
	}
	return "", leagueerr.Validation("action", "action must be approve, update or reject, got %q", action)
}
