// Package events defines the topics and payloads exchanged between modules.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/Black-And-White-Club/fitleague/pkg/eventbus"
)

const (
	SubmissionCreatedV1  = "fitleague.submission.created.v1"
	SubmissionReviewedV1 = "fitleague.submission.reviewed.v1"

	ChallengeAwardedV1   = "fitleague.challenge.awarded.v1"
	ChallengePublishedV1 = "fitleague.challenge.published.v1"

	// LeaderboardInvalidatedV1 is published per league (suffixed with the
	// league id) after the cache for that league was dropped.
	LeaderboardInvalidatedV1 = "fitleague.leaderboard.invalidated.v1"
)

type SubmissionCreatedPayloadV1 struct {
	LeagueID     uuid.UUID  `json:"league_id"`
	SubmissionID uuid.UUID  `json:"submission_id"`
	MemberID     uuid.UUID  `json:"member_id"`
	Date         string     `json:"date"`
	RR           float64    `json:"rr"`
	Replaced     *uuid.UUID `json:"replaced,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

// SubmissionReviewedPayloadV1 covers approvals, rejections and auto-approvals.
type SubmissionReviewedPayloadV1 struct {
	LeagueID     uuid.UUID  `json:"league_id"`
	SubmissionID uuid.UUID  `json:"submission_id"`
	MemberID     uuid.UUID  `json:"member_id"`
	Date         string     `json:"date"`
	Status       string     `json:"status"`
	ReviewerID   *uuid.UUID `json:"reviewer_id,omitempty"`
	AutoApproved bool       `json:"auto_approved"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

type ChallengeAwardedPayloadV1 struct {
	LeagueID      uuid.UUID `json:"league_id"`
	ChallengeID   uuid.UUID `json:"challenge_id"`
	SubmissionID  uuid.UUID `json:"submission_id"`
	Status        string    `json:"status"`
	AwardedPoints float64   `json:"awarded_points"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type ChallengePublishedPayloadV1 struct {
	LeagueID    uuid.UUID `json:"league_id"`
	ChallengeID uuid.UUID `json:"challenge_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type LeaderboardInvalidatedPayloadV1 struct {
	LeagueID      uuid.UUID `json:"league_id"`
	Cause         string    `json:"cause"`
	InvalidatedAt time.Time `json:"invalidated_at"`
}

// Publish marshals payload and sends it on topic.
func Publish(ctx context.Context, pub message.Publisher, topic string, payload any) error {
	msg, err := eventbus.NewJSONMessage(ctx, payload)
	if err != nil {
		return err
	}
	if err := pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
