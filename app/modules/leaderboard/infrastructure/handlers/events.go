package leaderboardhandlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Black-And-White-Club/fitleague/app/events"
	"github.com/Black-And-White-Club/fitleague/pkg/eventbus"
	"github.com/Black-And-White-Club/fitleague/pkg/handlerwrapper"
)

// HandleSubmissionCreated drops the league's leaderboards; a new entry
// changes pending counts and the realtime window.
func (h *Handlers) HandleSubmissionCreated(ctx context.Context, payload *events.SubmissionCreatedPayloadV1) ([]handlerwrapper.Result, error) {
	return h.invalidate(ctx, payload.LeagueID, events.SubmissionCreatedV1)
}

func (h *Handlers) HandleSubmissionReviewed(ctx context.Context, payload *events.SubmissionReviewedPayloadV1) ([]handlerwrapper.Result, error) {
	return h.invalidate(ctx, payload.LeagueID, events.SubmissionReviewedV1)
}

func (h *Handlers) HandleChallengeAwarded(ctx context.Context, payload *events.ChallengeAwardedPayloadV1) ([]handlerwrapper.Result, error) {
	return h.invalidate(ctx, payload.LeagueID, events.ChallengeAwardedV1)
}

func (h *Handlers) HandleChallengePublished(ctx context.Context, payload *events.ChallengePublishedPayloadV1) ([]handlerwrapper.Result, error) {
	return h.invalidate(ctx, payload.LeagueID, events.ChallengePublishedV1)
}

// invalidate drops the league's cached views and announces it on the
// league-scoped invalidation topic.
func (h *Handlers) invalidate(ctx context.Context, leagueID uuid.UUID, cause string) ([]handlerwrapper.Result, error) {
	if _, err := h.service.InvalidateLeague(ctx, leagueID, cause); err != nil {
		return nil, err
	}
	return []handlerwrapper.Result{{
		Topic: eventbus.FormatLeagueScopedTopic(events.LeaderboardInvalidatedV1, leagueID.String()),
		Payload: events.LeaderboardInvalidatedPayloadV1{
			LeagueID:      leagueID,
			Cause:         cause,
			InvalidatedAt: h.clock.Now().UTC().Truncate(time.Millisecond),
		},
	}}, nil
}
