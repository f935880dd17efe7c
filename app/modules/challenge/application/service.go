package challengeservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"

	"github.com/Black-And-White-Club/fitleague/app/events"
	challengedomain "github.com/Black-And-White-Club/fitleague/app/modules/challenge/domain"
	challengedb "github.com/Black-And-White-Club/fitleague/app/modules/challenge/infrastructure/repositories"
	leaguedomain "github.com/Black-And-White-Club/fitleague/app/modules/league/domain"
	leaguedb "github.com/Black-And-White-Club/fitleague/app/modules/league/infrastructure/repositories"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
	"github.com/Black-And-White-Club/fitleague/pkg/attr"
	"github.com/Black-And-White-Club/fitleague/pkg/metrics"
	"github.com/Black-And-White-Club/fitleague/pkg/results"
)

var errDenied = &leagueerr.AuthorizationError{Reason: "challenge submission not found or outside your review authority"}

// ChallengeService implements the Service interface.
type ChallengeService struct {
	repo      challengedb.Repository
	leagues   LeagueReader
	publisher message.Publisher
	clock     calendar.Clock
	logger    *slog.Logger
	metrics   metrics.OperationMetrics
	tracer    trace.Tracer
	db        *bun.DB
}

// NewChallengeService creates a new ChallengeService.
func NewChallengeService(
	repo challengedb.Repository,
	leagues LeagueReader,
	publisher message.Publisher,
	clock calendar.Clock,
	logger *slog.Logger,
	metrics metrics.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *ChallengeService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = calendar.RealClock{}
	}
	return &ChallengeService{
		repo:      repo,
		leagues:   leagues,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
	}
}

var _ Service = (*ChallengeService)(nil)

// DistributeChallengePoints applies a review to a challenge submission. The
// challenge row is locked for the transaction, so awards and publishing for
// one challenge never interleave.
func (s *ChallengeService) DistributeChallengePoints(ctx context.Context, req AwardRequest) (*Award, error) {
	now := s.clock.Now()
	awardTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*Award, error], error) {
		return s.distributeLogic(ctx, db, req, now)
	}

	result, err := withTelemetry(s, ctx, "DistributeChallengePoints", req.SubmissionID.String(), func(ctx context.Context) (results.OperationResult[*Award, error], error) {
		return runInTx(s, ctx, awardTx)
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}

	award := *result.Success
	s.publish(ctx, events.ChallengeAwardedV1, events.ChallengeAwardedPayloadV1{
		LeagueID:      award.Submission.LeagueID,
		ChallengeID:   award.Submission.ChallengeID,
		SubmissionID:  award.Submission.ID,
		Status:        string(award.Submission.Status),
		AwardedPoints: award.Internal,
		OccurredAt:    now,
	})
	return award, nil
}

func (s *ChallengeService) distributeLogic(ctx context.Context, db bun.IDB, req AwardRequest, now time.Time) (results.OperationResult[*Award, error], error) {
	fail := func(err error) (results.OperationResult[*Award, error], error) {
		return results.FailureResult[*Award, error](err), nil
	}

	row, err := s.repo.LockChallenge(ctx, db, req.ChallengeID)
	if err != nil {
		if errors.Is(err, challengedb.ErrNotFound) {
			return fail(errDenied)
		}
		return results.OperationResult[*Award, error]{}, fmt.Errorf("failed to lock challenge: %w", err)
	}
	ch := row.ToDomain()

	subRow, err := s.repo.GetSubmission(ctx, db, req.ChallengeID, req.SubmissionID)
	if err != nil {
		if errors.Is(err, challengedb.ErrSubmissionNotFound) {
			return fail(errDenied)
		}
		return results.OperationResult[*Award, error]{}, fmt.Errorf("failed to load challenge submission: %w", err)
	}
	sub := subRow.ToDomain()

	reviewer, err := s.leagues.GetMembership(ctx, db, ch.LeagueID, req.ReviewerID)
	if err != nil {
		if errors.Is(err, leaguedb.ErrNotFound) {
			return fail(errDenied)
		}
		return results.OperationResult[*Award, error]{}, fmt.Errorf("failed to load reviewer membership: %w", err)
	}
	memberTeam := uuid.Nil
	if sub.TeamID != nil {
		memberTeam = *sub.TeamID
	}
	if !leaguedomain.CanReview(reviewer.ToDomain(), ch.LeagueID, memberTeam) {
		return fail(errDenied)
	}

	action := req.Action
	if action == "" {
		action = challengedomain.InferAction(sub.Status)
	}
	target, err := challengedomain.ReviewTransition(sub.Status, action, ch.Status)
	if err != nil {
		return fail(err)
	}

	sizes, err := s.sizes(ctx, db, ch.LeagueID)
	if err != nil {
		return results.OperationResult[*Award, error]{}, err
	}

	var (
		caps    challengedomain.Caps
		awarded float64
	)
	if target == challengedomain.SubmissionApproved {
		if req.AwardedPoints == nil {
			return fail(leagueerr.Validation("awarded_points", "awarded points are required to approve a challenge submission"))
		}
		caps, err = challengedomain.CapsFor(ch, sub, sizes)
		if err != nil {
			if _, _, ok := leagueerr.Classify(err); ok {
				return fail(err)
			}
			return results.OperationResult[*Award, error]{}, err
		}
		if err := challengedomain.ValidateAward(caps, *req.AwardedPoints); err != nil {
			return fail(err)
		}
		awarded = *req.AwardedPoints
	} else {
		// A reject zeroes the award; caps are informational only here.
		caps, _ = challengedomain.CapsFor(ch, sub, sizes)
	}

	update := challengedb.AwardUpdate{
		Status:        target,
		AwardedPoints: &awarded,
		ReviewerID:    req.ReviewerID,
		ReviewedAt:    now,
	}
	if err := s.repo.ApplyAward(ctx, db, sub.ID, sub.Version, update); err != nil {
		if errors.Is(err, challengedb.ErrVersionConflict) {
			return fail(leagueerr.State("the submission was changed by another reviewer; reload it and try again"))
		}
		return results.OperationResult[*Award, error]{}, fmt.Errorf("failed to apply award: %w", err)
	}

	reviewerID := req.ReviewerID
	sub.Status = target
	sub.AwardedPoints = &awarded
	sub.ReviewerID = &reviewerID
	sub.ReviewedAt = &now
	sub.Version++

	return results.SuccessResult[*Award, error](&Award{
		Submission: sub,
		Caps:       caps,
		Internal:   awarded,
		Visible:    challengedomain.VisibleAward(caps, awarded),
	}), nil
}

// PublishChallenge publishes results once nothing is left pending.
func (s *ChallengeService) PublishChallenge(ctx context.Context, challengeID, actorID uuid.UUID) (*challengedomain.Challenge, error) {
	return s.advance(ctx, "PublishChallenge", challengeID, actorID, challengedomain.StatusPublished)
}

// AdvanceChallenge moves a challenge to the next stage. Moving to published
// applies the same checks as PublishChallenge.
func (s *ChallengeService) AdvanceChallenge(ctx context.Context, challengeID, actorID uuid.UUID, to challengedomain.Status) (*challengedomain.Challenge, error) {
	return s.advance(ctx, "AdvanceChallenge", challengeID, actorID, to)
}

func (s *ChallengeService) advance(ctx context.Context, operation string, challengeID, actorID uuid.UUID, to challengedomain.Status) (*challengedomain.Challenge, error) {
	now := s.clock.Now()
	advanceTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*challengedomain.Challenge, error], error) {
		return s.advanceLogic(ctx, db, challengeID, actorID, to)
	}

	result, err := withTelemetry(s, ctx, operation, challengeID.String(), func(ctx context.Context) (results.OperationResult[*challengedomain.Challenge, error], error) {
		return runInTx(s, ctx, advanceTx)
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}

	ch := *result.Success
	if ch.Status == challengedomain.StatusPublished {
		s.publish(ctx, events.ChallengePublishedV1, events.ChallengePublishedPayloadV1{
			LeagueID:    ch.LeagueID,
			ChallengeID: ch.ID,
			OccurredAt:  now,
		})
	}
	return ch, nil
}

func (s *ChallengeService) advanceLogic(ctx context.Context, db bun.IDB, challengeID, actorID uuid.UUID, to challengedomain.Status) (results.OperationResult[*challengedomain.Challenge, error], error) {
	fail := func(err error) (results.OperationResult[*challengedomain.Challenge, error], error) {
		return results.FailureResult[*challengedomain.Challenge, error](err), nil
	}
	denied := &leagueerr.AuthorizationError{Reason: "challenge not found or you cannot manage it"}

	row, err := s.repo.LockChallenge(ctx, db, challengeID)
	if err != nil {
		if errors.Is(err, challengedb.ErrNotFound) {
			return fail(denied)
		}
		return results.OperationResult[*challengedomain.Challenge, error]{}, fmt.Errorf("failed to lock challenge: %w", err)
	}
	ch := row.ToDomain()

	actor, err := s.leagues.GetMembership(ctx, db, ch.LeagueID, actorID)
	if err != nil {
		if errors.Is(err, leaguedb.ErrNotFound) {
			return fail(denied)
		}
		return results.OperationResult[*challengedomain.Challenge, error]{}, fmt.Errorf("failed to load membership: %w", err)
	}
	if !leaguedomain.CanManage(actor.ToDomain(), ch.LeagueID) {
		return fail(denied)
	}

	if to == challengedomain.StatusPublished {
		pending, err := s.repo.CountPending(ctx, db, ch.ID)
		if err != nil {
			return results.OperationResult[*challengedomain.Challenge, error]{}, err
		}
		if err := challengedomain.CheckPublishable(ch, pending); err != nil {
			return fail(err)
		}
	} else if err := challengedomain.Transition(ch.Status, to); err != nil {
		return fail(err)
	}

	if err := s.repo.UpdateStatus(ctx, db, ch.ID, ch.Status, to); err != nil {
		if errors.Is(err, challengedb.ErrVersionConflict) {
			return fail(leagueerr.State("the challenge changed stage concurrently; reload it and try again"))
		}
		return results.OperationResult[*challengedomain.Challenge, error]{}, fmt.Errorf("failed to update challenge status: %w", err)
	}
	ch.Status = to
	return results.SuccessResult[*challengedomain.Challenge, error](&ch), nil
}

// VisibleAward reports the stored award for a submission in both scales.
func (s *ChallengeService) VisibleAward(ctx context.Context, challengeID, submissionID uuid.UUID) (*Award, error) {
	result, err := withTelemetry(s, ctx, "VisibleAward", submissionID.String(), func(ctx context.Context) (results.OperationResult[*Award, error], error) {
		row, err := s.repo.GetChallenge(ctx, nil, challengeID)
		if err != nil {
			if errors.Is(err, challengedb.ErrNotFound) {
				return results.FailureResult[*Award, error](leagueerr.Validation("challenge_id", "challenge %s does not exist", challengeID)), nil
			}
			return results.OperationResult[*Award, error]{}, err
		}
		subRow, err := s.repo.GetSubmission(ctx, nil, challengeID, submissionID)
		if err != nil {
			if errors.Is(err, challengedb.ErrSubmissionNotFound) {
				return results.FailureResult[*Award, error](leagueerr.Validation("submission_id", "submission %s is not part of this challenge", submissionID)), nil
			}
			return results.OperationResult[*Award, error]{}, err
		}
		ch, sub := row.ToDomain(), subRow.ToDomain()

		sizes, err := s.sizes(ctx, nil, ch.LeagueID)
		if err != nil {
			return results.OperationResult[*Award, error]{}, err
		}
		caps, err := challengedomain.CapsFor(ch, sub, sizes)
		if err != nil {
			if _, _, ok := leagueerr.Classify(err); ok {
				return results.FailureResult[*Award, error](err), nil
			}
			return results.OperationResult[*Award, error]{}, err
		}
		var awarded float64
		if sub.AwardedPoints != nil {
			awarded = *sub.AwardedPoints
		}
		return results.SuccessResult[*Award, error](&Award{
			Submission: sub,
			Caps:       caps,
			Internal:   awarded,
			Visible:    challengedomain.VisibleAward(caps, awarded),
		}), nil
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	return *result.Success, nil
}

func (s *ChallengeService) sizes(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (challengedomain.Sizes, error) {
	teams, err := s.leagues.TeamSizes(ctx, db, leagueID)
	if err != nil {
		return challengedomain.Sizes{}, fmt.Errorf("failed to load team sizes: %w", err)
	}
	subTeams, err := s.leagues.SubTeamSizes(ctx, db, leagueID)
	if err != nil {
		return challengedomain.Sizes{}, fmt.Errorf("failed to load sub-team sizes: %w", err)
	}
	return challengedomain.Sizes{
		Teams:    leaguedomain.NewTeamSizeStats(teams),
		SubTeams: leaguedomain.NewTeamSizeStats(subTeams),
	}, nil
}

func (s *ChallengeService) publish(ctx context.Context, topic string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := events.Publish(ctx, s.publisher, topic, payload); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish challenge event",
			attr.ExtractCorrelationID(ctx),
			attr.String("topic", topic),
			attr.Error(err),
		)
	}
}
