package submissionservice

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
	leaguedomain "github.com/Black-And-White-Club/fitleague/app/modules/league/domain"
	leaguedb "github.com/Black-And-White-Club/fitleague/app/modules/league/infrastructure/repositories"
	submissiondomain "github.com/Black-And-White-Club/fitleague/app/modules/submission/domain"
	submissiondb "github.com/Black-And-White-Club/fitleague/app/modules/submission/infrastructure/repositories"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
	"github.com/Black-And-White-Club/fitleague/pkg/attr"
	"github.com/Black-And-White-Club/fitleague/pkg/metrics"
	"github.com/Black-And-White-Club/fitleague/pkg/results"
)

const maxOffsetMinutes = 14 * 60

// errLostRace aborts a transaction whose conditional write lost to a
// concurrent request. The caller reloads the winner outside the transaction.
var errLostRace = errors.New("lost race for current submission")

// SubmissionService implements the Service interface.
type SubmissionService struct {
	repo      submissiondb.Repository
	leagues   LeagueReader
	publisher message.Publisher
	catalog   submissiondomain.Catalog
	clock     calendar.Clock
	locks     *keyedMutex
	logger    *slog.Logger
	metrics   metrics.OperationMetrics
	tracer    trace.Tracer
	db        *bun.DB
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	repo submissiondb.Repository,
	leagues LeagueReader,
	publisher message.Publisher,
	catalog submissiondomain.Catalog,
	clock calendar.Clock,
	logger *slog.Logger,
	metrics metrics.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *SubmissionService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = calendar.RealClock{}
	}
	if catalog == nil {
		catalog = submissiondomain.DefaultCatalog()
	}
	return &SubmissionService{
		repo:      repo,
		leagues:   leagues,
		publisher: publisher,
		catalog:   catalog,
		clock:     clock,
		locks:     newKeyedMutex(),
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
	}
}

var _ Service = (*SubmissionService)(nil)

func dayKey(leagueID, memberID uuid.UUID, day time.Time) string {
	return leagueID.String() + "/" + memberID.String() + "/" + calendar.Format(day)
}

// SubmitEntry scores and stores an entry. Requests for the same member and
// day are serialized in-process, and an overwrite that queued behind another
// committed write loses with a ConflictError naming that write. The
// conditional supersede covers requests that land on other replicas.
func (s *SubmissionService) SubmitEntry(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	req.Date = calendar.Normalize(req.Date)
	lease := s.locks.Lock(dayKey(req.LeagueID, req.MemberID, req.Date))
	defer lease.Unlock()

	now := s.clock.Now()
	submitTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*SubmitResult, error], error) {
		return s.submitEntryLogic(ctx, db, req, now)
	}

	result, err := withTelemetry(s, ctx, "SubmitEntry", req.MemberID.String(), func(ctx context.Context) (results.OperationResult[*SubmitResult, error], error) {
		if req.Overwrite && lease.Overtaken() {
			return s.concurrentConflict(ctx, req.LeagueID, req.MemberID, req.Date)
		}
		res, err := runInTx(s, ctx, submitTx)
		if errors.Is(err, errLostRace) {
			return s.concurrentConflict(ctx, req.LeagueID, req.MemberID, req.Date)
		}
		return res, err
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}

	created := *result.Success
	lease.Committed()
	s.publish(ctx, createdEvent(req, created, now))
	return created, nil
}

func (s *SubmissionService) submitEntryLogic(ctx context.Context, db bun.IDB, req SubmitRequest, now time.Time) (results.OperationResult[*SubmitResult, error], error) {
	fail := func(err error) (results.OperationResult[*SubmitResult, error], error) {
		return results.FailureResult[*SubmitResult, error](err), nil
	}

	league, membership, err := s.loadLeagueAndMember(ctx, db, req.LeagueID, req.MemberID)
	if err != nil {
		if typed, ok := asTyped(err); ok {
			return fail(typed)
		}
		return results.OperationResult[*SubmitResult, error]{}, err
	}
	if league.IsClosed() {
		return fail(leagueerr.State("the league is closed; entries can no longer change"))
	}

	if req.TZOffsetMinutes < -maxOffsetMinutes || req.TZOffsetMinutes > maxOffsetMinutes {
		return fail(leagueerr.Validation("tz_offset_minutes", "UTC offset %d minutes is out of range", req.TZOffsetMinutes))
	}
	if !league.Contains(req.Date) {
		return fail(leagueerr.Validation("date", "%s is outside the league dates %s to %s",
			calendar.Format(req.Date), calendar.Format(league.StartDate), calendar.Format(league.EndDate)))
	}
	memberToday := calendar.DayOf(now, calendar.OffsetZone(req.TZOffsetMinutes))
	if req.Date.After(memberToday) {
		return fail(leagueerr.Validation("date", "%s is in the future", calendar.Format(req.Date)))
	}

	scored, err := submissiondomain.Score(submissiondomain.EntryInput{
		Kind:     req.Kind,
		Subtype:  req.Subtype,
		Metrics:  req.Metrics,
		ProofRef: req.ProofRef,
	}, s.catalog, league.RequireProof)
	if err != nil {
		return fail(err)
	}

	row := &submissiondb.Submission{
		ID:              uuid.New(),
		LeagueID:        req.LeagueID,
		MemberID:        req.MemberID,
		TeamID:          membership.TeamID,
		EntryDate:       req.Date,
		Kind:            scored.Kind,
		Subtype:         scored.Subtype,
		RR:              scored.RR,
		Status:          submissiondomain.StatusPending,
		ProofRef:        req.ProofRef,
		TZOffsetMinutes: req.TZOffsetMinutes,
		CreatedAt:       now,
	}
	if scored.Metric != nil {
		kind, value := scored.Metric.Kind, scored.Metric.Value
		row.MetricKind = &kind
		row.MetricValue = &value
	}

	current, err := s.repo.GetCurrent(ctx, db, req.LeagueID, req.MemberID, req.Date)
	switch {
	case errors.Is(err, submissiondb.ErrNotFound):
		current = nil
	case err != nil:
		return results.OperationResult[*SubmitResult, error]{}, fmt.Errorf("failed to load current submission: %w", err)
	}

	if current != nil {
		existing := current.ToDomain()
		if !req.Overwrite {
			return fail(submissiondomain.NewConflictError(existing, false))
		}
		if req.ExpectedCurrentID != nil && *req.ExpectedCurrentID != current.ID {
			return fail(submissiondomain.NewConflictError(existing, true))
		}
		if err := submissiondomain.CheckReplaceable(existing, now, league.IsClosed()); err != nil {
			return fail(err)
		}
		if err := s.repo.Supersede(ctx, db, current.ID, current.Version, row.ID); err != nil {
			if errors.Is(err, submissiondb.ErrVersionConflict) {
				return results.OperationResult[*SubmitResult, error]{}, errLostRace
			}
			return results.OperationResult[*SubmitResult, error]{}, fmt.Errorf("failed to supersede submission: %w", err)
		}
		replaced := current.ID
		row.ReuploadOf = &replaced
	}

	if err := s.repo.Insert(ctx, db, row); err != nil {
		if errors.Is(err, submissiondb.ErrDuplicateCurrent) {
			return results.OperationResult[*SubmitResult, error]{}, errLostRace
		}
		return results.OperationResult[*SubmitResult, error]{}, fmt.Errorf("failed to insert submission: %w", err)
	}

	return results.SuccessResult[*SubmitResult, error](&SubmitResult{
		SubmissionID: row.ID,
		RR:           row.RR,
		Status:       row.Status,
		Replaced:     row.ReuploadOf,
	}), nil
}

// concurrentConflict reports the entry that won a race as a ConflictError.
func (s *SubmissionService) concurrentConflict(ctx context.Context, leagueID, memberID uuid.UUID, day time.Time) (results.OperationResult[*SubmitResult, error], error) {
	winner, err := s.repo.GetCurrent(ctx, nil, leagueID, memberID, day)
	if err != nil {
		return results.OperationResult[*SubmitResult, error]{}, fmt.Errorf("failed to reload winning submission: %w", err)
	}
	return results.FailureResult[*SubmitResult, error](submissiondomain.NewConflictError(winner.ToDomain(), true)), nil
}

// ReviewSubmission approves or rejects a submission on behalf of a reviewer.
func (s *SubmissionService) ReviewSubmission(ctx context.Context, req ReviewRequest) (*submissiondomain.Entry, error) {
	now := s.clock.Now()
	reviewTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*submissiondomain.Entry, error], error) {
		return s.reviewSubmissionLogic(ctx, db, req, now)
	}

	result, err := withTelemetry(s, ctx, "ReviewSubmission", req.SubmissionID.String(), func(ctx context.Context) (results.OperationResult[*submissiondomain.Entry, error], error) {
		res, err := runInTx(s, ctx, reviewTx)
		if errors.Is(err, errLostRace) {
			latest, loadErr := s.repo.GetByID(ctx, nil, req.SubmissionID)
			if loadErr != nil {
				return res, fmt.Errorf("failed to reload reviewed submission: %w", loadErr)
			}
			return results.FailureResult[*submissiondomain.Entry, error](submissiondomain.NewConflictError(latest.ToDomain(), true)), nil
		}
		return res, err
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}

	entry := *result.Success
	s.publish(ctx, reviewedEvent(entry, now))
	return entry, nil
}

func (s *SubmissionService) reviewSubmissionLogic(ctx context.Context, db bun.IDB, req ReviewRequest, now time.Time) (results.OperationResult[*submissiondomain.Entry, error], error) {
	fail := func(err error) (results.OperationResult[*submissiondomain.Entry, error], error) {
		return results.FailureResult[*submissiondomain.Entry, error](err), nil
	}
	denied := &leagueerr.AuthorizationError{Reason: "submission not found or outside your review authority"}

	sub, err := s.repo.GetByID(ctx, db, req.SubmissionID)
	if err != nil {
		if errors.Is(err, submissiondb.ErrNotFound) {
			return fail(denied)
		}
		return results.OperationResult[*submissiondomain.Entry, error]{}, fmt.Errorf("failed to load submission: %w", err)
	}

	reviewer, err := s.leagues.GetMembership(ctx, db, sub.LeagueID, req.ReviewerID)
	if err != nil {
		if errors.Is(err, leaguedb.ErrNotFound) {
			return fail(denied)
		}
		return results.OperationResult[*submissiondomain.Entry, error]{}, fmt.Errorf("failed to load reviewer membership: %w", err)
	}
	memberTeam := uuid.Nil
	if sub.TeamID != nil {
		memberTeam = *sub.TeamID
	}
	if !leaguedomain.CanReview(reviewer.ToDomain(), sub.LeagueID, memberTeam) {
		return fail(denied)
	}

	if !sub.IsCurrent {
		return fail(leagueerr.State("this submission was replaced; review the current entry instead"))
	}

	league, err := s.leagues.GetLeague(ctx, db, sub.LeagueID)
	if err != nil {
		return results.OperationResult[*submissiondomain.Entry, error]{}, fmt.Errorf("failed to load league: %w", err)
	}

	target, err := submissiondomain.ReviewTransition(sub.Status, req.Decision, league.Status == leaguedomain.StatusClosed)
	if err != nil {
		return fail(err)
	}

	reviewerID := req.ReviewerID
	update := submissiondb.ReviewUpdate{
		Status:        target,
		ReviewerID:    &reviewerID,
		ReviewedAt:    now,
		AwardedPoints: submissiondomain.AwardFor(target),
	}
	if err := s.repo.ApplyReview(ctx, db, sub.ID, sub.Version, update); err != nil {
		if errors.Is(err, submissiondb.ErrVersionConflict) {
			return results.OperationResult[*submissiondomain.Entry, error]{}, errLostRace
		}
		return results.OperationResult[*submissiondomain.Entry, error]{}, fmt.Errorf("failed to apply review: %w", err)
	}

	sub.Status = update.Status
	sub.ReviewerID = update.ReviewerID
	reviewedAt := update.ReviewedAt
	sub.ReviewedAt = &reviewedAt
	sub.AwardedPoints = update.AwardedPoints
	sub.AutoApproved = false
	sub.Version++

	entry := sub.ToDomain()
	return results.SuccessResult[*submissiondomain.Entry, error](&entry), nil
}

// SweepAutoApprovals stores the approval that aggregation already assumes for
// entries pending longer than AutoApproveAfter. Entries changed concurrently
// are skipped and picked up on the next run if still pending.
func (s *SubmissionService) SweepAutoApprovals(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	now := s.clock.Now()
	cutoff := now.Add(-submissiondomain.AutoApproveAfter)

	var approved []submissiondomain.Entry
	result, err := withTelemetry(s, ctx, "SweepAutoApprovals", cutoff.Format(time.RFC3339), func(ctx context.Context) (results.OperationResult[int, error], error) {
		stale, err := s.repo.ListStalePending(ctx, nil, cutoff, batchSize)
		if err != nil {
			return results.OperationResult[int, error]{}, err
		}
		for _, row := range stale {
			update := submissiondb.ReviewUpdate{
				Status:        submissiondomain.StatusApproved,
				ReviewedAt:    now,
				AwardedPoints: 1,
				AutoApproved:  true,
			}
			if err := s.repo.ApplyReview(ctx, nil, row.ID, row.Version, update); err != nil {
				if errors.Is(err, submissiondb.ErrVersionConflict) {
					continue
				}
				return results.OperationResult[int, error]{}, err
			}
			row.Status = update.Status
			row.AutoApproved = true
			row.AwardedPoints = 1
			row.ReviewedAt = &now
			approved = append(approved, row.ToDomain())
		}
		return results.SuccessResult[int, error](len(approved)), nil
	})

	for _, entry := range approved {
		s.publish(ctx, reviewedEvent(&entry, now))
	}
	if err != nil {
		return len(approved), err
	}
	return *result.Success, nil
}

// History lists every stored version of a member's day.
func (s *SubmissionService) History(ctx context.Context, leagueID, memberID uuid.UUID, day time.Time) ([]submissiondomain.Entry, error) {
	rows, err := s.repo.ListHistory(ctx, nil, leagueID, memberID, calendar.Normalize(day))
	if err != nil {
		return nil, err
	}
	out := make([]submissiondomain.Entry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

func (s *SubmissionService) loadLeagueAndMember(ctx context.Context, db bun.IDB, leagueID, memberID uuid.UUID) (leaguedomain.League, *leaguedb.Membership, error) {
	league, err := s.leagues.GetLeague(ctx, db, leagueID)
	if err != nil {
		if errors.Is(err, leaguedb.ErrNotFound) {
			return leaguedomain.League{}, nil, leagueerr.Validation("league_id", "league %s does not exist", leagueID)
		}
		return leaguedomain.League{}, nil, fmt.Errorf("failed to load league: %w", err)
	}
	membership, err := s.leagues.GetMembership(ctx, db, leagueID, memberID)
	if err != nil {
		if errors.Is(err, leaguedb.ErrNotFound) {
			return leaguedomain.League{}, nil, &leagueerr.AuthorizationError{Reason: "you are not a member of this league"}
		}
		return leaguedomain.League{}, nil, fmt.Errorf("failed to load membership: %w", err)
	}
	return league.ToDomain(), membership, nil
}

func asTyped(err error) (error, bool) {
	var typed leagueerr.Typed
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}

// publish sends an event after commit. A failed publish is logged; the stored
// state is already authoritative and the leaderboard cache also expires by age.
func (s *SubmissionService) publish(ctx context.Context, ev outgoing) {
	if s.publisher == nil {
		return
	}
	if err := events.Publish(ctx, s.publisher, ev.topic, ev.payload); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish submission event",
			attr.ExtractCorrelationID(ctx),
			attr.String("topic", ev.topic),
			attr.Error(err),
		)
	}
}
