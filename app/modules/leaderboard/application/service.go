package leaderboardservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	leaderboarddomain "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/domain"
	leaderboardcache "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/infrastructure/cache"
	leaderboarddb "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/infrastructure/repositories"
	leaguedomain "github.com/Black-And-White-Club/fitleague/app/modules/league/domain"
	leaguedb "github.com/Black-And-White-Club/fitleague/app/modules/league/infrastructure/repositories"
	submissiondomain "github.com/Black-And-White-Club/fitleague/app/modules/submission/domain"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
	"github.com/Black-And-White-Club/fitleague/pkg/attr"
	"github.com/Black-And-White-Club/fitleague/pkg/metrics"
	"github.com/Black-And-White-Club/fitleague/pkg/results"
)

// LeaderboardService implements the Service interface.
type LeaderboardService struct {
	leagues     LeagueReader
	submissions SubmissionReader
	awards      AwardReader
	snapshots   leaderboarddb.Repository
	cache       *leaderboardcache.Cache
	limiter     RefreshLimiter
	flights     singleflight.Group
	opts        Options
	clock       calendar.Clock
	logger      *slog.Logger
	metrics     metrics.LeaderboardMetrics
	tracer      trace.Tracer
	db          *bun.DB
}

// NewLeaderboardService creates a new LeaderboardService. snapshots and
// limiter may be nil.
func NewLeaderboardService(
	leagues LeagueReader,
	submissions SubmissionReader,
	awards AwardReader,
	snapshots leaderboarddb.Repository,
	cache *leaderboardcache.Cache,
	limiter RefreshLimiter,
	opts Options,
	clock calendar.Clock,
	logger *slog.Logger,
	metrics metrics.LeaderboardMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *LeaderboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = calendar.RealClock{}
	}
	if cache == nil {
		cache = leaderboardcache.New()
	}
	defaults := DefaultOptions()
	if opts.DefaultMaxStale <= 0 {
		opts.DefaultMaxStale = defaults.DefaultMaxStale
	}
	if opts.ComputeTimeout <= 0 {
		opts.ComputeTimeout = defaults.ComputeTimeout
	}
	if opts.ComputeHardLimit <= 0 {
		opts.ComputeHardLimit = defaults.ComputeHardLimit
	}
	return &LeaderboardService{
		leagues:     leagues,
		submissions: submissions,
		awards:      awards,
		snapshots:   snapshots,
		cache:       cache,
		limiter:     limiter,
		opts:        opts,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		db:          db,
	}
}

var _ Service = (*LeaderboardService)(nil)

// view is a fully resolved leaderboard request.
type view struct {
	league leaguedomain.League
	window leaderboarddomain.SettledWindow
	mode   leaderboarddomain.Mode
	today  time.Time
	key    leaderboardcache.Key
}

func (v view) flightKey() string {
	return fmt.Sprintf("%s/%s/%s/%s", v.key.LeagueID, v.key.From, v.key.To, v.key.Mode)
}

// ComputeLeaderboard serves from cache when the cached payload is within the
// caller's staleness bound. Otherwise it computes from a consistent snapshot.
// Concurrent requests for the same view share one computation, which keeps
// running after the caller gives up and fills the cache when done.
func (s *LeaderboardService) ComputeLeaderboard(ctx context.Context, req ComputeRequest) (*leaderboarddomain.Leaderboard, error) {
	result, err := withTelemetry(s, ctx, "ComputeLeaderboard", req.LeagueID.String(), func(ctx context.Context) (results.OperationResult[*leaderboarddomain.Leaderboard, error], error) {
		return s.computeLogic(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	return *result.Success, nil
}

func (s *LeaderboardService) computeLogic(ctx context.Context, req ComputeRequest) (results.OperationResult[*leaderboarddomain.Leaderboard, error], error) {
	fail := func(err error) (results.OperationResult[*leaderboarddomain.Leaderboard, error], error) {
		return results.FailureResult[*leaderboarddomain.Leaderboard, error](err), nil
	}

	v, err := s.resolveView(ctx, req.LeagueID, req.From, req.To, req.Mode)
	if err != nil {
		if typed, ok := asTyped(err); ok {
			return fail(typed)
		}
		return results.OperationResult[*leaderboarddomain.Leaderboard, error]{}, err
	}

	maxStale := s.opts.DefaultMaxStale
	if req.MaxStale != nil {
		maxStale = max(*req.MaxStale, 0)
	}
	timeout := s.opts.ComputeTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	cached := s.lookup(ctx, v)
	if cached != nil && s.clock.Now().Sub(cached.ComputedAt) <= maxStale {
		s.recordCacheHit(ctx, v.mode)
		return results.SuccessResult[*leaderboarddomain.Leaderboard, error](present(cached, v, false)), nil
	}
	s.recordCacheMiss(ctx, v.mode)

	ch := s.flights.DoChan(v.flightKey(), func() (any, error) {
		detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ComputeHardLimit)
		defer cancel()
		return s.compute(detached, v)
	})

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			if typed, ok := asTyped(res.Err); ok {
				return fail(typed)
			}
			return results.OperationResult[*leaderboarddomain.Leaderboard, error]{}, res.Err
		}
		return results.SuccessResult[*leaderboarddomain.Leaderboard, error](present(res.Val.(*leaderboarddomain.Leaderboard), v, false)), nil
	case <-timer.C:
	case <-ctx.Done():
	}

	if cached == nil {
		return results.OperationResult[*leaderboarddomain.Leaderboard, error]{}, ErrNotReady
	}
	s.logger.WarnContext(ctx, "Serving stale leaderboard",
		attr.ExtractCorrelationID(ctx),
		attr.String("league_id", v.league.ID.String()),
		attr.Time("computed_at", cached.ComputedAt),
	)
	if s.metrics != nil {
		s.metrics.RecordStaleServe(ctx, string(v.mode))
	}
	return results.SuccessResult[*leaderboarddomain.Leaderboard, error](present(cached, v, true)), nil
}

// RefreshLeaderboardCache recomputes the league's default view and, for
// leagues that normalize, its raw view too. The result replaces the cached
// payloads unless a newer computation already landed.
func (s *LeaderboardService) RefreshLeaderboardCache(ctx context.Context, leagueID uuid.UUID) (*leaderboarddomain.Leaderboard, error) {
	if s.limiter != nil && !s.limiter.Allow(leagueID.String()) {
		if s.metrics != nil {
			s.metrics.RecordRefreshThrottled(ctx)
		}
		return nil, ErrRefreshThrottled
	}

	result, err := withTelemetry(s, ctx, "RefreshLeaderboardCache", leagueID.String(), func(ctx context.Context) (results.OperationResult[*leaderboarddomain.Leaderboard, error], error) {
		lb, err := s.refresh(ctx, leagueID)
		if err != nil {
			if typed, ok := asTyped(err); ok {
				return results.FailureResult[*leaderboarddomain.Leaderboard, error](typed), nil
			}
			return results.OperationResult[*leaderboarddomain.Leaderboard, error]{}, err
		}
		return results.SuccessResult[*leaderboarddomain.Leaderboard, error](lb), nil
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	return *result.Success, nil
}

func (s *LeaderboardService) refresh(ctx context.Context, leagueID uuid.UUID) (*leaderboarddomain.Leaderboard, error) {
	v, err := s.resolveView(ctx, leagueID, nil, nil, leaderboarddomain.ModeAuto)
	if err != nil {
		return nil, err
	}
	lb, err := s.compute(ctx, v)
	if err != nil {
		return nil, err
	}

	if v.mode == leaderboarddomain.ModeNormalized {
		raw := v
		raw.mode = leaderboarddomain.ModeRaw
		raw.key = leaderboardcache.NewKey(leagueID, raw.window.Effective, raw.mode)
		if _, err := s.compute(ctx, raw); err != nil {
			return nil, err
		}
	}
	return present(lb, v, false), nil
}

// InvalidateLeague drops every cached view of a league, locally and in the
// snapshot store. Computations that started before now can no longer be
// stored.
func (s *LeaderboardService) InvalidateLeague(ctx context.Context, leagueID uuid.UUID, cause string) (int, error) {
	at := s.clock.Now()
	dropped := s.cache.InvalidateLeague(leagueID, at)
	if s.snapshots != nil {
		if err := s.snapshots.InvalidateLeague(ctx, s.idb(), leagueID, at, cause); err != nil {
			return dropped, fmt.Errorf("failed to invalidate stored leaderboards: %w", err)
		}
	}
	s.logger.InfoContext(ctx, "Leaderboard cache invalidated",
		attr.ExtractCorrelationID(ctx),
		attr.String("league_id", leagueID.String()),
		attr.String("cause", cause),
		attr.Int("dropped", dropped),
	)
	return dropped, nil
}

// WarmLeagues refreshes the default views of every launched league. A league
// that fails is logged and skipped.
func (s *LeaderboardService) WarmLeagues(ctx context.Context) (int, error) {
	ids, err := s.leagues.ListLaunchedLeagueIDs(ctx, s.idb())
	if err != nil {
		return 0, fmt.Errorf("failed to list leagues: %w", err)
	}

	warmed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		if _, err := s.refresh(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "Failed to warm leaderboard",
				attr.String("league_id", id.String()),
				attr.Error(err),
			)
			continue
		}
		warmed++
	}
	return warmed, nil
}

func (s *LeaderboardService) resolveView(ctx context.Context, leagueID uuid.UUID, from, to *time.Time, mode leaderboarddomain.Mode) (view, error) {
	row, err := s.leagues.GetLeague(ctx, s.idb(), leagueID)
	if err != nil {
		if errors.Is(err, leaguedb.ErrNotFound) {
			return view{}, leagueerr.Validation("league_id", "league %s does not exist", leagueID)
		}
		return view{}, fmt.Errorf("failed to load league: %w", err)
	}
	league := row.ToDomain()
	today := calendar.Today(s.clock, league.Location())

	window, err := leaderboarddomain.ResolveSettled(league, today, from, to)
	if err != nil {
		return view{}, err
	}
	resolved, err := leaderboarddomain.ResolveMode(mode, league.NormalizeTeams)
	if err != nil {
		return view{}, err
	}
	return view{
		league: league,
		window: window,
		mode:   resolved,
		today:  today,
		key:    leaderboardcache.NewKey(leagueID, window.Effective, resolved),
	}, nil
}

// lookup returns the cached payload for v, falling back to the snapshot
// store. A payload whose realtime window has rolled over is ignored.
func (s *LeaderboardService) lookup(ctx context.Context, v view) *leaderboarddomain.Leaderboard {
	realtime := leaderboarddomain.RealtimeWindow(v.league, v.today)
	current := func(lb *leaderboarddomain.Leaderboard) bool {
		return lb.Pending.Window.From.Equal(realtime.From) && lb.Pending.Window.To.Equal(realtime.To)
	}

	if lb, ok := s.cache.Get(v.key); ok {
		if current(lb) {
			return lb
		}
		return nil
	}
	if s.snapshots == nil {
		return nil
	}

	snap, err := s.snapshots.GetSnapshot(ctx, s.idb(), v.league.ID, v.window.Effective, v.mode)
	if err != nil {
		if !errors.Is(err, leaderboarddb.ErrNotFound) {
			s.logger.WarnContext(ctx, "Failed to read leaderboard snapshot",
				attr.ExtractCorrelationID(ctx),
				attr.String("league_id", v.league.ID.String()),
				attr.Error(err),
			)
		}
		return nil
	}
	if snap.Payload == nil || !current(snap.Payload) {
		return nil
	}
	snap.Payload.ComputedAt = snap.ComputedAt
	if !s.cache.Put(v.key, snap.Payload) {
		return nil
	}
	return snap.Payload
}

// compute builds v from one snapshot and stores the result. The payload is
// stamped with the time the computation started so an invalidation that
// lands mid-computation wins.
func (s *LeaderboardService) compute(ctx context.Context, v view) (*leaderboarddomain.Leaderboard, error) {
	started := s.clock.Now()
	begin := time.Now()

	in, err := runInSnapshot(s, ctx, func(ctx context.Context, db bun.IDB) (leaderboarddomain.Input, error) {
		return s.loadInput(ctx, db, v, started)
	})
	if err != nil {
		return nil, err
	}
	lb, err := leaderboarddomain.Build(in)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordComputeDuration(ctx, string(v.mode), time.Since(begin))
	}

	if !s.cache.Put(v.key, lb) {
		s.logger.DebugContext(ctx, "Discarded superseded leaderboard",
			attr.String("league_id", v.league.ID.String()),
			attr.Time("computed_at", started),
		)
		return lb, nil
	}
	if s.snapshots != nil {
		snap := &leaderboarddb.Snapshot{
			LeagueID:   v.league.ID,
			FromDate:   v.window.Effective.From,
			ToDate:     v.window.Effective.To,
			Mode:       v.mode,
			Payload:    lb,
			ComputedAt: started,
		}
		if _, err := s.snapshots.SaveSnapshot(ctx, s.idb(), snap); err != nil {
			s.logger.WarnContext(ctx, "Failed to store leaderboard snapshot",
				attr.String("league_id", v.league.ID.String()),
				attr.Error(err),
			)
		}
	}
	return lb, nil
}

func (s *LeaderboardService) loadInput(ctx context.Context, db bun.IDB, v view, now time.Time) (leaderboarddomain.Input, error) {
	in := leaderboarddomain.Input{
		League: v.league,
		Mode:   v.mode,
		Window: v.window,
		Today:  v.today,
		Now:    now,
	}

	memberships, err := s.leagues.ListMemberships(ctx, db, v.league.ID)
	if err != nil {
		return in, fmt.Errorf("failed to load roster: %w", err)
	}
	in.Roster = make([]leaguedomain.Membership, 0, len(memberships))
	for i := range memberships {
		in.Roster = append(in.Roster, memberships[i].ToDomain())
	}

	teamSizes, err := s.leagues.TeamSizes(ctx, db, v.league.ID)
	if err != nil {
		return in, fmt.Errorf("failed to load team sizes: %w", err)
	}
	in.TeamSizes = leaguedomain.NewTeamSizeStats(teamSizes)
	subTeamSizes, err := s.leagues.SubTeamSizes(ctx, db, v.league.ID)
	if err != nil {
		return in, fmt.Errorf("failed to load sub-team sizes: %w", err)
	}
	in.SubTeamSizes = leaguedomain.NewTeamSizeStats(subTeamSizes)

	span := leaderboarddomain.Span(v.window.Effective, leaderboarddomain.RealtimeWindow(v.league, v.today))
	if !span.Empty() {
		rows, err := s.submissions.ListForLeague(ctx, db, v.league.ID, span.From, span.To)
		if err != nil {
			return in, fmt.Errorf("failed to load submissions: %w", err)
		}
		in.Entries = make([]submissiondomain.Entry, 0, len(rows))
		for i := range rows {
			in.Entries = append(in.Entries, rows[i].ToDomain())
		}
	}

	if eff := v.window.Effective; !eff.Empty() {
		rows, err := s.awards.ListAwards(ctx, db, v.league.ID, eff.From, eff.To)
		if err != nil {
			return in, fmt.Errorf("failed to load challenge awards: %w", err)
		}
		in.Awards = make([]leaderboarddomain.ChallengeAward, 0, len(rows))
		for _, a := range rows {
			in.Awards = append(in.Awards, leaderboarddomain.ChallengeAward{
				SubmissionID: a.SubmissionID,
				ChallengeID:  a.ChallengeID,
				Type:         a.ChallengeType,
				TotalPoints:  a.TotalPoints,
				MemberID:     a.MemberID,
				TeamID:       a.TeamID,
				SubTeamID:    a.SubTeamID,
				Awarded:      a.AwardedPoints,
			})
		}
	}
	return in, nil
}

func (s *LeaderboardService) idb() bun.IDB {
	if s.db == nil {
		return nil
	}
	return s.db
}

func (s *LeaderboardService) recordCacheHit(ctx context.Context, mode leaderboarddomain.Mode) {
	if s.metrics != nil {
		s.metrics.RecordCacheHit(ctx, string(mode))
	}
}

func (s *LeaderboardService) recordCacheMiss(ctx context.Context, mode leaderboarddomain.Mode) {
	if s.metrics != nil {
		s.metrics.RecordCacheMiss(ctx, string(mode))
	}
}

// present returns a copy of a shared payload carrying the caller's requested
// window. The row slices are shared and must not be modified.
func present(lb *leaderboarddomain.Leaderboard, v view, stale bool) *leaderboarddomain.Leaderboard {
	out := *lb
	out.Window = v.window
	out.Stale = stale
	return &out
}

func asTyped(err error) (error, bool) {
	var typed leagueerr.Typed
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}
