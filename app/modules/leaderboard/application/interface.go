package leaderboardservice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	challengedb "github.com/Black-And-White-Club/fitleague/app/modules/challenge/infrastructure/repositories"
	leaderboarddomain "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/domain"
	leaguedb "github.com/Black-And-White-Club/fitleague/app/modules/league/infrastructure/repositories"
	submissiondb "github.com/Black-And-White-Club/fitleague/app/modules/submission/infrastructure/repositories"
)

var (
	// ErrRefreshThrottled is returned when a league's forced refreshes
	// exceed the configured rate.
	ErrRefreshThrottled = errors.New("leaderboard refresh throttled")
	// ErrNotReady is returned when a computation times out and no earlier
	// payload exists to fall back on.
	ErrNotReady = errors.New("leaderboard is still being computed")
)

// Service computes and caches leaderboards.
type Service interface {
	// ComputeLeaderboard returns the settled leaderboard and realtime
	// scoreboard for a league, from cache when fresh enough.
	ComputeLeaderboard(ctx context.Context, req ComputeRequest) (*leaderboarddomain.Leaderboard, error)
	// RefreshLeaderboardCache recomputes a league's default views, bypassing
	// the cache.
	RefreshLeaderboardCache(ctx context.Context, leagueID uuid.UUID) (*leaderboarddomain.Leaderboard, error)
	// InvalidateLeague drops every cached view of a league.
	InvalidateLeague(ctx context.Context, leagueID uuid.UUID, cause string) (int, error)
	// WarmLeagues refreshes the default views of every launched league.
	WarmLeagues(ctx context.Context) (int, error)
}

// ComputeRequest selects a leaderboard view.
type ComputeRequest struct {
	LeagueID uuid.UUID
	From     *time.Time
	To       *time.Time
	Mode     leaderboarddomain.Mode
	// MaxStale bounds the age of a cached payload. Nil uses the default.
	MaxStale *time.Duration
	// Timeout bounds how long the caller waits for a fresh computation.
	// Zero uses the default.
	Timeout time.Duration
}

// Options tune caching and computation.
type Options struct {
	DefaultMaxStale time.Duration
	ComputeTimeout  time.Duration
	// ComputeHardLimit bounds a computation that outlived its caller.
	ComputeHardLimit time.Duration
}

// DefaultOptions are used for zero fields.
func DefaultOptions() Options {
	return Options{
		DefaultMaxStale:  time.Minute,
		ComputeTimeout:   5 * time.Second,
		ComputeHardLimit: 2 * time.Minute,
	}
}

// LeagueReader is the slice of the league read model this module needs.
type LeagueReader interface {
	GetLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (*leaguedb.League, error)
	ListLaunchedLeagueIDs(ctx context.Context, db bun.IDB) ([]uuid.UUID, error)
	ListMemberships(ctx context.Context, db bun.IDB, leagueID uuid.UUID) ([]leaguedb.Membership, error)
	TeamSizes(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (map[uuid.UUID]int, error)
	SubTeamSizes(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (map[uuid.UUID]int, error)
}

// SubmissionReader lists the current submissions of a league.
type SubmissionReader interface {
	ListForLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID, from, to time.Time) ([]submissiondb.Submission, error)
}

// AwardReader lists approved awards of published challenges.
type AwardReader interface {
	ListAwards(ctx context.Context, db bun.IDB, leagueID uuid.UUID, from, to time.Time) ([]challengedb.Award, error)
}

// RefreshLimiter decides whether a league may force another refresh.
type RefreshLimiter interface {
	Allow(key string) bool
}
