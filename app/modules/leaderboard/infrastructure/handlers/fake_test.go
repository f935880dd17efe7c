package leaderboardhandlers

import (
	"context"
	"sync"

	"github.com/google/uuid"

	leaderboardservice "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/application"
	leaderboarddomain "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/domain"
)

// FakeLeaderboardService records calls and delegates to its Func fields.
type FakeLeaderboardService struct {
	mu    sync.Mutex
	trace []string

	ComputeLeaderboardFunc      func(ctx context.Context, req leaderboardservice.ComputeRequest) (*leaderboarddomain.Leaderboard, error)
	RefreshLeaderboardCacheFunc func(ctx context.Context, leagueID uuid.UUID) (*leaderboarddomain.Leaderboard, error)
	InvalidateLeagueFunc        func(ctx context.Context, leagueID uuid.UUID, cause string) (int, error)
	WarmLeaguesFunc             func(ctx context.Context) (int, error)
}

func (f *FakeLeaderboardService) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeLeaderboardService) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeLeaderboardService) ComputeLeaderboard(ctx context.Context, req leaderboardservice.ComputeRequest) (*leaderboarddomain.Leaderboard, error) {
	f.record("ComputeLeaderboard")
	if f.ComputeLeaderboardFunc != nil {
		return f.ComputeLeaderboardFunc(ctx, req)
	}
	return &leaderboarddomain.Leaderboard{LeagueID: req.LeagueID}, nil
}

func (f *FakeLeaderboardService) RefreshLeaderboardCache(ctx context.Context, leagueID uuid.UUID) (*leaderboarddomain.Leaderboard, error) {
	f.record("RefreshLeaderboardCache")
	if f.RefreshLeaderboardCacheFunc != nil {
		return f.RefreshLeaderboardCacheFunc(ctx, leagueID)
	}
	return &leaderboarddomain.Leaderboard{LeagueID: leagueID}, nil
}

func (f *FakeLeaderboardService) InvalidateLeague(ctx context.Context, leagueID uuid.UUID, cause string) (int, error) {
	f.record("InvalidateLeague:" + cause)
	if f.InvalidateLeagueFunc != nil {
		return f.InvalidateLeagueFunc(ctx, leagueID, cause)
	}
	return 0, nil
}

func (f *FakeLeaderboardService) WarmLeagues(ctx context.Context) (int, error) {
	f.record("WarmLeagues")
	if f.WarmLeaguesFunc != nil {
		return f.WarmLeaguesFunc(ctx)
	}
	return 0, nil
}

var _ leaderboardservice.Service = (*FakeLeaderboardService)(nil)
