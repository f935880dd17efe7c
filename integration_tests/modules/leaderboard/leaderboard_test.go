package leaderboard_integration_tests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	leaderboardservice "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/application"
	leaderboarddomain "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/domain"
	leaderboardcache "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/infrastructure/cache"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
)

func TestComputeLeaderboard_FromPostgres(t *testing.T) {
	d := setup(t, nil)
	ctx := context.Background()

	teamA, teamB := d.league.Teams[0].ID, d.league.Teams[1].ID
	a0, a1 := d.league.Members[teamA][0], d.league.Members[teamA][1]
	b0 := d.league.Members[teamB][0]

	d.workout(t, a0, calendar.Day(2026, 3, 10), true)
	d.workout(t, a1, calendar.Day(2026, 3, 10), true)
	d.workout(t, b0, calendar.Day(2026, 3, 10), true)
	d.workout(t, b0, calendar.Day(2026, 3, 11), true)
	d.workout(t, a0, calendar.Day(2026, 3, 15), true)

	lb, err := d.leaderboard.ComputeLeaderboard(ctx, leaderboardservice.ComputeRequest{LeagueID: d.league.League.ID})
	require.NoError(t, err)

	assert.Equal(t, leaderboarddomain.ModeNormalized, lb.Mode)
	assert.Equal(t, calendar.Day(2026, 3, 13), lb.Window.Effective.To)
	assert.Equal(t, 4, lb.Stats.ApprovedDays)
	require.Len(t, lb.Teams, 2)
	assert.Equal(t, teamB, lb.Teams[0].TeamID)
	assert.Equal(t, 4.0, lb.Teams[0].Total.Value)
	assert.Equal(t, 2.0, lb.Teams[1].Total.Value)

	require.NotEmpty(t, lb.Pending.Members)
	assert.Equal(t, a0, lb.Pending.Members[0].MemberID)
	assert.Equal(t, 1, lb.Pending.Members[0].TodayPoints)

	raw, err := d.leaderboard.ComputeLeaderboard(ctx, leaderboardservice.ComputeRequest{
		LeagueID: d.league.League.ID,
		Mode:     leaderboarddomain.ModeRaw,
	})
	require.NoError(t, err)
	points := map[uuid.UUID]int{}
	for _, row := range raw.Teams {
		points[row.TeamID] = row.Points
	}
	assert.Equal(t, map[uuid.UUID]int{teamA: 2, teamB: 2}, points)
}

func TestComputeLeaderboard_ServesPersistedSnapshot(t *testing.T) {
	d := setup(t, nil)
	ctx := context.Background()

	b0 := d.league.Members[d.league.Teams[1].ID][0]
	d.workout(t, b0, calendar.Day(2026, 3, 10), true)

	first, err := d.leaderboard.ComputeLeaderboard(ctx, leaderboardservice.ComputeRequest{LeagueID: d.league.League.ID})
	require.NoError(t, err)

	var snapshots int
	require.NoError(t, testEnv.DB.NewSelect().Table("leaderboard_snapshots").ColumnExpr("COUNT(*)").Scan(ctx, &snapshots))
	assert.Equal(t, 1, snapshots)

	// A second replica with an empty cache picks up the stored payload.
	replica := newLeaderboardService(calendar.NewAnchorClock(now), leaderboardcache.New())
	second, err := replica.ComputeLeaderboard(ctx, leaderboardservice.ComputeRequest{LeagueID: d.league.League.ID})
	require.NoError(t, err)

	assert.True(t, first.ComputedAt.Equal(second.ComputedAt))
	assert.Equal(t, first.Teams, second.Teams)
}

func TestComputeLeaderboard_UnknownLeague(t *testing.T) {
	d := setup(t, nil)

	_, err := d.leaderboard.ComputeLeaderboard(context.Background(), leaderboardservice.ComputeRequest{LeagueID: uuid.New()})
	require.Error(t, err)
}
