package leaderboard_integration_tests

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	challengedb "github.com/Black-And-White-Club/fitleague/app/modules/challenge/infrastructure/repositories"
	leaderboardservice "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/application"
	leaderboardcache "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/infrastructure/cache"
	leaderboarddb "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/infrastructure/repositories"
	leaguedb "github.com/Black-And-White-Club/fitleague/app/modules/league/infrastructure/repositories"
	submissionservice "github.com/Black-And-White-Club/fitleague/app/modules/submission/application"
	submissiondomain "github.com/Black-And-White-Club/fitleague/app/modules/submission/domain"
	submissiondb "github.com/Black-And-White-Club/fitleague/app/modules/submission/infrastructure/repositories"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
	"github.com/Black-And-White-Club/fitleague/integration_tests/testutils"
	"github.com/Black-And-White-Club/fitleague/pkg/eventbus"
	"github.com/Black-And-White-Club/fitleague/pkg/metrics"
)

// now is the fixed instant every service in these tests runs at.
var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type deps struct {
	league      *testutils.SeededLeague
	hostID      uuid.UUID
	submissions *submissionservice.SubmissionService
	leaderboard *leaderboardservice.LeaderboardService
}

func setup(t *testing.T, bus eventbus.EventBus) deps {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, testEnv.Reset(ctx))

	gen := testutils.NewTestDataGenerator(42)
	league, err := gen.SeedLeague(ctx, testEnv.DB, testutils.LeagueSpec{
		Start:          calendar.Day(2026, 3, 1),
		End:            calendar.Day(2026, 4, 30),
		NormalizeTeams: true,
		TeamSizes:      []int{2, 1},
	})
	require.NoError(t, err)
	hostID, err := gen.AddHost(ctx, testEnv.DB, league.League.ID)
	require.NoError(t, err)

	if bus == nil {
		bus = eventbus.NewInMemoryEventBus(testEnv.Logger)
		t.Cleanup(func() { _ = bus.Close() })
	}

	clock := calendar.NewAnchorClock(now)
	leagues := leaguedb.NewRepository(testEnv.DB)
	tracer := noop.NewTracerProvider().Tracer("test")

	return deps{
		league: league,
		hostID: hostID,
		submissions: submissionservice.NewSubmissionService(
			submissiondb.NewRepository(testEnv.DB),
			leagues,
			bus,
			submissiondomain.DefaultCatalog(),
			clock,
			testEnv.Logger,
			metrics.NewNoop(),
			tracer,
			testEnv.DB,
		),
		leaderboard: newLeaderboardService(clock, leaderboardcache.New()),
	}
}

func newLeaderboardService(clock calendar.Clock, cache *leaderboardcache.Cache) *leaderboardservice.LeaderboardService {
	return leaderboardservice.NewLeaderboardService(
		leaguedb.NewRepository(testEnv.DB),
		submissiondb.NewRepository(testEnv.DB),
		challengedb.NewRepository(testEnv.DB),
		leaderboarddb.NewRepository(testEnv.DB),
		cache,
		allowAll{},
		leaderboardservice.DefaultOptions(),
		clock,
		testEnv.Logger,
		metrics.NewNoop(),
		noop.NewTracerProvider().Tracer("test"),
		testEnv.DB,
	)
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

// workout submits a 60 minute gym session and optionally approves it.
func (d deps) workout(t *testing.T, member uuid.UUID, day time.Time, approve bool) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	res, err := d.submissions.SubmitEntry(ctx, submissionservice.SubmitRequest{
		LeagueID: d.league.League.ID,
		MemberID: member,
		Date:     day,
		Kind:     submissiondomain.KindWorkout,
		Subtype:  "gym",
		Metrics:  []submissiondomain.WorkoutMetric{submissiondomain.Duration(60)},
	})
	require.NoError(t, err)
	if approve {
		_, err = d.submissions.ReviewSubmission(ctx, submissionservice.ReviewRequest{
			SubmissionID: res.SubmissionID,
			ReviewerID:   d.hostID,
			Decision:     submissiondomain.DecisionApprove,
		})
		require.NoError(t, err)
	}
	return res.SubmissionID
}
