package leaderboarddomain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	leaguedomain "github.com/Black-And-White-Club/fitleague/app/modules/league/domain"
	submissiondomain "github.com/Black-And-White-Club/fitleague/app/modules/submission/domain"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
)

var (
	testNow    = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	testToday  = calendar.Day(2024, time.January, 20)
	testLeague = leaguedomain.League{
		ID:        uuid.MustParse("00000000-0000-0000-0000-0000000000aa"),
		StartDate: calendar.Day(2024, time.January, 1),
		EndDate:   calendar.Day(2024, time.March, 31),
		Status:    leaguedomain.StatusLaunched,
	}
)

func entry(member uuid.UUID, day time.Time, rr float64, status submissiondomain.Status) submissiondomain.Entry {
	return submissiondomain.Entry{
		ID:        uuid.New(),
		LeagueID:  testLeague.ID,
		MemberID:  member,
		Date:      day,
		Kind:      submissiondomain.KindWorkout,
		RR:        rr,
		Status:    status,
		CreatedAt: testNow.Add(-time.Hour),
	}
}

func TestAggregate_FlatPointPerApprovedDay(t *testing.T) {
	member := uuid.New()
	entries := []submissiondomain.Entry{
		entry(member, calendar.Day(2024, time.January, 5), 2.0, submissiondomain.StatusApproved),
		entry(member, calendar.Day(2024, time.January, 6), 1.0, submissiondomain.StatusApproved),
		entry(member, calendar.Day(2024, time.January, 7), 1.5, submissiondomain.StatusRejected),
		entry(member, calendar.Day(2024, time.January, 8), 1.2, submissiondomain.StatusPending),
	}

	agg := Aggregate(entries, nil, leaguedomain.NewTeamSizeStats(nil), testLeague.StartDate, testToday, testNow)

	tally := agg.Members[member]
	require.NotNil(t, tally)
	assert.Equal(t, 2, tally.Points)
	assert.Equal(t, 4, tally.Submitted)
	assert.Equal(t, 1, tally.Pending)
	require.NotNil(t, tally.AvgRR())
	assert.InDelta(t, 1.5, *tally.AvgRR(), 1e-9)
}

func TestAggregate_SingleRunScenario(t *testing.T) {
	member := uuid.New()
	entries := []submissiondomain.Entry{entry(member, calendar.Day(2024, time.January, 10), 1.3, submissiondomain.StatusApproved)}

	agg := Aggregate(entries, nil, leaguedomain.NewTeamSizeStats(nil), testLeague.StartDate, testToday, testNow)

	assert.Equal(t, 1, agg.Members[member].Points)
	assert.InDelta(t, 1.3, *agg.Members[member].AvgRR(), 1e-9)
}

func TestAggregate_AvgRRUndefinedWithoutPoints(t *testing.T) {
	member := uuid.New()
	roster := []leaguedomain.Membership{{LeagueID: testLeague.ID, UserID: member}}
	entries := []submissiondomain.Entry{entry(member, calendar.Day(2024, time.January, 5), 1.4, submissiondomain.StatusRejected)}

	agg := Aggregate(entries, roster, leaguedomain.NewTeamSizeStats(nil), testLeague.StartDate, testToday, testNow)

	assert.Equal(t, 0, agg.Members[member].Points)
	assert.Nil(t, agg.Members[member].AvgRR())
}

func TestAggregate_StalePendingCountsAsApproved(t *testing.T) {
	member := uuid.New()
	stale := entry(member, calendar.Day(2024, time.January, 15), 1.1, submissiondomain.StatusPending)
	stale.CreatedAt = testNow.Add(-49 * time.Hour)
	fresh := entry(member, calendar.Day(2024, time.January, 18), 1.7, submissiondomain.StatusPending)
	fresh.CreatedAt = testNow.Add(-47 * time.Hour)

	agg := Aggregate([]submissiondomain.Entry{stale, fresh}, nil, leaguedomain.NewTeamSizeStats(nil), testLeague.StartDate, testToday, testNow)

	assert.Equal(t, 1, agg.Members[member].Points)
	assert.Equal(t, 1, agg.Members[member].Pending)
}

func TestAggregate_RangeBounds(t *testing.T) {
	member := uuid.New()
	entries := []submissiondomain.Entry{
		entry(member, calendar.Day(2024, time.January, 9), 1.0, submissiondomain.StatusApproved),
		entry(member, calendar.Day(2024, time.January, 10), 1.0, submissiondomain.StatusApproved),
		entry(member, calendar.Day(2024, time.January, 12), 1.0, submissiondomain.StatusApproved),
		entry(member, calendar.Day(2024, time.January, 13), 1.0, submissiondomain.StatusApproved),
	}

	agg := Aggregate(entries, nil, leaguedomain.NewTeamSizeStats(nil), calendar.Day(2024, time.January, 10), calendar.Day(2024, time.January, 12), testNow)

	assert.Equal(t, 2, agg.Members[member].Points)
}

func TestAggregate_TeamAvgRRIsPointsWeighted(t *testing.T) {
	team := uuid.New()
	busy, idle := uuid.New(), uuid.New()
	roster := []leaguedomain.Membership{
		{LeagueID: testLeague.ID, UserID: busy, TeamID: &team},
		{LeagueID: testLeague.ID, UserID: idle, TeamID: &team},
	}
	var entries []submissiondomain.Entry
	for d := 1; d <= 3; d++ {
		entries = append(entries, entry(busy, calendar.Day(2024, time.January, d), 2.0, submissiondomain.StatusApproved))
	}
	entries = append(entries, entry(idle, calendar.Day(2024, time.January, 1), 1.0, submissiondomain.StatusApproved))

	agg := Aggregate(entries, roster, leaguedomain.NewTeamSizeStats(map[uuid.UUID]int{team: 2}), testLeague.StartDate, testToday, testNow)

	tally := agg.Teams[team]
	require.NotNil(t, tally)
	assert.Equal(t, 4, tally.Points)
	// (2.0*3 + 1.0*1) / 4, not the simple mean (2.0+1.0)/2.
	assert.InDelta(t, 1.75, *tally.AvgRR(), 1e-9)
}

func TestAggregate_EmptyTeamsAreListed(t *testing.T) {
	empty := uuid.New()
	agg := Aggregate(nil, nil, leaguedomain.NewTeamSizeStats(map[uuid.UUID]int{empty: 0}), testLeague.StartDate, testToday, testNow)

	require.Contains(t, agg.Teams, empty)
	assert.Equal(t, 0, agg.Teams[empty].Points)
	assert.Nil(t, agg.Teams[empty].AvgRR())
}

func TestMissedDays(t *testing.T) {
	member := uuid.New()
	entries := []submissiondomain.Entry{
		entry(member, calendar.Day(2024, time.January, 1), 1.0, submissiondomain.StatusApproved),
		entry(member, calendar.Day(2024, time.January, 2), 1.0, submissiondomain.StatusRejected),
		entry(member, calendar.Day(2024, time.January, 20), 1.0, submissiondomain.StatusPending),
	}
	agg := Aggregate(entries, nil, leaguedomain.NewTeamSizeStats(nil), testLeague.StartDate, testToday, testNow)

	// January 1st through the 19th, minus the two days with entries. Today
	// is not counted yet.
	assert.Equal(t, 17, MissedDays(agg.Members[member], testLeague, testLeague.StartDate, testToday, testToday))
	assert.Equal(t, 19, MissedDays(nil, testLeague, testLeague.StartDate, testToday, testToday))

	ended := testLeague
	ended.EndDate = calendar.Day(2024, time.January, 10)
	assert.Equal(t, 8, MissedDays(agg.Members[member], ended, ended.StartDate, testToday, testToday))
}

func TestSortEntries_DateThenID(t *testing.T) {
	member := uuid.New()
	a := entry(member, calendar.Day(2024, time.January, 2), 1, submissiondomain.StatusApproved)
	b := entry(member, calendar.Day(2024, time.January, 1), 1, submissiondomain.StatusApproved)
	c := entry(uuid.New(), calendar.Day(2024, time.January, 1), 1, submissiondomain.StatusApproved)
	a.ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b.ID = uuid.MustParse("00000000-0000-0000-0000-000000000003")
	c.ID = uuid.MustParse("00000000-0000-0000-0000-000000000002")

	sorted := SortEntries([]submissiondomain.Entry{a, b, c})

	assert.Equal(t, []uuid.UUID{c.ID, b.ID, a.ID}, []uuid.UUID{sorted[0].ID, sorted[1].ID, sorted[2].ID})
}
