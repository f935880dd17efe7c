package leaderboardservice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	challengedb "github.com/Black-And-White-Club/fitleague/app/modules/challenge/infrastructure/repositories"
	leaderboarddomain "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/domain"
	leaderboarddb "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/infrastructure/repositories"
	leaguedomain "github.com/Black-And-White-Club/fitleague/app/modules/league/domain"
	leaguedb "github.com/Black-And-White-Club/fitleague/app/modules/league/infrastructure/repositories"
	submissiondb "github.com/Black-And-White-Club/fitleague/app/modules/submission/infrastructure/repositories"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
)

// ------------------------
// Stepping Clock
// ------------------------

// stepClock advances by step on every read so successive computations and
// invalidations are strictly ordered.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock(start time.Time) *stepClock {
	return &stepClock{now: start, step: time.Millisecond}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var _ calendar.Clock = (*stepClock)(nil)

// ------------------------
// Fake League Reader
// ------------------------

type FakeLeagueReader struct {
	mu          sync.Mutex
	Leagues     map[uuid.UUID]*leaguedb.League
	Memberships map[uuid.UUID][]leaguedb.Membership
	Teams       map[uuid.UUID]map[uuid.UUID]int
	SubTeams    map[uuid.UUID]map[uuid.UUID]int
	trace       []string

	ListMembershipsFunc func(ctx context.Context, db bun.IDB, leagueID uuid.UUID) ([]leaguedb.Membership, error)
}

func NewFakeLeagueReader() *FakeLeagueReader {
	return &FakeLeagueReader{
		Leagues:     map[uuid.UUID]*leaguedb.League{},
		Memberships: map[uuid.UUID][]leaguedb.Membership{},
		Teams:       map[uuid.UUID]map[uuid.UUID]int{},
		SubTeams:    map[uuid.UUID]map[uuid.UUID]int{},
	}
}

func (f *FakeLeagueReader) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeLeagueReader) GetLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (*leaguedb.League, error) {
	f.record("GetLeague")
	l, ok := f.Leagues[leagueID]
	if !ok {
		return nil, leaguedb.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *FakeLeagueReader) ListLaunchedLeagueIDs(ctx context.Context, db bun.IDB) ([]uuid.UUID, error) {
	f.record("ListLaunchedLeagueIDs")
	var ids []uuid.UUID
	for id, l := range f.Leagues {
		if l.Status == leaguedomain.StatusLaunched {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *FakeLeagueReader) ListMemberships(ctx context.Context, db bun.IDB, leagueID uuid.UUID) ([]leaguedb.Membership, error) {
	if f.ListMembershipsFunc != nil {
		return f.ListMembershipsFunc(ctx, db, leagueID)
	}
	f.record("ListMemberships")
	return append([]leaguedb.Membership(nil), f.Memberships[leagueID]...), nil
}

func (f *FakeLeagueReader) TeamSizes(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (map[uuid.UUID]int, error) {
	f.record("TeamSizes")
	return f.Teams[leagueID], nil
}

func (f *FakeLeagueReader) SubTeamSizes(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (map[uuid.UUID]int, error) {
	f.record("SubTeamSizes")
	return f.SubTeams[leagueID], nil
}

func (f *FakeLeagueReader) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ LeagueReader = (*FakeLeagueReader)(nil)

// ------------------------
// Fake Submission Reader
// ------------------------

type FakeSubmissionReader struct {
	mu    sync.Mutex
	Rows  []submissiondb.Submission
	calls int

	ListForLeagueFunc func(ctx context.Context, db bun.IDB, leagueID uuid.UUID, from, to time.Time) ([]submissiondb.Submission, error)
}

func (f *FakeSubmissionReader) ListForLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID, from, to time.Time) ([]submissiondb.Submission, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.ListForLeagueFunc != nil {
		return f.ListForLeagueFunc(ctx, db, leagueID, from, to)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []submissiondb.Submission
	for _, row := range f.Rows {
		if row.IsCurrent && row.LeagueID == leagueID && !row.EntryDate.Before(from) && !row.EntryDate.After(to) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *FakeSubmissionReader) Add(row submissiondb.Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Rows = append(f.Rows, row)
}

func (f *FakeSubmissionReader) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var _ SubmissionReader = (*FakeSubmissionReader)(nil)

// ------------------------
// Fake Award Reader
// ------------------------

type FakeAwardReader struct {
	Awards []challengedb.Award
}

func (f *FakeAwardReader) ListAwards(ctx context.Context, db bun.IDB, leagueID uuid.UUID, from, to time.Time) ([]challengedb.Award, error) {
	return append([]challengedb.Award(nil), f.Awards...), nil
}

var _ AwardReader = (*FakeAwardReader)(nil)

// ------------------------
// Fake Snapshot Repo
// ------------------------

type snapshotKey struct {
	leagueID uuid.UUID
	from, to string
	mode     leaderboarddomain.Mode
}

// FakeSnapshotRepo applies the same ordering rules as the database.
type FakeSnapshotRepo struct {
	mu          sync.Mutex
	snapshots   map[snapshotKey]leaderboarddb.Snapshot
	invalidated map[uuid.UUID]time.Time
	trace       []string

	InvalidateErr error
}

func NewFakeSnapshotRepo() *FakeSnapshotRepo {
	return &FakeSnapshotRepo{
		snapshots:   map[snapshotKey]leaderboarddb.Snapshot{},
		invalidated: map[uuid.UUID]time.Time{},
	}
}

func keyOf(leagueID uuid.UUID, from, to time.Time, mode leaderboarddomain.Mode) snapshotKey {
	return snapshotKey{leagueID: leagueID, from: calendar.Format(from), to: calendar.Format(to), mode: mode}
}

func (f *FakeSnapshotRepo) GetSnapshot(ctx context.Context, db bun.IDB, leagueID uuid.UUID, window leaderboarddomain.DateRange, mode leaderboarddomain.Mode) (*leaderboarddb.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, "GetSnapshot")
	s, ok := f.snapshots[keyOf(leagueID, window.From, window.To, mode)]
	if !ok {
		return nil, leaderboarddb.ErrNotFound
	}
	payload := *s.Payload
	s.Payload = &payload
	return &s, nil
}

func (f *FakeSnapshotRepo) SaveSnapshot(ctx context.Context, db bun.IDB, s *leaderboarddb.Snapshot) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, "SaveSnapshot")
	if at, ok := f.invalidated[s.LeagueID]; ok && !s.ComputedAt.After(at) {
		return false, nil
	}
	k := keyOf(s.LeagueID, s.FromDate, s.ToDate, s.Mode)
	if cur, ok := f.snapshots[k]; ok && !cur.ComputedAt.Before(s.ComputedAt) {
		return false, nil
	}
	f.snapshots[k] = *s
	return true, nil
}

func (f *FakeSnapshotRepo) InvalidateLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID, at time.Time, cause string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, "InvalidateLeague")
	if f.InvalidateErr != nil {
		return f.InvalidateErr
	}
	for k, s := range f.snapshots {
		if k.leagueID == leagueID && !s.ComputedAt.After(at) {
			delete(f.snapshots, k)
		}
	}
	if prev, ok := f.invalidated[leagueID]; !ok || at.After(prev) {
		f.invalidated[leagueID] = at
	}
	return nil
}

// Seed stores a snapshot without any checks.
func (f *FakeSnapshotRepo) Seed(s leaderboarddb.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[keyOf(s.LeagueID, s.FromDate, s.ToDate, s.Mode)] = s
}

func (f *FakeSnapshotRepo) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

func (f *FakeSnapshotRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ leaderboarddb.Repository = (*FakeSnapshotRepo)(nil)

// ------------------------
// Fake Limiter
// ------------------------

type FakeLimiter struct {
	Allowed map[string]int
}

func (l *FakeLimiter) Allow(key string) bool {
	if l.Allowed[key] <= 0 {
		return false
	}
	l.Allowed[key]--
	return true
}

var _ RefreshLimiter = (*FakeLimiter)(nil)
