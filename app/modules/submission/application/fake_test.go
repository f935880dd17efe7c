package submissionservice

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	leaguedb "github.com/Black-And-White-Club/fitleague/app/modules/league/infrastructure/repositories"
	submissiondomain "github.com/Black-And-White-Club/fitleague/app/modules/submission/domain"
	submissiondb "github.com/Black-And-White-Club/fitleague/app/modules/submission/infrastructure/repositories"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
)

// ------------------------
// Fake Submission Repo
// ------------------------

// FakeSubmissionRepo keeps rows in memory and enforces the same
// one-current-row and version rules as the database. Func fields override
// individual methods.
type FakeSubmissionRepo struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*submissiondb.Submission
	trace []string

	GetCurrentFunc  func(ctx context.Context, db bun.IDB, leagueID, memberID uuid.UUID, day time.Time) (*submissiondb.Submission, error)
	SupersedeFunc   func(ctx context.Context, db bun.IDB, id uuid.UUID, expectedVersion int64, supersededBy uuid.UUID) error
	ApplyReviewFunc func(ctx context.Context, db bun.IDB, id uuid.UUID, expectedVersion int64, update submissiondb.ReviewUpdate) error
}

func NewFakeSubmissionRepo() *FakeSubmissionRepo {
	return &FakeSubmissionRepo{rows: map[uuid.UUID]*submissiondb.Submission{}}
}

func (f *FakeSubmissionRepo) record(step string) {
	f.trace = append(f.trace, step)
}

// Seed stores a row as-is.
func (f *FakeSubmissionRepo) Seed(s submissiondb.Submission) *submissiondb.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.Version == 0 {
		s.Version = 1
	}
	row := s
	f.rows[s.ID] = &row
	return &row
}

func (f *FakeSubmissionRepo) GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*submissiondb.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetByID")
	row, ok := f.rows[id]
	if !ok {
		return nil, submissiondb.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *FakeSubmissionRepo) GetCurrent(ctx context.Context, db bun.IDB, leagueID, memberID uuid.UUID, day time.Time) (*submissiondb.Submission, error) {
	if f.GetCurrentFunc != nil {
		return f.GetCurrentFunc(ctx, db, leagueID, memberID, day)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetCurrent")
	if row := f.currentLocked(leagueID, memberID, day); row != nil {
		cp := *row
		return &cp, nil
	}
	return nil, submissiondb.ErrNotFound
}

func (f *FakeSubmissionRepo) currentLocked(leagueID, memberID uuid.UUID, day time.Time) *submissiondb.Submission {
	for _, row := range f.rows {
		if row.IsCurrent && row.LeagueID == leagueID && row.MemberID == memberID && row.EntryDate.Equal(calendar.Normalize(day)) {
			return row
		}
	}
	return nil
}

func (f *FakeSubmissionRepo) Insert(ctx context.Context, db bun.IDB, s *submissiondb.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Insert")
	if f.currentLocked(s.LeagueID, s.MemberID, s.EntryDate) != nil {
		return submissiondb.ErrDuplicateCurrent
	}
	s.IsCurrent = true
	s.Version = 1
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *FakeSubmissionRepo) Supersede(ctx context.Context, db bun.IDB, id uuid.UUID, expectedVersion int64, supersededBy uuid.UUID) error {
	if f.SupersedeFunc != nil {
		return f.SupersedeFunc(ctx, db, id, expectedVersion, supersededBy)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Supersede")
	row, ok := f.rows[id]
	if !ok || !row.IsCurrent || row.Version != expectedVersion {
		return submissiondb.ErrVersionConflict
	}
	row.IsCurrent = false
	row.SupersededBy = &supersededBy
	row.Version++
	return nil
}

func (f *FakeSubmissionRepo) ApplyReview(ctx context.Context, db bun.IDB, id uuid.UUID, expectedVersion int64, update submissiondb.ReviewUpdate) error {
	if f.ApplyReviewFunc != nil {
		return f.ApplyReviewFunc(ctx, db, id, expectedVersion, update)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ApplyReview")
	row, ok := f.rows[id]
	if !ok || !row.IsCurrent || row.Version != expectedVersion {
		return submissiondb.ErrVersionConflict
	}
	row.Status = update.Status
	row.ReviewerID = update.ReviewerID
	reviewedAt := update.ReviewedAt
	row.ReviewedAt = &reviewedAt
	row.AwardedPoints = update.AwardedPoints
	row.AutoApproved = update.AutoApproved
	row.Version++
	return nil
}

func (f *FakeSubmissionRepo) ListStalePending(ctx context.Context, db bun.IDB, cutoff time.Time, limit int) ([]submissiondb.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListStalePending")
	var out []submissiondb.Submission
	for _, row := range f.rows {
		if row.IsCurrent && row.Status == submissiondomain.StatusPending && row.CreatedAt.Before(cutoff) {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakeSubmissionRepo) ListForLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID, from, to time.Time) ([]submissiondb.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListForLeague")
	var out []submissiondb.Submission
	for _, row := range f.rows {
		if row.IsCurrent && row.LeagueID == leagueID && !row.EntryDate.Before(from) && !row.EntryDate.After(to) {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.Before(out[j].EntryDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (f *FakeSubmissionRepo) ListHistory(ctx context.Context, db bun.IDB, leagueID, memberID uuid.UUID, day time.Time) ([]submissiondb.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListHistory")
	var out []submissiondb.Submission
	for _, row := range f.rows {
		if row.LeagueID == leagueID && row.MemberID == memberID && row.EntryDate.Equal(calendar.Normalize(day)) {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Current returns every current row, for assertions.
func (f *FakeSubmissionRepo) Current() []submissiondb.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []submissiondb.Submission
	for _, row := range f.rows {
		if row.IsCurrent {
			out = append(out, *row)
		}
	}
	return out
}

func (f *FakeSubmissionRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ submissiondb.Repository = (*FakeSubmissionRepo)(nil)

// ------------------------
// Fake League Reader
// ------------------------

type FakeLeagueReader struct {
	Leagues     map[uuid.UUID]*leaguedb.League
	Memberships map[uuid.UUID]map[uuid.UUID]*leaguedb.Membership
}

func NewFakeLeagueReader() *FakeLeagueReader {
	return &FakeLeagueReader{
		Leagues:     map[uuid.UUID]*leaguedb.League{},
		Memberships: map[uuid.UUID]map[uuid.UUID]*leaguedb.Membership{},
	}
}

func (f *FakeLeagueReader) AddMember(m leaguedb.Membership) {
	if f.Memberships[m.LeagueID] == nil {
		f.Memberships[m.LeagueID] = map[uuid.UUID]*leaguedb.Membership{}
	}
	f.Memberships[m.LeagueID][m.UserID] = &m
}

func (f *FakeLeagueReader) GetLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (*leaguedb.League, error) {
	l, ok := f.Leagues[leagueID]
	if !ok {
		return nil, leaguedb.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *FakeLeagueReader) GetMembership(ctx context.Context, db bun.IDB, leagueID, userID uuid.UUID) (*leaguedb.Membership, error) {
	m, ok := f.Memberships[leagueID][userID]
	if !ok {
		return nil, leaguedb.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

var _ LeagueReader = (*FakeLeagueReader)(nil)

// ------------------------
// Fake Publisher
// ------------------------

type FakePublisher struct {
	mu       sync.Mutex
	Topics   []string
	Messages []*message.Message
	Err      error
}

func (p *FakePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	for _, m := range msgs {
		p.Topics = append(p.Topics, topic)
		p.Messages = append(p.Messages, m)
	}
	return nil
}

func (p *FakePublisher) Close() error { return nil }

func (p *FakePublisher) Published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Topics))
	copy(out, p.Topics)
	return out
}

var _ message.Publisher = (*FakePublisher)(nil)
