package challengeservice

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	challengedomain "github.com/Black-And-White-Club/fitleague/app/modules/challenge/domain"
	challengedb "github.com/Black-And-White-Club/fitleague/app/modules/challenge/infrastructure/repositories"
	leaguedb "github.com/Black-And-White-Club/fitleague/app/modules/league/infrastructure/repositories"
)

// ------------------------
// Fake Challenge Repo
// ------------------------

type FakeChallengeRepo struct {
	mu          sync.Mutex
	challenges  map[uuid.UUID]*challengedb.Challenge
	submissions map[uuid.UUID]*challengedb.Submission
	trace       []string

	ApplyAwardFunc  func(ctx context.Context, db bun.IDB, id uuid.UUID, expectedVersion int64, update challengedb.AwardUpdate) error
	CountPendingErr error
}

func NewFakeChallengeRepo() *FakeChallengeRepo {
	return &FakeChallengeRepo{
		challenges:  map[uuid.UUID]*challengedb.Challenge{},
		submissions: map[uuid.UUID]*challengedb.Submission{},
	}
}

func (f *FakeChallengeRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeChallengeRepo) GetChallenge(ctx context.Context, db bun.IDB, id uuid.UUID) (*challengedb.Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetChallenge")
	c, ok := f.challenges[id]
	if !ok {
		return nil, challengedb.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *FakeChallengeRepo) LockChallenge(ctx context.Context, db bun.IDB, id uuid.UUID) (*challengedb.Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LockChallenge")
	c, ok := f.challenges[id]
	if !ok {
		return nil, challengedb.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *FakeChallengeRepo) InsertChallenge(ctx context.Context, db bun.IDB, c *challengedb.Challenge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertChallenge")
	cp := *c
	f.challenges[c.ID] = &cp
	return nil
}

func (f *FakeChallengeRepo) UpdateStatus(ctx context.Context, db bun.IDB, id uuid.UUID, from, to challengedomain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateStatus")
	c, ok := f.challenges[id]
	if !ok || c.Status != from {
		return challengedb.ErrVersionConflict
	}
	c.Status = to
	return nil
}

func (f *FakeChallengeRepo) GetSubmission(ctx context.Context, db bun.IDB, challengeID, submissionID uuid.UUID) (*challengedb.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetSubmission")
	s, ok := f.submissions[submissionID]
	if !ok || s.ChallengeID != challengeID {
		return nil, challengedb.ErrSubmissionNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *FakeChallengeRepo) InsertSubmission(ctx context.Context, db bun.IDB, s *challengedb.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertSubmission")
	if s.Version == 0 {
		s.Version = 1
	}
	cp := *s
	f.submissions[s.ID] = &cp
	return nil
}

func (f *FakeChallengeRepo) ApplyAward(ctx context.Context, db bun.IDB, id uuid.UUID, expectedVersion int64, update challengedb.AwardUpdate) error {
	if f.ApplyAwardFunc != nil {
		return f.ApplyAwardFunc(ctx, db, id, expectedVersion, update)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ApplyAward")
	s, ok := f.submissions[id]
	if !ok || s.Version != expectedVersion {
		return challengedb.ErrVersionConflict
	}
	s.Status = update.Status
	s.AwardedPoints = update.AwardedPoints
	reviewer := update.ReviewerID
	s.ReviewerID = &reviewer
	reviewedAt := update.ReviewedAt
	s.ReviewedAt = &reviewedAt
	s.Version++
	return nil
}

func (f *FakeChallengeRepo) CountPending(ctx context.Context, db bun.IDB, challengeID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CountPending")
	if f.CountPendingErr != nil {
		return 0, f.CountPendingErr
	}
	n := 0
	for _, s := range f.submissions {
		if s.ChallengeID == challengeID && s.Status == challengedomain.SubmissionPending {
			n++
		}
	}
	return n, nil
}

func (f *FakeChallengeRepo) ListAwards(ctx context.Context, db bun.IDB, leagueID uuid.UUID, from, to time.Time) ([]challengedb.Award, error) {
	f.record("ListAwards")
	return nil, nil
}

func (f *FakeChallengeRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ challengedb.Repository = (*FakeChallengeRepo)(nil)

// ------------------------
// Fake League Reader
// ------------------------

type FakeLeagueReader struct {
	Memberships  map[uuid.UUID]*leaguedb.Membership
	Teams        map[uuid.UUID]int
	SubTeams     map[uuid.UUID]int
	TeamSizesErr error
}

func (f *FakeLeagueReader) GetMembership(ctx context.Context, db bun.IDB, leagueID, userID uuid.UUID) (*leaguedb.Membership, error) {
	m, ok := f.Memberships[userID]
	if !ok || m.LeagueID != leagueID {
		return nil, leaguedb.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *FakeLeagueReader) TeamSizes(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (map[uuid.UUID]int, error) {
	if f.TeamSizesErr != nil {
		return nil, f.TeamSizesErr
	}
	return f.Teams, nil
}

func (f *FakeLeagueReader) SubTeamSizes(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (map[uuid.UUID]int, error) {
	return f.SubTeams, nil
}

var _ LeagueReader = (*FakeLeagueReader)(nil)

// ------------------------
// Fake Publisher
// ------------------------

type FakePublisher struct {
	mu     sync.Mutex
	Topics []string
}

func (p *FakePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for range msgs {
		p.Topics = append(p.Topics, topic)
	}
	return nil
}

func (p *FakePublisher) Close() error { return nil }

var _ message.Publisher = (*FakePublisher)(nil)
