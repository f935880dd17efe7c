package challengedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	challengedomain "github.com/Black-And-White-Club/fitleague/app/modules/challenge/domain"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
)

// Impl implements Repository using Bun.
type Impl struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) GetChallenge(ctx context.Context, db bun.IDB, id uuid.UUID) (*Challenge, error) {
	db = r.resolveDB(db)
	c := new(Challenge)
	if err := db.NewSelect().Model(c).Where("c.id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("challengedb.GetChallenge: %w", err)
	}
	return c, nil
}

func (r *Impl) LockChallenge(ctx context.Context, db bun.IDB, id uuid.UUID) (*Challenge, error) {
	db = r.resolveDB(db)
	c := new(Challenge)
	if err := db.NewSelect().Model(c).Where("c.id = ?", id).For("UPDATE").Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("challengedb.LockChallenge: %w", err)
	}
	return c, nil
}

func (r *Impl) InsertChallenge(ctx context.Context, db bun.IDB, c *Challenge) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(c).Exec(ctx); err != nil {
		return fmt.Errorf("challengedb.InsertChallenge: %w", err)
	}
	return nil
}

func (r *Impl) UpdateStatus(ctx context.Context, db bun.IDB, id uuid.UUID, from, to challengedomain.Status) error {
	db = r.resolveDB(db)
	now := time.Now().UTC()
	q := db.NewUpdate().
		Model((*Challenge)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("status = ?", from)
	if to == challengedomain.StatusPublished {
		q = q.Set("published_at = ?", now)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("challengedb.UpdateStatus: %w", err)
	}
	return requireOneRow(res)
}

func (r *Impl) GetSubmission(ctx context.Context, db bun.IDB, challengeID, submissionID uuid.UUID) (*Submission, error) {
	db = r.resolveDB(db)
	s := new(Submission)
	err := db.NewSelect().
		Model(s).
		Where("cs.id = ?", submissionID).
		Where("cs.challenge_id = ?", challengeID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("challengedb.GetSubmission: %w", err)
	}
	return s, nil
}

func (r *Impl) InsertSubmission(ctx context.Context, db bun.IDB, s *Submission) error {
	db = r.resolveDB(db)
	if s.Version == 0 {
		s.Version = 1
	}
	if _, err := db.NewInsert().Model(s).Exec(ctx); err != nil {
		return fmt.Errorf("challengedb.InsertSubmission: %w", err)
	}
	return nil
}

func (r *Impl) ApplyAward(ctx context.Context, db bun.IDB, id uuid.UUID, expectedVersion int64, update AwardUpdate) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Submission)(nil)).
		Set("status = ?", update.Status).
		Set("awarded_points = ?", update.AwardedPoints).
		Set("reviewer_id = ?", update.ReviewerID).
		Set("reviewed_at = ?", update.ReviewedAt).
		Set("version = version + 1").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("version = ?", expectedVersion).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("challengedb.ApplyAward: %w", err)
	}
	return requireOneRow(res)
}

func (r *Impl) CountPending(ctx context.Context, db bun.IDB, challengeID uuid.UUID) (int, error) {
	db = r.resolveDB(db)
	n, err := db.NewSelect().
		Model((*Submission)(nil)).
		Where("cs.challenge_id = ?", challengeID).
		Where("cs.status = ?", challengedomain.SubmissionPending).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("challengedb.CountPending: %w", err)
	}
	return n, nil
}

func (r *Impl) ListAwards(ctx context.Context, db bun.IDB, leagueID uuid.UUID, from, to time.Time) ([]Award, error) {
	db = r.resolveDB(db)
	var awards []Award
	err := db.NewSelect().
		TableExpr("challenge_submissions AS cs").
		Join("JOIN challenges AS c ON c.id = cs.challenge_id").
		ColumnExpr("cs.id AS submission_id, cs.challenge_id, c.type AS challenge_type, c.total_points").
		ColumnExpr("cs.member_id, cs.team_id, cs.sub_team_id, cs.awarded_points").
		Where("c.league_id = ?", leagueID).
		Where("c.status IN (?)", bun.In([]challengedomain.Status{challengedomain.StatusPublished, challengedomain.StatusClosed})).
		Where("c.end_date BETWEEN ?::date AND ?::date", calendar.Format(from), calendar.Format(to)).
		Where("cs.status = ?", challengedomain.SubmissionApproved).
		Where("cs.awarded_points IS NOT NULL").
		OrderExpr("cs.challenge_id ASC, cs.id ASC").
		Scan(ctx, &awards)
	if err != nil {
		return nil, fmt.Errorf("challengedb.ListAwards: %w", err)
	}
	return awards, nil
}

func requireOneRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrVersionConflict
	}
	return nil
}
