package submissiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	submissiondomain "github.com/Black-And-White-Club/fitleague/app/modules/submission/domain"
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

func (r *Impl) GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*Submission, error) {
	db = r.resolveDB(db)
	s := new(Submission)
	if err := db.NewSelect().Model(s).Where("s.id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("submissiondb.GetByID: %w", err)
	}
	return s, nil
}

func (r *Impl) GetCurrent(ctx context.Context, db bun.IDB, leagueID, memberID uuid.UUID, day time.Time) (*Submission, error) {
	db = r.resolveDB(db)
	s := new(Submission)
	err := db.NewSelect().
		Model(s).
		Where("s.league_id = ?", leagueID).
		Where("s.member_id = ?", memberID).
		Where("s.entry_date = ?::date", calendar.Format(day)).
		Where("s.is_current").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("submissiondb.GetCurrent: %w", err)
	}
	return s, nil
}

func (r *Impl) Insert(ctx context.Context, db bun.IDB, s *Submission) error {
	db = r.resolveDB(db)
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	s.IsCurrent = true
	if s.Version == 0 {
		s.Version = 1
	}
	if _, err := db.NewInsert().Model(s).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCurrent
		}
		return fmt.Errorf("submissiondb.Insert: %w", err)
	}
	return nil
}

func (r *Impl) Supersede(ctx context.Context, db bun.IDB, id uuid.UUID, expectedVersion int64, supersededBy uuid.UUID) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Submission)(nil)).
		Set("is_current = FALSE").
		Set("superseded_by = ?", supersededBy).
		Set("version = version + 1").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("version = ?", expectedVersion).
		Where("is_current").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("submissiondb.Supersede: %w", err)
	}
	return requireOneRow(res)
}

func (r *Impl) ApplyReview(ctx context.Context, db bun.IDB, id uuid.UUID, expectedVersion int64, update ReviewUpdate) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Submission)(nil)).
		Set("status = ?", update.Status).
		Set("reviewer_id = ?", update.ReviewerID).
		Set("reviewed_at = ?", update.ReviewedAt).
		Set("awarded_points = ?", update.AwardedPoints).
		Set("auto_approved = ?", update.AutoApproved).
		Set("version = version + 1").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("version = ?", expectedVersion).
		Where("is_current").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("submissiondb.ApplyReview: %w", err)
	}
	return requireOneRow(res)
}

func (r *Impl) ListStalePending(ctx context.Context, db bun.IDB, cutoff time.Time, limit int) ([]Submission, error) {
	db = r.resolveDB(db)
	var rows []Submission
	err := db.NewSelect().
		Model(&rows).
		Where("s.is_current").
		Where("s.status = ?", submissiondomain.StatusPending).
		Where("s.created_at < ?", cutoff).
		OrderExpr("s.created_at ASC, s.id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("submissiondb.ListStalePending: %w", err)
	}
	return rows, nil
}

func (r *Impl) ListForLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID, from, to time.Time) ([]Submission, error) {
	db = r.resolveDB(db)
	var rows []Submission
	err := db.NewSelect().
		Model(&rows).
		Where("s.league_id = ?", leagueID).
		Where("s.is_current").
		Where("s.entry_date BETWEEN ?::date AND ?::date", calendar.Format(from), calendar.Format(to)).
		OrderExpr("s.entry_date ASC, s.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("submissiondb.ListForLeague: %w", err)
	}
	return rows, nil
}

func (r *Impl) ListHistory(ctx context.Context, db bun.IDB, leagueID, memberID uuid.UUID, day time.Time) ([]Submission, error) {
	db = r.resolveDB(db)
	var rows []Submission
	err := db.NewSelect().
		Model(&rows).
		Where("s.league_id = ?", leagueID).
		Where("s.member_id = ?", memberID).
		Where("s.entry_date = ?::date", calendar.Format(day)).
		OrderExpr("s.created_at ASC, s.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("submissiondb.ListHistory: %w", err)
	}
	return rows, nil
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

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}
