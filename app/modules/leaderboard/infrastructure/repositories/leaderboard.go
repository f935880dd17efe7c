package leaderboarddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	leaderboarddomain "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/domain"
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

func (r *Impl) GetSnapshot(ctx context.Context, db bun.IDB, leagueID uuid.UUID, window leaderboarddomain.DateRange, mode leaderboarddomain.Mode) (*Snapshot, error) {
	db = r.resolveDB(db)
	s := new(Snapshot)
	err := db.NewSelect().
		Model(s).
		Where("ls.league_id = ?", leagueID).
		Where("ls.from_date = ?::date", calendar.Format(window.From)).
		Where("ls.to_date = ?::date", calendar.Format(window.To)).
		Where("ls.mode = ?", mode).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("leaderboarddb.GetSnapshot: %w", err)
	}
	return s, nil
}

func (r *Impl) SaveSnapshot(ctx context.Context, db bun.IDB, s *Snapshot) (bool, error) {
	db = r.resolveDB(db)

	invalidated, err := db.NewSelect().
		Model((*Invalidation)(nil)).
		Where("li.league_id = ?", s.LeagueID).
		Where("li.invalidated_at >= ?", s.ComputedAt).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("leaderboarddb.SaveSnapshot: %w", err)
	}
	if invalidated {
		return false, nil
	}

	res, err := db.NewInsert().
		Model(s).
		On("CONFLICT (league_id, from_date, to_date, mode) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("computed_at = EXCLUDED.computed_at").
		Where("ls.computed_at < EXCLUDED.computed_at").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("leaderboarddb.SaveSnapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *Impl) InvalidateLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID, at time.Time, cause string) error {
	db = r.resolveDB(db)

	if _, err := db.NewDelete().
		Model((*Snapshot)(nil)).
		Where("league_id = ?", leagueID).
		Where("computed_at <= ?", at).
		Exec(ctx); err != nil {
		return fmt.Errorf("leaderboarddb.InvalidateLeague: %w", err)
	}

	inv := &Invalidation{LeagueID: leagueID, InvalidatedAt: at, Cause: cause}
	if _, err := db.NewInsert().
		Model(inv).
		On("CONFLICT (league_id) DO UPDATE").
		Set("invalidated_at = GREATEST(li.invalidated_at, EXCLUDED.invalidated_at)").
		Set("cause = EXCLUDED.cause").
		Exec(ctx); err != nil {
		return fmt.Errorf("leaderboarddb.InvalidateLeague: %w", err)
	}
	return nil
}
