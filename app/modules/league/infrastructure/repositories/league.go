package leaguedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	leaguedomain "github.com/Black-And-White-Club/fitleague/app/modules/league/domain"
)

// ErrNotFound is returned when a league or membership does not exist.
var ErrNotFound = errors.New("league record not found")

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

func (r *Impl) GetLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (*League, error) {
	db = r.resolveDB(db)
	league := new(League)
	err := db.NewSelect().Model(league).Where("l.id = ?", leagueID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("leaguedb.GetLeague: %w", err)
	}
	return league, nil
}

func (r *Impl) ListLaunchedLeagueIDs(ctx context.Context, db bun.IDB) ([]uuid.UUID, error) {
	db = r.resolveDB(db)
	var ids []uuid.UUID
	err := db.NewSelect().
		Model((*League)(nil)).
		Column("l.id").
		Where("l.status = ?", leaguedomain.StatusLaunched).
		OrderExpr("l.id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("leaguedb.ListLaunchedLeagueIDs: %w", err)
	}
	return ids, nil
}

func (r *Impl) GetMembership(ctx context.Context, db bun.IDB, leagueID, userID uuid.UUID) (*Membership, error) {
	db = r.resolveDB(db)
	m := new(Membership)
	err := db.NewSelect().
		Model(m).
		Where("m.league_id = ?", leagueID).
		Where("m.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("leaguedb.GetMembership: %w", err)
	}
	return m, nil
}

func (r *Impl) ListMemberships(ctx context.Context, db bun.IDB, leagueID uuid.UUID) ([]Membership, error) {
	db = r.resolveDB(db)
	var members []Membership
	err := db.NewSelect().
		Model(&members).
		Where("m.league_id = ?", leagueID).
		OrderExpr("m.user_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaguedb.ListMemberships: %w", err)
	}
	return members, nil
}

func (r *Impl) TeamSizes(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (map[uuid.UUID]int, error) {
	db = r.resolveDB(db)
	var rows []groupCount
	err := db.NewSelect().
		TableExpr("league_teams AS t").
		ColumnExpr("t.id AS id").
		ColumnExpr("COUNT(m.user_id) AS count").
		Join("LEFT JOIN league_memberships AS m ON m.team_id = t.id AND m.league_id = t.league_id").
		Where("t.league_id = ?", leagueID).
		GroupExpr("t.id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("leaguedb.TeamSizes: %w", err)
	}
	return toSizeMap(rows), nil
}

func (r *Impl) SubTeamSizes(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (map[uuid.UUID]int, error) {
	db = r.resolveDB(db)
	var rows []groupCount
	err := db.NewSelect().
		TableExpr("league_sub_teams AS st").
		ColumnExpr("st.id AS id").
		ColumnExpr("COUNT(m.user_id) AS count").
		Join("LEFT JOIN league_memberships AS m ON m.sub_team_id = st.id AND m.league_id = st.league_id").
		Where("st.league_id = ?", leagueID).
		GroupExpr("st.id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("leaguedb.SubTeamSizes: %w", err)
	}
	return toSizeMap(rows), nil
}

func toSizeMap(rows []groupCount) map[uuid.UUID]int {
	sizes := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		sizes[row.ID] = row.Count
	}
	return sizes
}

func (r *Impl) UpsertLeague(ctx context.Context, db bun.IDB, league *League) error {
	db = r.resolveDB(db)
	league.UpdatedAt = time.Now().UTC()
	_, err := db.NewInsert().
		Model(league).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("timezone = EXCLUDED.timezone").
		Set("start_date = EXCLUDED.start_date").
		Set("end_date = EXCLUDED.end_date").
		Set("status = EXCLUDED.status").
		Set("normalize_teams = EXCLUDED.normalize_teams").
		Set("require_proof = EXCLUDED.require_proof").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("leaguedb.UpsertLeague: %w", err)
	}
	return nil
}

func (r *Impl) UpsertTeam(ctx context.Context, db bun.IDB, team *Team) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(team).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("leaguedb.UpsertTeam: %w", err)
	}
	return nil
}

func (r *Impl) UpsertSubTeam(ctx context.Context, db bun.IDB, subTeam *SubTeam) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(subTeam).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("team_id = EXCLUDED.team_id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("leaguedb.UpsertSubTeam: %w", err)
	}
	return nil
}

func (r *Impl) UpsertMembership(ctx context.Context, db bun.IDB, membership *Membership) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(membership).
		On("CONFLICT (league_id, user_id) DO UPDATE").
		Set("team_id = EXCLUDED.team_id").
		Set("sub_team_id = EXCLUDED.sub_team_id").
		Set("role = EXCLUDED.role").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("leaguedb.UpsertMembership: %w", err)
	}
	return nil
}
