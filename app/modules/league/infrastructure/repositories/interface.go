package leaguedb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository reads the league roster data the scoring engine depends on.
type Repository interface {
	// GetLeague retrieves a league by id.
	GetLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (*League, error)

	// ListLaunchedLeagueIDs returns every league that is not closed or draft.
	ListLaunchedLeagueIDs(ctx context.Context, db bun.IDB) ([]uuid.UUID, error)

	// GetMembership retrieves one user's membership in a league.
	GetMembership(ctx context.Context, db bun.IDB, leagueID, userID uuid.UUID) (*Membership, error)

	// ListMemberships returns every membership in a league.
	ListMemberships(ctx context.Context, db bun.IDB, leagueID uuid.UUID) ([]Membership, error)

	// TeamSizes counts current roster sizes, including empty teams.
	TeamSizes(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (map[uuid.UUID]int, error)

	// SubTeamSizes counts current sub-team roster sizes, including empty ones.
	SubTeamSizes(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (map[uuid.UUID]int, error)

	UpsertLeague(ctx context.Context, db bun.IDB, league *League) error
	UpsertTeam(ctx context.Context, db bun.IDB, team *Team) error
	UpsertSubTeam(ctx context.Context, db bun.IDB, subTeam *SubTeam) error
	UpsertMembership(ctx context.Context, db bun.IDB, membership *Membership) error
}
