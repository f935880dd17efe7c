package leaderboarddb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	leaderboarddomain "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/domain"
)

// Repository persists leaderboard snapshots.
type Repository interface {
	// GetSnapshot returns the stored view, or ErrNotFound.
	GetSnapshot(ctx context.Context, db bun.IDB, leagueID uuid.UUID, window leaderboarddomain.DateRange, mode leaderboarddomain.Mode) (*Snapshot, error)

	// SaveSnapshot stores s unless a snapshot computed at the same time or
	// later is already stored, or the league was invalidated after s was
	// computed. It reports whether s was written.
	SaveSnapshot(ctx context.Context, db bun.IDB, s *Snapshot) (bool, error)

	// InvalidateLeague deletes a league's snapshots computed at or before at
	// and records the invalidation.
	InvalidateLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID, at time.Time, cause string) error
}
