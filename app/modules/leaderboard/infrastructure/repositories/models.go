package leaderboarddb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	leaderboarddomain "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/domain"
)

// Snapshot is a persisted leaderboard view. It backs the in-memory cache so
// a restarted or second replica can serve a recent payload right away.
type Snapshot struct {
	bun.BaseModel `bun:"table:leaderboard_snapshots,alias:ls"`

	LeagueID   uuid.UUID                      `bun:"league_id,pk,type:uuid"`
	FromDate   time.Time                      `bun:"from_date,pk,type:date"`
	ToDate     time.Time                      `bun:"to_date,pk,type:date"`
	Mode       leaderboarddomain.Mode         `bun:"mode,pk"`
	Payload    *leaderboarddomain.Leaderboard `bun:"payload,type:jsonb,notnull"`
	ComputedAt time.Time                      `bun:"computed_at,notnull"`
}

// Invalidation records the last time a league's leaderboards were dropped.
type Invalidation struct {
	bun.BaseModel `bun:"table:leaderboard_invalidations,alias:li"`

	LeagueID      uuid.UUID `bun:"league_id,pk,type:uuid"`
	InvalidatedAt time.Time `bun:"invalidated_at,notnull"`
	Cause         string    `bun:"cause,notnull,default:''"`
}
