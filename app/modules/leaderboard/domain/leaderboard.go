package leaderboarddomain

import (
	"time"

	"github.com/google/uuid"
)

// Leaderboard is a computed leaderboard payload.
type Leaderboard struct {
	LeagueID   uuid.UUID     `json:"league_id"`
	Mode       Mode          `json:"mode"`
	Window     SettledWindow `json:"window"`
	Teams      []TeamRow     `json:"teams"`
	Members    []MemberRow   `json:"individuals"`
	Stats      Stats         `json:"stats"`
	Pending    Scoreboard    `json:"pending_window"`
	ComputedAt time.Time     `json:"computed_at"`
	// Stale is set when the payload came from the cache after the caller's
	// timeout or staleness bound could not be met.
	Stale bool `json:"stale"`
}

// TeamRow is one team on the settled leaderboard.
type TeamRow struct {
	Rank   int       `json:"rank"`
	TeamID uuid.UUID `json:"team_id"`
	Size   int       `json:"size"`
	// Points is the raw count of approved member days.
	Points int     `json:"points"`
	Total  Total   `json:"total"`
	Bonus  float64 `json:"challenge_bonus"`
	// Score is Total plus Bonus and drives the ranking.
	Score float64  `json:"score"`
	AvgRR *float64 `json:"avg_rr"`
}

// MemberRow is one member on the settled leaderboard.
type MemberRow struct {
	Rank       int        `json:"rank"`
	MemberID   uuid.UUID  `json:"member_id"`
	TeamID     *uuid.UUID `json:"team_id,omitempty"`
	Points     int        `json:"points"`
	Bonus      float64    `json:"challenge_bonus"`
	Score      float64    `json:"score"`
	AvgRR      *float64   `json:"avg_rr"`
	MissedDays int        `json:"missed_days"`
}

// Stats summarizes the settled window.
type Stats struct {
	Members      int      `json:"members"`
	Teams        int      `json:"teams"`
	MaxTeamSize  int      `json:"max_team_size"`
	ApprovedDays int      `json:"approved_days"`
	PendingDays  int      `json:"pending_days"`
	AvgRR        *float64 `json:"avg_rr"`
	Days         int      `json:"days"`
}

// Scoreboard is the advisory view of yesterday and today. It is ranked by
// today's points and is subject to change.
type Scoreboard struct {
	Window   DateRange         `json:"window"`
	Advisory bool              `json:"advisory"`
	Teams    []RealtimeTeamRow `json:"teams"`
	Members  []RealtimeRow     `json:"individuals"`
}

type RealtimeRow struct {
	Rank        int        `json:"rank"`
	MemberID    uuid.UUID  `json:"member_id"`
	TeamID      *uuid.UUID `json:"team_id,omitempty"`
	TodayPoints int        `json:"today_points"`
	Points      int        `json:"points"`
	AvgRR       *float64   `json:"avg_rr"`
}

type RealtimeTeamRow struct {
	Rank        int       `json:"rank"`
	TeamID      uuid.UUID `json:"team_id"`
	TodayPoints int       `json:"today_points"`
	Points      int       `json:"points"`
	AvgRR       *float64  `json:"avg_rr"`
}
