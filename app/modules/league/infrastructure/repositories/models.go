package leaguedb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	leaguedomain "github.com/Black-And-White-Club/fitleague/app/modules/league/domain"
)

// League mirrors the league record owned by the league management service.
type League struct {
	bun.BaseModel `bun:"table:leagues,alias:l"`

	ID             uuid.UUID           `bun:"id,pk,type:uuid"`
	Name           string              `bun:"name,notnull"`
	Timezone       string              `bun:"timezone,notnull,default:'UTC'"`
	StartDate      time.Time           `bun:"start_date,type:date,notnull"`
	EndDate        time.Time           `bun:"end_date,type:date,notnull"`
	Status         leaguedomain.Status `bun:"status,notnull"`
	NormalizeTeams bool                `bun:"normalize_teams,notnull,default:false"`
	RequireProof   bool                `bun:"require_proof,notnull,default:false"`
	CreatedAt      time.Time           `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time           `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (l *League) ToDomain() leaguedomain.League {
	return leaguedomain.League{
		ID:             l.ID,
		Name:           l.Name,
		Timezone:       l.Timezone,
		StartDate:      l.StartDate,
		EndDate:        l.EndDate,
		Status:         l.Status,
		NormalizeTeams: l.NormalizeTeams,
		RequireProof:   l.RequireProof,
	}
}

type Team struct {
	bun.BaseModel `bun:"table:league_teams,alias:t"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	LeagueID  uuid.UUID `bun:"league_id,type:uuid,notnull"`
	Name      string    `bun:"name,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// SubTeam is a named subdivision of a team used by sub_team challenges.
type SubTeam struct {
	bun.BaseModel `bun:"table:league_sub_teams,alias:st"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	LeagueID  uuid.UUID `bun:"league_id,type:uuid,notnull"`
	TeamID    uuid.UUID `bun:"team_id,type:uuid,notnull"`
	Name      string    `bun:"name,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type Membership struct {
	bun.BaseModel `bun:"table:league_memberships,alias:m"`

	LeagueID  uuid.UUID         `bun:"league_id,pk,type:uuid"`
	UserID    uuid.UUID         `bun:"user_id,pk,type:uuid"`
	TeamID    *uuid.UUID        `bun:"team_id,type:uuid"`
	SubTeamID *uuid.UUID        `bun:"sub_team_id,type:uuid"`
	Role      leaguedomain.Role `bun:"role,notnull,default:'member'"`
	JoinedAt  time.Time         `bun:"joined_at,nullzero,notnull,default:current_timestamp"`
}

func (m *Membership) ToDomain() leaguedomain.Membership {
	return leaguedomain.Membership{
		LeagueID:  m.LeagueID,
		UserID:    m.UserID,
		TeamID:    m.TeamID,
		SubTeamID: m.SubTeamID,
		Role:      m.Role,
	}
}

// groupCount is the scan target for roster size queries.
type groupCount struct {
	ID    uuid.UUID `bun:"id"`
	Count int       `bun:"count"`
}
