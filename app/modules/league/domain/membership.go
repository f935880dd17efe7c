package leaguedomain

import "github.com/google/uuid"

// Role is a member's standing within a league.
type Role string

const (
	RoleMember   Role = "member"
	RoleCaptain  Role = "captain"
	RoleGovernor Role = "governor"
	RoleHost     Role = "host"
)

// Membership ties a user to a league and, for players, to a team.
type Membership struct {
	LeagueID  uuid.UUID
	UserID    uuid.UUID
	TeamID    *uuid.UUID
	SubTeamID *uuid.UUID
	Role      Role
}

// CanReview reports whether reviewer may approve or reject work belonging to
// a member of teamID. Captains cover their own team only; governors and hosts
// cover every team in their league.
func CanReview(reviewer Membership, leagueID, teamID uuid.UUID) bool {
	if reviewer.LeagueID != leagueID {
		return false
	}
	switch reviewer.Role {
	case RoleGovernor, RoleHost:
		return true
	case RoleCaptain:
		return reviewer.TeamID != nil && *reviewer.TeamID == teamID
	default:
		return false
	}
}

// CanManage reports whether m may run league-wide operations such as
// publishing challenge results.
func CanManage(m Membership, leagueID uuid.UUID) bool {
	return m.LeagueID == leagueID && (m.Role == RoleGovernor || m.Role == RoleHost)
}
