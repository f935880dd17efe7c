package challengedomain

import (
	"fmt"
	"math"

	leaguedomain "github.com/Black-And-White-Club/fitleague/app/modules/league/domain"
	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
)

// capTolerance absorbs float noise from caps like 100/3.
const capTolerance = 1e-9

// Caps are the per-member ceilings for one challenge submission.
//
// Internal is what the scored member can actually receive: the pool divided
// by their own team (or sub-team) size. Visible is the same pool divided by
// the league's largest team size, so every player sees one comparable number.
//
// Pooled marks caps split from a shared team or sub-team pool. Only pooled
// awards are rescaled and rounded for display.
type Caps struct {
	Internal float64 `json:"internal"`
	Visible  float64 `json:"visible"`
	Pooled   bool    `json:"pooled"`
}

// Sizes carries the roster sizes the caps depend on. Callers pass a snapshot
// so the math never reads shared state.
type Sizes struct {
	Teams    leaguedomain.TeamSizeStats
	SubTeams leaguedomain.TeamSizeStats
}

// CapsFor computes the caps for a member's submission.
func CapsFor(ch Challenge, sub Submission, sizes Sizes) (Caps, error) {
	switch ch.Type {
	case TypeIndividual:
		return Caps{Internal: ch.TotalPoints, Visible: ch.TotalPoints}, nil
	case TypeTeam:
		if sub.TeamID == nil {
			return Caps{}, leagueerr.State("member has no team; team challenge points cannot be awarded")
		}
		n, _ := sizes.Teams.Size(*sub.TeamID)
		return PoolCaps(ch.TotalPoints, n, sizes.Teams.Max())
	case TypeSubTeam:
		if sub.SubTeamID == nil {
			return Caps{}, leagueerr.State("member has no sub-team; sub-team challenge points cannot be awarded")
		}
		n, _ := sizes.SubTeams.Size(*sub.SubTeamID)
		return PoolCaps(ch.TotalPoints, n, sizes.SubTeams.Max())
	}
	return Caps{}, fmt.Errorf("unknown challenge type %q", ch.Type)
}

// PoolCaps splits a shared pool: Internal = total/size, Visible = total/maxSize.
func PoolCaps(total float64, size, maxSize int) (Caps, error) {
	if size <= 0 {
		return Caps{}, leagueerr.State("the scored team has no members")
	}
	if maxSize < size {
		maxSize = size
	}
	return Caps{
		Internal: total / float64(size),
		Visible:  total / float64(maxSize),
		Pooled:   true,
	}, nil
}

// ValidateAward rejects negative values and anything above the internal cap.
// Values are never clamped.
func ValidateAward(caps Caps, awarded float64) error {
	if math.IsNaN(awarded) || math.IsInf(awarded, 0) || awarded < 0 {
		return leagueerr.Validation("awarded_points", "awarded points must be a non-negative number")
	}
	if awarded > caps.Internal+capTolerance {
		return &CapExceededError{Awarded: awarded, Cap: caps.Internal}
	}
	return nil
}

// VisibleAward converts an internally awarded value into the number shown to
// players: round(awarded * V / I), never above V. Individual awards are shown
// as awarded.
func VisibleAward(caps Caps, awarded float64) float64 {
	if !caps.Pooled {
		return awarded
	}
	if caps.Internal <= 0 {
		return 0
	}
	return math.Round(math.Min(awarded*caps.Visible/caps.Internal, caps.Visible))
}
