package leaderboarddomain

import (
	"math"

	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
)

// Mode selects how team totals are presented.
type Mode string

const (
	// ModeAuto resolves to normalized for leagues that opted in, else raw.
	ModeAuto       Mode = "auto"
	ModeRaw        Mode = "raw"
	ModeNormalized Mode = "normalized"
)

// ResolveMode turns a requested mode into raw or normalized. Asking for
// normalized totals in a league that has not opted in is a validation error.
func ResolveMode(requested Mode, leagueOptIn bool) (Mode, error) {
	switch requested {
	case "", ModeAuto:
		if leagueOptIn {
			return ModeNormalized, nil
		}
		return ModeRaw, nil
	case ModeRaw:
		return ModeRaw, nil
	case ModeNormalized:
		if !leagueOptIn {
			return "", leagueerr.Validation("mode", "this league does not use normalized team totals")
		}
		return ModeNormalized, nil
	}
	return "", leagueerr.Validation("mode", "mode must be auto, raw or normalized, got %q", requested)
}

// Representation records which scale a total is expressed in.
type Representation string

const (
	RepresentationRaw        Representation = "raw"
	RepresentationNormalized Representation = "normalized"
)

// Total is a team total tagged with its representation, so the size factor
// can never be applied twice.
type Total struct {
	Value          float64        `json:"value"`
	Representation Representation `json:"representation"`
}

// RawTotal wraps an unscaled team total.
func RawTotal(v float64) Total {
	return Total{Value: v, Representation: RepresentationRaw}
}

// Normalize rescales a raw total by maxSize/teamSize. Teams with no members
// present as zero. Normalizing a normalized total is a state error.
func Normalize(t Total, teamSize, maxSize int) (Total, error) {
	if t.Representation != RepresentationRaw {
		return Total{}, leagueerr.State("total is already normalized")
	}
	if teamSize <= 0 {
		return Total{Value: 0, Representation: RepresentationNormalized}, nil
	}
	if maxSize < teamSize {
		maxSize = teamSize
	}
	return Total{
		Value:          t.Value * float64(maxSize) / float64(teamSize),
		Representation: RepresentationNormalized,
	}, nil
}

// Denormalize reverses Normalize. A team with no members cannot be reversed
// and yields zero.
func Denormalize(t Total, teamSize, maxSize int) (Total, error) {
	if t.Representation != RepresentationNormalized {
		return Total{}, leagueerr.State("total is not normalized")
	}
	if teamSize <= 0 {
		return RawTotal(0), nil
	}
	if maxSize < teamSize {
		maxSize = teamSize
	}
	return RawTotal(t.Value * float64(teamSize) / float64(maxSize)), nil
}

// Present returns the total in the requested mode.
func Present(raw Total, mode Mode, teamSize, maxSize int) (Total, error) {
	if mode == ModeNormalized {
		return Normalize(raw, teamSize, maxSize)
	}
	return raw, nil
}

// roundPoints keeps presented totals to two decimals.
func roundPoints(v float64) float64 {
	return math.Round(v*100) / 100
}
