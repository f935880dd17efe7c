package leaguedomain

import (
	"time"

	"github.com/google/uuid"

	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
)

// Status is the league lifecycle. Once closed, every submission in the league
// is terminal.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusLaunched Status = "launched"
	StatusClosed   Status = "closed"
)

// League is the read model of a league as seen by the scoring engine.
type League struct {
	ID        uuid.UUID
	Name      string
	Timezone  string
	StartDate time.Time
	EndDate   time.Time
	Status    Status

	// NormalizeTeams opts the league into size-normalized team totals.
	NormalizeTeams bool
	// RequireProof makes a proof reference mandatory for workouts.
	RequireProof bool
}

// Location resolves the league timezone, falling back to UTC.
func (l League) Location() *time.Location {
	if l.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (l League) IsClosed() bool { return l.Status == StatusClosed }

// Contains reports whether day falls inside the league's date range.
func (l League) Contains(day time.Time) bool {
	day = calendar.Normalize(day)
	return !day.Before(calendar.Normalize(l.StartDate)) && !day.After(calendar.Normalize(l.EndDate))
}
