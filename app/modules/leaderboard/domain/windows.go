package leaderboarddomain

import (
	"time"

	leaguedomain "github.com/Black-And-White-Club/fitleague/app/modules/league/domain"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
)

// SettleDelay is how many days the settled window trails today.
const SettleDelay = 2

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Empty reports whether the range contains no days.
func (r DateRange) Empty() bool { return r.To.Before(r.From) }

// Days is the number of days in the range.
func (r DateRange) Days() int { return calendar.Span(r.From, r.To) }

// SettledWindow is the range a settled leaderboard covers.
type SettledWindow struct {
	Requested DateRange `json:"requested"`
	Effective DateRange `json:"effective"`
	// Clipped is set when the requested range reached into unsettled days
	// or outside the league and was shortened.
	Clipped bool `json:"clipped"`
}

// SettledCutoff is the last settled day: today minus SettleDelay.
func SettledCutoff(today time.Time) time.Time {
	return calendar.AddDays(today, -SettleDelay)
}

// ResolveSettled computes the settled window. Without bounds it covers the
// league from its start through the cutoff. Requested bounds are clipped to
// the league and to the cutoff, so unsettled days are never reported as final.
// Early in a league the effective window may be empty.
func ResolveSettled(league leaguedomain.League, today time.Time, from, to *time.Time) (SettledWindow, error) {
	start := calendar.Normalize(league.StartDate)
	end := calendar.Normalize(league.EndDate)
	cutoff := SettledCutoff(today)

	requested := DateRange{From: start, To: calendar.Min(end, cutoff)}
	if from != nil {
		requested.From = calendar.Normalize(*from)
	}
	if to != nil {
		requested.To = calendar.Normalize(*to)
	}
	if from != nil && to != nil && requested.Empty() {
		return SettledWindow{}, leagueerr.Validation("from", "range start %s is after its end %s",
			calendar.Format(requested.From), calendar.Format(requested.To))
	}

	effective := DateRange{
		From: calendar.Max(requested.From, start),
		To:   calendar.Min(calendar.Min(requested.To, end), cutoff),
	}
	return SettledWindow{
		Requested: requested,
		Effective: effective,
		Clipped:   !effective.From.Equal(requested.From) || !effective.To.Equal(requested.To),
	}, nil
}

// RealtimeWindow is yesterday and today, limited to the league's dates. It
// may be empty before the league starts or after it ends.
func RealtimeWindow(league leaguedomain.League, today time.Time) DateRange {
	today = calendar.Normalize(today)
	return DateRange{
		From: calendar.Max(calendar.AddDays(today, -1), calendar.Normalize(league.StartDate)),
		To:   calendar.Min(today, calendar.Normalize(league.EndDate)),
	}
}

// Span returns the smallest range covering both ranges, ignoring empty ones.
func Span(a, b DateRange) DateRange {
	switch {
	case a.Empty():
		return b
	case b.Empty():
		return a
	}
	return DateRange{From: calendar.Min(a.From, b.From), To: calendar.Max(a.To, b.To)}
}
