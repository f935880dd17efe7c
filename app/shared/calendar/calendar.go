// Package calendar works with calendar days. A day is represented as a
// time.Time at midnight UTC so days compare and sort with the usual methods
// regardless of which zone they were observed in.
package calendar

import (
	"fmt"
	"time"
)

// DayLayout is the wire format for calendar days.
const DayLayout = "2006-01-02"

// Clock abstracts the current time.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// AnchorClock always returns the same instant. Used to keep a whole
// computation on one consistent "now" and in tests.
type AnchorClock struct {
	anchor time.Time
}

// NewAnchorClock pins the clock to t, or to the current time when t is zero.
func NewAnchorClock(t time.Time) AnchorClock {
	if t.IsZero() {
		return AnchorClock{anchor: time.Now().UTC()}
	}
	return AnchorClock{anchor: t.UTC()}
}

func (c AnchorClock) Now() time.Time { return c.anchor }

// Day returns the calendar day with the given components.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DayOf returns the calendar day on which instant t falls in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return Day(local.Year(), local.Month(), local.Day())
}

// Normalize strips any time-of-day and zone from d, keeping its wall date.
func Normalize(d time.Time) time.Time {
	return Day(d.Year(), d.Month(), d.Day())
}

// AddDays moves d by n calendar days.
func AddDays(d time.Time, n int) time.Time {
	return Normalize(d).AddDate(0, 0, n)
}

// Today returns the current calendar day in loc.
func Today(clock Clock, loc *time.Location) time.Time {
	return DayOf(clock.Now(), loc)
}

// Span counts the days in [from, to]. It is zero when to precedes from.
func Span(from, to time.Time) int {
	from, to = Normalize(from), Normalize(to)
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

// Min returns the earlier day.
func Min(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// Max returns the later day.
func Max(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// Format renders d as YYYY-MM-DD.
func Format(d time.Time) string {
	return d.Format(DayLayout)
}

// Parse reads a YYYY-MM-DD day.
func Parse(s string) (time.Time, error) {
	d, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return d, nil
}

// OffsetZone returns a fixed zone for a UTC offset in minutes.
func OffsetZone(offsetMinutes int) *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+03d:%02d", offsetMinutes/60, abs(offsetMinutes%60)), offsetMinutes*60)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
