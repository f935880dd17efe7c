package submissiondomain

import (
	"time"

	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
	"github.com/Black-And-White-Club/fitleague/app/shared/leagueerr"
)

// ReplacementDeadline is the first instant at which an entry can no longer be
// replaced: midnight at the start of the second local day after anchor. The
// anchor is the review time, or the creation time for unreviewed entries,
// and offsetMinutes is the submitter's UTC offset.
func ReplacementDeadline(anchor time.Time, offsetMinutes int) time.Time {
	zone := calendar.OffsetZone(offsetMinutes)
	local := anchor.In(zone)
	startOfDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, zone)
	return startOfDay.AddDate(0, 0, 2)
}

// Anchor returns the instant the replacement window is measured from.
func (e Entry) Anchor() time.Time {
	if e.ReviewedAt != nil {
		return *e.ReviewedAt
	}
	return e.CreatedAt
}

// CheckReplaceable decides whether the current entry for a day may be
// superseded by a new submission at now. The window closes no later than
// AutoApproveAfter past creation, so a pending entry old enough to count as
// approved always reports WindowExpiredError.
func CheckReplaceable(current Entry, now time.Time, leagueClosed bool) error {
	if leagueClosed {
		return leagueerr.State("the league is closed; entries can no longer change")
	}
	if current.Status == StatusApproved {
		return leagueerr.State("the entry for %s is already approved and cannot be replaced", calendar.Format(current.Date))
	}
	deadline := ReplacementDeadline(current.Anchor(), current.TZOffsetMinutes)
	if !now.Before(deadline) {
		zone := calendar.OffsetZone(current.TZOffsetMinutes)
		return &leagueerr.WindowExpiredError{
			Reason: "the window to replace the entry for " + calendar.Format(current.Date) +
				" closed at " + deadline.Add(-time.Second).In(zone).Format("2006-01-02 15:04:05") + " local time",
		}
	}
	return nil
}
