package leaderboarddomain

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	leaguedomain "github.com/Black-And-White-Club/fitleague/app/modules/league/domain"
	submissiondomain "github.com/Black-And-White-Club/fitleague/app/modules/submission/domain"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
)

// MemberTally is one member's workout score over a range.
type MemberTally struct {
	MemberID uuid.UUID
	TeamID   *uuid.UUID
	// Points counts approved days. Every approved day is worth exactly one
	// point whatever its RR.
	Points int
	RRSum  float64
	// Submitted counts days with any current entry, approved or not.
	Submitted int
	Pending   int

	days map[time.Time]struct{}
}

// AvgRR is RRSum/Points, or nil when the member has no approved days.
func (t MemberTally) AvgRR() *float64 {
	if t.Points == 0 {
		return nil
	}
	v := t.RRSum / float64(t.Points)
	return &v
}

// TeamTally sums the tallies of a team's members.
type TeamTally struct {
	TeamID  uuid.UUID
	Members int
	Points  int
	// weightedRR is the sum of member avgRR times member points.
	weightedRR float64
}

// AvgRR is the mean of member averages weighted by each member's approved
// days, or nil when the team has no approved days.
func (t TeamTally) AvgRR() *float64 {
	if t.Points == 0 {
		return nil
	}
	v := t.weightedRR / float64(t.Points)
	return &v
}

// Aggregation is the result of scoring one range.
type Aggregation struct {
	From, To time.Time
	Members  map[uuid.UUID]*MemberTally
	Teams    map[uuid.UUID]*TeamTally
}

// SortEntries orders entries by date then id. Aggregation walks entries in
// this order so floating-point sums are reproducible.
func SortEntries(entries []submissiondomain.Entry) []submissiondomain.Entry {
	out := make([]submissiondomain.Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return lessID(out[i].ID, out[j].ID)
	})
	return out
}

// Aggregate scores the entries dated inside [from, to]. Every member of the
// roster gets a tally even without entries; members outside the roster are
// scored individually but belong to no team. Teams come from teamSizes so
// empty teams are listed too.
//
// Pending entries older than the auto-approval window count as approved.
func Aggregate(
	entries []submissiondomain.Entry,
	roster []leaguedomain.Membership,
	teamSizes leaguedomain.TeamSizeStats,
	from, to time.Time,
	now time.Time,
) Aggregation {
	from, to = calendar.Normalize(from), calendar.Normalize(to)
	agg := Aggregation{
		From:    from,
		To:      to,
		Members: make(map[uuid.UUID]*MemberTally, len(roster)),
		Teams:   make(map[uuid.UUID]*TeamTally, teamSizes.Len()),
	}

	for _, m := range roster {
		agg.Members[m.UserID] = &MemberTally{MemberID: m.UserID, TeamID: m.TeamID}
	}
	for _, id := range teamSizes.IDs() {
		n, _ := teamSizes.Size(id)
		agg.Teams[id] = &TeamTally{TeamID: id, Members: n}
	}

	for _, e := range SortEntries(entries) {
		day := calendar.Normalize(e.Date)
		if day.Before(from) || day.After(to) {
			continue
		}
		tally, ok := agg.Members[e.MemberID]
		if !ok {
			tally = &MemberTally{MemberID: e.MemberID}
			agg.Members[e.MemberID] = tally
		}
		if tally.days == nil {
			tally.days = make(map[time.Time]struct{})
		}
		tally.days[day] = struct{}{}
		tally.Submitted++
		switch e.EffectiveStatus(now) {
		case submissiondomain.StatusApproved:
			tally.Points++
			tally.RRSum += e.RR
		case submissiondomain.StatusPending:
			tally.Pending++
		}
	}

	for _, id := range sortedMemberIDs(agg.Members) {
		m := agg.Members[id]
		if m.TeamID == nil {
			continue
		}
		team, ok := agg.Teams[*m.TeamID]
		if !ok {
			team = &TeamTally{TeamID: *m.TeamID}
			agg.Teams[*m.TeamID] = team
		}
		if avg := m.AvgRR(); avg != nil {
			team.Points += m.Points
			team.weightedRR += *avg * float64(m.Points)
		}
	}
	return agg
}

// MissedDays counts the days in [from, to] without any current entry,
// considering only days from the league start through yesterday and never
// past the league end.
func MissedDays(tally *MemberTally, league leaguedomain.League, from, to, today time.Time) int {
	start := calendar.Max(calendar.Normalize(from), calendar.Normalize(league.StartDate))
	end := calendar.Min(calendar.Normalize(to), calendar.Normalize(league.EndDate))
	end = calendar.Min(end, calendar.AddDays(today, -1))

	missed := 0
	for d := start; !d.After(end); d = calendar.AddDays(d, 1) {
		if tally != nil {
			if _, ok := tally.days[d]; ok {
				continue
			}
		}
		missed++
	}
	return missed
}

// RoundRR rounds a presented average to two decimals.
func RoundRR(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*100) / 100
	return &r
}

func sortedMemberIDs(m map[uuid.UUID]*MemberTally) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })
	return ids
}

func lessID(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
