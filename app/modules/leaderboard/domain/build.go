package leaderboarddomain

import (
	"sort"
	"time"

	"github.com/google/uuid"

	challengedomain "github.com/Black-And-White-Club/fitleague/app/modules/challenge/domain"
	leaguedomain "github.com/Black-And-White-Club/fitleague/app/modules/league/domain"
	submissiondomain "github.com/Black-And-White-Club/fitleague/app/modules/submission/domain"
)

// ChallengeAward is an approved award from a published challenge.
type ChallengeAward struct {
	SubmissionID uuid.UUID
	ChallengeID  uuid.UUID
	Type         challengedomain.Type
	TotalPoints  float64
	MemberID     uuid.UUID
	TeamID       *uuid.UUID
	SubTeamID    *uuid.UUID
	Awarded      float64
}

// Input is a consistent snapshot of everything a leaderboard is built from.
type Input struct {
	League       leaguedomain.League
	Roster       []leaguedomain.Membership
	TeamSizes    leaguedomain.TeamSizeStats
	SubTeamSizes leaguedomain.TeamSizeStats
	// Entries are the current submissions covering both the settled and the
	// realtime window.
	Entries []submissiondomain.Entry
	Awards  []ChallengeAward

	Mode   Mode
	Window SettledWindow
	Today  time.Time
	Now    time.Time
}

// Build computes the settled leaderboard and the realtime scoreboard. It
// reads nothing but its input, so concurrent builds never interfere.
func Build(in Input) (*Leaderboard, error) {
	eff := in.Window.Effective
	agg := Aggregate(in.Entries, in.Roster, in.TeamSizes, eff.From, eff.To, in.Now)
	memberBonus, teamBonus := bonuses(in)

	lb := &Leaderboard{
		LeagueID:   in.League.ID,
		Mode:       in.Mode,
		Window:     in.Window,
		Teams:      make([]TeamRow, 0, len(agg.Teams)),
		Members:    make([]MemberRow, 0, len(agg.Members)),
		ComputedAt: in.Now,
	}

	var rrSum float64
	for _, id := range sortedMemberIDs(agg.Members) {
		m := agg.Members[id]
		bonus := roundPoints(memberBonus[id])
		lb.Members = append(lb.Members, MemberRow{
			MemberID:   id,
			TeamID:     m.TeamID,
			Points:     m.Points,
			Bonus:      bonus,
			Score:      roundPoints(float64(m.Points) + bonus),
			AvgRR:      RoundRR(m.AvgRR()),
			MissedDays: MissedDays(m, in.League, eff.From, eff.To, in.Today),
		})
		lb.Stats.ApprovedDays += m.Points
		lb.Stats.PendingDays += m.Pending
		rrSum += m.RRSum
	}

	for _, id := range sortedTeamIDs(agg.Teams) {
		t := agg.Teams[id]
		total, err := Present(RawTotal(float64(t.Points)), in.Mode, t.Members, in.TeamSizes.Max())
		if err != nil {
			return nil, err
		}
		total.Value = roundPoints(total.Value)
		bonus := roundPoints(teamBonus[id])
		lb.Teams = append(lb.Teams, TeamRow{
			TeamID: id,
			Size:   t.Members,
			Points: t.Points,
			Total:  total,
			Bonus:  bonus,
			Score:  roundPoints(total.Value + bonus),
			AvgRR:  RoundRR(t.AvgRR()),
		})
	}

	RankMembers(lb.Members)
	RankTeams(lb.Teams)

	lb.Stats.Members = len(lb.Members)
	lb.Stats.Teams = len(lb.Teams)
	lb.Stats.MaxTeamSize = in.TeamSizes.Max()
	lb.Stats.Days = eff.Days()
	if lb.Stats.ApprovedDays > 0 {
		avg := rrSum / float64(lb.Stats.ApprovedDays)
		lb.Stats.AvgRR = RoundRR(&avg)
	}

	lb.Pending = buildScoreboard(in)
	return lb, nil
}

func buildScoreboard(in Input) Scoreboard {
	window := RealtimeWindow(in.League, in.Today)
	sb := Scoreboard{
		Window:   window,
		Advisory: true,
		Teams:    []RealtimeTeamRow{},
		Members:  []RealtimeRow{},
	}
	if window.Empty() {
		return sb
	}

	both := Aggregate(in.Entries, in.Roster, in.TeamSizes, window.From, window.To, in.Now)
	today := Aggregate(in.Entries, in.Roster, in.TeamSizes, in.Today, in.Today, in.Now)

	for _, id := range sortedMemberIDs(both.Members) {
		m := both.Members[id]
		row := RealtimeRow{
			MemberID: id,
			TeamID:   m.TeamID,
			Points:   m.Points,
			AvgRR:    RoundRR(m.AvgRR()),
		}
		if t, ok := today.Members[id]; ok {
			row.TodayPoints = t.Points
		}
		sb.Members = append(sb.Members, row)
	}
	for _, id := range sortedTeamIDs(both.Teams) {
		t := both.Teams[id]
		row := RealtimeTeamRow{
			TeamID: id,
			Points: t.Points,
			AvgRR:  RoundRR(t.AvgRR()),
		}
		if td, ok := today.Teams[id]; ok {
			row.TodayPoints = td.Points
		}
		sb.Teams = append(sb.Teams, row)
	}

	RankRealtime(sb.Members)
	RankRealtimeTeams(sb.Teams)
	return sb
}

// bonuses sums challenge awards. Members see the visible value of each award;
// teams accumulate the internal value, since a team pool already accounts for
// roster size.
func bonuses(in Input) (members, teams map[uuid.UUID]float64) {
	members = make(map[uuid.UUID]float64)
	teams = make(map[uuid.UUID]float64)

	awards := make([]ChallengeAward, len(in.Awards))
	copy(awards, in.Awards)
	sort.SliceStable(awards, func(i, j int) bool {
		if awards[i].ChallengeID != awards[j].ChallengeID {
			return lessID(awards[i].ChallengeID, awards[j].ChallengeID)
		}
		if awards[i].MemberID != awards[j].MemberID {
			return lessID(awards[i].MemberID, awards[j].MemberID)
		}
		return lessID(awards[i].SubmissionID, awards[j].SubmissionID)
	})

	sizes := challengedomain.Sizes{Teams: in.TeamSizes, SubTeams: in.SubTeamSizes}
	for _, a := range awards {
		ch := challengedomain.Challenge{ID: a.ChallengeID, Type: a.Type, TotalPoints: a.TotalPoints}
		sub := challengedomain.Submission{MemberID: a.MemberID, TeamID: a.TeamID, SubTeamID: a.SubTeamID}
		// Caps are unavailable once a team has been emptied; the team keeps its
		// internal total and the member shows the raw award.
		visible := a.Awarded
		if caps, err := challengedomain.CapsFor(ch, sub, sizes); err == nil {
			visible = challengedomain.VisibleAward(caps, a.Awarded)
		}
		members[a.MemberID] += visible
		if a.TeamID != nil {
			teams[*a.TeamID] += a.Awarded
		}
	}
	return members, teams
}

func sortedTeamIDs(m map[uuid.UUID]*TeamTally) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })
	return ids
}
