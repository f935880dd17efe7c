package leaderboarddomain

import "sort"

// compareAvg orders averages descending with missing averages last.
func compareAvg(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a > *b:
		return -1
	case *a < *b:
		return 1
	}
	return 0
}

// RankTeams sorts by score, then avg RR, then id, and assigns ranks.
func RankTeams(rows []TeamRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		if c := compareAvg(rows[i].AvgRR, rows[j].AvgRR); c != 0 {
			return c < 0
		}
		return lessID(rows[i].TeamID, rows[j].TeamID)
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
}

// RankMembers sorts by score, then avg RR, then id, and assigns ranks.
func RankMembers(rows []MemberRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		if c := compareAvg(rows[i].AvgRR, rows[j].AvgRR); c != 0 {
			return c < 0
		}
		return lessID(rows[i].MemberID, rows[j].MemberID)
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
}

// RankRealtime sorts by today's points only, then id.
func RankRealtime(rows []RealtimeRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TodayPoints != rows[j].TodayPoints {
			return rows[i].TodayPoints > rows[j].TodayPoints
		}
		return lessID(rows[i].MemberID, rows[j].MemberID)
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
}

func RankRealtimeTeams(rows []RealtimeTeamRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TodayPoints != rows[j].TodayPoints {
			return rows[i].TodayPoints > rows[j].TodayPoints
		}
		return lessID(rows[i].TeamID, rows[j].TeamID)
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
}
