package leaderboardqueue

// WarmRefreshJob recomputes the default leaderboard views of every launched
// league.
type WarmRefreshJob struct{}

// Kind returns the job type identifier for River
func (WarmRefreshJob) Kind() string { return "leaderboard_warm_refresh" }

// QueueName is the River queue leaderboard jobs run on.
const QueueName = "leaderboard"
