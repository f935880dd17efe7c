package leaderboarddb

import "errors"

var ErrNotFound = errors.New("leaderboard snapshot not found")
