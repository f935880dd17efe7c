package leaderboardhandlers

import (
	"log/slog"

	leaderboardservice "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/application"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
)

// Handlers serves leaderboard reads over HTTP and drops cached leaderboards
// when scoring events arrive on the bus.
type Handlers struct {
	service leaderboardservice.Service
	parser  *calendar.DayParser
	clock   calendar.Clock
	logger  *slog.Logger
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(service leaderboardservice.Service, clock calendar.Clock, logger *slog.Logger) *Handlers {
	if clock == nil {
		clock = calendar.RealClock{}
	}
	return &Handlers{
		service: service,
		parser:  calendar.NewDayParser(),
		clock:   clock,
		logger:  logger,
	}
}
