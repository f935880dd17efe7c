package leaderboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"

	leaderboardservice "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/application"
	leaderboardcache "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/infrastructure/cache"
	leaderboardhandlers "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/infrastructure/handlers"
	leaderboardqueue "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/infrastructure/queue"
	leaderboarddb "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/infrastructure/repositories"
	leaderboardrouter "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/infrastructure/router"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
	"github.com/Black-And-White-Club/fitleague/app/shared/httpapi"
	"github.com/Black-And-White-Club/fitleague/config"
	"github.com/Black-And-White-Club/fitleague/pkg/eventbus"
	"github.com/Black-And-White-Club/fitleague/pkg/observability"
)

// Module represents the leaderboard module.
type Module struct {
	LeaderboardService leaderboardservice.Service
	LeaderboardRouter  *leaderboardrouter.LeaderboardRouter
	Worker             *leaderboardqueue.WarmRefreshWorker
	handlers           *leaderboardhandlers.Handlers

	cancelFunc    context.CancelFunc
	observability *observability.Observability
}

// NewLeaderboardModule creates a new instance of the Leaderboard module.
func NewLeaderboardModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	eventBus eventbus.EventBus,
	router *message.Router,
	leagues leaderboardservice.LeagueReader,
	submissions leaderboardservice.SubmissionReader,
	awards leaderboardservice.AwardReader,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger.With("module", "leaderboard")
	logger.InfoContext(ctx, "leaderboard.NewLeaderboardModule called")

	perMinute := cfg.Leaderboard.RefreshPerMinute
	limiter := httpapi.NewKeyedRateLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)

	leaderboardService := leaderboardservice.NewLeaderboardService(
		leagues,
		submissions,
		awards,
		leaderboarddb.NewRepository(db),
		leaderboardcache.New(),
		limiter,
		leaderboardservice.Options{
			DefaultMaxStale:  cfg.Leaderboard.DefaultMaxStale,
			ComputeTimeout:   cfg.Leaderboard.ComputeTimeout,
			ComputeHardLimit: cfg.Leaderboard.ComputeHardLimit,
		},
		calendar.RealClock{},
		logger,
		obs.Metrics,
		obs.Tracer,
		db,
	)
	handlers := leaderboardhandlers.NewHandlers(leaderboardService, calendar.RealClock{}, logger)

	leaderboardRouter := leaderboardrouter.NewLeaderboardRouter(logger, router, eventBus, eventBus, obs.Tracer, obs.Registry)
	if err := leaderboardRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure leaderboard router: %w", err)
	}

	return &Module{
		LeaderboardService: leaderboardService,
		LeaderboardRouter:  leaderboardRouter,
		Worker:             leaderboardqueue.NewWarmRefreshWorker(leaderboardService, logger),
		handlers:           handlers,
		observability:      obs,
	}, nil
}

// MountHTTP registers the leaderboard routes.
func (m *Module) MountHTTP(r chi.Router) {
	m.handlers.Mount(r)
}

// Run starts the leaderboard module.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting leaderboard module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Leaderboard module goroutine stopped")
}

// Close stops the leaderboard module and cleans up resources.
func (m *Module) Close() error {
	logger := m.observability.Logger
	logger.Info("Stopping leaderboard module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	logger.Info("Leaderboard module stopped")
	return nil
}
