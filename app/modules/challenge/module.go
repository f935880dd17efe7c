package challenge

import (
	"context"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"

	challengeservice "github.com/Black-And-White-Club/fitleague/app/modules/challenge/application"
	challengehandlers "github.com/Black-And-White-Club/fitleague/app/modules/challenge/infrastructure/handlers"
	challengedb "github.com/Black-And-White-Club/fitleague/app/modules/challenge/infrastructure/repositories"
	leaguedb "github.com/Black-And-White-Club/fitleague/app/modules/league/infrastructure/repositories"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
	"github.com/Black-And-White-Club/fitleague/pkg/eventbus"
	"github.com/Black-And-White-Club/fitleague/pkg/observability"
)

// Module represents the challenge module.
type Module struct {
	Service  challengeservice.Service
	Repo     challengedb.Repository
	handlers *challengehandlers.Handlers

	cancelFunc    context.CancelFunc
	observability *observability.Observability
}

// NewChallengeModule creates and initializes a new challenge module.
func NewChallengeModule(
	ctx context.Context,
	obs *observability.Observability,
	eventBus eventbus.EventBus,
	leagues leaguedb.Repository,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger.With("module", "challenge")
	logger.InfoContext(ctx, "challenge.NewChallengeModule initializing")

	repo := challengedb.NewRepository(db)
	service := challengeservice.NewChallengeService(
		repo,
		leagues,
		eventBus,
		calendar.RealClock{},
		logger,
		obs.Metrics,
		obs.Tracer,
		db,
	)

	return &Module{
		Service:       service,
		Repo:          repo,
		handlers:      challengehandlers.NewHandlers(service, logger),
		observability: obs,
	}, nil
}

// MountHTTP registers the challenge routes.
func (m *Module) MountHTTP(r chi.Router) {
	m.handlers.Mount(r)
}

// Run blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	m.observability.Logger.InfoContext(ctx, "Challenge module goroutine stopped")
}

// Close shuts down the challenge module.
func (m *Module) Close() error {
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
