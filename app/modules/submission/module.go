package submission

import (
	"context"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"

	leaguedb "github.com/Black-And-White-Club/fitleague/app/modules/league/infrastructure/repositories"
	submissionservice "github.com/Black-And-White-Club/fitleague/app/modules/submission/application"
	submissiondomain "github.com/Black-And-White-Club/fitleague/app/modules/submission/domain"
	submissionhandlers "github.com/Black-And-White-Club/fitleague/app/modules/submission/infrastructure/handlers"
	submissionqueue "github.com/Black-And-White-Club/fitleague/app/modules/submission/infrastructure/queue"
	submissiondb "github.com/Black-And-White-Club/fitleague/app/modules/submission/infrastructure/repositories"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
	"github.com/Black-And-White-Club/fitleague/pkg/eventbus"
	"github.com/Black-And-White-Club/fitleague/pkg/observability"
)

// Module represents the submission module.
type Module struct {
	Service  submissionservice.Service
	Repo     submissiondb.Repository
	Worker   *submissionqueue.AutoApprovalWorker
	handlers *submissionhandlers.Handlers

	cancelFunc    context.CancelFunc
	observability *observability.Observability
}

// NewSubmissionModule creates and initializes a new submission module.
func NewSubmissionModule(
	ctx context.Context,
	obs *observability.Observability,
	eventBus eventbus.EventBus,
	leagues leaguedb.Repository,
	catalog submissiondomain.Catalog,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger.With("module", "submission")
	logger.InfoContext(ctx, "submission.NewSubmissionModule initializing")

	repo := submissiondb.NewRepository(db)
	service := submissionservice.NewSubmissionService(
		repo,
		leagues,
		eventBus,
		catalog,
		calendar.RealClock{},
		logger,
		obs.Metrics,
		obs.Tracer,
		db,
	)

	return &Module{
		Service:       service,
		Repo:          repo,
		Worker:        submissionqueue.NewAutoApprovalWorker(service, logger),
		handlers:      submissionhandlers.NewHandlers(service, logger),
		observability: obs,
	}, nil
}

// MountHTTP registers the submission routes.
func (m *Module) MountHTTP(r chi.Router) {
	m.handlers.Mount(r)
}

// Run blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting submission module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Submission module goroutine stopped")
}

// Close shuts down the submission module.
func (m *Module) Close() error {
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.observability.Logger.Info("Submission module stopped")
	return nil
}
