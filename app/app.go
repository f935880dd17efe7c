// Package app assembles the modules, the event router, the scheduler and the
// HTTP API into one process.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/Black-And-White-Club/fitleague/app/modules/challenge"
	"github.com/Black-And-White-Club/fitleague/app/modules/leaderboard"
	leaguedb "github.com/Black-And-White-Club/fitleague/app/modules/league/infrastructure/repositories"
	"github.com/Black-And-White-Club/fitleague/app/modules/submission"
	submissiondomain "github.com/Black-And-White-Club/fitleague/app/modules/submission/domain"
	"github.com/Black-And-White-Club/fitleague/app/scheduler"
	"github.com/Black-And-White-Club/fitleague/config"
	"github.com/Black-And-White-Club/fitleague/pkg/attr"
	"github.com/Black-And-White-Club/fitleague/pkg/eventbus"
	"github.com/Black-And-White-Club/fitleague/pkg/observability"
)

// App holds every long-lived component of the service.
type App struct {
	Config        *config.Config
	Observability *observability.Observability
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        *message.Router

	SubmissionModule  *submission.Module
	ChallengeModule   *challenge.Module
	LeaderboardModule *leaderboard.Module
	Scheduler         *scheduler.Service

	server *http.Server
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewApp connects to Postgres and the event bus and builds every module.
func NewApp(ctx context.Context, cfg *config.Config, obs *observability.Observability) (*App, error) {
	logger := obs.Logger
	app := &App{Config: cfg, Observability: obs, logger: logger}

	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}

	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	app.DB = bun.NewDB(pgdb, pgdialect.New())
	if err := app.DB.PingContext(ctx); err != nil {
		app.DB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.NATS.URL == "" {
		logger.WarnContext(ctx, "No NATS URL configured, using in-memory event bus")
		app.EventBus = eventbus.NewInMemoryEventBus(logger)
	} else {
		app.EventBus, err = eventbus.NewNATSEventBus(ctx, cfg.NATS.URL, cfg.NATS.DurablePrefix, logger)
		if err != nil {
			app.DB.Close()
			return nil, fmt.Errorf("failed to create event bus: %w", err)
		}
	}

	app.Router, err = message.NewRouter(message.RouterConfig{CloseTimeout: 5 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}

	if err := app.initModules(ctx, catalog); err != nil {
		app.closeInfra()
		return nil, err
	}

	app.Scheduler, err = scheduler.NewService(ctx, app.DB, logger, cfg.Postgres.DSN, obs.Metrics, scheduler.Options{
		SweepInterval:  cfg.Queue.SweepInterval,
		SweepBatchSize: cfg.Queue.SweepBatchSize,
		WarmInterval:   cfg.Leaderboard.WarmInterval,
		MaxWorkers:     cfg.Queue.MaxWorkers,
	}, scheduler.Workers{
		AutoApproval: app.SubmissionModule.Worker,
		WarmRefresh:  app.LeaderboardModule.Worker,
	})
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	app.server = &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           app.httpHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return app, nil
}

func (app *App) initModules(ctx context.Context, catalog submissiondomain.Catalog) error {
	leagues := leaguedb.NewRepository(app.DB)

	var err error
	app.SubmissionModule, err = submission.NewSubmissionModule(ctx, app.Observability, app.EventBus, leagues, catalog, app.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize submission module: %w", err)
	}

	app.ChallengeModule, err = challenge.NewChallengeModule(ctx, app.Observability, app.EventBus, leagues, app.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize challenge module: %w", err)
	}

	app.LeaderboardModule, err = leaderboard.NewLeaderboardModule(
		ctx,
		app.Config,
		app.Observability,
		app.EventBus,
		app.Router,
		leagues,
		app.SubmissionModule.Repo,
		app.ChallengeModule.Repo,
		app.DB,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize leaderboard module: %w", err)
	}
	return nil
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails.
func (app *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	app.wg.Add(3)
	go app.SubmissionModule.Run(ctx, &app.wg)
	go app.ChallengeModule.Run(ctx, &app.wg)
	go app.LeaderboardModule.Run(ctx, &app.wg)

	go func() {
		if err := app.Router.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("watermill router stopped: %w", err)
		}
	}()

	if err := app.Scheduler.Start(ctx); err != nil {
		return err
	}

	go func() {
		app.logger.InfoContext(ctx, "HTTP server listening", attr.String("address", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server stopped: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops accepting requests, drains background work and releases
// connections.
func (app *App) Close(ctx context.Context) error {
	var errs []error

	if app.server != nil {
		if err := app.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if app.Scheduler != nil {
		if err := app.Scheduler.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	for _, m := range []interface{ Close() error }{app.LeaderboardModule, app.ChallengeModule, app.SubmissionModule} {
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.wg.Wait()

	app.closeInfra()
	app.logger.Info("Application shut down")
	return errors.Join(errs...)
}

func (app *App) closeInfra() {
	if app.Router != nil {
		if err := app.Router.Close(); err != nil {
			app.logger.Error("Failed to close watermill router", attr.Error(err))
		}
	}
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			app.logger.Error("Failed to close event bus", attr.Error(err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.logger.Error("Failed to close database", attr.Error(err))
		}
	}
}
