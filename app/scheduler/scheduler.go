// Package scheduler runs the background jobs: the auto-approval sweep and
// the leaderboard warm refresh.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"

	leaderboardqueue "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/infrastructure/queue"
	submissionqueue "github.com/Black-And-White-Club/fitleague/app/modules/submission/infrastructure/queue"
	"github.com/Black-And-White-Club/fitleague/pkg/attr"
	"github.com/Black-And-White-Club/fitleague/pkg/metrics"
)

const serviceName = "river"

// Options configure the job schedule.
type Options struct {
	SweepInterval  time.Duration
	SweepBatchSize int
	WarmInterval   time.Duration
	MaxWorkers     int
}

// Workers are the job handlers the scheduler runs.
type Workers struct {
	AutoApproval *submissionqueue.AutoApprovalWorker
	WarmRefresh  *leaderboardqueue.WarmRefreshWorker
}

// Service owns the River client.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	db      *bun.DB
	metrics metrics.OperationMetrics
}

// NewService creates a River client on its own pgx pool; River requires pgx
// rather than database/sql.
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, m metrics.OperationMetrics, opts Options, workers Workers) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_scheduler"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	m.RecordOperationAttempt(ctx, "initialize_service", serviceName)

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		m.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		m.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to ping database for River", attr.Error(err))
		m.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	client, err := river.NewClient(riverpgxv5.New(pool), riverConfig(opts, workers, logger))
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		m.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	m.RecordOperationSuccess(ctx, "initialize_service", serviceName)
	m.RecordOperationDuration(ctx, "initialize_service", serviceName, time.Since(start))
	ctxLogger.Info("Scheduler initialized")

	return &Service{client: client, pool: pool, logger: ctxLogger, db: bunDB, metrics: m}, nil
}

func riverConfig(opts Options, workers Workers, logger *slog.Logger) *river.Config {
	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	registry := river.NewWorkers()
	river.AddWorker(registry, workers.AutoApproval)
	river.AddWorker(registry, workers.WarmRefresh)

	var periodic []*river.PeriodicJob
	periodic = append(periodic, submissionqueue.PeriodicJobs(opts.SweepInterval, opts.SweepBatchSize)...)
	periodic = append(periodic, leaderboardqueue.PeriodicJobs(opts.WarmInterval)...)

	return &river.Config{
		Logger: logger,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault:         {MaxWorkers: 1},
			submissionqueue.QueueName:  {MaxWorkers: maxWorkers},
			leaderboardqueue.QueueName: {MaxWorkers: maxWorkers},
		},
		Workers:      registry,
		PeriodicJobs: periodic,
	}
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "start_service", serviceName)

	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "start_service", serviceName)
		return fmt.Errorf("failed to start River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "start_service", serviceName)
	s.metrics.RecordOperationDuration(ctx, "start_service", serviceName, time.Since(start))
	s.logger.Info("Scheduler started")
	return nil
}

// Stop waits for running jobs and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "stop_service", serviceName)
	defer s.pool.Close()

	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", serviceName)
		return fmt.Errorf("failed to stop River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "stop_service", serviceName)
	s.logger.Info("Scheduler stopped")
	return nil
}

// HealthCheck verifies the job table is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("river client is nil")
	}

	var count int
	err := s.db.NewSelect().
		Table("river_job").
		ColumnExpr("COUNT(*)").
		Scan(ctx, &count)
	if err != nil {
		s.logger.Error("Scheduler health check failed", attr.Error(err))
		return fmt.Errorf("scheduler health check failed: %w", err)
	}

	s.logger.Debug("Scheduler health check passed", attr.Int("total_jobs", count))
	return nil
}
