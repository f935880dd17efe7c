package submissionqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/Black-And-White-Club/fitleague/pkg/attr"
)

// Sweeper is the part of the submission service the sweep job drives.
type Sweeper interface {
	SweepAutoApprovals(ctx context.Context, batchSize int) (int, error)
}

// AutoApprovalWorker runs sweeps until a batch comes back short.
type AutoApprovalWorker struct {
	river.WorkerDefaults[AutoApprovalSweepJob]

	sweeper    Sweeper
	logger     *slog.Logger
	maxBatches int
}

func NewAutoApprovalWorker(sweeper Sweeper, logger *slog.Logger) *AutoApprovalWorker {
	return &AutoApprovalWorker{sweeper: sweeper, logger: logger, maxBatches: 20}
}

func (w *AutoApprovalWorker) Timeout(*river.Job[AutoApprovalSweepJob]) time.Duration {
	return 5 * time.Minute
}

func (w *AutoApprovalWorker) Work(ctx context.Context, job *river.Job[AutoApprovalSweepJob]) error {
	batch := job.Args.BatchSize
	if batch <= 0 {
		batch = 500
	}

	total := 0
	for i := 0; i < w.maxBatches; i++ {
		n, err := w.sweeper.SweepAutoApprovals(ctx, batch)
		total += n
		if err != nil {
			return fmt.Errorf("auto-approval sweep: %w", err)
		}
		if n < batch {
			break
		}
	}

	if total > 0 {
		w.logger.InfoContext(ctx, "Auto-approved stale submissions",
			attr.Int("count", total),
			attr.Int64("job_id", job.ID),
		)
	}
	return nil
}

// PeriodicJobs returns the schedule for the sweep.
func PeriodicJobs(interval time.Duration, batchSize int) []*river.PeriodicJob {
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(interval),
			func() (river.JobArgs, *river.InsertOpts) {
				return AutoApprovalSweepJob{BatchSize: batchSize}, &river.InsertOpts{Queue: QueueName}
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}
}
