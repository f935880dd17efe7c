package leaderboardqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/Black-And-White-Club/fitleague/pkg/attr"
)

// Warmer is the part of the leaderboard service the warm job drives.
type Warmer interface {
	WarmLeagues(ctx context.Context) (int, error)
}

type WarmRefreshWorker struct {
	river.WorkerDefaults[WarmRefreshJob]

	warmer Warmer
	logger *slog.Logger
}

func NewWarmRefreshWorker(warmer Warmer, logger *slog.Logger) *WarmRefreshWorker {
	return &WarmRefreshWorker{warmer: warmer, logger: logger}
}

func (w *WarmRefreshWorker) Timeout(*river.Job[WarmRefreshJob]) time.Duration {
	return 10 * time.Minute
}

func (w *WarmRefreshWorker) Work(ctx context.Context, job *river.Job[WarmRefreshJob]) error {
	n, err := w.warmer.WarmLeagues(ctx)
	if err != nil {
		return fmt.Errorf("leaderboard warm refresh: %w", err)
	}
	w.logger.InfoContext(ctx, "Warmed leaderboards",
		attr.Int("leagues", n),
		attr.Int64("job_id", job.ID),
	)
	return nil
}

// PeriodicJobs returns the warm-refresh schedule. Only one warm job is queued
// at a time.
func PeriodicJobs(interval time.Duration) []*river.PeriodicJob {
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(interval),
			func() (river.JobArgs, *river.InsertOpts) {
				return WarmRefreshJob{}, &river.InsertOpts{
					Queue:      QueueName,
					UniqueOpts: river.UniqueOpts{ByPeriod: interval},
				}
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}
}
