package leaderboardservice

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"

	"github.com/Black-And-White-Club/fitleague/pkg/metrics"
	"github.com/Black-And-White-Club/fitleague/pkg/operation"
	"github.com/Black-And-White-Club/fitleague/pkg/results"
)

const serviceName = "LeaderboardService"

func withTelemetry[S any, F any](
	s *LeaderboardService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operation.Func[S, F],
) (results.OperationResult[S, F], error) {
	var m metrics.OperationMetrics
	if s.metrics != nil {
		m = s.metrics
	}
	return operation.Run(ctx, operation.Scope{
		Service: serviceName,
		Logger:  s.logger,
		Tracer:  s.tracer,
		Metrics: m,
	}, operationName, identifier, op)
}

// runInSnapshot runs fn inside a read-only repeatable-read transaction so
// every read sees the same snapshot, or directly when no database is wired.
func runInSnapshot[T any](
	s *LeaderboardService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (T, error),
) (T, error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var out T
	err := s.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		out, txErr = fn(ctx, tx)
		return txErr
	})
	return out, err
}
