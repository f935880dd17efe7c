package submissionservice

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"

	"github.com/Black-And-White-Club/fitleague/pkg/operation"
	"github.com/Black-And-White-Club/fitleague/pkg/results"
)

const serviceName = "SubmissionService"

func withTelemetry[S any, F any](
	s *SubmissionService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operation.Func[S, F],
) (results.OperationResult[S, F], error) {
	return operation.Run(ctx, operation.Scope{
		Service: serviceName,
		Logger:  s.logger,
		Tracer:  s.tracer,
		Metrics: s.metrics,
	}, operationName, identifier, op)
}

// runInTx runs fn inside a transaction, or directly when no database is wired.
func runInTx[S any, F any](
	s *SubmissionService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})
	return result, err
}
