// Package operation runs application service operations with a span,
// operation metrics, structured logs and panic recovery.
package operation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Black-And-White-Club/fitleague/pkg/attr"
	"github.com/Black-And-White-Club/fitleague/pkg/metrics"
	"github.com/Black-And-White-Club/fitleague/pkg/results"
)

// Scope identifies the service an operation belongs to and the
// instruments it reports through. Tracer and Metrics may be nil.
type Scope struct {
	Service string
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics metrics.OperationMetrics
}

// Func is a service operation body.
type Func[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// Run executes op. Infrastructure errors are wrapped with the operation
// name; domain failures are logged at warn level and returned unchanged.
// A panic in op is recovered and reported as an error.
func Run[S any, F any](ctx context.Context, sc Scope, name, identifier string, op Func[S, F]) (result results.OperationResult[S, F], err error) {
	logger := sc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	span := trace.SpanFromContext(ctx)
	if sc.Tracer != nil {
		ctx, span = sc.Tracer.Start(ctx, name, trace.WithAttributes(
			attribute.String("operation", name),
			attribute.String("identifier", identifier),
		))
	}
	defer span.End()

	if sc.Metrics != nil {
		sc.Metrics.RecordOperationAttempt(ctx, name, sc.Service)
		start := time.Now()
		defer func() {
			sc.Metrics.RecordOperationDuration(ctx, name, sc.Service, time.Since(start))
		}()
	}

	fields := []any{
		attr.ExtractCorrelationID(ctx),
		attr.String("operation", name),
		attr.String("identifier", identifier),
	}
	logger.InfoContext(ctx, "Operation triggered", fields...)

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err = fmt.Errorf("panic in %s: %v", name, r)
		result = results.OperationResult[S, F]{}
		logger.ErrorContext(ctx, "Critical panic recovered", append(fields, attr.Error(err))...)
		span.RecordError(err)
		if sc.Metrics != nil {
			sc.Metrics.RecordOperationFailure(ctx, name, sc.Service)
		}
	}()

	result, err = op(ctx)
	if err != nil {
		err = fmt.Errorf("%s: %w", name, err)
		logger.ErrorContext(ctx, "Operation failed with error", append(fields, attr.Error(err))...)
		span.RecordError(err)
		if sc.Metrics != nil {
			sc.Metrics.RecordOperationFailure(ctx, name, sc.Service)
		}
		return result, err
	}

	if result.IsFailure() {
		logger.WarnContext(ctx, "Operation returned failure result", append(fields, attr.Any("failure_payload", *result.Failure))...)
	} else {
		logger.InfoContext(ctx, "Operation completed successfully", fields...)
	}
	if sc.Metrics != nil {
		sc.Metrics.RecordOperationSuccess(ctx, name, sc.Service)
	}
	return result, nil
}
