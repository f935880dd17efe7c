package metrics

import (
	"context"
	"time"
)

// NoOp discards every observation. Used by tests and when metrics are disabled.
type NoOp struct{}

func NewNoop() *NoOp { return &NoOp{} }

func (NoOp) RecordOperationAttempt(context.Context, string, string)                 {}
func (NoOp) RecordOperationSuccess(context.Context, string, string)                 {}
func (NoOp) RecordOperationFailure(context.Context, string, string)                 {}
func (NoOp) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (NoOp) RecordCacheHit(context.Context, string)                                 {}
func (NoOp) RecordCacheMiss(context.Context, string)                                {}
func (NoOp) RecordStaleServe(context.Context, string)                               {}
func (NoOp) RecordComputeDuration(context.Context, string, time.Duration)           {}
func (NoOp) RecordRefreshThrottled(context.Context)                                 {}

var _ LeaderboardMetrics = NoOp{}
