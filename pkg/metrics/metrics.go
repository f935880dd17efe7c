package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fitleague"

// OperationMetrics is the contract every service and worker records against.
type OperationMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// LeaderboardMetrics adds cache and compute observations on top of the
// operation counters.
type LeaderboardMetrics interface {
	OperationMetrics
	RecordCacheHit(ctx context.Context, mode string)
	RecordCacheMiss(ctx context.Context, mode string)
	RecordStaleServe(ctx context.Context, mode string)
	RecordComputeDuration(ctx context.Context, mode string, duration time.Duration)
	RecordRefreshThrottled(ctx context.Context)
}

type prometheusMetrics struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec

	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	staleServes    *prometheus.CounterVec
	computeSeconds *prometheus.HistogramVec
	throttled      prometheus.Counter
}

// NewPrometheus registers the operation and leaderboard collectors on reg.
// The returned value satisfies both OperationMetrics and LeaderboardMetrics.
func NewPrometheus(reg prometheus.Registerer) LeaderboardMetrics {
	m := &prometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_attempts_total",
			Help:      "Service operations started, by operation and service.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_success_total",
			Help:      "Service operations that completed without an infrastructure fault.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Service operations that returned an infrastructure fault or panicked.",
		}, []string{"operation", "service"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "cache_hits_total",
			Help:      "Leaderboard reads served from cache.",
		}, []string{"mode"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "cache_misses_total",
			Help:      "Leaderboard reads that required a recompute.",
		}, []string{"mode"}),
		staleServes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "stale_serves_total",
			Help:      "Leaderboard reads answered with a stale payload after a compute timeout.",
		}, []string{"mode"}),
		computeSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "compute_duration_seconds",
			Help:      "Time spent aggregating and ranking a leaderboard.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"mode"}),
		throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "refresh_throttled_total",
			Help:      "Forced refresh requests rejected by the per-league limiter.",
		}),
	}
	reg.MustRegister(
		m.attempts, m.successes, m.failures, m.duration,
		m.cacheHits, m.cacheMisses, m.staleServes, m.computeSeconds, m.throttled,
	)
	return m
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, d time.Duration) {
	m.duration.WithLabelValues(operation, service).Observe(d.Seconds())
}

func (m *prometheusMetrics) RecordCacheHit(_ context.Context, mode string) {
	m.cacheHits.WithLabelValues(mode).Inc()
}

func (m *prometheusMetrics) RecordCacheMiss(_ context.Context, mode string) {
	m.cacheMisses.WithLabelValues(mode).Inc()
}

func (m *prometheusMetrics) RecordStaleServe(_ context.Context, mode string) {
	m.staleServes.WithLabelValues(mode).Inc()
}

func (m *prometheusMetrics) RecordComputeDuration(_ context.Context, mode string, d time.Duration) {
	m.computeSeconds.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *prometheusMetrics) RecordRefreshThrottled(_ context.Context) {
	m.throttled.Inc()
}
