package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ServiceName labels every log line and span of the process.
const ServiceName = "rally-league"

// Metrics is the metrics surface used by the standings module. The second
// label of the operation methods names what the operation acted on: a season
// for service calls, "river" for the queue, "router" for handlers.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, subject string)
	RecordOperationSuccess(ctx context.Context, operation, subject string)
	RecordOperationFailure(ctx context.Context, operation, subject string)
	RecordOperationDuration(ctx context.Context, operation, subject string, duration time.Duration)

	RecordMatchRecorded(ctx context.Context, sport, gameType string)
	RecordRatingDelta(ctx context.Context, reason string, delta int)
	RecordRecalculationStatus(ctx context.Context, scope, status string)
	RecordAdminCommand(ctx context.Context, commandType, outcome string)
}

// PrometheusMetrics implements Metrics with client_golang collectors.
type PrometheusMetrics struct {
	attempts      *prometheus.CounterVec
	successes     *prometheus.CounterVec
	failures      *prometheus.CounterVec
	durations     *prometheus.HistogramVec
	matches       *prometheus.CounterVec
	ratingDeltas  *prometheus.HistogramVec
	recalcStatus  *prometheus.CounterVec
	adminCommands *prometheus.CounterVec
}

var _ Metrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics registers the collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	const ns = "league"
	m := &PrometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "operation_attempts_total", Help: "Operations started.",
		}, []string{"operation", "subject"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "operation_success_total", Help: "Operations completed successfully.",
		}, []string{"operation", "subject"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "operation_failure_total", Help: "Operations that returned an error.",
		}, []string{"operation", "subject"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "operation_duration_seconds", Help: "Operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "subject"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "matches_recorded_total", Help: "Finalized matches recorded.",
		}, []string{"sport", "game_type"}),
		ratingDeltas: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "rating_delta", Help: "Rating change per history entry.",
			Buckets: []float64{-40, -20, -10, -5, 0, 5, 10, 20, 40},
		}, []string{"reason"}),
		recalcStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "recalculation_transitions_total", Help: "Recalculation job transitions.",
		}, []string{"scope", "status"}),
		adminCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "admin_commands_total", Help: "Admin commands handled.",
		}, []string{"type", "outcome"}),
	}

	for _, c := range []prometheus.Collector{
		m.attempts, m.successes, m.failures, m.durations,
		m.matches, m.ratingDeltas, m.recalcStatus, m.adminCommands,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, operation, subject string) {
	m.attempts.WithLabelValues(operation, subject).Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, operation, subject string) {
	m.successes.WithLabelValues(operation, subject).Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, operation, subject string) {
	m.failures.WithLabelValues(operation, subject).Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation, subject string, duration time.Duration) {
	m.durations.WithLabelValues(operation, subject).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordMatchRecorded(_ context.Context, sport, gameType string) {
	m.matches.WithLabelValues(sport, gameType).Inc()
}

func (m *PrometheusMetrics) RecordRatingDelta(_ context.Context, reason string, delta int) {
	m.ratingDeltas.WithLabelValues(reason).Observe(float64(delta))
}

func (m *PrometheusMetrics) RecordRecalculationStatus(_ context.Context, scope, status string) {
	m.recalcStatus.WithLabelValues(scope, status).Inc()
}

func (m *PrometheusMetrics) RecordAdminCommand(_ context.Context, commandType, outcome string) {
	m.adminCommands.WithLabelValues(commandType, outcome).Inc()
}

// NoOpMetrics discards everything. Used by tests and CLI one-shots.
type NoOpMetrics struct{}

var _ Metrics = NoOpMetrics{}

func (NoOpMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (NoOpMetrics) RecordMatchRecorded(context.Context, string, string)                    {}
func (NoOpMetrics) RecordRatingDelta(context.Context, string, int)                         {}
func (NoOpMetrics) RecordRecalculationStatus(context.Context, string, string)              {}
func (NoOpMetrics) RecordAdminCommand(context.Context, string, string)                     {}
