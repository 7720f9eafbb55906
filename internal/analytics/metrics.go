package analytics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation label values for analytics metrics.
const (
	opActivity     = "activity"
	opVibes        = "vibes"
	opSuperlatives = "superlatives"
	opOverview     = "overview"
)

// Metric names as constants for consistency.
const (
	MetricAnalyticsRequestsTotal  = "analytics_requests_total"
	MetricAnalyticsErrorsTotal    = "analytics_errors_total"
	MetricAnalyticsDuration       = "analytics_duration_seconds"
	MetricAnalyticsLastComputedAt = "analytics_last_computed_timestamp"
)

// Metrics contains Prometheus metrics for analytics computation.
// All operations are thread-safe.
type Metrics struct {
	requestsTotal  *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	lastComputedAt prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all
// collectors initialized. The metrics are not registered; call Register
// to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricAnalyticsRequestsTotal,
			Help: "Total number of analytics computations by operation",
		}, []string{"operation"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricAnalyticsErrorsTotal,
			Help: "Total number of failed analytics computations by operation",
		}, []string{"operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricAnalyticsDuration,
			Help:    "Histogram of analytics computation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"operation"}),
		lastComputedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricAnalyticsLastComputedAt,
			Help: "Unix timestamp of the last successful analytics computation",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.requestsTotal,
		m.errorsTotal,
		m.duration,
		m.lastComputedAt,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// observe starts timing one operation and returns the completion
// callback. Safe to call on a Service without metrics attached.
func (s *Service) observe(operation string) func(error) {
	if s.metrics == nil {
		return func(error) {}
	}

	start := time.Now()
	return func(err error) {
		m := s.metrics
		m.requestsTotal.WithLabelValues(operation).Inc()
		m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		if err != nil {
			m.errorsTotal.WithLabelValues(operation).Inc()
			return
		}
		m.lastComputedAt.SetToCurrentTime()
	}
}
