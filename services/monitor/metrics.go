package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "profilewatch"

// Metrics holds all Prometheus metrics for batch monitoring
type Metrics struct {
	Profiles        *prometheus.CounterVec
	Failures        *prometheus.CounterVec
	Batches         *prometheus.CounterVec
	PublishFailures prometheus.Counter
	ProfileDuration prometheus.Histogram
	BatchesInFlight prometheus.Gauge
}

// NewMetrics creates the batch metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Profiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "profiles_total",
				Help:      "Profiles extracted and classified, by status",
			},
			[]string{"status"},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "profile_failures_total",
				Help:      "Profiles skipped or batches aborted, by error type",
			},
			[]string{"type"},
		),
		Batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "batches_total",
				Help:      "Monitoring batches, by result",
			},
			[]string{"result"},
		),
		PublishFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "publish_failures_total",
				Help:      "Snapshots that could not be published to the stream",
			},
		),
		ProfileDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "profile_duration_seconds",
				Help:      "Time spent extracting one profile",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80},
			},
		),
		BatchesInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "batches_in_flight",
				Help:      "Batches currently running",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.Profiles,
			m.Failures,
			m.Batches,
			m.PublishFailures,
			m.ProfileDuration,
			m.BatchesInFlight,
		)
	}
	return m
}
