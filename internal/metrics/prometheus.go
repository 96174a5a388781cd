package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector on a private Prometheus registry.
type PrometheusCollector struct {
	spawned   *prometheus.CounterVec
	crashed   *prometheus.CounterVec
	recovered *prometheus.CounterVec
	calls     *prometheus.HistogramVec
	mutants   *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewPrometheusCollector creates and registers all metrics under namespace.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	if namespace == "" {
		namespace = "crucible"
	}

	pc := &PrometheusCollector{registry: prometheus.NewRegistry()}

	pc.spawned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_spawned_total",
			Help:      "Worker processes started",
		},
		[]string{"kind"},
	)

	pc.crashed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_crashed_total",
			Help:      "Worker processes that died unexpectedly",
		},
		[]string{"kind", "reason"},
	)

	pc.recovered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_recovered_total",
			Help:      "Worker dispose-and-recreate cycles",
		},
		[]string{"kind", "reason"},
	)

	pc.calls = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "worker_call_duration_seconds",
			Help:      "Duration of worker RPC calls",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"kind", "method", "status"},
	)

	pc.mutants = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mutant_duration_seconds",
			Help:      "Time to reach a verdict per mutant",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	pc.registry.MustRegister(pc.spawned, pc.crashed, pc.recovered, pc.calls, pc.mutants)

	return pc
}

// WorkerSpawned implements Collector.
func (pc *PrometheusCollector) WorkerSpawned(kind string) {
	pc.spawned.WithLabelValues(kind).Inc()
}

// WorkerCrashed implements Collector.
func (pc *PrometheusCollector) WorkerCrashed(kind, reason string) {
	pc.crashed.WithLabelValues(kind, reason).Inc()
}

// WorkerRecovered implements Collector.
func (pc *PrometheusCollector) WorkerRecovered(kind, reason string) {
	pc.recovered.WithLabelValues(kind, reason).Inc()
}

// CallCompleted implements Collector.
func (pc *PrometheusCollector) CallCompleted(kind, method string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	pc.calls.WithLabelValues(kind, method, status).Observe(duration.Seconds())
}

// MutantCompleted implements Collector.
func (pc *PrometheusCollector) MutantCompleted(status string, duration time.Duration) {
	pc.mutants.WithLabelValues(status).Observe(duration.Seconds())
}

// Registry returns the registry for HTTP exposure.
func (pc *PrometheusCollector) Registry() *prometheus.Registry {
	return pc.registry
}

var _ Collector = (*PrometheusCollector)(nil)
