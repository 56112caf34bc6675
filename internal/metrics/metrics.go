// Package metrics registers the Prometheus instrumentation of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine and HTTP instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal       *prometheus.CounterVec
	AttemptsTotal   *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	AttemptDuration prometheus.Histogram
	DriversUsed     prometheus.Gauge
	HTTPRequests    *prometheus.CounterVec
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_runs_total",
		Help: "Optimization runs by terminal status.",
	}, []string{"status"})

	m.AttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_attempts_total",
		Help: "Pool-size attempts by outcome.",
	}, []string{"status"})

	m.RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "roster_run_duration_seconds",
		Help:    "Wall-clock duration of optimization runs.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	m.AttemptDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "roster_attempt_duration_seconds",
		Help:    "Wall-clock duration of single solver attempts.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	m.DriversUsed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roster_drivers_used",
		Help: "Driver count of the most recent successful run.",
	})

	m.HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_http_requests_total",
		Help: "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	m.registry.MustRegister(
		m.RunsTotal,
		m.AttemptsTotal,
		m.RunDuration,
		m.AttemptDuration,
		m.DriversUsed,
		m.HTTPRequests,
	)
	return m
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
