// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the model server.
package observability

import "github.com/prometheus/client_golang/prometheus"

// InferenceBuckets are histogram buckets for generation latencies, from
// 100ms to 5 minutes.
var InferenceBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}

var (
	// RequestsTotal counts HTTP requests by method, route pattern and status code.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelserver_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modelserver_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: InferenceBuckets,
		},
		[]string{"method", "route"},
	)

	// GenerationsTotal counts engine generate calls by outcome (success, error).
	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelserver_generations_total",
			Help: "Engine generate calls",
		},
		[]string{"outcome"},
	)

	// GenerationDuration records time spent in the engine, including the wait
	// for the engine to become free.
	GenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "modelserver_generation_duration_seconds",
			Help:    "Engine generate duration",
			Buckets: InferenceBuckets,
		},
	)

	// EngineWaiting tracks generate calls that are queued for or holding the engine.
	EngineWaiting = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelserver_engine_waiting",
			Help: "Generate calls waiting for or holding the engine",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		GenerationsTotal,
		GenerationDuration,
		EngineWaiting,
	)
}
