package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	commonLabels = []string{"event_id"}

	// Latency buckets in milliseconds
	latencyBuckets = []float64{
		5, 10, 25,
		50, 100, 250,
		500, 1000, 2500,
		5000, 10000, 30000,
	}

	RequestTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventgate_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	RequestLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventgate_latency_ms",
			Help:    "Request latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"method", "path"},
	)

	SubmissionTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventgate_submissions_total",
			Help: "Registration submissions by outcome",
		},
		append(commonLabels, "outcome"),
	)

	ActiveConnections = promauto.With(registerer).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eventgate_connections",
			Help: "Number of active connections",
		},
		[]string{"state"},
	)
)

type MetricsConfig struct {
	EnableLatency     bool
	EnablePerEvent    bool // per-event submission counters (higher cardinality)
	EnableConnections bool
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		EnableLatency:     true,
		EnablePerEvent:    false,
		EnableConnections: false,
	}
}

var Config MetricsConfig

func Initialize(cfg MetricsConfig) {
	Config = cfg
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}
