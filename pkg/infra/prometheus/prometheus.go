package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	latencyBuckets = []float64{
		1, 5, 10, 25,
		50, 100, 250,
		500, 1000, 2500,
		5000, 10000,
	}

	riskBuckets = []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}

	ProxyRequestTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatekeeper_requests_total",
			Help: "Total number of proxied requests",
		},
		[]string{"method", "status"},
	)

	ProxyRequestLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatekeeper_latency_ms",
			Help:    "Request latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"type"}, // "total", "evaluation" or "upstream"
	)

	DecisionsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatekeeper_decisions_total",
			Help: "Gatekeeper decisions by outcome and threat type",
		},
		[]string{"outcome", "threat_type"},
	)

	RiskScore = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gatekeeper_risk_score",
			Help:    "Distribution of composite risk scores",
			Buckets: riskBuckets,
		},
	)

	BlocksCreated = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatekeeper_blocks_created_total",
			Help: "IP blocks created by reason",
		},
		[]string{"reason"},
	)

	ActiveBlocks = promauto.With(registerer).NewGauge(
		prometheus.GaugeOpts{
			Name: "gatekeeper_active_blocks",
			Help: "Number of unexpired IP blocks",
		},
	)

	GeoLookups = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatekeeper_geo_lookups_total",
			Help: "Geo policy checks by source",
		},
		[]string{"source"},
	)

	AuditEvents = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatekeeper_audit_events_total",
			Help: "Audit events written per sink and status",
		},
		[]string{"sink", "status"},
	)

	AuditDropped = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "gatekeeper_audit_dropped_total",
			Help: "Audit events dropped because the queue was full",
		},
	)

	Faults = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "gatekeeper_faults_total",
			Help: "Evaluations that recovered from an internal fault",
		},
	)
)

type MetricsConfig struct {
	Enabled bool
}

var Config MetricsConfig

func Initialize(cfg MetricsConfig) {
	Config = cfg
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}

func Registry() *prometheus.Registry {
	return registry
}
