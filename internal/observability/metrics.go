package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecognitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facegate",
		Name:      "recognitions_total",
		Help:      "Total recognition requests by decision outcome",
	}, []string{"outcome"})

	EnrollmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facegate",
		Name:      "enrollments_total",
		Help:      "Total successful person enrollments",
	})

	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facegate",
		Name:      "auth_failures_total",
		Help:      "Total failed authentication attempts",
	})

	EmbedderRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "facegate",
		Name:      "embedder_request_duration_seconds",
		Help:      "Duration of external embedding service calls",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facegate",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "facegate",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
