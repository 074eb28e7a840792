// ABOUTME: Prometheus collectors for record store traffic and board activity
// ABOUTME: Exposed on /metrics by the web UI and the record store server
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordRequestsTotal counts record store calls by table, operation and outcome.
	RecordRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dealboard",
			Subsystem: "records",
			Name:      "requests_total",
			Help:      "Total number of record store requests by outcome",
		},
		[]string{"table", "operation", "outcome"},
	)

	// RecordRequestDuration tracks record store latency.
	RecordRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dealboard",
			Subsystem: "records",
			Name:      "request_duration_seconds",
			Help:      "Duration of record store requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"table", "operation"},
	)

	// DealMovesTotal counts pipeline stage transitions.
	DealMovesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dealboard",
			Subsystem: "pipeline",
			Name:      "deal_moves_total",
			Help:      "Total number of deal stage moves by target stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	// HTTPRequestsTotal counts inbound HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dealboard",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests",
		},
		[]string{"server", "method", "status_code"},
	)
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomeNoop     = "noop"
)
