// Package metrics defines and registers the Prometheus metrics of the catalog
// client request layer. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry on import; the CLI
// prints them with the `--metrics` flag.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "catalog_client"

// ── Request metrics ───────────────────────────────────────────────────────────

// RequestAttemptsTotal counts individual HTTP attempts.
// Labels:
//   - method: HTTP method
//   - outcome: "ok", "timeout", "unreachable", "http_error", "parse_error", "cancelled", "error"
var RequestAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "request_attempts_total",
		Help:      "Total number of HTTP attempts, by method and outcome.",
	},
	[]string{"method", "outcome"},
)

// RequestRetriesTotal counts retries scheduled after a transient failure.
// Label:
//   - reason: "timeout" or "unreachable"
var RequestRetriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "request_retries_total",
		Help:      "Total number of retries scheduled after transient failures.",
	},
	[]string{"reason"},
)

// RequestDuration measures a logical request end to end, retries included.
// Label:
//   - method: HTTP method
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "Duration of logical requests including retries.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// CircuitBreakerState tracks the breaker state: 0 closed, 1 half-open, 2 open.
var CircuitBreakerState = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "Current circuit breaker state (0 closed, 1 half-open, 2 open).",
	},
)

// ── Edit metrics ──────────────────────────────────────────────────────────────

// CellEditsTotal counts settled cell edits.
// Labels:
//   - field: edited field name
//   - result: "committed", "rolled_back", "unchanged", "invalid"
var CellEditsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cell_edits_total",
		Help:      "Total number of cell edits, by field and result.",
	},
	[]string{"field", "result"},
)

// ImportRecordsTotal counts imported records.
// Label:
//   - result: "ok" or "error"
var ImportRecordsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_records_total",
		Help:      "Total number of records processed by imports.",
	},
	[]string{"result"},
)
