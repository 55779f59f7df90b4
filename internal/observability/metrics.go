// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Import metrics
	StatementsImported *prometheus.CounterVec
	TradeRowsParsed    prometheus.Counter
	ParseErrors        prometheus.Counter
	ImportDuration     prometheus.Histogram

	// Matching metrics
	ClosedTradesMatched prometheus.Counter
	MatchAnomalies      *prometheus.CounterVec
	OpenLots            prometheus.Gauge

	// Reconciliation metrics
	ReconciliationWarnings prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "statement_pnl_lab"
	}

	return &Metrics{
		StatementsImported: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "statements_imported_total",
			Help:      "Total number of statements imported, by broker",
		}, []string{"broker"}),
		TradeRowsParsed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "trade_rows_parsed_total",
			Help:      "Total number of trade rows parsed across all imports",
		}),
		ParseErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "parse_errors_total",
			Help:      "Total number of statement rows that failed validation",
		}),
		ImportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "End-to-end statement import duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ClosedTradesMatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "closed_trades_total",
			Help:      "Total number of FIFO match fragments produced",
		}),
		MatchAnomalies: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "anomalies_total",
			Help:      "Total number of match anomalies, by type",
		}, []string{"type"}),
		OpenLots: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "open_lots",
			Help:      "Open lots remaining after the most recent import",
		}),
		ReconciliationWarnings: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "warnings_total",
			Help:      "Total number of unreconcilable statement totals",
		}),
	}
}

// Handler returns the HTTP handler for the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
