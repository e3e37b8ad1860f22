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
	// Lifecycle metrics
	OffersCreated prometheus.Counter
	OffersDeleted prometheus.Counter
	OfferToggles  prometheus.Counter

	// Settlement metrics
	NoticesReceived    prometheus.Counter
	NoticesIgnored     prometheus.Counter
	SettlementsSettled prometheus.Counter
	SettlementAborts   *prometheus.CounterVec
	SettlementLatency  prometheus.Histogram
	JournalErrors      prometheus.Counter

	// Feed metrics
	FeedFramesDropped *prometheus.CounterVec
	FeedReconnects    prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "nice1swapper"
	}

	return &Metrics{
		// Lifecycle metrics
		OffersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "offers_created_total",
			Help:      "Total number of offers created",
		}),
		OffersDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "offers_deleted_total",
			Help:      "Total number of offers deleted",
		}),
		OfferToggles: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "offer_toggles_total",
			Help:      "Total number of active-flag toggles",
		}),

		// Settlement metrics
		NoticesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "notices_received_total",
			Help:      "Total number of inbound transfer notifications handled",
		}),
		NoticesIgnored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "notices_ignored_total",
			Help:      "Total number of notifications addressed to other accounts",
		}),
		SettlementsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "settlements_settled_total",
			Help:      "Total number of settlements that emitted an outbound transfer",
		}),
		SettlementAborts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "settlement_aborts_total",
			Help:      "Total number of aborted settlements by reason",
		}, []string{"reason"}),
		SettlementLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "settlement_latency_seconds",
			Help:      "Settlement handling latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		JournalErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "journal_errors_total",
			Help:      "Total number of failed journal writes",
		}),

		// Feed metrics
		FeedFramesDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "frames_dropped_total",
			Help:      "Total number of feed frames dropped by reason",
		}, []string{"reason"}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of websocket reconnects",
		}),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
