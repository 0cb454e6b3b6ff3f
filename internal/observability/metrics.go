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
	// Normalization metrics
	TransactionsNormalized *prometheus.CounterVec
	NormalizationErrors    prometheus.Counter
	BatchSize              prometheus.Histogram

	// Currency registry metrics
	CurrencyCacheHits   prometheus.Counter
	CurrencyCacheMisses prometheus.Counter
	CurrencyFetchErrors prometheus.Counter

	// State change metrics
	StateChangeLookups  prometheus.Counter
	StateChangeFailures prometheus.Counter

	// Spam metrics
	SpamListSize      prometheus.Gauge
	SpamTransfers     prometheus.Counter
	SpamListRefreshes prometheus.Counter

	// Node client metrics
	NodeRequestLatency *prometheus.HistogramVec
	NodeRequestErrors  *prometheus.CounterVec

	// Live feed metrics
	FeedMessagesReceived prometheus.Counter
	FeedReconnects       prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "sks_explorer"
	}

	return &Metrics{
		// Normalization metrics
		TransactionsNormalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalizer",
			Name:      "transactions_normalized_total",
			Help:      "Total number of transactions normalized by kind",
		}, []string{"kind"}),
		NormalizationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalizer",
			Name:      "errors_total",
			Help:      "Total number of failed normalizations",
		}),
		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "normalizer",
			Name:      "batch_size",
			Help:      "Number of transactions per batch normalization",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
		}),

		// Currency registry metrics
		CurrencyCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "currency",
			Name:      "cache_hits_total",
			Help:      "Total number of currency registry cache hits",
		}),
		CurrencyCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "currency",
			Name:      "cache_misses_total",
			Help:      "Total number of currency registry cache misses",
		}),
		CurrencyFetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "currency",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed asset detail fetches",
		}),

		// State change metrics
		StateChangeLookups: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state_changes",
			Name:      "lookups_total",
			Help:      "Total number of state change lookups",
		}),
		StateChangeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state_changes",
			Name:      "failures_total",
			Help:      "Total number of state change lookups that failed and were dropped",
		}),

		// Spam metrics
		SpamListSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "spam",
			Name:      "denylist_size",
			Help:      "Current number of asset ids on the spam denylist",
		}),
		SpamTransfers: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "spam",
			Name:      "transfers_flagged_total",
			Help:      "Total number of transfers flagged as spam",
		}),
		SpamListRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "spam",
			Name:      "denylist_refreshes_total",
			Help:      "Total number of spam denylist refreshes",
		}),

		// Node client metrics
		NodeRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "request_latency_seconds",
			Help:      "Node REST request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		NodeRequestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "request_errors_total",
			Help:      "Total number of failed node REST requests by endpoint",
		}, []string{"endpoint"}),

		// Live feed metrics
		FeedMessagesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "messages_received_total",
			Help:      "Total number of blockchain update messages received",
		}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of live feed reconnects",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordNormalized increments the normalized transactions counter.
func RecordNormalized(kind string) {
	DefaultMetrics.TransactionsNormalized.WithLabelValues(kind).Inc()
}

// RecordNormalizationError increments the failed normalizations counter.
func RecordNormalizationError() {
	DefaultMetrics.NormalizationErrors.Inc()
}

// RecordBatch records the size of a batch normalization.
func RecordBatch(size int) {
	DefaultMetrics.BatchSize.Observe(float64(size))
}

// RecordCurrencyLookup records a registry lookup outcome.
func RecordCurrencyLookup(hit bool) {
	if hit {
		DefaultMetrics.CurrencyCacheHits.Inc()
	} else {
		DefaultMetrics.CurrencyCacheMisses.Inc()
	}
}

// RecordCurrencyFetchError increments the failed asset fetch counter.
func RecordCurrencyFetchError() {
	DefaultMetrics.CurrencyFetchErrors.Inc()
}

// RecordStateChangeLookup records a state change lookup and its outcome.
func RecordStateChangeLookup(err error) {
	DefaultMetrics.StateChangeLookups.Inc()
	if err != nil {
		DefaultMetrics.StateChangeFailures.Inc()
	}
}

// UpdateSpamListSize updates the denylist size gauge after a refresh.
func UpdateSpamListSize(size int) {
	DefaultMetrics.SpamListSize.Set(float64(size))
	DefaultMetrics.SpamListRefreshes.Inc()
}

// RecordSpamTransfer increments the flagged transfers counter.
func RecordSpamTransfer() {
	DefaultMetrics.SpamTransfers.Inc()
}

// RecordNodeRequest records node REST request metrics.
func RecordNodeRequest(endpoint string, seconds float64, err error) {
	DefaultMetrics.NodeRequestLatency.WithLabelValues(endpoint).Observe(seconds)
	if err != nil {
		DefaultMetrics.NodeRequestErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordFeedMessage increments the feed messages counter.
func RecordFeedMessage() {
	DefaultMetrics.FeedMessagesReceived.Inc()
}

// RecordFeedReconnect increments the feed reconnects counter.
func RecordFeedReconnect() {
	DefaultMetrics.FeedReconnects.Inc()
}
