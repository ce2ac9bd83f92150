package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fraudwatch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Review flow metrics
	ReviewSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudwatch_review_saves_total",
			Help: "Total number of review save attempts",
		},
		[]string{"result"},
	)

	TransactionFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudwatch_transaction_fetches_total",
			Help: "Total number of transaction list fetches",
		},
		[]string{"result"},
	)

	SupersededFetchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fraudwatch_superseded_fetches_total",
			Help: "Fetches whose results were discarded by a newer request",
		},
	)

	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudwatch_exports_total",
			Help: "Total number of export downloads",
		},
		[]string{"format"},
	)

	// System metrics
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fraudwatch_database_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"operation", "table"},
	)

	ChangeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudwatch_change_events_total",
			Help: "Row-change events published to subscribers",
		},
		[]string{"table", "kind"},
	)
)

// RecordHTTPRequest records metrics for an HTTP request
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordReviewSave records the outcome of a review save attempt
func RecordReviewSave(result string) {
	ReviewSavesTotal.WithLabelValues(result).Inc()
}

// RecordFetch records the outcome of a transaction list fetch
func RecordFetch(result string) {
	TransactionFetchesTotal.WithLabelValues(result).Inc()
}

// RecordQueryDuration records a database query duration
func RecordQueryDuration(operation, table string, duration time.Duration) {
	DatabaseQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}
