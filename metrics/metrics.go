package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "chat"
	subsystem = "backend"
)

var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint", "status"},
	)

	ConversationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "conversations_created_total",
			Help:      "Total conversations created",
		},
	)

	MessagesAppendedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_appended_total",
			Help:      "Total messages appended to conversations",
		},
		[]string{"author"},
	)

	// outcome is "created" or "updated"
	SummariesUpsertedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "summaries_upserted_total",
			Help:      "Total summary upserts by outcome",
		},
		[]string{"outcome"},
	)

	// Store failures surfaced to clients as 500
	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "store_errors_total",
			Help:      "Total persistence failures by route",
		},
		[]string{"route"},
	)
)

// RecordRequest records a completed HTTP request
func RecordRequest(method, endpoint, status string, durationSeconds float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(durationSeconds)
}

// RecordMessageAppended counts an appended message by author
func RecordMessageAppended(isFromUser bool) {
	author := "system"
	if isFromUser {
		author = "user"
	}
	MessagesAppendedTotal.WithLabelValues(author).Inc()
}

// RecordSummaryUpsert counts a summary upsert by outcome
func RecordSummaryUpsert(created bool) {
	outcome := "updated"
	if created {
		outcome = "created"
	}
	SummariesUpsertedTotal.WithLabelValues(outcome).Inc()
}
