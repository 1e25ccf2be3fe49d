package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StatusTimeout is the label value for queries that exceeded the
// configured wall-clock timeout while still running server-side.
const StatusTimeout = "timeout"

// QueryMetrics holds metrics related to Athena query execution.
type QueryMetrics struct {
	// DurationHistogram tracks wall-clock query duration from submission to
	// terminal state, broken down by outcome.
	// Labels: status (success, failure, timeout)
	DurationHistogram *prometheus.HistogramVec

	// QueriesTotal tracks submitted queries by outcome.
	QueriesTotal *prometheus.CounterVec

	// PollsTotal tracks status poll round trips.
	PollsTotal prometheus.Counter
}

// DefaultQueryDurationBuckets are duration buckets for Athena queries.
// Deletes against Iceberg tables run from seconds to the better part of an
// hour, so the ladder is second-scale rather than the millisecond ladders
// used for broker round trips.
var DefaultQueryDurationBuckets = []float64{
	1,    // 1s
	5,    // 5s
	15,   // 15s
	30,   // 30s
	60,   // 1m
	120,  // 2m
	300,  // 5m
	600,  // 10m
	1200, // 20m
	1800, // 30m
	3600, // 1h
}

// NewQueryMetrics creates and registers query metrics.
// Uses promauto for automatic registration with the default registry.
func NewQueryMetrics() *QueryMetrics {
	return &QueryMetrics{
		DurationHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "scour",
				Subsystem: "query",
				Name:      "duration_seconds",
				Help:      "Query wall-clock duration in seconds, broken down by outcome.",
				Buckets:   DefaultQueryDurationBuckets,
			},
			[]string{"status"},
		),
		QueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scour",
				Subsystem: "query",
				Name:      "queries_total",
				Help:      "Total number of submitted queries, broken down by outcome.",
			},
			[]string{"status"},
		),
		PollsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "scour",
				Subsystem: "query",
				Name:      "polls_total",
				Help:      "Total number of query status polls.",
			},
		),
	}
}

// NewQueryMetricsWithRegistry creates query metrics registered with a custom
// registry. Useful for testing to avoid conflicts with the default registry.
func NewQueryMetricsWithRegistry(reg prometheus.Registerer) *QueryMetrics {
	durationHist := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scour",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Query wall-clock duration in seconds, broken down by outcome.",
			Buckets:   DefaultQueryDurationBuckets,
		},
		[]string{"status"},
	)

	queriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scour",
			Subsystem: "query",
			Name:      "queries_total",
			Help:      "Total number of submitted queries, broken down by outcome.",
		},
		[]string{"status"},
	)

	pollsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scour",
			Subsystem: "query",
			Name:      "polls_total",
			Help:      "Total number of query status polls.",
		},
	)

	reg.MustRegister(durationHist)
	reg.MustRegister(queriesTotal)
	reg.MustRegister(pollsTotal)

	return &QueryMetrics{
		DurationHistogram: durationHist,
		QueriesTotal:      queriesTotal,
		PollsTotal:        pollsTotal,
	}
}

// RecordQuery records a finished query with its wall-clock duration.
// status should be one of StatusSuccess, StatusFailure, or StatusTimeout.
func (m *QueryMetrics) RecordQuery(durationSeconds float64, status string) {
	m.DurationHistogram.WithLabelValues(status).Observe(durationSeconds)
	m.QueriesTotal.WithLabelValues(status).Inc()
}

// RecordPoll records a single status poll round trip.
func (m *QueryMetrics) RecordPoll() {
	m.PollsTotal.Inc()
}
