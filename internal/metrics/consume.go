package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StatusSuccess is the label value for successful operations.
const StatusSuccess = "success"

// StatusFailure is the label value for failed operations.
const StatusFailure = "failure"

// ConsumeMetrics holds metrics related to batch consumption.
type ConsumeMetrics struct {
	// BatchesTotal tracks the number of sealed batches.
	BatchesTotal prometheus.Counter

	// BatchSizeHistogram tracks decoded messages per sealed batch.
	BatchSizeHistogram prometheus.Histogram

	// MessagesTotal tracks successfully decoded messages.
	MessagesTotal prometheus.Counter

	// DecodeFailuresTotal tracks messages skipped because their payload
	// was not valid JSON.
	DecodeFailuresTotal prometheus.Counter

	// CommitLatencyHistogram tracks offset commit latencies broken down by
	// status. Labels: status (success, failure)
	CommitLatencyHistogram *prometheus.HistogramVec
}

// DefaultCommitLatencyBuckets are latency buckets for offset commits.
// Commits are a single broker round trip, so the ladder runs from
// sub-millisecond to multi-second worst cases.
var DefaultCommitLatencyBuckets = []float64{
	0.0001, // 0.1ms
	0.0005, // 0.5ms
	0.001,  // 1ms
	0.002,  // 2ms
	0.005,  // 5ms
	0.01,   // 10ms
	0.025,  // 25ms
	0.05,   // 50ms
	0.1,    // 100ms
	0.25,   // 250ms
	0.5,    // 500ms
	1.0,    // 1s
	2.5,    // 2.5s
	5.0,    // 5s
	10.0,   // 10s
}

// DefaultBatchSizeBuckets cover batch sizes from single messages up to the
// default max_messages ceiling.
var DefaultBatchSizeBuckets = []float64{
	1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000,
}

// NewConsumeMetrics creates and registers consume metrics.
// Uses promauto for automatic registration with the default registry.
func NewConsumeMetrics() *ConsumeMetrics {
	return &ConsumeMetrics{
		BatchesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "scour",
				Subsystem: "consume",
				Name:      "batches_total",
				Help:      "Total number of sealed batches.",
			},
		),
		BatchSizeHistogram: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "scour",
				Subsystem: "consume",
				Name:      "batch_size_messages",
				Help:      "Decoded messages per sealed batch.",
				Buckets:   DefaultBatchSizeBuckets,
			},
		),
		MessagesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "scour",
				Subsystem: "consume",
				Name:      "messages_total",
				Help:      "Total number of successfully decoded messages.",
			},
		),
		DecodeFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "scour",
				Subsystem: "consume",
				Name:      "decode_failures_total",
				Help:      "Total number of messages skipped due to undecodable payloads.",
			},
		),
		CommitLatencyHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "scour",
				Subsystem: "consume",
				Name:      "commit_latency_seconds",
				Help:      "Offset commit latency in seconds, broken down by success/failure.",
				Buckets:   DefaultCommitLatencyBuckets,
			},
			[]string{"status"},
		),
	}
}

// NewConsumeMetricsWithRegistry creates consume metrics registered with a
// custom registry. Useful for testing to avoid conflicts with the default
// registry.
func NewConsumeMetricsWithRegistry(reg prometheus.Registerer) *ConsumeMetrics {
	batchesTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scour",
			Subsystem: "consume",
			Name:      "batches_total",
			Help:      "Total number of sealed batches.",
		},
	)

	batchSizeHist := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "scour",
			Subsystem: "consume",
			Name:      "batch_size_messages",
			Help:      "Decoded messages per sealed batch.",
			Buckets:   DefaultBatchSizeBuckets,
		},
	)

	messagesTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scour",
			Subsystem: "consume",
			Name:      "messages_total",
			Help:      "Total number of successfully decoded messages.",
		},
	)

	decodeFailuresTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scour",
			Subsystem: "consume",
			Name:      "decode_failures_total",
			Help:      "Total number of messages skipped due to undecodable payloads.",
		},
	)

	commitLatencyHist := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scour",
			Subsystem: "consume",
			Name:      "commit_latency_seconds",
			Help:      "Offset commit latency in seconds, broken down by success/failure.",
			Buckets:   DefaultCommitLatencyBuckets,
		},
		[]string{"status"},
	)

	reg.MustRegister(batchesTotal)
	reg.MustRegister(batchSizeHist)
	reg.MustRegister(messagesTotal)
	reg.MustRegister(decodeFailuresTotal)
	reg.MustRegister(commitLatencyHist)

	return &ConsumeMetrics{
		BatchesTotal:           batchesTotal,
		BatchSizeHistogram:     batchSizeHist,
		MessagesTotal:          messagesTotal,
		DecodeFailuresTotal:    decodeFailuresTotal,
		CommitLatencyHistogram: commitLatencyHist,
	}
}

// RecordBatch records a sealed batch and its decoded message count.
func (m *ConsumeMetrics) RecordBatch(size int) {
	m.BatchesTotal.Inc()
	m.BatchSizeHistogram.Observe(float64(size))
}

// RecordMessages adds n to the decoded message counter.
func (m *ConsumeMetrics) RecordMessages(n int) {
	m.MessagesTotal.Add(float64(n))
}

// RecordDecodeFailure records a message skipped for an undecodable payload.
func (m *ConsumeMetrics) RecordDecodeFailure() {
	m.DecodeFailuresTotal.Inc()
}

// RecordCommit records an offset commit latency.
// duration is in seconds, success indicates whether the commit succeeded.
func (m *ConsumeMetrics) RecordCommit(durationSeconds float64, success bool) {
	status := StatusFailure
	if success {
		status = StatusSuccess
	}
	m.CommitLatencyHistogram.WithLabelValues(status).Observe(durationSeconds)
}
