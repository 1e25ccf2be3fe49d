package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErasureMetrics holds metrics for whole erasure runs.
type ErasureMetrics struct {
	// RunsTotal tracks completed runs by status.
	RunsTotal *prometheus.CounterVec

	// RunDurationHistogram tracks whole-run wall-clock duration by status.
	// Labels: status (success, failure)
	RunDurationHistogram *prometheus.HistogramVec

	// GuidsTotal tracks unique erasure GUIDs extracted across runs.
	GuidsTotal prometheus.Counter

	// TablesDeletedTotal tracks tables whose delete query succeeded.
	TablesDeletedTotal prometheus.Counter
}

// DefaultRunDurationBuckets cover whole-run durations: a run spans batch
// consumption plus one Athena delete per target table.
var DefaultRunDurationBuckets = []float64{
	1,    // 1s
	5,    // 5s
	15,   // 15s
	30,   // 30s
	60,   // 1m
	300,  // 5m
	600,  // 10m
	1800, // 30m
	3600, // 1h
	7200, // 2h
}

// NewErasureMetrics creates and registers erasure run metrics.
// Uses promauto for automatic registration with the default registry.
func NewErasureMetrics() *ErasureMetrics {
	return &ErasureMetrics{
		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scour",
				Subsystem: "erasure",
				Name:      "runs_total",
				Help:      "Total number of erasure runs, broken down by status.",
			},
			[]string{"status"},
		),
		RunDurationHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "scour",
				Subsystem: "erasure",
				Name:      "run_duration_seconds",
				Help:      "Whole-run wall-clock duration in seconds, broken down by status.",
				Buckets:   DefaultRunDurationBuckets,
			},
			[]string{"status"},
		),
		GuidsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "scour",
				Subsystem: "erasure",
				Name:      "guids_total",
				Help:      "Total number of unique erasure GUIDs extracted.",
			},
		),
		TablesDeletedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "scour",
				Subsystem: "erasure",
				Name:      "tables_deleted_total",
				Help:      "Total number of tables whose delete query succeeded.",
			},
		),
	}
}

// NewErasureMetricsWithRegistry creates erasure metrics registered with a
// custom registry. Useful for testing to avoid conflicts with the default
// registry.
func NewErasureMetricsWithRegistry(reg prometheus.Registerer) *ErasureMetrics {
	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scour",
			Subsystem: "erasure",
			Name:      "runs_total",
			Help:      "Total number of erasure runs, broken down by status.",
		},
		[]string{"status"},
	)

	runDurationHist := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scour",
			Subsystem: "erasure",
			Name:      "run_duration_seconds",
			Help:      "Whole-run wall-clock duration in seconds, broken down by status.",
			Buckets:   DefaultRunDurationBuckets,
		},
		[]string{"status"},
	)

	guidsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scour",
			Subsystem: "erasure",
			Name:      "guids_total",
			Help:      "Total number of unique erasure GUIDs extracted.",
		},
	)

	tablesDeletedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scour",
			Subsystem: "erasure",
			Name:      "tables_deleted_total",
			Help:      "Total number of tables whose delete query succeeded.",
		},
	)

	reg.MustRegister(runsTotal)
	reg.MustRegister(runDurationHist)
	reg.MustRegister(guidsTotal)
	reg.MustRegister(tablesDeletedTotal)

	return &ErasureMetrics{
		RunsTotal:            runsTotal,
		RunDurationHistogram: runDurationHist,
		GuidsTotal:           guidsTotal,
		TablesDeletedTotal:   tablesDeletedTotal,
	}
}

// RecordRun records a finished run with its wall-clock duration.
func (m *ErasureMetrics) RecordRun(durationSeconds float64, success bool) {
	status := StatusFailure
	if success {
		status = StatusSuccess
	}
	m.RunDurationHistogram.WithLabelValues(status).Observe(durationSeconds)
	m.RunsTotal.WithLabelValues(status).Inc()
}

// RecordGuids adds n to the extracted GUID counter.
func (m *ErasureMetrics) RecordGuids(n int) {
	m.GuidsTotal.Add(float64(n))
}

// RecordTableDeleted records one successful per-table delete.
func (m *ErasureMetrics) RecordTableDeleted() {
	m.TablesDeletedTotal.Inc()
}
