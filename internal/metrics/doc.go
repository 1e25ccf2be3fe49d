// Package metrics provides Prometheus metrics for observability.
//
// This package exposes metrics for the erasure pipeline including:
//   - Sealed batch counts and batch size distribution
//   - Decoded message and decode-failure counters
//   - Offset commit latency broken down by success/failure
//   - Athena query duration and outcome (success, failure, timeout)
//   - Query status poll counter
//   - Whole-run duration and outcome, extracted GUID and deleted table counters
//   - Object store (audit receipt) operation latency and bytes written
//
// Metrics are exposed via a dedicated HTTP server on /metrics in Prometheus
// format; the same listener answers /healthz while a run is in progress.
//
// Usage:
//
//	// Create and register metrics
//	consumeMetrics := metrics.NewConsumeMetrics()
//	queryMetrics := metrics.NewQueryMetrics()
//	erasureMetrics := metrics.NewErasureMetrics()
//
//	// Wire into components
//	consumer := consume.New(client, cfg, consume.WithMetrics(consumeMetrics))
//	executor := athena.NewExecutor(api, athena.WithMetrics(queryMetrics))
//
//	// Start metrics server
//	metricsServer := metrics.NewServer(":9090")
//	metricsServer.Start()
package metrics
