package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/scour-io/scour/internal/aggregate"
	"github.com/scour-io/scour/internal/athena"
	"github.com/scour-io/scour/internal/logging"
	"github.com/scour-io/scour/internal/metrics"
)

func runAggregate(args []string) {
	fs := flag.NewFlagSet("aggregate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	date := fs.String("date", "", "Rollup date as YYYY-MM-DD (default: current UTC day)")
	database := fs.String("database", "", "Override Athena database")
	tableBase := fs.String("table-base", "", "Override Iceberg warehouse base (s3://bucket/prefix)")

	fs.Usage = func() {
		fmt.Println(`Usage: scour aggregate [options]

Run the daily medallion rollup for one date: ensure the silver and gold
tables exist, roll bronze chat events up into silver, silver into the
gold time series, then verify what landed. Prints the executed steps as
JSON.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Apply CLI overrides. Kafka settings are not validated here: the
	// rollup never touches the request topic.
	if *database != "" {
		cfg.Athena.Database = *database
	}
	if *tableBase != "" {
		cfg.Athena.TableS3Base = *tableBase
	}

	invocationID := uuid.New().String()
	logger := logging.Configure(cfg.Observability.LogLevel, cfg.Observability.LogFormat).
		WithCorrelationID(invocationID)

	logger.Infof("starting rollup run", map[string]any{
		"database":  cfg.Athena.Database,
		"tableBase": cfg.Athena.TableS3Base,
		"version":   version,
	})

	athenaClient, err := athena.NewClient(context.Background(), cfg.AWS)
	if err != nil {
		logger.Errorf("failed to create athena client", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	executor := athena.NewExecutor(athenaClient,
		athena.WithLogger(logger),
		athena.WithMetrics(metrics.NewQueryMetrics()),
	)
	job := aggregate.NewJob(executor, cfg, aggregate.WithLogger(logger))

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logging.WithCorrelationIDCtx(ctx, invocationID)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("received shutdown signal", map[string]any{"signal": sig.String()})
		cancel()
	}()

	result, err := job.Run(ctx, *date)
	if err != nil {
		logger.Errorf("rollup run failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	logger.Infof("rollup run complete", map[string]any{
		"date":  result.Date,
		"steps": len(result.Steps),
	})

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}
