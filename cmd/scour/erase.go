package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/sasl"

	"github.com/scour-io/scour/internal/athena"
	"github.com/scour-io/scour/internal/auth"
	"github.com/scour-io/scour/internal/config"
	"github.com/scour-io/scour/internal/consume"
	"github.com/scour-io/scour/internal/erasure"
	"github.com/scour-io/scour/internal/logging"
	"github.com/scour-io/scour/internal/metrics"
	"github.com/scour-io/scour/internal/objectstore"
	s3store "github.com/scour-io/scour/internal/objectstore/s3"
)

func runErase(args []string) {
	fs := flag.NewFlagSet("erase", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	brokers := fs.String("brokers", "", "Override Kafka bootstrap servers (comma-separated)")
	topic := fs.String("topic", "", "Override deletion request topic")
	group := fs.String("group", "", "Override consumer group ID")
	retries := fs.Int("retries", 2, "Number of retries after a failed pass")
	retryDelay := fs.Duration("retry-delay", 5*time.Minute, "Delay between retries")
	plaintext := fs.Bool("plaintext", false, "Connect without MSK IAM authentication (local development)")
	metricsAddr := fs.String("metrics-addr", "", "Override metrics endpoint address (e.g., :9090)")

	fs.Usage = func() {
		fmt.Println(`Usage: scour erase [options]

Run one erasure enforcement pass: consume pending deletion requests from
the request topic, extract erasure identifiers, and delete matching rows
from every configured target table. Prints the run summary as JSON.

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

	// Apply CLI overrides
	if *brokers != "" {
		cfg.Kafka.BootstrapServers = splitBrokers(*brokers)
	}
	if *topic != "" {
		cfg.Kafka.Topic = *topic
	}
	if *group != "" {
		cfg.Kafka.GroupID = *group
	}
	if *metricsAddr != "" {
		cfg.Observability.MetricsAddr = *metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Set up logger; the invocation ID correlates every log line and the
	// audit receipt key of this run.
	invocationID := uuid.New().String()
	logger := logging.Configure(cfg.Observability.LogLevel, cfg.Observability.LogFormat).
		WithCorrelationID(invocationID)

	logger.Infof("starting erasure run", map[string]any{
		"topic":       cfg.Kafka.Topic,
		"groupId":     cfg.Kafka.GroupID,
		"brokers":     len(cfg.Kafka.BootstrapServers),
		"maxMessages": cfg.Kafka.MaxMessages,
		"batchSize":   cfg.Kafka.BatchSize,
		"tables":      cfg.Erasure.TargetTables,
		"version":     version,
	})
	if cfg.Athena.TableS3Base != "" {
		logger.Infof("iceberg table s3 base location", map[string]any{
			"location": cfg.Athena.TableS3Base,
		})
	}

	if cfg.Observability.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.Observability.MetricsAddr)
		if err := srv.Start(); err != nil {
			logger.Warnf("failed to start metrics server", map[string]any{
				"addr":  cfg.Observability.MetricsAddr,
				"error": err.Error(),
			})
		} else {
			defer srv.Close()
		}
	}

	pipeline := &erasePipeline{
		cfg:            cfg,
		log:            logger,
		consumeMetrics: metrics.NewConsumeMetrics(),
		queryMetrics:   metrics.NewQueryMetrics(),
		erasureMetrics: metrics.NewErasureMetrics(),
	}
	if !*plaintext {
		pipeline.tokens = auth.NewTokenProvider(cfg.AWS.Region)
	}
	if cfg.Audit.ReceiptPrefix != "" {
		pipeline.storeMetrics = metrics.NewObjectStoreMetrics()
	}

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

	summary, err := runWithRetries(ctx, logger, *retries, *retryDelay, pipeline.run)
	if err != nil {
		logger.Errorf("erasure run failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	logger.Infof("erasure run complete", map[string]any{
		"deletedTables": summary.DeletedTables,
		"guidCount":     summary.GuidCount,
	})

	data, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(data))
}

// erasePipeline holds everything an attempt needs. Metric collectors
// register once per process, so they live here rather than in run.
type erasePipeline struct {
	cfg    *config.Config
	tokens *auth.TokenProvider
	log    *logging.Logger

	consumeMetrics *metrics.ConsumeMetrics
	queryMetrics   *metrics.QueryMetrics
	erasureMetrics *metrics.ErasureMetrics
	storeMetrics   *metrics.ObjectStoreMetrics
}

// run builds a fresh pipeline and executes one pass. The consumer owns its
// kgo client for the duration of the pass and closes it when done, so every
// attempt dials its own.
func (p *erasePipeline) run(ctx context.Context) (*erasure.Summary, error) {
	athenaClient, err := athena.NewClient(ctx, p.cfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("create athena client: %w", err)
	}
	executor := athena.NewExecutor(athenaClient,
		athena.WithLogger(p.log),
		athena.WithMetrics(p.queryMetrics),
	)

	opts := []erasure.Option{
		erasure.WithLogger(p.log),
		erasure.WithMetrics(p.erasureMetrics),
	}

	var store objectstore.Store
	if p.cfg.Audit.ReceiptPrefix != "" {
		loc, err := objectstore.ParseLocation(p.cfg.Audit.ReceiptPrefix)
		if err != nil {
			return nil, fmt.Errorf("parse audit receipt prefix: %w", err)
		}
		s3s, err := s3store.New(ctx, s3store.Config{
			Bucket:          loc.Bucket,
			Region:          p.cfg.AWS.Region,
			AccessKeyID:     p.cfg.AWS.AccessKey,
			SecretAccessKey: p.cfg.AWS.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create audit receipt store: %w", err)
		}
		store = objectstore.NewInstrumentedStore(s3s, p.storeMetrics)
		defer store.Close()
		opts = append(opts, erasure.WithReceipts(erasure.NewReceiptWriter(store, loc.Prefix)))
	}

	// Generate one token up front so missing IAM permissions fail the
	// attempt before any message is read.
	var mech sasl.Mechanism
	if p.tokens != nil {
		if _, err := p.tokens.Token(ctx); err != nil {
			return nil, fmt.Errorf("verify msk credentials: %w", err)
		}
		mech = p.tokens.Mechanism()
	}

	client, err := consume.Dial(p.cfg.Kafka, mech)
	if err != nil {
		return nil, fmt.Errorf("dial kafka: %w", err)
	}
	consumer := consume.New(client, p.cfg.Kafka,
		consume.WithLogger(p.log),
		consume.WithMetrics(p.consumeMetrics),
	)

	engine := erasure.NewEngine(consumer, executor, p.cfg, opts...)
	return engine.Run(ctx)
}

// runWithRetries reruns a failed pass after a fixed delay, up to retries
// additional attempts. Offsets committed by a failed pass stay committed,
// so a retry resumes from the failure point rather than replaying the run.
func runWithRetries(ctx context.Context, log *logging.Logger, retries int, delay time.Duration, run func(context.Context) (*erasure.Summary, error)) (*erasure.Summary, error) {
	var lastErr error
	for attempt := 1; attempt <= retries+1; attempt++ {
		if attempt > 1 {
			log.Warnf("retrying erasure pass", map[string]any{
				"attempt":     attempt,
				"maxAttempts": retries + 1,
				"delay":       delay.String(),
			})
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		summary, err := run(ctx)
		if err == nil {
			return summary, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, err
		}
		log.Errorf("erasure pass failed", map[string]any{
			"attempt": attempt,
			"error":   err.Error(),
		})
	}
	return nil, lastErr
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func splitBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}
