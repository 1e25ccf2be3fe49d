// Package erasure orchestrates one enforcement run: consume deletion
// requests, extract erasure identifiers, and delete matching rows from
// every target table.
package erasure

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/scour-io/scour/internal/athena"
	"github.com/scour-io/scour/internal/config"
	"github.com/scour-io/scour/internal/consume"
	"github.com/scour-io/scour/internal/extract"
	"github.com/scour-io/scour/internal/logging"
)

// Summary reports one completed run.
type Summary struct {
	DeletedTables []string `json:"deletedTables"`
	GuidCount     int      `json:"guidCount"`
}

// BatchConsumer yields the run's batches. *consume.Consumer implements it.
type BatchConsumer interface {
	Consume(ctx context.Context) ([]consume.Batch, error)
}

// QueryExecutor runs one query to completion. *athena.Executor implements
// it.
type QueryExecutor interface {
	Run(ctx context.Context, in athena.RunInput) (string, error)
}

// MetricsRecorder receives run telemetry.
type MetricsRecorder interface {
	RecordRun(durationSeconds float64, success bool)
	RecordGuids(n int)
	RecordTableDeleted()
}

// Engine drives a single enforcement run. Table deletes execute strictly
// in configured order; there is no cross-table rollback, so a failure
// leaves earlier tables deleted. One Engine serves one invocation.
type Engine struct {
	consumer BatchConsumer
	executor QueryExecutor
	cfg      *config.Config

	receipts *ReceiptWriter
	clock    clockwork.Clock
	log      *logging.Logger
	metrics  MetricsRecorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithLogger sets the logger used for run progress.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithReceipts enables audit receipts for completed runs.
func WithReceipts(w *ReceiptWriter) Option {
	return func(e *Engine) {
		e.receipts = w
	}
}

// NewEngine wires a consumer and a query executor into a run engine.
func NewEngine(consumer BatchConsumer, executor QueryExecutor, cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		consumer: consumer,
		executor: executor,
		cfg:      cfg,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logging.Global()
	}
	return e
}

// Run executes one enforcement pass. An empty identifier set returns an
// empty summary without submitting any query. On any failure the error
// propagates immediately and no summary is produced; deletes already
// executed are not undone.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	start := e.clock.Now()
	log := logging.ContextLogger(ctx, e.log)

	batches, err := e.consumer.Consume(ctx)
	if err != nil {
		e.recordRun(start, false)
		return nil, err
	}

	guids := extract.UniqueGUIDs(batches)
	summary := &Summary{DeletedTables: []string{}, GuidCount: len(guids)}
	if len(guids) == 0 {
		log.Infof("no erasure requests found", map[string]any{
			"batches": len(batches),
		})
		e.recordRun(start, true)
		e.writeReceipt(ctx, log, summary, batches, nil, start)
		return summary, nil
	}

	if e.metrics != nil {
		e.metrics.RecordGuids(len(guids))
	}
	tables := e.cfg.Erasure.TargetTables
	log.Infof("deleting erasure identifiers", map[string]any{
		"guids":  len(guids),
		"tables": len(tables),
	})

	var executionIDs []string
	for _, table := range tables {
		query := DeleteStatement(e.cfg.Athena.Database, table, e.cfg.Erasure.UserIDColumn, guids)
		id, err := e.executor.Run(ctx, athena.RunInput{
			Query:          query,
			Database:       e.cfg.Athena.Database,
			OutputLocation: e.cfg.Athena.OutputLocation,
			PollInterval:   time.Duration(e.cfg.Athena.PollIntervalSeconds) * time.Second,
			Timeout:        time.Duration(e.cfg.Athena.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			e.recordRun(start, false)
			return nil, fmt.Errorf("erasure: delete from %s: %w", table, err)
		}
		summary.DeletedTables = append(summary.DeletedTables, table)
		executionIDs = append(executionIDs, id)
		if e.metrics != nil {
			e.metrics.RecordTableDeleted()
		}
		log.Infof("table delete succeeded", map[string]any{
			"table":       table,
			"executionId": id,
		})
	}

	e.recordRun(start, true)
	e.writeReceipt(ctx, log, summary, batches, executionIDs, start)
	return summary, nil
}

func (e *Engine) recordRun(start time.Time, success bool) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordRun(e.clock.Now().Sub(start).Seconds(), success)
}

// writeReceipt is best effort: the deletes have already happened, so a
// failed receipt write degrades to a warning rather than failing the run.
func (e *Engine) writeReceipt(ctx context.Context, log *logging.Logger, s *Summary, batches []consume.Batch, executionIDs []string, start time.Time) {
	if e.receipts == nil {
		return
	}

	invocationID := logging.CorrelationIDFromCtx(ctx)
	if invocationID == "" {
		invocationID = uuid.New().String()
	}
	messages := 0
	for i := range batches {
		messages += batches[i].Size()
	}

	key, err := e.receipts.Write(ctx, Receipt{
		InvocationID:  invocationID,
		StartedAt:     start.UTC(),
		FinishedAt:    e.clock.Now().UTC(),
		GuidCount:     s.GuidCount,
		DeletedTables: s.DeletedTables,
		Batches:       len(batches),
		Messages:      messages,
		ExecutionIDs:  executionIDs,
	})
	if err != nil {
		log.Warnf("failed to write audit receipt", map[string]any{
			"error": err.Error(),
		})
		return
	}
	log.Infof("audit receipt written", map[string]any{
		"key": key,
	})
}
