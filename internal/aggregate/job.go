package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/scour-io/scour/internal/athena"
	"github.com/scour-io/scour/internal/config"
	"github.com/scour-io/scour/internal/logging"
)

// ErrMissingTableBase is returned when no Iceberg warehouse base location
// is configured; the create statements need it for their LOCATION clause.
var ErrMissingTableBase = errors.New("aggregate: iceberg table s3 base location is required")

// QueryExecutor runs one query to completion. *athena.Executor implements
// it.
type QueryExecutor interface {
	Run(ctx context.Context, in athena.RunInput) (string, error)
}

// Step records one executed statement.
type Step struct {
	Name        string `json:"name"`
	ExecutionID string `json:"executionId"`
}

// Result reports one completed rollup.
type Result struct {
	Date  string `json:"date"`
	Steps []Step `json:"steps"`
}

// Job runs the daily rollup for one date: ensure both layer tables exist,
// roll bronze up into silver, silver into gold, then verify what landed.
// Statements execute strictly in that order; reruns for the same date
// append, they do not replace.
type Job struct {
	executor QueryExecutor
	cfg      *config.Config

	clock clockwork.Clock
	log   *logging.Logger
}

// Option configures a Job.
type Option func(*Job)

// WithClock replaces the wall clock, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(j *Job) {
		j.clock = clock
	}
}

// WithLogger sets the logger used for step progress.
func WithLogger(l *logging.Logger) Option {
	return func(j *Job) {
		j.log = l
	}
}

// NewJob wires a query executor into a rollup job.
func NewJob(executor QueryExecutor, cfg *config.Config, opts ...Option) *Job {
	j := &Job{
		executor: executor,
		cfg:      cfg,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.log == nil {
		j.log = logging.Global()
	}
	return j
}

// Run executes the rollup for date (YYYY-MM-DD). An empty date means the
// current UTC day. On any failure the error propagates immediately; steps
// already executed are not undone.
func (j *Job) Run(ctx context.Context, date string) (*Result, error) {
	log := logging.ContextLogger(ctx, j.log)

	if date == "" {
		date = j.clock.Now().UTC().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("aggregate: invalid date %q: %w", date, err)
	}
	base := strings.TrimRight(j.cfg.Athena.TableS3Base, "/")
	if base == "" {
		return nil, ErrMissingTableBase
	}

	db := j.cfg.Athena.Database
	steps := []struct {
		name  string
		query string
	}{
		{"create_silver_table", CreateSilverTable(db, base)},
		{"create_gold_table", CreateGoldTable(db, base)},
		{"aggregate_bronze_to_silver", InsertSilverDaily(db, date)},
		{"aggregate_silver_to_gold", InsertGoldDaily(db, date)},
		{"verify_results", VerifyGoldDaily(db, date)},
	}

	log.Infof("starting rollup", map[string]any{
		"date":     date,
		"database": db,
	})

	result := &Result{Date: date}
	for _, step := range steps {
		id, err := j.executor.Run(ctx, athena.RunInput{
			Query:          step.query,
			Database:       db,
			OutputLocation: j.cfg.Athena.OutputLocation,
			PollInterval:   time.Duration(j.cfg.Athena.PollIntervalSeconds) * time.Second,
			Timeout:        time.Duration(j.cfg.Athena.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("aggregate: %s: %w", step.name, err)
		}
		result.Steps = append(result.Steps, Step{Name: step.name, ExecutionID: id})
		log.Infof("rollup step succeeded", map[string]any{
			"step":        step.name,
			"executionId": id,
		})
	}

	return result, nil
}
