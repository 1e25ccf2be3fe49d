// Package athena submits queries for asynchronous execution and polls them
// to a terminal state.
package athena

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/jonboulle/clockwork"

	"github.com/scour-io/scour/internal/logging"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
	statusTimeout = "timeout"
)

// API is the slice of the Athena service the executor uses. It is satisfied
// by *athena.Client.
type API interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
}

// MetricsRecorder receives query telemetry. Status is one of "success",
// "failure" or "timeout".
type MetricsRecorder interface {
	RecordQuery(durationSeconds float64, status string)
	RecordPoll()
}

// RunInput describes one query execution.
type RunInput struct {
	Query          string
	Database       string
	OutputLocation string
	PollInterval   time.Duration
	Timeout        time.Duration
}

// Executor runs queries one at a time with fixed-interval status polling.
type Executor struct {
	api     API
	clock   clockwork.Clock
	log     *logging.Logger
	metrics MetricsRecorder
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock replaces the wall clock, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Executor) {
		e.clock = clock
	}
}

// WithLogger sets the logger used for execution progress.
func WithLogger(l *logging.Logger) Option {
	return func(e *Executor) {
		e.log = l
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// NewExecutor creates an executor on top of an Athena client.
func NewExecutor(api API, opts ...Option) *Executor {
	e := &Executor{
		api:   api,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logging.Global()
	}
	return e
}

// Run submits the query and polls its status every PollInterval until it
// reaches a terminal state or Timeout of wall-clock time has elapsed. The
// execution id is returned whenever one was obtained, error or not. QUEUED
// and RUNNING keep the poll loop going; FAILED and CANCELLED produce an
// ExecutionError; exceeding Timeout produces a TimeoutError without
// cancelling the server-side query.
func (e *Executor) Run(ctx context.Context, in RunInput) (string, error) {
	log := logging.ContextLogger(ctx, e.log).With(map[string]any{
		"database": in.Database,
	})

	start := e.clock.Now()
	out, err := e.api.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: aws.String(in.Query),
		QueryExecutionContext: &types.QueryExecutionContext{
			Database: aws.String(in.Database),
		},
		ResultConfiguration: &types.ResultConfiguration{
			OutputLocation: aws.String(in.OutputLocation),
		},
	})
	if err != nil {
		return "", fmt.Errorf("athena: start query execution: %w", err)
	}
	id := aws.ToString(out.QueryExecutionId)
	log.Infof("query submitted", map[string]any{
		"executionId": id,
	})

	for {
		status, err := e.api.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(id),
		})
		if err != nil {
			return id, fmt.Errorf("athena: get query execution %s: %w", id, err)
		}
		if e.metrics != nil {
			e.metrics.RecordPoll()
		}

		state, reason := executionStatus(status)
		elapsed := e.clock.Now().Sub(start)
		switch state {
		case types.QueryExecutionStateSucceeded:
			if e.metrics != nil {
				e.metrics.RecordQuery(elapsed.Seconds(), statusSuccess)
			}
			log.Infof("query succeeded", map[string]any{
				"executionId": id,
				"elapsedMs":   elapsed.Milliseconds(),
			})
			return id, nil
		case types.QueryExecutionStateFailed, types.QueryExecutionStateCancelled:
			if e.metrics != nil {
				e.metrics.RecordQuery(elapsed.Seconds(), statusFailure)
			}
			return id, &ExecutionError{ExecutionID: id, State: string(state), Reason: reason}
		}

		if elapsed > in.Timeout {
			if e.metrics != nil {
				e.metrics.RecordQuery(elapsed.Seconds(), statusTimeout)
			}
			return id, &TimeoutError{ExecutionID: id, Elapsed: elapsed}
		}

		log.Debugf("query still executing", map[string]any{
			"executionId": id,
			"state":       string(state),
			"elapsedMs":   elapsed.Milliseconds(),
		})
		select {
		case <-ctx.Done():
			return id, ctx.Err()
		case <-e.clock.After(in.PollInterval):
		}
	}
}

func executionStatus(out *athena.GetQueryExecutionOutput) (types.QueryExecutionState, string) {
	if out == nil || out.QueryExecution == nil || out.QueryExecution.Status == nil {
		return "", ""
	}
	status := out.QueryExecution.Status
	return status.State, aws.ToString(status.StateChangeReason)
}
