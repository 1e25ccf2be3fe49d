package athena

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryRecorderStub struct {
	polls    int
	statuses []string
}

func (r *queryRecorderStub) RecordQuery(durationSeconds float64, status string) {
	r.statuses = append(r.statuses, status)
}

func (r *queryRecorderStub) RecordPoll() { r.polls++ }

type runResult struct {
	id  string
	err error
}

func runAsync(e *Executor, in RunInput) <-chan runResult {
	ch := make(chan runResult, 1)
	go func() {
		id, err := e.Run(context.Background(), in)
		ch <- runResult{id: id, err: err}
	}()
	return ch
}

func waitResult(t *testing.T, ch <-chan runResult) runResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("executor did not finish")
		return runResult{}
	}
}

func testInput() RunInput {
	return RunInput{
		Query:          "DELETE FROM iceberg_athena_analytics.silver_user_daily WHERE user_id IN ('a')",
		Database:       "iceberg_athena_analytics",
		OutputLocation: "s3://athena-query-results/",
		PollInterval:   5 * time.Second,
		Timeout:        time.Hour,
	}
}

func TestRunSucceedsOnFirstPoll(t *testing.T) {
	api := &MockAPI{States: []types.QueryExecutionState{types.QueryExecutionStateSucceeded}}
	rec := &queryRecorderStub{}
	e := NewExecutor(api, WithClock(clockwork.NewFakeClock()), WithMetrics(rec))

	id, err := e.Run(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, "exec-1", id)
	assert.Equal(t, 1, api.StartCalls)
	assert.Equal(t, 1, api.GetCalls)
	assert.Equal(t, []string{"success"}, rec.statuses)
	assert.Equal(t, 1, rec.polls)

	in := api.StartInputs[0]
	assert.Contains(t, aws.ToString(in.QueryString), "DELETE FROM")
	assert.Equal(t, "iceberg_athena_analytics", aws.ToString(in.QueryExecutionContext.Database))
	assert.Equal(t, "s3://athena-query-results/", aws.ToString(in.ResultConfiguration.OutputLocation))
}

func TestRunPollsUntilSucceeded(t *testing.T) {
	api := &MockAPI{States: []types.QueryExecutionState{
		types.QueryExecutionStateQueued,
		types.QueryExecutionStateRunning,
		types.QueryExecutionStateSucceeded,
	}}
	rec := &queryRecorderStub{}
	clock := clockwork.NewFakeClock()
	e := NewExecutor(api, WithClock(clock), WithMetrics(rec))

	ch := runAsync(e, testInput())
	for i := 0; i < 2; i++ {
		clock.BlockUntil(1)
		clock.Advance(5 * time.Second)
	}

	res := waitResult(t, ch)
	require.NoError(t, res.err)
	assert.Equal(t, "exec-1", res.id)
	assert.Equal(t, 3, api.GetCalls)
	assert.Equal(t, 3, rec.polls)
	assert.Equal(t, []string{"success"}, rec.statuses)
}

func TestRunFailedState(t *testing.T) {
	api := &MockAPI{
		States: []types.QueryExecutionState{
			types.QueryExecutionStateRunning,
			types.QueryExecutionStateFailed,
		},
		Reason: "SYNTAX_ERROR: line 1:8: table not found",
	}
	clock := clockwork.NewFakeClock()
	e := NewExecutor(api, WithClock(clock))

	ch := runAsync(e, testInput())
	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)

	res := waitResult(t, ch)
	require.Error(t, res.err)
	assert.Equal(t, "exec-1", res.id)

	var ee *ExecutionError
	require.ErrorAs(t, res.err, &ee)
	assert.Equal(t, "exec-1", ee.ExecutionID)
	assert.Equal(t, "FAILED", ee.State)
	assert.Equal(t, "SYNTAX_ERROR: line 1:8: table not found", ee.Reason)
	assert.ErrorContains(t, res.err, "SYNTAX_ERROR")
}

func TestRunCancelledState(t *testing.T) {
	api := &MockAPI{States: []types.QueryExecutionState{types.QueryExecutionStateCancelled}}
	rec := &queryRecorderStub{}
	e := NewExecutor(api, WithClock(clockwork.NewFakeClock()), WithMetrics(rec))

	_, err := e.Run(context.Background(), testInput())
	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "CANCELLED", ee.State)
	assert.Equal(t, []string{"failure"}, rec.statuses)
}

func TestRunTimeout(t *testing.T) {
	api := &MockAPI{States: []types.QueryExecutionState{types.QueryExecutionStateRunning}}
	rec := &queryRecorderStub{}
	clock := clockwork.NewFakeClock()
	e := NewExecutor(api, WithClock(clock), WithMetrics(rec))

	in := testInput()
	in.Timeout = 7 * time.Second

	ch := runAsync(e, in)
	for i := 0; i < 2; i++ {
		clock.BlockUntil(1)
		clock.Advance(5 * time.Second)
	}

	res := waitResult(t, ch)
	require.Error(t, res.err)
	assert.Equal(t, "exec-1", res.id)

	var te *TimeoutError
	require.ErrorAs(t, res.err, &te)
	assert.Equal(t, "exec-1", te.ExecutionID)
	assert.Equal(t, 10*time.Second, te.Elapsed)
	assert.Equal(t, 3, api.GetCalls)
	assert.Equal(t, []string{"timeout"}, rec.statuses)
}

func TestRunStartError(t *testing.T) {
	sentinel := errors.New("access denied")
	api := &MockAPI{StartErr: sentinel}
	e := NewExecutor(api, WithClock(clockwork.NewFakeClock()))

	id, err := e.Run(context.Background(), testInput())
	require.Error(t, err)
	assert.Empty(t, id)
	assert.ErrorIs(t, err, sentinel)
	assert.ErrorContains(t, err, "start query execution")
	assert.Equal(t, 0, api.GetCalls)
}

func TestRunGetStatusError(t *testing.T) {
	sentinel := errors.New("throttled")
	api := &MockAPI{GetErr: sentinel}
	e := NewExecutor(api, WithClock(clockwork.NewFakeClock()))

	id, err := e.Run(context.Background(), testInput())
	require.Error(t, err)
	assert.Equal(t, "exec-1", id)
	assert.ErrorIs(t, err, sentinel)
	assert.ErrorContains(t, err, "get query execution")
}

func TestRunContextCanceledDuringWait(t *testing.T) {
	api := &MockAPI{States: []types.QueryExecutionState{types.QueryExecutionStateRunning}}
	clock := clockwork.NewFakeClock()
	e := NewExecutor(api, WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan runResult, 1)
	go func() {
		id, err := e.Run(ctx, testInput())
		ch <- runResult{id: id, err: err}
	}()

	clock.BlockUntil(1)
	cancel()

	res := waitResult(t, ch)
	require.ErrorIs(t, res.err, context.Canceled)
	assert.Equal(t, "exec-1", res.id)
}
