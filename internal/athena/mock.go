package athena

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
)

// MockAPI is a scripted implementation of the API interface for testing.
// Successive GetQueryExecution calls walk the States script; the last state
// repeats once the script is exhausted.
type MockAPI struct {
	mu sync.Mutex

	// ExecutionID is returned by StartQueryExecution. Defaults to "exec-1".
	ExecutionID string
	StartErr    error
	GetErr      error
	States      []types.QueryExecutionState
	// Reason is reported as the state change reason on every status.
	Reason string

	StartCalls  int
	GetCalls    int
	StartInputs []*athena.StartQueryExecutionInput
}

func (m *MockAPI) StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartCalls++
	m.StartInputs = append(m.StartInputs, params)
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	return &athena.StartQueryExecutionOutput{
		QueryExecutionId: aws.String(m.executionID()),
	}, nil
}

func (m *MockAPI) GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls++
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	idx := m.GetCalls - 1
	if idx >= len(m.States) {
		idx = len(m.States) - 1
	}
	status := &types.QueryExecutionStatus{State: m.States[idx]}
	if m.Reason != "" {
		status.StateChangeReason = aws.String(m.Reason)
	}
	return &athena.GetQueryExecutionOutput{
		QueryExecution: &types.QueryExecution{
			QueryExecutionId: aws.String(m.executionID()),
			Status:           status,
		},
	}, nil
}

func (m *MockAPI) executionID() string {
	if m.ExecutionID == "" {
		return "exec-1"
	}
	return m.ExecutionID
}
