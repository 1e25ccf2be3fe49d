package athena

import (
	"fmt"
	"time"
)

// TimeoutError reports that polling exceeded the wall-clock budget. The
// query keeps running server-side; no cancellation is issued. The execution
// id is carried for manual follow-up.
type TimeoutError struct {
	ExecutionID string
	Elapsed     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("athena: query %s still not terminal after %s", e.ExecutionID, e.Elapsed)
}

// ExecutionError reports a terminal FAILED or CANCELLED state with the
// server-reported reason.
type ExecutionError struct {
	ExecutionID string
	State       string
	Reason      string
}

func (e *ExecutionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("athena: query %s terminated %s", e.ExecutionID, e.State)
	}
	return fmt.Sprintf("athena: query %s terminated %s: %s", e.ExecutionID, e.State, e.Reason)
}
