package consume

import (
	"context"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"
)

// MockClient is a scripted implementation of the Client interface for
// testing. Each PollRecords call pops the next scripted fetch; once the
// script is exhausted the mock reports a deadline expiry, mimicking a poll
// context timing out with nothing buffered.
type MockClient struct {
	mu     sync.Mutex
	script []kgo.Fetches

	// CommitErr, when set, is returned by every commit attempt.
	CommitErr error

	// PollSizes records the maxRecords argument of each poll.
	PollSizes []int
	// Events records "poll" and "commit" entries in call order.
	Events  []string
	Commits int
	Closed  bool
}

// NewMockClient returns a mock that replays the given fetches in order.
func NewMockClient(script ...kgo.Fetches) *MockClient {
	return &MockClient{script: script}
}

func (m *MockClient) PollRecords(ctx context.Context, maxRecords int) kgo.Fetches {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PollSizes = append(m.PollSizes, maxRecords)
	m.Events = append(m.Events, "poll")

	if err := ctx.Err(); err != nil {
		return ErrorFetch("", -1, err)
	}
	if len(m.script) == 0 {
		return ErrorFetch("", -1, context.DeadlineExceeded)
	}
	next := m.script[0]
	m.script = m.script[1:]
	return next
}

func (m *MockClient) CommitUncommittedOffsets(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Events = append(m.Events, "commit")
	m.Commits++
	return m.CommitErr
}

func (m *MockClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
}

// RecordsFetch builds a single-partition fetch containing the given records.
func RecordsFetch(topic string, partition int32, records ...*kgo.Record) kgo.Fetches {
	return kgo.Fetches{{
		Topics: []kgo.FetchTopic{{
			Topic: topic,
			Partitions: []kgo.FetchPartition{{
				Partition: partition,
				Records:   records,
			}},
		}},
	}}
}

// ErrorFetch builds a fetch carrying a partition-level error.
func ErrorFetch(topic string, partition int32, err error) kgo.Fetches {
	return kgo.Fetches{{
		Topics: []kgo.FetchTopic{{
			Topic: topic,
			Partitions: []kgo.FetchPartition{{
				Partition: partition,
				Err:       err,
			}},
		}},
	}}
}
