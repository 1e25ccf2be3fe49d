// Package consume reads deletion-request events from Kafka in bounded
// batches with explicit offset commit barriers.
package consume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/scour-io/scour/internal/config"
	"github.com/scour-io/scour/internal/logging"
)

// BrokerError wraps an unrecoverable transport or protocol failure. The
// consumer releases its client before propagating one.
type BrokerError struct {
	Err error
}

func (e *BrokerError) Error() string {
	return fmt.Sprintf("consume: broker failure: %v", e.Err)
}

func (e *BrokerError) Unwrap() error {
	return e.Err
}

// Client is the surface of the Kafka client the consumer drives. It is
// satisfied by *kgo.Client.
type Client interface {
	PollRecords(ctx context.Context, maxRecords int) kgo.Fetches
	CommitUncommittedOffsets(ctx context.Context) error
	Close()
}

// MetricsRecorder receives consumption telemetry.
type MetricsRecorder interface {
	RecordBatch(size int)
	RecordMessages(n int)
	RecordDecodeFailure()
	RecordCommit(durationSeconds float64, success bool)
}

// Consumer assembles bounded batches from a single topic. One Consumer
// serves one invocation: Consume owns the client and closes it on every
// exit path.
type Consumer struct {
	client  Client
	topic   string
	groupID string

	maxMessages int
	batchSize   int
	window      time.Duration

	clock   clockwork.Clock
	log     *logging.Logger
	metrics MetricsRecorder
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithClock replaces the wall clock, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Consumer) {
		c.clock = clock
	}
}

// WithLogger sets the logger used for consumption progress.
func WithLogger(l *logging.Logger) Option {
	return func(c *Consumer) {
		c.log = l
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Consumer) {
		c.metrics = m
	}
}

// New wraps an already-connected client. The consumer takes ownership of
// the client.
func New(client Client, cfg config.KafkaConfig, opts ...Option) *Consumer {
	c := &Consumer{
		client:      client,
		topic:       cfg.Topic,
		groupID:     cfg.GroupID,
		maxMessages: cfg.MaxMessages,
		batchSize:   cfg.BatchSize,
		window:      time.Duration(cfg.InactivityTimeoutMs) * time.Millisecond,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logging.Global()
	}
	return c
}

// Consume reads batches until the message cap is reached or a read window
// closes without any record arriving. Batches are returned in consumption
// order; each batch's offsets are committed before the next batch starts
// accumulating. Records that fail JSON decoding are skipped and do not
// count toward the cap; commits are positional, so skipped offsets are
// covered by the next batch's commit rather than redelivered.
func (c *Consumer) Consume(ctx context.Context) ([]Batch, error) {
	defer c.client.Close()

	log := logging.ContextLogger(ctx, c.log).With(map[string]any{
		"topic":   c.topic,
		"groupId": c.groupID,
	})
	log.Infof("starting consumption", map[string]any{
		"maxMessages": c.maxMessages,
		"batchSize":   c.batchSize,
		"windowMs":    c.window.Milliseconds(),
	})

	var (
		batches []Batch
		total   int
	)
	for total < c.maxMessages {
		batch, polled, err := c.readWindow(ctx, total, log)
		if err != nil {
			return nil, err
		}
		if polled == 0 {
			log.Infof("no messages within window, stopping", map[string]any{
				"batches": len(batches),
				"total":   total,
			})
			break
		}
		if batch.Size() == 0 {
			// Every record in the window failed to decode. Nothing to seal
			// or commit; keep reading.
			continue
		}

		total += batch.Size()
		if c.metrics != nil {
			c.metrics.RecordBatch(batch.Size())
			c.metrics.RecordMessages(batch.Size())
		}
		log.Infof("batch sealed", map[string]any{
			"batch":    len(batches) + 1,
			"messages": batch.Size(),
			"total":    total,
		})

		if err := c.commit(ctx, log); err != nil {
			return nil, err
		}
		batches = append(batches, *batch)
	}

	log.Infof("consumption finished", map[string]any{
		"batches": len(batches),
		"total":   total,
	})
	return batches, nil
}

// readWindow accumulates at most one batch within a single inactivity
// window. The returned polled count includes records that failed to decode,
// so the caller can tell a quiet window from one whose records were all
// skipped.
func (c *Consumer) readWindow(ctx context.Context, total int, log *logging.Logger) (*Batch, int, error) {
	batch := &Batch{
		Topic:              c.topic,
		GroupID:            c.groupID,
		StartTime:          c.clock.Now(),
		PartitionMaxOffset: make(map[int32]int64),
	}
	deadline := batch.StartTime.Add(c.window)
	polled := 0

	for batch.Size() < c.batchSize && total+batch.Size() < c.maxMessages {
		remaining := deadline.Sub(c.clock.Now())
		if remaining <= 0 {
			break
		}
		want := c.batchSize - batch.Size()
		if left := c.maxMessages - total - batch.Size(); left < want {
			want = left
		}

		pollCtx, cancel := context.WithTimeout(ctx, remaining)
		fetches := c.client.PollRecords(pollCtx, want)
		cancel()

		if err := fetchError(fetches); err != nil {
			if ctx.Err() != nil {
				return nil, 0, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return nil, 0, &BrokerError{Err: err}
		}

		fetches.EachRecord(func(r *kgo.Record) {
			polled++
			msg, ok := c.decode(r, log)
			if !ok {
				return
			}
			batch.Messages = append(batch.Messages, msg)
			if off, seen := batch.PartitionMaxOffset[r.Partition]; !seen || r.Offset > off {
				batch.PartitionMaxOffset[r.Partition] = r.Offset
			}
		})
	}

	batch.EndTime = c.clock.Now()
	return batch, polled, nil
}

func (c *Consumer) decode(r *kgo.Record, log *logging.Logger) (Message, bool) {
	var payload any
	if err := json.Unmarshal(r.Value, &payload); err != nil {
		if c.metrics != nil {
			c.metrics.RecordDecodeFailure()
		}
		log.Warnf("skipping undecodable message", map[string]any{
			"partition": r.Partition,
			"offset":    r.Offset,
			"error":     err.Error(),
		})
		return Message{}, false
	}

	msg := Message{
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       string(r.Key),
		Timestamp: r.Timestamp,
	}
	if obj, ok := payload.(map[string]any); ok {
		msg.Payload = obj
	}
	return msg, true
}

// commit synchronously commits all offsets consumed so far. It is called
// once per sealed batch and acts as a barrier: the next window does not
// open until the commit returns.
func (c *Consumer) commit(ctx context.Context, log *logging.Logger) error {
	start := c.clock.Now()
	err := c.client.CommitUncommittedOffsets(ctx)
	elapsed := c.clock.Now().Sub(start)
	if c.metrics != nil {
		c.metrics.RecordCommit(elapsed.Seconds(), err == nil)
	}
	if err != nil {
		return &BrokerError{Err: fmt.Errorf("commit offsets: %w", err)}
	}
	log.Debugf("offsets committed", map[string]any{
		"elapsedMs": elapsed.Milliseconds(),
	})
	return nil
}

func fetchError(fetches kgo.Fetches) error {
	for _, fe := range fetches.Errors() {
		return fe.Err
	}
	return nil
}
