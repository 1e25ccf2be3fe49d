package consume

import "time"

// Message is a single decoded record from the deletion-request topic.
type Message struct {
	Partition int32
	Offset    int64
	Key       string
	Timestamp time.Time

	// Payload is the decoded JSON object, or nil when the value decoded to
	// something other than an object. Records whose value is not valid JSON
	// at all are skipped during consumption and never become Messages.
	Payload map[string]any
}

// Batch is a bounded group of decoded messages whose offsets are committed
// together. A batch is sealed when its read window closes and is read-only
// after its commit.
type Batch struct {
	Topic     string
	GroupID   string
	StartTime time.Time
	EndTime   time.Time
	Messages  []Message

	// PartitionMaxOffset maps each partition that contributed to the batch
	// to the highest offset observed from it.
	PartitionMaxOffset map[int32]int64
}

// Size returns the number of decoded messages in the batch.
func (b *Batch) Size() int {
	return len(b.Messages)
}
