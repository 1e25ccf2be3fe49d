package erasure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/scour-io/scour/internal/objectstore"
)

// Receipt is the audit document written after each completed run.
type Receipt struct {
	InvocationID  string    `json:"invocationId"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
	GuidCount     int       `json:"guidCount"`
	DeletedTables []string  `json:"deletedTables"`
	Batches       int       `json:"batches"`
	Messages      int       `json:"messages"`
	ExecutionIDs  []string  `json:"executionIds,omitempty"`
}

// ReceiptWriter persists run receipts under a key prefix, one JSON object
// per invocation at <prefix>/<date>/<invocationID>.json.
type ReceiptWriter struct {
	store  objectstore.Store
	prefix string
}

// NewReceiptWriter creates a writer on top of an object store.
func NewReceiptWriter(store objectstore.Store, prefix string) *ReceiptWriter {
	return &ReceiptWriter{store: store, prefix: prefix}
}

// Write stores the receipt and returns its object key. The date segment
// comes from the receipt's finish time in UTC.
func (w *ReceiptWriter) Write(ctx context.Context, r Receipt) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("erasure: marshal receipt: %w", err)
	}

	key := objectstore.ReceiptKey(w.prefix, r.FinishedAt.UTC().Format("2006-01-02"), r.InvocationID)
	if err := w.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return "", fmt.Errorf("erasure: write receipt: %w", err)
	}
	return key, nil
}
