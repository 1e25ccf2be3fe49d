// Package objectstore provides S3-backed storage for run audit receipts.
//
// The interface is deliberately small: the pipeline only ever writes one
// JSON document per invocation. Implementations map provider failures onto
// the sentinel errors below so callers can distinguish a missing bucket
// from a permissions problem:
//
//	err := store.Put(ctx, key, bytes.NewReader(doc), int64(len(doc)), "application/json")
//	if errors.Is(err, objectstore.ErrAccessDenied) {
//	    // Credentials lack s3:PutObject on the receipt bucket.
//	}
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Common errors returned by Store implementations.
var (
	// ErrBucketNotFound is returned when the target bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrAccessDenied is returned when credentials lack permission for the
	// operation.
	ErrAccessDenied = errors.New("access denied")
)

// ObjectError wraps a storage failure with the operation and key involved.
type ObjectError struct {
	Op  string
	Key string
	Err error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("objectstore: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *ObjectError) Unwrap() error {
	return e.Err
}

// Store persists small documents in an object bucket.
type Store interface {
	// Put stores an object at the given key.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Close releases underlying resources.
	Close() error
}
