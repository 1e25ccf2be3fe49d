package objectstore

import (
	"context"
	"io"
	"sync"
)

// MockStore is an in-memory implementation of the Store interface for
// testing.
type MockStore struct {
	mu      sync.RWMutex
	objects map[string]mockObject
	closed  bool

	// PutErr, when set, is returned by every Put.
	PutErr error
}

type mockObject struct {
	data        []byte
	contentType string
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		objects: make(map[string]mockObject),
	}
}

func (s *MockStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.PutErr != nil {
		return s.PutErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.objects[key] = mockObject{data: data, contentType: contentType}
	return nil
}

func (s *MockStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Object returns the stored bytes for key and whether it exists.
func (s *MockStore) Object(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj.data, ok
}

// ContentType returns the stored content type for key.
func (s *MockStore) ContentType(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[key].contentType
}

// Len returns the number of stored objects.
func (s *MockStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Closed reports whether Close has been called.
func (s *MockStore) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
