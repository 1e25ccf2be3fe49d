package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/scour-io/scour/internal/objectstore"
)

// fakeS3 is a minimal S3 endpoint: it records PUT requests and answers
// with a configurable status.
type fakeS3 struct {
	mu       sync.Mutex
	status   int
	requests []recordedRequest
}

type recordedRequest struct {
	method      string
	path        string
	contentType string
	body        []byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		method:      r.Method,
		path:        r.URL.Path,
		contentType: r.Header.Get("Content-Type"),
		body:        body,
	})
	status := f.status
	f.mu.Unlock()

	if status == 0 || status == http.StatusOK {
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
		return
	}

	code := "AccessDenied"
	if status == http.StatusNotFound {
		code = "NoSuchBucket"
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>test failure</Message><RequestId>req-1</RequestId></Error>`, code)
}

func (f *fakeS3) lastRequest(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("no requests recorded")
	}
	return f.requests[len(f.requests)-1]
}

func newTestStore(t *testing.T, fake *fakeS3) *Store {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := New(context.Background(), Config{
		Bucket:          "audit-receipts",
		Region:          "us-east-1",
		Endpoint:        server.URL,
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil {
		t.Fatal("expected error for missing bucket")
	}
}

func TestPut(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(t, fake)

	doc := []byte(`{"deletedTables":["silver_user_daily"],"guidCount":3}`)
	err := store.Put(context.Background(), "erasure/2026-08-25/run-1.json", bytes.NewReader(doc), int64(len(doc)), "application/json")
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}

	req := fake.lastRequest(t)
	if req.method != http.MethodPut {
		t.Errorf("method %s, want PUT", req.method)
	}
	if want := "/audit-receipts/erasure/2026-08-25/run-1.json"; req.path != want {
		t.Errorf("path %q, want %q", req.path, want)
	}
	if req.contentType != "application/json" {
		t.Errorf("content type %q, want application/json", req.contentType)
	}
	if !bytes.Contains(req.body, doc) {
		t.Errorf("request body %q does not contain document", req.body)
	}
}

func TestPutAccessDenied(t *testing.T) {
	fake := &fakeS3{status: http.StatusForbidden}
	store := newTestStore(t, fake)

	err := store.Put(context.Background(), "k.json", strings.NewReader("{}"), 2, "application/json")
	if !errors.Is(err, objectstore.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	var objErr *objectstore.ObjectError
	if !errors.As(err, &objErr) {
		t.Fatalf("expected ObjectError, got %T", err)
	}
	if objErr.Op != "Put" || objErr.Key != "k.json" {
		t.Errorf("unexpected ObjectError fields: %+v", objErr)
	}
}

func TestPutBucketNotFound(t *testing.T) {
	fake := &fakeS3{status: http.StatusNotFound}
	store := newTestStore(t, fake)

	err := store.Put(context.Background(), "k.json", strings.NewReader("{}"), 2, "application/json")
	if !errors.Is(err, objectstore.ErrBucketNotFound) {
		t.Fatalf("expected ErrBucketNotFound, got %v", err)
	}
}

func TestPutAfterClose(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(t, fake)

	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	err := store.Put(context.Background(), "k.json", strings.NewReader("{}"), 2, "application/json")
	if err == nil || !strings.Contains(err.Error(), "closed") {
		t.Fatalf("expected closed error, got %v", err)
	}
}
