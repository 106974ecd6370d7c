package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"mockprep/internal/models"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failPut error
}

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (f *fakeStore) Put(_ context.Context, path string, body io.Reader, _ string) error {
	if f.failPut != nil {
		return f.failPut
	}
	data, _ := io.ReadAll(body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[path] = data
	return nil
}

func (f *fakeStore) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, path)
	delete(f.objects, path)
	return nil
}

func (f *fakeStore) URL(path string) string { return "https://cdn.test/" + path }

func TestUpload_Success(t *testing.T) {
	store := newFakeStore()
	u := NewUploader(store, zap.NewNop())
	u.now = func() time.Time { return time.Unix(0, 42) }

	url, err := u.Upload(context.Background(), []byte("clip"), "s1", 2, "a@x.com")
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if url != "https://cdn.test/a@x.com/interview-s1-q2-42.webm" {
		t.Fatalf("unexpected url %s", url)
	}
	if string(store.objects["a@x.com/interview-s1-q2-42.webm"]) != "clip" {
		t.Fatalf("expected stored clip")
	}
}

func TestUpload_EmptyClipNeverTouchesStore(t *testing.T) {
	store := newFakeStore()
	store.failPut = errors.New("should not be called")
	u := NewUploader(store, zap.NewNop())

	_, err := u.Upload(context.Background(), nil, "s1", 0, "a@x.com")
	if !errors.Is(err, ErrEmptyClip) || !errors.Is(err, models.ErrUploadFailure) {
		t.Fatalf("expected empty upload failure, got %v", err)
	}
}

func TestUpload_TransportErrorCleansUp(t *testing.T) {
	store := newFakeStore()
	store.failPut = errors.New("connection reset")
	u := NewUploader(store, zap.NewNop())

	_, err := u.Upload(context.Background(), []byte("clip"), "s1", 0, "a@x.com")
	if !errors.Is(err, models.ErrUploadFailure) {
		t.Fatalf("expected ErrUploadFailure, got %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("expected cleanup of the attempted path, got %v", store.deleted)
	}
}

func TestUpload_PathsAreUniquePerAttempt(t *testing.T) {
	store := newFakeStore()
	u := NewUploader(store, zap.NewNop())
	var tick int64
	u.now = func() time.Time { tick++; return time.Unix(0, tick) }

	first, _ := u.Upload(context.Background(), []byte("a"), "s1", 0, "a@x.com")
	second, _ := u.Upload(context.Background(), []byte("b"), "s1", 0, "a@x.com")
	if first == second {
		t.Fatalf("expected distinct paths for retries, got %s twice", first)
	}
}

func TestClipPathSanitizesSeparators(t *testing.T) {
	p := ClipPath("a/b", "s/1", 0, time.Unix(0, 1))
	if strings.Count(p, "/") != 1 {
		t.Fatalf("expected a single separator, got %s", p)
	}
}
