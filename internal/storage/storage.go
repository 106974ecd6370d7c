package storage

import (
	"context"
	"io"
)

// BlobStore persists media objects under caller-chosen paths.
type BlobStore interface {
	// Put stores the object at path, failing if the write did not complete.
	Put(ctx context.Context, path string, body io.Reader, contentType string) error

	// Delete removes the object at path. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error

	// URL returns the public URL for path.
	URL(path string) string
}

// Config selects and configures a BlobStore.
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	BaseURL   string
	BasePath  string
}
