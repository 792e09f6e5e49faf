// Package storage defines the blob store: durable binary payloads addressed
// by generated object ids. Swap implementations by changing the concrete type
// injected at startup — the MinIO implementation works with any S3-compatible
// provider (MinIO, ArvanCloud, AWS S3).
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when no blob exists for the given object id.
var ErrNotFound = errors.New("blob not found")

// BlobInfo describes a stored blob.
type BlobInfo struct {
	ObjectID    string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}

// BlobStore is the interface for writing and retrieving binary payloads.
// Blobs are immutable once written; the only mutation is Delete.
type BlobStore interface {
	// Write consumes the reader to completion, persists the payload under a
	// freshly generated object id, and returns that id. On failure no partial
	// object is visible to readers.
	Write(ctx context.Context, r io.Reader, size int64, contentType string) (string, error)
	// Read streams the blob for objectID. The returned reader is lazy: bytes
	// are fetched from the medium as the caller consumes them.
	Read(ctx context.Context, objectID string) (io.ReadCloser, BlobInfo, error)
	// Delete removes the blob. Deleting a missing id returns ErrNotFound but
	// leaves the same state as success, so cleanup paths may treat it as benign.
	Delete(ctx context.Context, objectID string) error
}
