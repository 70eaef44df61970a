package blobstore

import (
	"context"
	"errors"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrQuotaExceeded is returned when a write does not fit into the store's
// capacity.
var ErrQuotaExceeded = errors.New("blobstore: quota exceeded")

// BlobStore is a key-value store for opaque blobs.
type BlobStore interface {
	// Get returns the content of a blob.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Sizer is implemented by stores that report a blob's size without reading it.
type Sizer interface {
	Size(ctx context.Context, name string) (int64, error)
}

// SizeOf returns the size of a blob, using Sizer when available.
func SizeOf(ctx context.Context, s BlobStore, name string) (int64, error) {
	if sz, ok := s.(Sizer); ok {
		return sz.Size(ctx, name)
	}
	data, err := s.Get(ctx, name)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}
