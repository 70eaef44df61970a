package blobstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/trieidx/resource"
)

// QuotaStore bounds the total size of the blobs in an underlying store by the
// storage quota of a resource.Controller. Writes that do not fit fail with
// ErrQuotaExceeded and leave the store unchanged.
type QuotaStore struct {
	inner BlobStore
	rc    *resource.Controller

	mu    sync.Mutex
	sizes map[string]int64 // bytes reserved per blob
}

// NewQuotaStore wraps inner and reserves quota for the blobs it already holds.
// Existing blobs that do not fit are kept but not charged.
func NewQuotaStore(ctx context.Context, inner BlobStore, rc *resource.Controller) (*QuotaStore, error) {
	q := &QuotaStore{
		inner: inner,
		rc:    rc,
		sizes: make(map[string]int64),
	}

	names, err := inner.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("blobstore: scan existing blobs: %w", err)
	}
	for _, name := range names {
		size, err := SizeOf(ctx, inner, name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("blobstore: size of %s: %w", name, err)
		}
		if !rc.TryAcquireStorage(size) {
			size = 0
		}
		q.sizes[name] = size
	}

	return q, nil
}

// Get reads a blob.
func (q *QuotaStore) Get(ctx context.Context, name string) ([]byte, error) {
	return q.inner.Get(ctx, name)
}

// Put writes a blob if the quota allows the size change.
func (q *QuotaStore) Put(ctx context.Context, name string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	newSize := int64(len(data))
	oldSize := q.sizes[name]

	if delta := newSize - oldSize; delta > 0 {
		if !q.rc.TryAcquireStorage(delta) {
			return fmt.Errorf("%w: %s needs %d bytes, %d of %d in use",
				ErrQuotaExceeded, name, delta, q.rc.StorageUsage(), q.rc.StorageQuota())
		}
		if err := q.inner.Put(ctx, name, data); err != nil {
			q.rc.ReleaseStorage(delta)
			return err
		}
	} else {
		if err := q.inner.Put(ctx, name, data); err != nil {
			return err
		}
		q.rc.ReleaseStorage(-delta)
	}

	q.sizes[name] = newSize
	return nil
}

// Delete removes a blob and returns its bytes to the quota.
func (q *QuotaStore) Delete(ctx context.Context, name string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.inner.Delete(ctx, name); err != nil {
		return err
	}
	if size, ok := q.sizes[name]; ok {
		q.rc.ReleaseStorage(size)
		delete(q.sizes, name)
	}
	return nil
}

// List returns all blobs matching the prefix.
func (q *QuotaStore) List(ctx context.Context, prefix string) ([]string, error) {
	return q.inner.List(ctx, prefix)
}

// Usage returns the bytes charged to the quota by this store.
func (q *QuotaStore) Usage() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	var total int64
	for _, size := range q.sizes {
		total += size
	}
	return total
}
