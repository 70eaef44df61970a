// Package blobstore provides the key-value storage tiers behind the trieidx
// cache.
//
// BlobStore reads and writes whole objects by name. Implementations must be
// safe for concurrent use; the last writer of a name wins.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral caches
//   - LocalStore: a directory of files with atomic writes and optional IO throttling
//   - QuotaStore: wraps any store with a byte budget from a resource.Controller
//   - sqlstore.Store: SQLite table via gorm, the structured tier
//   - s3.Store and minio.Store: object storage, to share exports across hosts
//   - dynamodb.Store: one item per entry; entries above the item limit are
//     rejected with ErrQuotaExceeded
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Get(ctx, name) ([]byte, error)       // ErrNotFound if absent
//	    Put(ctx, name, data) error           // ErrQuotaExceeded if it does not fit
//	    Delete(ctx, name) error              // no error if absent
//	    List(ctx, prefix) ([]string, error)  // sorted names
//	}
//
// Stores that can report an object's size without reading it implement Sizer.
package blobstore
