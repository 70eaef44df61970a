// Package minio stores cache entries in MinIO or another S3-compatible
// object store through the minio-go client.
//
//	store, err := minio.Dial("localhost:9000", "minioadmin", "minioadmin", "tries", "cache/", false)
//	if err != nil {
//	    return err
//	}
//	mgr := cache.NewManager(store, local)
//
// NewStore wraps an existing *minio.Client.
package minio
