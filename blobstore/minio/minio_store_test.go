package minio

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/hupe1980/trieidx/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Key(t *testing.T) {
	assert.Equal(t, "a/b", (&Store{}).key("a/b"))
	assert.Equal(t, "root/a", (&Store{prefix: "root/"}).key("a"))
	assert.Equal(t, "root/a", (&Store{prefix: "root"}).key("a"))
}

// TestMinioStore_Integration requires a running MinIO instance.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping MinIO integration test: MINIO_ENDPOINT not set")
	}
	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	bucket := "test-trieidx"

	prefix := fmt.Sprintf("run-%d/", time.Now().UnixNano())
	store, err := Dial(endpoint, accessKey, secretKey, bucket, prefix, false)
	require.NoError(t, err)

	ctx := context.Background()
	if _, err := store.client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := store.client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, store.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "ns/test.bin", data))

	got, err := store.Get(ctx, "ns/test.bin")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	size, err := store.Size(ctx, "ns/test.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)

	names, err := store.List(ctx, "ns/")
	require.NoError(t, err)
	assert.Equal(t, []string{"ns/test.bin"}, names)

	require.NoError(t, store.Delete(ctx, "ns/test.bin"))
	_, err = store.Get(ctx, "ns/test.bin")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
