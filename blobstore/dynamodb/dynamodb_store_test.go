package dynamodb

import (
	"context"
	"crypto/rand"
	"errors"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/trieidx/blobstore"
	"github.com/hupe1980/trieidx/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is an in-memory table keyed by the name attribute.
type fakeClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue
	scans int
	err   error
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]map[string]types.AttributeValue)}
}

func keyOf(m map[string]types.AttributeValue) string {
	return m[attrName].(*types.AttributeValueMemberS).Value
}

func (f *fakeClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.err != nil {
		return nil, f.err
	}

	item, ok := f.items[keyOf(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	if params.ProjectionExpression != nil {
		attr := params.ExpressionAttributeNames[aws.ToString(params.ProjectionExpression)]
		return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{attr: item[attr]}}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.items[keyOf(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	delete(f.items, keyOf(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

// Scan evaluates Limit items in key order and filters them afterwards, like
// DynamoDB does.
func (f *fakeClient) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.scans++

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	if params.ExclusiveStartKey != nil {
		start := keyOf(params.ExclusiveStartKey)
		i, found := slices.BinarySearch(keys, start)
		if found {
			i++
		}
		keys = keys[i:]
	}

	var last map[string]types.AttributeValue
	if params.Limit != nil && int(*params.Limit) < len(keys) {
		keys = keys[:*params.Limit]
		last = map[string]types.AttributeValue{attrName: &types.AttributeValueMemberS{Value: keys[len(keys)-1]}}
	}

	prefix := params.ExpressionAttributeValues[":p"].(*types.AttributeValueMemberS).Value
	var items []map[string]types.AttributeValue
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			items = append(items, map[string]types.AttributeValue{attrName: &types.AttributeValueMemberS{Value: k}})
		}
	}

	return &dynamodb.ScanOutput{Items: items, LastEvaluatedKey: last}, nil
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	fake := newFakeClient()
	store := NewStore(fake, "cache", WithPrefix("test/"))

	_, err := store.Get(ctx, "ns/a")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, "ns/a", []byte("alpha")))
	require.NoError(t, store.Put(ctx, "ns/b", []byte("bravo!")))
	require.NoError(t, store.Put(ctx, "other/c", []byte("c")))

	got, err := store.Get(ctx, "ns/a")
	require.NoError(t, err)
	assert.Equal(t, []byte("alpha"), got)

	n, err := blobstore.SizeOf(ctx, store, "ns/b")
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	_, err = store.Size(ctx, "ns/missing")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	assert.Contains(t, fake.items, "test/ns/a")

	names, err := store.List(ctx, "ns/")
	require.NoError(t, err)
	assert.Equal(t, []string{"ns/a", "ns/b"}, names)

	require.NoError(t, store.Delete(ctx, "ns/a"))
	require.NoError(t, store.Delete(ctx, "ns/a"))

	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ns/b", "other/c"}, names)
}

func TestStore_ListPaginates(t *testing.T) {
	ctx := context.Background()
	fake := newFakeClient()
	store := NewStore(fake, "cache", WithScanPageSize(2))

	for _, name := range []string{"a/1", "a/2", "b/1", "a/3", "c/1"} {
		require.NoError(t, store.Put(ctx, name, []byte(name)))
	}

	names, err := store.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1", "a/2", "a/3"}, names)
	assert.Equal(t, 3, fake.scans)
}

func TestStore_TooLarge(t *testing.T) {
	ctx := context.Background()
	fake := newFakeClient()
	store := NewStore(fake, "cache", WithMaxBlobBytes(8))

	err := store.Put(ctx, "big", []byte("123456789"))
	assert.ErrorIs(t, err, blobstore.ErrQuotaExceeded)
	assert.Empty(t, fake.items)

	require.NoError(t, store.Put(ctx, "small", []byte("12345678")))
}

func TestStore_ClientErrors(t *testing.T) {
	ctx := context.Background()
	fake := newFakeClient()
	fake.err = errors.New("throttled")
	store := NewStore(fake, "cache")

	_, err := store.Get(ctx, "a")
	assert.ErrorContains(t, err, "throttled")
	assert.NotErrorIs(t, err, blobstore.ErrNotFound)

	assert.ErrorContains(t, store.Put(ctx, "a", []byte("x")), "throttled")
	assert.ErrorContains(t, store.Delete(ctx, "a"), "throttled")

	_, err = store.List(ctx, "")
	assert.ErrorContains(t, err, "throttled")
}

func TestStore_CacheFallsBackWhenTooLarge(t *testing.T) {
	ctx := context.Background()
	primary := NewStore(newFakeClient(), "cache", WithMaxBlobBytes(1024))
	fallback := blobstore.NewMemoryStore()
	mgr := cache.NewManager(primary, fallback)

	small := []byte("berlin bern hamburg")
	assert.Equal(t, cache.StatusStored, mgr.Store(ctx, "small", small))

	big := make([]byte, 4096)
	_, _ = rand.Read(big)
	assert.Equal(t, cache.StatusStoredFallback, mgr.Store(ctx, "big", big))

	entry, ok := mgr.Retrieve(ctx, "small")
	require.True(t, ok)
	assert.Equal(t, cache.TierPrimary, entry.Tier)
	assert.Equal(t, small, entry.Payload)

	entry, ok = mgr.Retrieve(ctx, "big")
	require.True(t, ok)
	assert.Equal(t, cache.TierFallback, entry.Tier)
	assert.Equal(t, big, entry.Payload)

	keys, err := mgr.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"big", "small"}, keys)
}

func TestIntegration_DynamoDBStore(t *testing.T) {
	table := os.Getenv("DYNAMODB_TABLE")
	if table == "" {
		t.Skip("Skipping DynamoDB integration test: DYNAMODB_TABLE not set")
	}

	ctx := context.Background()
	store, err := New(ctx, table, WithPrefix("test-trieidx/"), WithEndpoint(os.Getenv("DYNAMODB_ENDPOINT")))
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "ns/blob", []byte("payload")))
	got, err := store.Get(ctx, "ns/blob")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	names, err := store.List(ctx, "ns/")
	require.NoError(t, err)
	assert.Contains(t, names, "ns/blob")

	require.NoError(t, store.Delete(ctx, "ns/blob"))
}
