package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/trieidx/blobstore"
)

// DefaultMaxBlobBytes keeps an item below DynamoDB's 400 KiB limit with room
// for the key and attribute names.
const DefaultMaxBlobBytes = 390 << 10

const (
	attrName = "name"
	attrData = "data"
	attrSize = "size"
)

// Client is the subset of the DynamoDB API used by Store.
type Client interface {
	dynamodb.ScanAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// Store implements blobstore.BlobStore on a DynamoDB table.
type Store struct {
	client   Client
	table    string
	prefix   string
	maxBytes int
	pageSize int32
}

var (
	_ blobstore.BlobStore = (*Store)(nil)
	_ blobstore.Sizer     = (*Store)(nil)
)

type options struct {
	prefix   string
	region   string
	endpoint string
	maxBytes int
	pageSize int32
}

// Option configures a Store.
type Option func(*options)

// WithPrefix sets the key prefix for all blobs.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithRegion sets the AWS region used by New.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithEndpoint sets a custom endpoint, e.g. DynamoDB Local.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithMaxBlobBytes sets the largest blob Put accepts.
func WithMaxBlobBytes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBytes = n
		}
	}
}

// WithScanPageSize limits the items evaluated per Scan request.
func WithScanPageSize(n int32) Option {
	return func(o *options) { o.pageSize = n }
}

func applyOptions(optFns []Option) options {
	o := options{maxBytes: DefaultMaxBlobBytes}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// New creates a Store using the default AWS credential chain.
func New(ctx context.Context, table string, optFns ...Option) (*Store, error) {
	o := applyOptions(optFns)

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(do *dynamodb.Options) {
		if o.endpoint != "" {
			do.BaseEndpoint = aws.String(o.endpoint)
		}
	})

	return newStore(client, table, o), nil
}

// NewStore creates a Store from an existing client.
func NewStore(client Client, table string, optFns ...Option) *Store {
	return newStore(client, table, applyOptions(optFns))
}

func newStore(client Client, table string, o options) *Store {
	return &Store{
		client:   client,
		table:    table,
		prefix:   o.prefix,
		maxBytes: o.maxBytes,
		pageSize: o.pageSize,
	}
}

func (s *Store) key(name string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrName: &types.AttributeValueMemberS{Value: s.prefix + name},
	}
}

// getItem reads the item of name. A non-empty attr limits the read to that
// attribute.
func (s *Store) getItem(ctx context.Context, name, attr string) (map[string]types.AttributeValue, error) {
	input := &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(name),
		ConsistentRead: aws.Bool(true),
	}
	if attr != "" {
		input.ProjectionExpression = aws.String("#a")
		input.ExpressionAttributeNames = map[string]string{"#a": attr}
	}

	resp, err := s.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: get %s: %w", name, err)
	}
	if len(resp.Item) == 0 {
		return nil, fmt.Errorf("%w: %s", blobstore.ErrNotFound, name)
	}
	return resp.Item, nil
}

// Get returns the content of a blob.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	item, err := s.getItem(ctx, name, "")
	if err != nil {
		return nil, err
	}
	data, ok := item[attrData].(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("dynamodb: invalid data attribute for %s", name)
	}
	return data.Value, nil
}

// Put writes a blob. Blobs above the item limit fail with
// blobstore.ErrQuotaExceeded.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if len(data) > s.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte item limit", blobstore.ErrQuotaExceeded, len(data), s.maxBytes)
	}

	item := s.key(name)
	item[attrData] = &types.AttributeValueMemberB{Value: data}
	item[attrSize] = &types.AttributeValueMemberN{Value: strconv.Itoa(len(data))}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb: put %s: %w", name, err)
	}
	return nil
}

// Delete removes a blob.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(name),
	})
	if err != nil {
		return fmt.Errorf("dynamodb: delete %s: %w", name, err)
	}
	return nil
}

// List returns the names of all blobs with the given prefix, relative to the
// store prefix. It scans the table.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	input := &dynamodb.ScanInput{
		TableName:                aws.String(s.table),
		ProjectionExpression:     aws.String("#n"),
		FilterExpression:         aws.String("begins_with(#n, :p)"),
		ExpressionAttributeNames: map[string]string{"#n": attrName},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: s.prefix + prefix},
		},
		ConsistentRead: aws.Bool(true),
	}
	if s.pageSize > 0 {
		input.Limit = aws.Int32(s.pageSize)
	}

	var names []string
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb: list: %w", err)
		}
		for _, item := range page.Items {
			if n, ok := item[attrName].(*types.AttributeValueMemberS); ok {
				names = append(names, strings.TrimPrefix(n.Value, s.prefix))
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// Size returns the size of a blob without reading its data.
func (s *Store) Size(ctx context.Context, name string) (int64, error) {
	item, err := s.getItem(ctx, name, attrSize)
	if err != nil {
		return 0, err
	}
	n, ok := item[attrSize].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("dynamodb: invalid size attribute for %s", name)
	}
	return strconv.ParseInt(n.Value, 10, 64)
}
