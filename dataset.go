package trieidx

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/trieidx/cache"
	"github.com/hupe1980/trieidx/internal/hash"
	"github.com/hupe1980/trieidx/trie"
)

// Source fetches the records of a dataset. It is called only when the index
// cannot be served from the cache.
type Source func(ctx context.Context) ([]trie.Record, error)

// Dataset describes what to index.
type Dataset struct {
	// ID identifies the dataset. Together with Fields it forms the cache key.
	ID string

	// Fields are the record fields made searchable.
	Fields []string

	// ReturnFields, if set, limits the fields returned with search results.
	ReturnFields []string

	// Records are indexed directly when non-empty.
	Records []trie.Record

	// Source is used when Records is empty.
	Source Source
}

func (d Dataset) validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDataset)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("%w: no search fields", ErrInvalidDataset)
	}
	if len(d.Records) == 0 && d.Source == nil {
		return fmt.Errorf("%w: no records and no source", ErrInvalidDataset)
	}
	return nil
}

func (d Dataset) records(ctx context.Context) ([]trie.Record, error) {
	if len(d.Records) > 0 {
		return d.Records, nil
	}
	records, err := d.Source(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	return records, nil
}

// CacheKey derives the cache key of a dataset indexed over fields.
// Field order is significant.
func CacheKey(datasetID string, fields []string) string {
	parts := make([]string, 0, len(fields)+1)
	parts = append(parts, datasetID)
	parts = append(parts, fields...)
	return "trie-" + hash.FingerprintStrings(parts...)
}

// LoadResult describes a completed load.
type LoadResult struct {
	DatasetID string
	CacheKey  string

	// Source is SourceCache when the index was imported from the cache and
	// SourceRecords when it was built.
	Source string

	Records int // records indexed, as recorded at build time
	Items   int
	Terms   int
	Dropped int // cached item ids without a record

	// CacheStatus is the outcome of writing the new index to the cache.
	// It is cache.StatusFailed when nothing was written.
	CacheStatus cache.StoreStatus

	Duration time.Duration
}
