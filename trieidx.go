package trieidx

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/trieidx/cache"
	"github.com/hupe1980/trieidx/snapshot"
	"github.com/hupe1980/trieidx/trie"
	"github.com/hupe1980/trieidx/worker"
)

// Result is a ranked search hit.
type Result = trie.Result

// Status is the load state of an Engine.
type Status int

const (
	// StatusEmpty means nothing has been loaded.
	StatusEmpty Status = iota
	// StatusLoading means a load is in progress. A previously loaded index,
	// if any, keeps serving searches.
	StatusLoading
	// StatusReady means an index is loaded.
	StatusReady
	// StatusFailed means the last load failed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// loaded is an immutable, search-ready index.
type loaded struct {
	index *trie.Index
	meta  snapshot.Metadata
}

// Engine serves prefix searches over one dataset at a time.
//
// Loads build a complete index before it replaces the current one, so a
// concurrent search observes either the previous index or the new one.
// Engine is safe for concurrent use.
type Engine struct {
	opts     options
	logger   *Logger
	metrics  MetricsCollector
	exec     *worker.Executor
	ownsExec bool

	current atomic.Pointer[loaded]

	loadMu sync.Mutex // serializes Load and Import

	stateMu sync.Mutex
	status  Status
	lastErr error

	closeOnce sync.Once
}

// New creates an Engine.
func New(optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)

	e := &Engine{
		opts:    o,
		logger:  o.logger,
		metrics: o.metricsCollector,
		exec:    o.executor,
	}

	if e.exec == nil {
		e.exec = worker.New(worker.WithLogger(o.logger.Logger))
		e.ownsExec = true
	}

	return e, nil
}

// Status returns the current load state.
func (e *Engine) Status() Status {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.status
}

// Err returns the cause of the last failed load, or nil.
func (e *Engine) Err() error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.lastErr
}

func (e *Engine) setState(s Status, err error) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.status = s
	e.lastErr = err
}

// Metadata returns the metadata of the current index.
func (e *Engine) Metadata() (snapshot.Metadata, bool) {
	cur := e.current.Load()
	if cur == nil {
		return snapshot.Metadata{}, false
	}
	return cur.meta, true
}

// Load makes ds searchable.
//
// The cached export is used when present unless WithForceRefresh is given.
// Otherwise the records are indexed and the export is written to the cache.
// Cache problems never fail a load. On failure the previous index, if any,
// keeps serving searches and the returned error wraps ErrLoadFailed.
func (e *Engine) Load(ctx context.Context, ds Dataset, optFns ...LoadOption) (LoadResult, error) {
	if err := ds.validate(); err != nil {
		return LoadResult{}, err
	}

	var lo loadOptions
	for _, fn := range optFns {
		fn(&lo)
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	e.setState(StatusLoading, nil)

	start := time.Now()
	res, err := e.load(ctx, ds, lo)
	res.Duration = time.Since(start)

	e.metrics.RecordLoad(res.Source, res.Items, res.Duration, err)
	e.logger.LogLoad(ctx, ds.ID, res.Source, res.Items, res.Duration, err)

	if err != nil {
		e.setState(StatusFailed, err)
		return res, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	e.setState(StatusReady, nil)
	return res, nil
}

func (e *Engine) load(ctx context.Context, ds Dataset, lo loadOptions) (LoadResult, error) {
	key := CacheKey(ds.ID, ds.Fields)
	res := LoadResult{DatasetID: ds.ID, CacheKey: key, Source: SourceRecords}

	if e.opts.cache != nil {
		if lo.forceRefresh {
			if err := e.opts.cache.Remove(ctx, key); err != nil {
				e.logger.WarnContext(ctx, "cache remove failed", "key", key, "error", err)
			}
		} else if l, stats, ok := e.fromCache(ctx, ds, key); ok {
			e.current.Store(l)
			res.Source = SourceCache
			res.Records = l.meta.RecordCount
			res.Items = stats.Items
			res.Terms = l.index.Terms()
			res.Dropped = stats.Dropped
			return res, nil
		}
	}

	records, err := ds.records(ctx)
	if err != nil {
		return res, err
	}

	ix, err := e.exec.RunLoad(ctx, records, ds.Fields)
	if err != nil {
		return res, err
	}

	l := &loaded{
		index: ix,
		meta: snapshot.Metadata{
			Version:      snapshot.Version,
			DatasetID:    ds.ID,
			SearchFields: ds.Fields,
			ReturnFields: ds.ReturnFields,
			RecordCount:  len(records),
		},
	}
	e.current.Store(l)

	res.Records = len(records)
	res.Items = ix.Len()
	res.Terms = ix.Terms()

	if e.opts.cache != nil {
		res.CacheStatus = e.toCache(ctx, key, l)
	}

	return res, nil
}

// fromCache imports the cached export of ds. Any failure is a miss.
func (e *Engine) fromCache(ctx context.Context, ds Dataset, key string) (*loaded, snapshot.ImportStats, bool) {
	entry, ok := e.opts.cache.Retrieve(ctx, key)
	e.logger.LogCacheRetrieve(ctx, key, ok, entry.Tier)
	if !ok {
		e.metrics.RecordCache("retrieve", "miss")
		return nil, snapshot.ImportStats{}, false
	}

	s, err := snapshot.Decode(e.opts.codec, entry.Payload)
	if err == nil && s.Metadata.DatasetID != ds.ID {
		err = fmt.Errorf("%w: dataset %q, want %q", snapshot.ErrInvalidSnapshot, s.Metadata.DatasetID, ds.ID)
	}

	var (
		ix    *trie.Index
		stats snapshot.ImportStats
	)
	if err == nil {
		ix, stats, err = snapshot.Import(s, snapshot.WithLogger(e.logger.Logger))
	}
	e.logger.LogImport(ctx, ds.ID, stats, err)
	if err != nil {
		e.metrics.RecordCache("retrieve", "miss")
		return nil, stats, false
	}

	e.metrics.RecordCache("retrieve", "hit")

	meta := s.Metadata
	if len(ds.ReturnFields) > 0 {
		meta.ReturnFields = ds.ReturnFields
	}
	return &loaded{index: ix, meta: meta}, stats, true
}

func (e *Engine) toCache(ctx context.Context, key string, l *loaded) cache.StoreStatus {
	data, err := snapshot.Encode(e.opts.codec, snapshot.Export(l.index, l.meta))
	if err != nil {
		e.logger.WarnContext(ctx, "snapshot encode failed", "key", key, "error", err)
		e.metrics.RecordCache("store", cache.StatusFailed.String())
		return cache.StatusFailed
	}

	status := e.opts.cache.Store(ctx, key, data)
	e.logger.LogCacheStore(ctx, key, status, len(data))
	e.metrics.RecordCache("store", status.String())
	return status
}

func (e *Engine) notReady() error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.lastErr != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, e.lastErr)
	}
	return ErrNotReady
}

// Search returns up to limit ranked results for query.
//
// An empty slice means no match. Before a successful load Search fails with
// ErrNotReady, or with ErrLoadFailed if the last load failed.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	start := time.Now()

	results, err := e.search(ctx, query, limit)

	e.metrics.RecordSearch(limit, len(results), time.Since(start), err)
	e.logger.LogSearch(ctx, query, limit, len(results), err)

	return results, err
}

func (e *Engine) search(ctx context.Context, query string, limit int) ([]Result, error) {
	cur := e.current.Load()
	if cur == nil {
		return nil, e.notReady()
	}

	var hits []trie.Result
	if e.opts.searchOffload {
		sr, err := e.exec.RunSearch(ctx, cur.index, query, limit)
		if err != nil {
			return nil, err
		}
		hits = sr.Results
	} else {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hits = cur.index.Search(query, limit)
	}

	fields := cur.meta.ReturnFields
	if len(fields) == 0 {
		fields = e.opts.returnFields
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{ID: h.ID, Score: h.Score, Item: project(h.Item, fields)}
	}
	return results, nil
}

// project copies the given fields of r. Without fields r is returned as is.
func project(r trie.Record, fields []string) trie.Record {
	if len(fields) == 0 || r == nil {
		return r
	}
	out := make(trie.Record, len(fields))
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	return out
}

// Export returns a snapshot of the current index.
func (e *Engine) Export(ctx context.Context) (*snapshot.Snapshot, error) {
	cur := e.current.Load()
	if cur == nil {
		return nil, e.notReady()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return snapshot.Export(cur.index, cur.meta), nil
}

// Import replaces the current index with one imported from s.
func (e *Engine) Import(ctx context.Context, s *snapshot.Snapshot) (snapshot.ImportStats, error) {
	if err := ctx.Err(); err != nil {
		return snapshot.ImportStats{}, err
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	start := time.Now()
	ix, stats, err := snapshot.Import(s, snapshot.WithLogger(e.logger.Logger))

	var datasetID string
	if s != nil {
		datasetID = s.Metadata.DatasetID
	}
	e.logger.LogImport(ctx, datasetID, stats, err)
	e.metrics.RecordLoad(SourceSnapshot, stats.Items, time.Since(start), err)

	if err != nil {
		return stats, err
	}

	e.current.Store(&loaded{index: ix, meta: s.Metadata})
	e.setState(StatusReady, nil)
	return stats, nil
}

// Reset drops the current index. Cached entries are kept.
func (e *Engine) Reset() {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	e.current.Store(nil)
	e.setState(StatusEmpty, nil)
}

// ClearCache removes every cached index in the cache namespace.
func (e *Engine) ClearCache(ctx context.Context) error {
	if e.opts.cache == nil {
		return nil
	}
	return e.opts.cache.Clear(ctx)
}

// Close releases the engine's executor. The cache is owned by the caller.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		if e.ownsExec {
			e.exec.Close()
		}
	})
	return nil
}
