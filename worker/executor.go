package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/trieidx/resource"
	"github.com/hupe1980/trieidx/snapshot"
	"github.com/hupe1980/trieidx/trie"
)

// DefaultChunkSize is the number of records per LoadData message.
const DefaultChunkSize = 10000

type options struct {
	chunkSize  int
	background bool
	poolSize   int
	rc         *resource.Controller
	logger     *slog.Logger
	progress   func(Progress)
}

// Option configures an Executor.
type Option func(*options)

// WithChunkSize sets the number of records per chunk.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithBackground enables or disables the worker pool.
func WithBackground(enabled bool) Option {
	return func(o *options) {
		o.background = enabled
	}
}

// WithResourceController bounds concurrent background jobs by the controller's
// background slots. When no slot is free, work runs on the caller's goroutine.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProgress registers a callback for progress reports. It is called on the
// goroutine that invoked RunLoad.
func WithProgress(fn func(Progress)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithPoolSize sets the number of pool goroutines.
func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = n
	}
}

// Executor runs loads and searches, on a worker pool when possible.
type Executor struct {
	opts options
	pool *Pool
}

// New creates an Executor. Its pool is sized to the resource controller's
// background slots, or GOMAXPROCS without a controller.
func New(optFns ...Option) *Executor {
	opts := options{
		chunkSize:  DefaultChunkSize,
		background: true,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.poolSize <= 0 && opts.rc != nil {
		opts.poolSize = opts.rc.BackgroundSlots()
	}

	e := &Executor{opts: opts}
	if opts.background {
		e.pool = NewPool(opts.poolSize)
	}

	return e
}

// Close stops the pool. Later calls run on the caller's goroutine.
func (e *Executor) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// ChunkSize returns the configured chunk size.
func (e *Executor) ChunkSize() int { return e.opts.chunkSize }

func (e *Executor) report(p Progress) {
	if e.opts.progress != nil {
		e.opts.progress(p)
	}
}

// RunLoad builds a new index from records in chunks.
//
// The returned index is complete. On error or cancellation the partial index
// is discarded and a *LoadError is returned.
func (e *Executor) RunLoad(ctx context.Context, records []trie.Record, fields []string) (*trie.Index, error) {
	if len(records) == 0 {
		e.opts.logger.Warn("load skipped", "reason", "no records")
		return nil, trie.ErrNoRecords
	}
	if len(fields) == 0 {
		e.opts.logger.Warn("load skipped", "reason", "no fields")
		return nil, trie.ErrNoFields
	}

	jobID := uuid.NewString()
	chunks := slices.Collect(slices.Chunk(records, e.opts.chunkSize))

	logger := e.opts.logger.With("job", jobID)
	logger.Debug("load started", "records", len(records), "batches", len(chunks))

	e.report(Progress{JobID: jobID, State: StateIdle, TotalBatches: len(chunks)})

	if e.pool != nil {
		ix, err := e.runBackgroundLoad(ctx, jobID, chunks, fields)
		if !inline(err) {
			return ix, e.finishLoad(logger, ix, err)
		}
		logger.Debug("loading in foreground", "reason", err)
	}

	ix, err := e.runForegroundLoad(ctx, jobID, chunks, fields)
	return ix, e.finishLoad(logger, ix, err)
}

func (e *Executor) finishLoad(logger *slog.Logger, ix *trie.Index, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		logger.Warn("load failed", "batch", le.Batch, "error", le.Err)
		e.report(Progress{JobID: le.JobID, State: StateError, BatchIndex: le.Batch, Message: le.Err.Error()})
		return err
	}
	if err != nil {
		return err
	}
	logger.Debug("load complete", "items", ix.Len(), "terms", ix.Terms())
	return nil
}

func (e *Executor) runForegroundLoad(ctx context.Context, jobID string, chunks [][]trie.Record, fields []string) (*trie.Index, error) {
	ix := trie.New(trie.WithLogger(e.opts.logger))
	total := len(chunks)

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, &LoadError{JobID: jobID, Batch: i, Err: err}
		}
		if _, err := loadChunk(ix, chunk, fields); err != nil {
			return nil, &LoadError{JobID: jobID, Batch: i, Err: err}
		}
		e.report(batchProgress(jobID, i, total))
		runtime.Gosched()
	}

	e.report(Progress{JobID: jobID, State: StateComplete, Progress: 1, BatchIndex: total - 1, TotalBatches: total})
	return ix, nil
}

func (e *Executor) runBackgroundLoad(ctx context.Context, jobID string, chunks [][]trie.Record, fields []string) (*trie.Index, error) {
	total := len(chunks)
	inbox := make(chan LoadData)
	outbox := make(chan Message)
	quit := make(chan struct{})
	defer close(quit)

	task := func() { loadWorker(inbox, outbox, quit) }
	if err := e.pool.SubmitBackground(ctx, e.opts.rc, task); err != nil {
		if inline(err) {
			return nil, err
		}
		return nil, &LoadError{JobID: jobID, Batch: 0, Err: err}
	}

	go func() {
		defer close(inbox)
		for i, chunk := range chunks {
			msg := LoadData{Data: chunk, Fields: fields, BatchIndex: i, TotalBatches: total}
			select {
			case inbox <- msg:
			case <-quit:
				return
			}
		}
	}()

	batch := 0
	for {
		select {
		case <-ctx.Done():
			return nil, &LoadError{JobID: jobID, Batch: batch, Err: ctx.Err()}
		case msg := <-outbox:
			switch m := msg.(type) {
			case Progress:
				m.JobID = jobID
				batch = m.BatchIndex + 1
				e.report(m)
			case Complete:
				e.report(Progress{JobID: jobID, State: StateComplete, Progress: 1, BatchIndex: total - 1, TotalBatches: total})
				return m.Index, nil
			case Error:
				return nil, &LoadError{JobID: jobID, Batch: m.Batch, Err: m.Err}
			}
		}
	}
}

// loadWorker owns one index for the lifetime of a load job.
func loadWorker(inbox <-chan LoadData, outbox chan<- Message, quit <-chan struct{}) {
	send := func(m Message) bool {
		select {
		case outbox <- m:
			return true
		case <-quit:
			return false
		}
	}

	ix := trie.New()
	var total trie.LoadStats

	for msg := range inbox {
		stats, err := loadChunk(ix, msg.Data, msg.Fields)
		if err != nil {
			send(Error{Err: err, Batch: msg.BatchIndex})
			return
		}
		total.Records += stats.Records
		total.Values += stats.Values
		total.Tokens += stats.Tokens
		total.Skipped += stats.Skipped

		if !send(batchProgress("", msg.BatchIndex, msg.TotalBatches)) {
			return
		}
	}

	send(Complete{Index: ix, Stats: total})
}

func loadChunk(ix *trie.Index, data []trie.Record, fields []string) (stats trie.LoadStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrWorkerFailed, r)
		}
	}()

	stats, err = ix.LoadData(data, fields, true)
	if err != nil {
		return stats, fmt.Errorf("%w: %w", ErrWorkerFailed, err)
	}
	return stats, nil
}

func batchProgress(jobID string, i, total int) Progress {
	return Progress{
		JobID:        jobID,
		State:        StateProcessing,
		Progress:     float64(i+1) / float64(total),
		Message:      fmt.Sprintf("processed batch %d of %d", i+1, total),
		BatchIndex:   i,
		TotalBatches: total,
	}
}

// RunSearch searches ix. In background mode the worker searches an imported
// copy of the exported index, so ix is only read on the caller's goroutine.
func (e *Executor) RunSearch(ctx context.Context, ix *trie.Index, query string, limit int) (SearchResults, error) {
	if ix == nil {
		return SearchResults{}, nil
	}

	start := time.Now()

	if e.pool != nil {
		req := Search{Query: query, Limit: limit, Snapshot: snapshot.Export(ix, snapshot.Metadata{})}
		reply := make(chan Message, 1)

		err := e.pool.SubmitBackground(ctx, e.opts.rc, func() {
			reply <- searchWorker(req, start)
		})
		if err == nil {
			select {
			case <-ctx.Done():
				return SearchResults{}, ctx.Err()
			case msg := <-reply:
				switch m := msg.(type) {
				case SearchResults:
					return m, nil
				case Error:
					return SearchResults{}, m.Err
				default:
					return SearchResults{}, fmt.Errorf("%w: unexpected reply %T", ErrWorkerFailed, m)
				}
			}
		}

		if !inline(err) {
			return SearchResults{}, err
		}
	}

	if err := ctx.Err(); err != nil {
		return SearchResults{}, err
	}

	return SearchResults{Results: ix.Search(query, limit), TimeTaken: time.Since(start)}, nil
}

func searchWorker(req Search, start time.Time) (msg Message) {
	defer func() {
		if r := recover(); r != nil {
			msg = Error{Err: fmt.Errorf("%w: panic: %v", ErrWorkerFailed, r), Batch: -1}
		}
	}()

	ix, _, err := snapshot.Import(req.Snapshot)
	if err != nil {
		return Error{Err: fmt.Errorf("%w: %w", ErrWorkerFailed, err), Batch: -1}
	}

	return SearchResults{Results: ix.Search(req.Query, req.Limit), TimeTaken: time.Since(start)}
}
