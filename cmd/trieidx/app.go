package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hupe1980/trieidx"
	"github.com/hupe1980/trieidx/blobstore"
	ddbstore "github.com/hupe1980/trieidx/blobstore/dynamodb"
	miniostore "github.com/hupe1980/trieidx/blobstore/minio"
	s3store "github.com/hupe1980/trieidx/blobstore/s3"
	"github.com/hupe1980/trieidx/blobstore/sqlstore"
	"github.com/hupe1980/trieidx/cache"
	"github.com/hupe1980/trieidx/codec"
	"github.com/hupe1980/trieidx/internal/compress"
	"github.com/hupe1980/trieidx/internal/config"
	"github.com/hupe1980/trieidx/resource"
	"github.com/hupe1980/trieidx/trie"
	"github.com/hupe1980/trieidx/worker"
)

// app holds what a command needs, built from the configuration.
type app struct {
	cfg    *config.Config
	logger *trieidx.Logger
	rc     *resource.Controller
	cache  *cache.Manager
	exec   *worker.Executor
	engine *trieidx.Engine

	closers []func() error
}

func newLogger(cfg config.LogConfig) (*trieidx.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	if cfg.Format == "json" {
		return trieidx.NewJSONLogger(level), nil
	}
	return trieidx.NewTextLogger(level), nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		rc: resource.NewController(resource.Config{
			StorageQuotaBytes:    cfg.Cache.QuotaBytes,
			MaxBackgroundWorkers: cfg.Worker.MaxBackground,
			IOLimitBytesPerSec:   cfg.Worker.IOLimitBytesPerSec,
		}),
	}

	if cfg.Cache.Enabled {
		if a.cache, err = a.newCache(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.exec = worker.New(
		worker.WithChunkSize(cfg.Worker.ChunkSize),
		worker.WithBackground(cfg.Worker.Background),
		worker.WithPoolSize(cfg.Worker.PoolSize),
		worker.WithResourceController(a.rc),
		worker.WithLogger(logger.Logger),
		worker.WithProgress(func(p worker.Progress) {
			logger.Debug("load progress",
				"job", p.JobID,
				"state", p.State.String(),
				"progress", p.Progress,
				"message", p.Message,
			)
		}),
	)
	a.closers = append(a.closers, func() error { a.exec.Close(); return nil })

	limits := a.rc.Config()
	logger.Debug("executor ready",
		"chunk_size", a.exec.ChunkSize(),
		"background_slots", a.rc.BackgroundSlots(),
		"storage_quota", limits.StorageQuotaBytes,
		"io_limit", limits.IOLimitBytesPerSec,
	)

	c, _ := codec.ByName(cfg.Cache.Codec)

	a.engine, err = trieidx.New(
		trieidx.WithLogger(logger),
		trieidx.WithCodec(c),
		trieidx.WithCache(a.cache),
		trieidx.WithExecutor(a.exec),
		trieidx.WithSearchOffload(cfg.Search.Offload),
		trieidx.WithReturnFields(cfg.Search.ReturnFields...),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, a.engine.Close)

	return a, nil
}

func (a *app) newCache(ctx context.Context) (*cache.Manager, error) {
	cc := a.cfg.Cache

	algo, err := compress.ParseAlgorithm(cc.Compression)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cc.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	local := blobstore.NewLocalStore(cc.FallbackDir(), blobstore.WithIOController(a.rc))
	fallback, err := blobstore.NewQuotaStore(ctx, local, a.rc)
	if err != nil {
		return nil, err
	}

	var primary blobstore.BlobStore
	switch cc.Primary {
	case config.PrimarySQLite:
		st, err := sqlstore.Open(cc.SQLiteFile())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, st.Close)
		primary = st
	case config.PrimaryS3:
		opts := []s3store.Option{s3store.WithPrefix(cc.S3.Prefix), s3store.WithRegion(cc.S3.Region)}
		if cc.S3.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(cc.S3.Endpoint))
		}
		st, err := s3store.New(ctx, cc.S3.Bucket, opts...)
		if err != nil {
			return nil, err
		}
		primary = st
	case config.PrimaryMinIO:
		st, err := miniostore.Dial(cc.MinIO.Endpoint, cc.MinIO.AccessKey, cc.MinIO.SecretKey, cc.MinIO.Bucket, cc.MinIO.Prefix, cc.MinIO.Secure)
		if err != nil {
			return nil, err
		}
		primary = st
	case config.PrimaryDynamoDB:
		opts := []ddbstore.Option{
			ddbstore.WithPrefix(cc.DynamoDB.Prefix),
			ddbstore.WithRegion(cc.DynamoDB.Region),
			ddbstore.WithEndpoint(cc.DynamoDB.Endpoint),
			ddbstore.WithMaxBlobBytes(cc.DynamoDB.MaxItemBytes),
		}
		st, err := ddbstore.New(ctx, cc.DynamoDB.Table, opts...)
		if err != nil {
			return nil, err
		}
		primary = st
	}

	return cache.NewManager(primary, fallback,
		cache.WithNamespace(cc.Namespace),
		cache.WithLogger(a.logger.Logger),
		cache.WithCompression(algo),
		cache.WithTextFallback(cc.TextFallback),
		cache.WithHotCache(cc.HotBytes),
	), nil
}

// Close releases everything newApp opened, last opened first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

// readRecords decodes a JSON array of records.
func readRecords(path string) ([]trie.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []trie.Record
	if err := codec.Default.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

// dataset describes the dataset selected by the common flags.
func dataset(id string, fields, returnFields []string, recordsPath string) trieidx.Dataset {
	ds := trieidx.Dataset{ID: id, Fields: fields, ReturnFields: returnFields}
	if recordsPath != "" {
		ds.Source = func(context.Context) ([]trie.Record, error) {
			return readRecords(recordsPath)
		}
	} else {
		ds.Source = func(context.Context) ([]trie.Record, error) {
			return nil, fmt.Errorf("dataset %q is not cached; pass --records", id)
		}
	}
	return ds
}

