package trieidx

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/trieidx/cache"
	"github.com/hupe1980/trieidx/snapshot"
)

// Logger wraps slog.Logger with trieidx-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithDataset adds a dataset field to the logger.
func (l *Logger) WithDataset(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset", id),
	}
}

// LogLoad logs a finished load.
func (l *Logger) LogLoad(ctx context.Context, datasetID, source string, items int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"dataset", datasetID,
			"source", source,
			"duration", d,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "load completed",
			"dataset", datasetID,
			"source", source,
			"items", items,
			"duration", d,
		)
	}
}

// LogSearch logs a search.
func (l *Logger) LogSearch(ctx context.Context, query string, limit, results int, err error) {
	if err != nil {
		l.WarnContext(ctx, "search failed",
			"query", query,
			"limit", limit,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"query", query,
			"limit", limit,
			"results", results,
		)
	}
}

// LogCacheStore logs the outcome of a cache write.
func (l *Logger) LogCacheStore(ctx context.Context, key string, status cache.StoreStatus, bytes int) {
	switch status {
	case cache.StatusStored, cache.StatusStoredFallback:
		l.DebugContext(ctx, "cache stored",
			"key", key,
			"status", status.String(),
			"bytes", bytes,
		)
	default:
		l.WarnContext(ctx, "cache store incomplete",
			"key", key,
			"status", status.String(),
			"bytes", bytes,
		)
	}
}

// LogCacheRetrieve logs a cache lookup.
func (l *Logger) LogCacheRetrieve(ctx context.Context, key string, hit bool, tier string) {
	l.DebugContext(ctx, "cache lookup",
		"key", key,
		"hit", hit,
		"tier", tier,
	)
}

// LogImport logs a snapshot import.
func (l *Logger) LogImport(ctx context.Context, datasetID string, stats snapshot.ImportStats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "import failed",
			"dataset", datasetID,
			"error", err,
		)
		return
	}
	if stats.Dropped > 0 {
		l.WarnContext(ctx, "import dropped unknown items",
			"dataset", datasetID,
			"dropped", stats.Dropped,
		)
	}
	l.DebugContext(ctx, "import completed",
		"dataset", datasetID,
		"nodes", stats.Nodes,
		"terms", stats.Terms,
		"items", stats.Items,
	)
}
