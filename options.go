package trieidx

import (
	"log/slog"

	"github.com/hupe1980/trieidx/cache"
	"github.com/hupe1980/trieidx/codec"
	"github.com/hupe1980/trieidx/worker"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	cache            *cache.Manager
	executor         *worker.Executor
	searchOffload    bool
	returnFields     []string
}

// Option configures an Engine.
type Option func(*options)

// WithCodec configures the codec used to encode snapshots for the cache.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &trieidx.BasicMetricsCollector{}
//	eng, _ := trieidx.New(trieidx.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithCache persists exported indexes in m. Without a cache every load
// builds from records.
func WithCache(m *cache.Manager) Option {
	return func(o *options) {
		o.cache = m
	}
}

// WithExecutor sets the executor used for loads and offloaded searches.
// The engine does not close an executor passed here.
func WithExecutor(e *worker.Executor) Option {
	return func(o *options) {
		o.executor = e
	}
}

// WithSearchOffload runs searches on the executor's workers. Each offloaded
// search works on an imported copy of the index, which costs an export per
// call; it is off by default.
func WithSearchOffload(enabled bool) Option {
	return func(o *options) {
		o.searchOffload = enabled
	}
}

// WithReturnFields projects search results to the given record fields.
// A dataset's own ReturnFields take precedence.
func WithReturnFields(fields ...string) Option {
	return func(o *options) {
		o.returnFields = fields
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// LoadOption configures a single Load call.
type LoadOption func(*loadOptions)

type loadOptions struct {
	forceRefresh bool
}

// WithForceRefresh skips the cache lookup and replaces the cached entry.
func WithForceRefresh() LoadOption {
	return func(o *loadOptions) {
		o.forceRefresh = true
	}
}
