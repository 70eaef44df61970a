package cache

import (
	"log/slog"
	"time"

	"github.com/hupe1980/trieidx/internal/compress"
)

// DefaultNamespace scopes the keys of a Manager unless WithNamespace is used.
const DefaultNamespace = "trie-cache"

type options struct {
	namespace    string
	logger       *slog.Logger
	algorithm    compress.Algorithm
	textFallback bool
	hotCapacity  int64
	now          func() time.Time
}

// Option configures a Manager.
type Option func(*options)

// WithNamespace sets the key namespace. Eviction, listing and Clear only
// touch keys in this namespace.
func WithNamespace(ns string) Option {
	return func(o *options) {
		if ns != "" {
			o.namespace = ns
		}
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

// WithCompression sets the compression algorithm. Default: zstd.
func WithCompression(algo compress.Algorithm) Option {
	return func(o *options) {
		o.algorithm = algo
	}
}

// WithTextFallback controls base64 wrapping of fallback payloads for stores
// that only hold text. Default: true.
func WithTextFallback(enabled bool) Option {
	return func(o *options) {
		o.textFallback = enabled
	}
}

// WithHotCache keeps up to capacity bytes of entries in memory in front of
// both tiers.
func WithHotCache(capacity int64) Option {
	return func(o *options) {
		o.hotCapacity = capacity
	}
}

// WithClock sets the time source for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		namespace:    DefaultNamespace,
		logger:       slog.New(slog.DiscardHandler),
		algorithm:    compress.Zstd,
		textFallback: true,
		now:          time.Now,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}
