package trieidx

import (
	"sync/atomic"
	"time"
)

// Load sources reported to MetricsCollector.RecordLoad.
const (
	SourceCache    = "cache"
	SourceRecords  = "records"
	SourceSnapshot = "snapshot"
)

// MetricsCollector defines an interface for collecting operational metrics.
// See the metric package for a Prometheus implementation.
type MetricsCollector interface {
	// RecordLoad is called after each Load or Import.
	// source is one of SourceCache, SourceRecords or SourceSnapshot.
	RecordLoad(source string, items int, duration time.Duration, err error)

	// RecordSearch is called after each search.
	RecordSearch(limit, results int, duration time.Duration, err error)

	// RecordCache is called for each cache operation. op is "retrieve" or
	// "store"; outcome is "hit", "miss" or a cache.StoreStatus string.
	RecordCache(op, outcome string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(string, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSearch(int, int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordCache(string, string)                   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
	LoadTotalNanos   atomic.Int64
	CacheLoads       atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
	SearchResults    atomic.Int64
	CacheHits        atomic.Int64
	CacheMisses      atomic.Int64
	CacheStores      atomic.Int64
	CacheDegraded    atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(source string, items int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	if source == SourceCache {
		b.CacheLoads.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(limit, results int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	b.SearchResults.Add(int64(results))
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordCache implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCache(op, outcome string) {
	switch {
	case op == "retrieve" && outcome == "hit":
		b.CacheHits.Add(1)
	case op == "retrieve":
		b.CacheMisses.Add(1)
	case outcome == "degraded":
		b.CacheDegraded.Add(1)
	default:
		b.CacheStores.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		LoadAvgNanos:   avg(b.LoadTotalNanos.Load(), b.LoadCount.Load()),
		CacheLoads:     b.CacheLoads.Load(),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchAvgNanos: avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		SearchResults:  b.SearchResults.Load(),
		CacheHits:      b.CacheHits.Load(),
		CacheMisses:    b.CacheMisses.Load(),
		CacheStores:    b.CacheStores.Load(),
		CacheDegraded:  b.CacheDegraded.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount      int64
	LoadErrors     int64
	LoadAvgNanos   int64
	CacheLoads     int64
	SearchCount    int64
	SearchErrors   int64
	SearchAvgNanos int64
	SearchResults  int64
	CacheHits      int64
	CacheMisses    int64
	CacheStores    int64
	CacheDegraded  int64
}
