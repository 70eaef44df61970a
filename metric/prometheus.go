package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/trieidx"
)

var _ trieidx.MetricsCollector = (*PrometheusCollector)(nil)

// PrometheusCollector implements trieidx.MetricsCollector with Prometheus
// metrics.
type PrometheusCollector struct {
	loadLatency   *prometheus.HistogramVec
	loadedItems   prometheus.Gauge
	searchLatency *prometheus.HistogramVec
	searchResults prometheus.Histogram
	cacheOps      *prometheus.CounterVec
}

// NewPrometheusCollector creates the collector's metrics and registers them
// with reg. A nil reg skips registration.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	c := &PrometheusCollector{
		loadLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trieidx_load_duration_seconds",
			Help:    "Latency of index loads",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"source", "status"}),
		loadedItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trieidx_loaded_items",
			Help: "Items in the most recently loaded index",
		}),
		searchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trieidx_search_duration_seconds",
			Help:    "Latency of searches",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"status"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trieidx_search_results",
			Help:    "Results returned per search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trieidx_cache_operations_total",
			Help: "Cache operations by outcome",
		}, []string{"op", "outcome"}),
	}

	if reg != nil {
		for _, col := range c.collectors() {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

func (c *PrometheusCollector) collectors() []prometheus.Collector {
	return []prometheus.Collector{c.loadLatency, c.loadedItems, c.searchLatency, c.searchResults, c.cacheOps}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordLoad implements trieidx.MetricsCollector.
func (c *PrometheusCollector) RecordLoad(source string, items int, duration time.Duration, err error) {
	c.loadLatency.WithLabelValues(source, status(err)).Observe(duration.Seconds())
	if err == nil {
		c.loadedItems.Set(float64(items))
	}
}

// RecordSearch implements trieidx.MetricsCollector.
func (c *PrometheusCollector) RecordSearch(limit, results int, duration time.Duration, err error) {
	c.searchLatency.WithLabelValues(status(err)).Observe(duration.Seconds())
	if err == nil {
		c.searchResults.Observe(float64(results))
	}
}

// RecordCache implements trieidx.MetricsCollector.
func (c *PrometheusCollector) RecordCache(op, outcome string) {
	c.cacheOps.WithLabelValues(op, outcome).Inc()
}
