// Package metric exports engine metrics to Prometheus.
//
//	pc, err := metric.NewPrometheusCollector(prometheus.DefaultRegisterer)
//	eng, _ := trieidx.New(trieidx.WithMetricsCollector(pc))
//	http.Handle("/metrics", promhttp.Handler())
package metric
