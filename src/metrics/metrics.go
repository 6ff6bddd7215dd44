package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// -----------------------------------------------------------------------------
// Metrics collects the engine counters exposed on /metrics. One instance per
// process, wired into the chart components at assembly time.
// -----------------------------------------------------------------------------

type Metrics struct {
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	CacheEvictions    prometheus.Counter
	FetchesIssued     prometheus.Counter
	FetchesSuperseded prometheus.Counter
	FetchesFailed     prometheus.Counter
	FetchDuration     prometheus.Histogram
	LivePoints        prometheus.Counter
	LivePointsDropped prometheus.Counter
	SpikesDetected    prometheus.Counter
	WindowPoints      prometheus.Gauge
}

// -----------------------------------------------------------------------------

func NewMetrics() *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_cache_hits_total",
			Help: "Total chunk cache hits observed.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_cache_misses_total",
			Help: "Total chunk cache misses observed.",
		}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_cache_evictions_total",
			Help: "Total chunk cache entries evicted under capacity pressure.",
		}),
		FetchesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_fetches_issued_total",
			Help: "Total history fetch requests issued to the provider.",
		}),
		FetchesSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_fetches_superseded_total",
			Help: "Total fetches cancelled because a newer request replaced them.",
		}),
		FetchesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_fetches_failed_total",
			Help: "Total history fetches that failed.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chart_fetch_duration_seconds",
			Help:    "Histogram of history fetch durations.",
			Buckets: prometheus.DefBuckets,
		}),
		LivePoints: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_live_points_total",
			Help: "Total live feed points accepted into the window.",
		}),
		LivePointsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_live_points_dropped_total",
			Help: "Total live feed points rejected (malformed or overflow).",
		}),
		SpikesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_spikes_detected_total",
			Help: "Total points classified as threshold spikes.",
		}),
		WindowPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chart_window_points",
			Help: "Current number of points held in the window store.",
		}),
	}

	prometheus.MustRegister(
		m.CacheHits,
		m.CacheMisses,
		m.CacheEvictions,
		m.FetchesIssued,
		m.FetchesSuperseded,
		m.FetchesFailed,
		m.FetchDuration,
		m.LivePoints,
		m.LivePointsDropped,
		m.SpikesDetected,
		m.WindowPoints,
	)

	return m
}

// -----------------------------------------------------------------------------

// NewNopMetrics returns an unregistered instance for tests, so parallel test
// packages never fight over the default registry.
func NewNopMetrics() *Metrics {
	return &Metrics{
		CacheHits:         prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_cache_hits_total"}),
		CacheMisses:       prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_cache_misses_total"}),
		CacheEvictions:    prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_cache_evictions_total"}),
		FetchesIssued:     prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_fetches_issued_total"}),
		FetchesSuperseded: prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_fetches_superseded_total"}),
		FetchesFailed:     prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_fetches_failed_total"}),
		FetchDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Name: "nop_fetch_duration_seconds"}),
		LivePoints:        prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_live_points_total"}),
		LivePointsDropped: prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_live_points_dropped_total"}),
		SpikesDetected:    prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_spikes_detected_total"}),
		WindowPoints:      prometheus.NewGauge(prometheus.GaugeOpts{Name: "nop_window_points"}),
	}
}

// -----------------------------------------------------------------------------

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
