// Package metrics defines the Prometheus instrumentation for the selector
// engine, adapted from the teacher's routing.MatcherMetrics (struct of
// promauto collectors plus small Record* helpers) onto filter/match/querify
// operations and the pattern cache.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vitaliisemenov/selector-engine/internal/selectorcache"
)

// Metrics holds every Prometheus collector the selector engine exposes. All
// metrics live under the "selector_engine" namespace.
type Metrics struct {
	// FilterDuration tracks Filter() latency by outcome kind.
	FilterDuration *prometheus.HistogramVec

	// MatchDuration tracks Match() latency by outcome kind.
	MatchDuration *prometheus.HistogramVec

	// FilterResultSize tracks how many subjects a Filter() call returns.
	FilterResultSize prometheus.Histogram

	// QueriesTotal counts parsed queries by rule kind and parse outcome.
	QueriesTotal *prometheus.CounterVec

	// CacheHits mirrors the selectorcache's own cumulative hit count. It is
	// a gauge rather than a counter because selectorcache.Cache, not this
	// package, is the authority on when a hit occurred; UpdateCacheStats
	// copies its running total in whenever a caller invokes it.
	CacheHits prometheus.Gauge

	// CacheMisses mirrors the selectorcache's own cumulative miss count.
	CacheMisses prometheus.Gauge

	// CacheSize tracks the current entry count per cache bucket.
	CacheSize *prometheus.GaugeVec

	// ExternalProviderDuration tracks range/k8s/redis provider call latency.
	ExternalProviderDuration *prometheus.HistogramVec

	// ExternalProviderErrors counts failed provider calls by provider name.
	ExternalProviderErrors *prometheus.CounterVec

	// StreamSubscribers tracks the number of live filter-stream subscribers.
	StreamSubscribers prometheus.Gauge
}

// New creates selector engine metrics registered against reg. A nil reg
// registers against the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		FilterDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "selector_engine",
				Name:      "filter_duration_seconds",
				Help:      "Time to evaluate a Filter() call against a subject set",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
			},
			[]string{"outcome"},
		),

		MatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "selector_engine",
				Name:      "match_duration_seconds",
				Help:      "Time to evaluate a Match() call against a single subject",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 12),
			},
			[]string{"outcome"},
		),

		FilterResultSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "selector_engine",
				Name:      "filter_result_size",
				Help:      "Number of subjects returned by a Filter() call",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
		),

		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "selector_engine",
				Name:      "queries_total",
				Help:      "Total number of parsed queries by default kind and parse outcome",
			},
			[]string{"kind", "outcome"},
		),

		CacheHits: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "selector_engine",
				Name:      "pattern_cache_hits_total",
				Help:      "Cumulative number of compiled-pattern cache hits",
			},
		),

		CacheMisses: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "selector_engine",
				Name:      "pattern_cache_misses_total",
				Help:      "Cumulative number of compiled-pattern cache misses",
			},
		),

		CacheSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "selector_engine",
				Name:      "pattern_cache_size",
				Help:      "Current number of entries held per pattern cache bucket",
			},
			[]string{"bucket"},
		),

		ExternalProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "selector_engine",
				Name:      "external_provider_duration_seconds",
				Help:      "Latency of calls to external subject/range providers",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),

		ExternalProviderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "selector_engine",
				Name:      "external_provider_errors_total",
				Help:      "Total number of failed external provider calls",
			},
			[]string{"provider"},
		),

		StreamSubscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "selector_engine",
				Name:      "stream_subscribers",
				Help:      "Current number of live filter-stream websocket subscribers",
			},
		),
	}
}

// RecordFilter records the latency and result size of a Filter() call.
// outcome is "ok" or "error".
func (m *Metrics) RecordFilter(outcome string, duration time.Duration, resultSize int) {
	m.FilterDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if outcome == "ok" {
		m.FilterResultSize.Observe(float64(resultSize))
	}
}

// RecordMatch records the latency of a Match() call. outcome is "ok" or
// "error".
func (m *Metrics) RecordMatch(outcome string, duration time.Duration) {
	m.MatchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordQuery records a parse attempt for a query of the given default kind.
// outcome is "ok" or "error".
func (m *Metrics) RecordQuery(kind, outcome string) {
	m.QueriesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordProviderCall records the latency of a call to an external provider
// (range server, k8s API, redis) identified by name, and bumps the error
// counter when err is non-nil.
func (m *Metrics) RecordProviderCall(provider string, duration time.Duration, err error) {
	m.ExternalProviderDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if err != nil {
		m.ExternalProviderErrors.WithLabelValues(provider).Inc()
	}
}

// UpdateCacheStats syncs the hit/miss gauges and the glob/pcre bucket size
// gauges from a selectorcache snapshot. Safe to call on a timer: it simply
// mirrors whatever selectorcache currently reports.
func (m *Metrics) UpdateCacheStats(snapshot selectorcache.StatsSnapshot, globSize, pcreSize int) {
	m.CacheHits.Set(float64(snapshot.Hits))
	m.CacheMisses.Set(float64(snapshot.Misses))
	m.CacheSize.WithLabelValues("glob").Set(float64(globSize))
	m.CacheSize.WithLabelValues("pcre").Set(float64(pcreSize))
}

// SetStreamSubscribers sets the current live filter-stream subscriber
// count.
func (m *Metrics) SetStreamSubscribers(n int) {
	m.StreamSubscribers.Set(float64(n))
}
