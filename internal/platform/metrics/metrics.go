// Package metrics registers the Prometheus collectors for the cache and the
// fetch pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "setgrouper"

// Fetch outcomes recorded per resolved name.
const (
	OutcomeCacheHit = "cache_hit"
	OutcomeFetched  = "fetched"
	OutcomeFailed   = "failed"
)

// Metrics holds every collector the application records.
type Metrics struct {
	registry *prometheus.Registry

	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheWrites        prometheus.Counter
	cacheWriteFailures prometheus.Counter
	cacheEvictions     prometheus.Counter
	fetchOutcomes      *prometheus.CounterVec
	fetchDuration      prometheus.Histogram
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "hits_total",
			Help: "Cache lookups that returned a live entry.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "misses_total",
			Help: "Cache lookups that found nothing or an expired entry.",
		}),
		cacheWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "writes_total",
			Help: "Entries written to the cache.",
		}),
		cacheWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "write_failures_total",
			Help: "Cache writes that failed even after eviction.",
		}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "evictions_total",
			Help: "Entries removed by oldest-first eviction.",
		}),
		fetchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "names_total",
			Help: "Resolved card names by outcome.",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "scryfall", Name: "request_duration_seconds",
			Help:    "Latency of card-data search requests, retries included.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cacheHits, m.cacheMisses, m.cacheWrites, m.cacheWriteFailures, m.cacheEvictions,
		m.fetchOutcomes, m.fetchDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) CacheWrite() {
	if m != nil {
		m.cacheWrites.Inc()
	}
}

func (m *Metrics) CacheWriteFailure() {
	if m != nil {
		m.cacheWriteFailures.Inc()
	}
}

func (m *Metrics) CacheEvicted(n int) {
	if m != nil && n > 0 {
		m.cacheEvictions.Add(float64(n))
	}
}

// NameResolved records the outcome of one pipeline name.
func (m *Metrics) NameResolved(outcome string) {
	if m != nil {
		m.fetchOutcomes.WithLabelValues(outcome).Inc()
	}
}

// ObserveFetch records the duration of one search request since start.
func (m *Metrics) ObserveFetch(start time.Time) {
	if m != nil {
		m.fetchDuration.Observe(time.Since(start).Seconds())
	}
}
