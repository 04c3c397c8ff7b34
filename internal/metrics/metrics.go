package metrics

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"econstats/internal/cache"
)

var (
	cacheEntriesDesc = prometheus.NewDesc(
		"econstats_cache_entries",
		"Live entries per in-memory cache",
		[]string{"cache"},
		nil,
	)
	cacheHitsDesc = prometheus.NewDesc(
		"econstats_cache_hits_total",
		"Cache hits per in-memory cache",
		[]string{"cache"},
		nil,
	)
	cacheMissesDesc = prometheus.NewDesc(
		"econstats_cache_misses_total",
		"Cache misses per in-memory cache",
		[]string{"cache"},
		nil,
	)
	cacheEvictionsDesc = prometheus.NewDesc(
		"econstats_cache_evictions_total",
		"Entries evicted to make room, per in-memory cache",
		[]string{"cache"},
		nil,
	)
)

// StatsSource is anything that reports cache statistics.
type StatsSource interface {
	Stats() cache.Stats
}

// CacheCollector is a custom Prometheus collector that reads cache
// statistics on each scrape.
type CacheCollector struct {
	caches []StatsSource
}

// NewCacheCollector creates a collector over caches.
func NewCacheCollector(caches ...StatsSource) *CacheCollector {
	return &CacheCollector{caches: caches}
}

// Describe sends the metric descriptors to the channel.
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cacheEntriesDesc
	ch <- cacheHitsDesc
	ch <- cacheMissesDesc
	ch <- cacheEvictionsDesc
}

// Collect reads every cache's stats and emits them.
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	for _, src := range c.caches {
		s := src.Stats()
		ch <- prometheus.MustNewConstMetric(cacheEntriesDesc, prometheus.GaugeValue, float64(s.Entries), s.Name)
		ch <- prometheus.MustNewConstMetric(cacheHitsDesc, prometheus.CounterValue, float64(s.Hits), s.Name)
		ch <- prometheus.MustNewConstMetric(cacheMissesDesc, prometheus.CounterValue, float64(s.Misses), s.Name)
		ch <- prometheus.MustNewConstMetric(cacheEvictionsDesc, prometheus.CounterValue, float64(s.Evictions), s.Name)
	}
}

// Recorder holds the routing counters.
type Recorder struct {
	routes         *prometheus.CounterVec
	overrides      *prometheus.CounterVec
	topicMismatch  prometheus.Counter
	llmCalls       *prometheus.CounterVec
	enrichFailures *prometheus.CounterVec
	fetchFailures  prometheus.Counter
}

// NewRecorder creates the counters and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "econstats_routes_total",
			Help: "Routed queries by the stage that produced the result",
		}, []string{"route_type"}),
		overrides: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "econstats_validation_overrides_total",
			Help: "Deterministic validation overrides by category",
		}, []string{"category"}),
		topicMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "econstats_topic_mismatch_total",
			Help: "Routed results whose series topic differs from the query topic",
		}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "econstats_llm_calls_total",
			Help: "LLM calls by component and outcome",
		}, []string{"component", "outcome"}),
		enrichFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "econstats_enrichment_failures_total",
			Help: "Enrichers that failed and were skipped",
		}, []string{"enricher"}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "econstats_fetch_failures_total",
			Help: "Series fetches that failed and were skipped",
		}),
	}
	if reg != nil {
		reg.MustRegister(r.routes, r.overrides, r.topicMismatch, r.llmCalls, r.enrichFailures, r.fetchFailures)
	}
	return r
}

var (
	recorder     *Recorder
	recorderOnce sync.Once
)

// Init registers the default recorder and the cache collector with the
// default registry. Must be called once at startup; later calls are no-ops.
func Init(caches ...StatsSource) {
	recorderOnce.Do(func() {
		recorder = NewRecorder(prometheus.DefaultRegisterer)
		if err := prometheus.Register(NewCacheCollector(caches...)); err != nil {
			slog.Error("failed to register cache collector", "error", err)
		}
	})
}

// RecordRoute counts a routed query by route type.
func RecordRoute(routeType string) {
	if recorder == nil {
		return
	}
	recorder.routes.WithLabelValues(routeType).Inc()
}

// RecordOverride counts a validation override.
func RecordOverride(category string) {
	if recorder == nil {
		return
	}
	recorder.overrides.WithLabelValues(category).Inc()
}

// RecordTopicMismatch counts a logged topic mismatch.
func RecordTopicMismatch() {
	if recorder == nil {
		return
	}
	recorder.topicMismatch.Inc()
}

// RecordLLMCall counts an LLM call outcome ("ok", "error", "unparseable").
func RecordLLMCall(component, outcome string) {
	if recorder == nil {
		return
	}
	recorder.llmCalls.WithLabelValues(component, outcome).Inc()
}

// RecordEnrichFailure counts a failed enricher.
func RecordEnrichFailure(enricher string) {
	if recorder == nil {
		return
	}
	recorder.enrichFailures.WithLabelValues(enricher).Inc()
}

// RecordFetchFailure counts a failed series fetch.
func RecordFetchFailure() {
	if recorder == nil {
		return
	}
	recorder.fetchFailures.Inc()
}
