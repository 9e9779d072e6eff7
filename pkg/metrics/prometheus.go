// Package metrics provides Prometheus metrics for the Podium leaderboard
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tier labels used by the per-tier read counters.
const (
	TierHot    = "hot"
	TierShared = "shared"
	TierStore  = "store"
)

// Manager owns every Prometheus collector for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Core business metrics
	scoreUpdates     prometheus.Counter
	leaderboardReads prometheus.Counter
	tierReads        *prometheus.CounterVec // tier, result
	promotions       prometheus.Counter
	bulkLoadSize     prometheus.Histogram

	// Hot tier
	hotTierSize      prometheus.Gauge
	hotTierCapacity  prometheus.Gauge
	hotTierEvictions prometheus.Counter

	// Cache / classifier degradation
	cacheErrors *prometheus.CounterVec // component, op

	// Durable store
	durableWriteLatency prometheus.Histogram
	durableQueryLatency prometheus.Histogram
	durableWriteErrors  prometheus.Counter

	// Reconciler
	reconcileRuns        prometheus.Counter
	reconcileGames       prometheus.Counter
	reconcileErrors      prometheus.Counter
	reconcileDuration    prometheus.Histogram
	reconcileEntriesSync prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global manager registered on a custom registry so the default Go
// collectors do not pollute the scrape.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics wiring
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "podium",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat collector declarations
	auto := promauto.With(m.registry)

	m.scoreUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_updates_total",
		Help:      "Total number of accepted score updates",
	})

	m.leaderboardReads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reads_total",
		Help:      "Total number of leaderboard reads",
	})

	m.tierReads = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "tier_reads_total",
			Help:      "Read attempts per tier and outcome (hit/miss)",
		},
		[]string{"tier", "result"},
	)

	m.promotions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "promotions_total",
		Help:      "Total number of games promoted into the shared rank cache",
	})

	m.bulkLoadSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "promotion_seed_entries",
		Help:      "Number of entries seeded at promotion time",
		Buckets:   []float64{1, 10, 100, 1_000, 10_000, 100_000},
	})

	m.hotTierSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hot_tier_games",
		Help:      "Number of games currently materialized in the hot tier",
	})

	m.hotTierCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hot_tier_capacity",
		Help:      "Configured hot tier capacity (max in-memory games)",
	})

	m.hotTierEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hot_tier_evictions_total",
		Help:      "Total number of LRU evictions from the hot tier",
	})

	m.cacheErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_errors_total",
			Help:      "Degraded cache/classifier operations by component and op",
		},
		[]string{"component", "op"},
	)

	m.durableWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_write_latency_milliseconds",
		Help:      "Durable store upsert latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.durableQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Durable store query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.durableWriteErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_write_errors_total",
		Help:      "Durable store write failures (these fail the client call)",
	})

	m.reconcileRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_runs_total",
		Help:      "Total number of reconciliation cycles started",
	})

	m.reconcileGames = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_games_flushed_total",
		Help:      "Total number of per-game batches flushed to the durable store",
	})

	m.reconcileErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_batch_errors_total",
		Help:      "Per-game reconciliation batches that failed this cycle",
	})

	m.reconcileDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_cycle_duration_milliseconds",
		Help:      "Wall time of a full reconciliation cycle in milliseconds",
		Buckets:   []float64{10, 100, 1_000, 10_000, 60_000, 300_000},
	})

	m.reconcileEntriesSync = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_entries_total",
		Help:      "Total leaderboard entries upserted by the reconciler",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Process heap allocation in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordScoreUpdate increments the accepted score update counter.
func RecordScoreUpdate() {
	globalManager.scoreUpdates.Inc()
}

// RecordRead increments the leaderboard read counter.
func RecordRead() {
	globalManager.leaderboardReads.Inc()
}

// RecordTierHit records a hit on the given tier.
func RecordTierHit(tier string) {
	globalManager.tierReads.WithLabelValues(tier, "hit").Inc()
}

// RecordTierMiss records a miss on the given tier.
func RecordTierMiss(tier string) {
	globalManager.tierReads.WithLabelValues(tier, "miss").Inc()
}

// RecordPromotion increments the promotion counter.
func RecordPromotion() {
	globalManager.promotions.Inc()
}

// RecordPromotionSeedSize records how many entries a promotion seeded.
func RecordPromotionSeedSize(n int) {
	globalManager.bulkLoadSize.Observe(float64(n))
}

// UpdateHotTierSize sets the current number of hot games.
func UpdateHotTierSize(n int) {
	globalManager.hotTierSize.Set(float64(n))
}

// UpdateHotTierCapacity sets the configured hot tier capacity.
func UpdateHotTierCapacity(n int) {
	globalManager.hotTierCapacity.Set(float64(n))
}

// RecordHotTierEviction increments the eviction counter.
func RecordHotTierEviction() {
	globalManager.hotTierEvictions.Inc()
}

// RecordCacheError records a degraded cache or classifier operation.
func RecordCacheError(component, op string) {
	globalManager.cacheErrors.WithLabelValues(component, op).Inc()
}

// RecordDurableWriteLatency records store upsert latency in milliseconds.
func RecordDurableWriteLatency(ms float64) {
	globalManager.durableWriteLatency.Observe(ms)
}

// RecordDurableQueryLatency records store query latency in milliseconds.
func RecordDurableQueryLatency(ms float64) {
	globalManager.durableQueryLatency.Observe(ms)
}

// RecordDurableWriteError increments the durable write failure counter.
func RecordDurableWriteError() {
	globalManager.durableWriteErrors.Inc()
}

// RecordReconcileRun increments the reconciliation cycle counter.
func RecordReconcileRun() {
	globalManager.reconcileRuns.Inc()
}

// RecordReconcileGame increments the flushed game counter.
func RecordReconcileGame() {
	globalManager.reconcileGames.Inc()
}

// RecordReconcileError increments the per-game batch failure counter.
func RecordReconcileError() {
	globalManager.reconcileErrors.Inc()
}

// RecordReconcileDuration records a full cycle's duration in milliseconds.
func RecordReconcileDuration(ms float64) {
	globalManager.reconcileDuration.Observe(ms)
}

// RecordReconcileEntries adds to the reconciled entry counter.
func RecordReconcileEntries(n int) {
	globalManager.reconcileEntriesSync.Add(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry for exposition handlers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
