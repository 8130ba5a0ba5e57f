// Package metrics provides Prometheus metrics for the tourney scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion
	factsIngested  *prometheus.CounterVec
	factsDuplicate *prometheus.CounterVec
	factsMalformed *prometheus.CounterVec
	factsFailed    *prometheus.CounterVec
	factLatency    *prometheus.HistogramVec

	// Ledger
	awardsTotal     *prometheus.CounterVec
	awardPoints     *prometheus.CounterVec
	bannersAwarded  *prometheus.CounterVec
	streakExtended  prometheus.Counter
	streakBroken    prometheus.Counter
	playersTotal    prometheus.Gauge
	clansTotal      prometheus.Gauge
	provisionalSum  prometheus.Gauge
	trophiesAwarded prometheus.Gauge

	// Recomputation pass
	recomputeDuration prometheus.Histogram
	recomputeLastUnix prometheus.Gauge
	recomputeTotal    prometheus.Counter
	recomputeFailures prometheus.Counter

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueRejected    *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tourney",
		subsystem:        "ledger",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.factsIngested = m.counterVec("facts_ingested_total", "Facts recorded and scored, by kind", "kind")
	m.factsDuplicate = m.counterVec("facts_duplicate_total", "Re-delivered facts skipped, by kind", "kind")
	m.factsMalformed = m.counterVec("facts_malformed_total", "Facts discarded as malformed, by kind", "kind")
	m.factsFailed = m.counterVec("facts_failed_total", "Facts whose transaction failed, by kind", "kind")
	m.factLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fact_latency_milliseconds",
		Help:      "Time spent scoring one fact inside its transaction",
		Buckets:   m.histogramBuckets,
	}, []string{"kind"})

	m.awardsTotal = m.counterVec("awards_total", "Point awards written to the audit trail", "temporality", "target")
	m.awardPoints = m.counterVec("award_points_total", "Points written to the audit trail", "temporality", "target")
	m.bannersAwarded = m.counterVec("banners_awarded_total", "Banners granted", "temporality")
	m.streakExtended = m.counter("streak_extended_total", "Wins that extended or started an active streak")
	m.streakBroken = m.counter("streak_broken_total", "Active streaks cleared by a non-winning run")
	m.playersTotal = m.gauge("players", "Known players")
	m.clansTotal = m.gauge("clans", "Registered clans")
	m.provisionalSum = m.gauge("provisional_points", "Provisional points issued by the last recomputation pass")
	m.trophiesAwarded = m.gauge("provisional_awards", "Provisional awards issued by the last recomputation pass")

	m.recomputeDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_duration_milliseconds",
		Help:      "Provisional recomputation pass duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.recomputeLastUnix = m.gauge("recompute_last_unix", "Unix timestamp of the last committed recomputation pass")
	m.recomputeTotal = m.counter("recompute_total", "Committed recomputation passes")
	m.recomputeFailures = m.counter("recompute_failures_total", "Recomputation passes rolled back")

	m.queueSize = m.gauge("queue_size", "Facts waiting in the ingestion queue")
	m.queueCapacity = m.gauge("queue_capacity", "Ingestion queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Ingestion queue utilization (size / capacity)")
	m.queueRejected = m.counterVec("queue_rejected_total", "Facts rejected by the ingestion queue", "reason")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
}

// RecordFactIngested counts a fact that was recorded and scored.
func RecordFactIngested(kind string, latencyMs float64) {
	globalManager.factsIngested.WithLabelValues(kind).Inc()
	globalManager.factLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordFactDuplicate counts a re-delivered fact.
func RecordFactDuplicate(kind string) {
	globalManager.factsDuplicate.WithLabelValues(kind).Inc()
}

// RecordFactMalformed counts a discarded fact.
func RecordFactMalformed(kind string) {
	globalManager.factsMalformed.WithLabelValues(kind).Inc()
}

// RecordFactFailed counts a fact whose transaction rolled back.
func RecordFactFailed(kind string) {
	globalManager.factsFailed.WithLabelValues(kind).Inc()
}

// RecordAward counts one audit entry. temporality is "permanent" or
// "provisional"; target is "player", "team" or "clan".
func RecordAward(temporality, target string, points int) {
	globalManager.awardsTotal.WithLabelValues(temporality, target).Inc()
	globalManager.awardPoints.WithLabelValues(temporality, target).Add(float64(points))
}

// RecordBannerAwarded counts a granted banner.
func RecordBannerAwarded(temporality string) {
	globalManager.bannersAwarded.WithLabelValues(temporality).Inc()
}

// RecordStreakExtended counts a win that started or extended a streak.
func RecordStreakExtended() {
	globalManager.streakExtended.Inc()
}

// RecordStreakBroken counts a cleared active streak.
func RecordStreakBroken() {
	globalManager.streakBroken.Inc()
}

// UpdatePlayers sets the known player count.
func UpdatePlayers(count int) {
	globalManager.playersTotal.Set(float64(count))
}

// UpdateClans sets the registered clan count.
func UpdateClans(count int) {
	globalManager.clansTotal.Set(float64(count))
}

// RecordRecompute records a committed recomputation pass.
func RecordRecompute(durationMs float64, finishedUnix int64, awards, points int) {
	globalManager.recomputeDuration.Observe(durationMs)
	globalManager.recomputeLastUnix.Set(float64(finishedUnix))
	globalManager.recomputeTotal.Inc()
	globalManager.trophiesAwarded.Set(float64(awards))
	globalManager.provisionalSum.Set(float64(points))
}

// RecordRecomputeFailure records a rolled back pass.
func RecordRecomputeFailure() {
	globalManager.recomputeFailures.Inc()
}

// UpdateQueueSize sets the current queue size and utilization.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts an enqueue that failed for reason.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an HTTP error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
