package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/meal-subscription-api/internal/models"
)

const metricsNamespace = "meal_api"

// MetricsSnapshot is a compact summary of the process counters.
type MetricsSnapshot struct {
	CacheHitRatio               float64           `json:"cacheHitRatio"`
	CacheHits                   uint64            `json:"cacheHits"`
	CacheMisses                 uint64            `json:"cacheMisses"`
	RequestsTotal               uint64            `json:"requestsTotal"`
	AverageRequestDurationMs    float64           `json:"averageRequestDurationMs"`
	StoreOperations             uint64            `json:"storeOperations"`
	AverageStoreOperationMs     float64           `json:"averageStoreOperationMs"`
	WorkflowSubmissions         uint64            `json:"workflowSubmissions"`
	WorkflowTransitions         uint64            `json:"workflowTransitions"`
	WorkflowTransitionsByStatus map[string]uint64 `json:"workflowTransitionsByStatus"`
	Goroutines                  int               `json:"goroutines"`
	GeneratedAt                 time.Time         `json:"generatedAt"`
}

type counter struct {
	count uint64
	nanos uint64
}

func (c *counter) add(d time.Duration) {
	atomic.AddUint64(&c.count, 1)
	atomic.AddUint64(&c.nanos, uint64(d.Nanoseconds()))
}

func (c *counter) averageMs() (uint64, float64) {
	n := atomic.LoadUint64(&c.count)
	if n == 0 {
		return 0, 0
	}
	return n, float64(atomic.LoadUint64(&c.nanos)) / float64(n) / float64(time.Millisecond)
}

// MetricsService owns the Prometheus registry for HTTP traffic, the catalog
// cache, record store round trips and approval workflow transitions.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	storeDuration   *prometheus.HistogramVec
	submissions     *prometheus.CounterVec
	transitions     *prometheus.CounterVec

	requests       counter
	storeOps       counter
	cacheHitCount  uint64
	cacheMissCount uint64
	approved       uint64
	rejected       uint64
	submitted      uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "catalog_cache_lookups_total",
		Help:      "Catalog cache lookups by listing and result",
	}, []string{"listing", "result"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "catalog_cache_read_seconds",
		Help:      "Latency of catalog cache reads",
		Buckets:   prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "catalog_cache_write_seconds",
		Help:      "Latency of catalog cache writes",
		Buckets:   prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "catalog_cache_hit_ratio",
		Help:      "Ratio of catalog cache hits to lookups",
	})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "record_store_operation_seconds",
		Help:      "Duration of record store operations",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "workflow_submissions_total",
		Help:      "Records entering the approval workflow as pending",
	}, []string{"entity"})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "workflow_transitions_total",
		Help:      "Approval decisions by entity and resulting status",
	}, []string{"entity", "status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "goroutines",
		Help:      "Number of live goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, cacheLatency, cacheWrite, cacheHitRatio, storeDuration, submissions, transitions, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLookups:    cacheLookups,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		storeDuration:   storeDuration,
		submissions:     submissions,
		transitions:     transitions,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request. route is the gin route
// template so ids do not explode label cardinality.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, route, code).Inc()
	m.requests.add(duration)
}

// RecordCacheLookup records a catalog cache read for the named listing.
func (m *MetricsService) RecordCacheLookup(listing string, hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	m.cacheLookups.WithLabelValues(listing, result).Inc()

	hits := atomic.LoadUint64(&m.cacheHitCount)
	if total := hits + atomic.LoadUint64(&m.cacheMissCount); total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks catalog cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordWorkflowSubmission counts a new pending record.
func (m *MetricsService) RecordWorkflowSubmission(entity string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(entity).Inc()
	atomic.AddUint64(&m.submitted, 1)
}

// RecordWorkflowTransition counts an approve or reject. Other statuses are
// ignored; submissions go through RecordWorkflowSubmission.
func (m *MetricsService) RecordWorkflowTransition(entity string, status models.ApprovalStatus) {
	if m == nil {
		return
	}
	switch status {
	case models.StatusApproved:
		atomic.AddUint64(&m.approved, 1)
	case models.StatusRejected:
		atomic.AddUint64(&m.rejected, 1)
	default:
		return
	}
	m.transitions.WithLabelValues(entity, string(status)).Inc()
}

// ObserveStoreOperation records record store timing. It matches
// docstore.QueryObserver.
func (m *MetricsService) ObserveStoreOperation(op string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(op).Observe(duration.Seconds())
	m.storeOps.add(duration)
}

// Snapshot returns aggregated metrics for the admin summary endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}
	requests, avgRequest := m.requests.averageMs()
	storeOps, avgStore := m.storeOps.averageMs()
	approved := atomic.LoadUint64(&m.approved)
	rejected := atomic.LoadUint64(&m.rejected)
	byStatus := map[string]uint64{
		string(models.StatusApproved): approved,
		string(models.StatusRejected): rejected,
	}

	return MetricsSnapshot{
		CacheHitRatio:               ratio,
		CacheHits:                   hits,
		CacheMisses:                 misses,
		RequestsTotal:               requests,
		AverageRequestDurationMs:    avgRequest,
		StoreOperations:             storeOps,
		AverageStoreOperationMs:     avgStore,
		WorkflowSubmissions:         atomic.LoadUint64(&m.submitted),
		WorkflowTransitions:         approved + rejected,
		WorkflowTransitionsByStatus: byStatus,
		Goroutines:                  runtime.NumGoroutine(),
		GeneratedAt:                 time.Now().UTC(),
	}
}
