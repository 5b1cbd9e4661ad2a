package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic, caching and placement workflows.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	transitions          *prometheus.CounterVec
	policyDecisions      *prometheus.CounterVec
	syncDrifts           *prometheus.CounterVec
	syncRepairs          prometheus.Counter
	notificationsFailed  prometheus.Counter
	notificationsDropped prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_transitions_total",
		Help: "Application status transitions",
	}, []string{"from", "to"})

	policyDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_policy_decisions_total",
		Help: "Apply-time policy decisions by outcome code",
	}, []string{"outcome"})

	syncDrifts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_sync_drifts_total",
		Help: "Inconsistencies detected between application copies",
	}, []string{"kind"})

	syncRepairs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placement_sync_repairs_total",
		Help: "Application copies re-derived by the reconciler",
	})

	notificationsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placement_notifications_failed_total",
		Help: "Notifications abandoned after exhausting retries",
	})

	notificationsDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placement_notifications_dropped_total",
		Help: "Notifications dropped because the dispatch queue was full or stopped",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		transitions, policyDecisions, syncDrifts, syncRepairs, notificationsFailed, notificationsDropped, goroutines)

	return &MetricsService{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		cacheLatency:         cacheLatency,
		cacheWrite:           cacheWrite,
		cacheHitRatio:        cacheHitRatio,
		cacheHits:            cacheHits,
		cacheMisses:          cacheMisses,
		transitions:          transitions,
		policyDecisions:      policyDecisions,
		syncDrifts:           syncDrifts,
		syncRepairs:          syncRepairs,
		notificationsFailed:  notificationsFailed,
		notificationsDropped: notificationsDropped,
	}
}

// Registry exposes the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordTransition counts an application status change.
func (m *MetricsService) RecordTransition(from, to models.ApplicationStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

// RecordPolicyDecision counts an apply-time decision by outcome code.
func (m *MetricsService) RecordPolicyDecision(outcome string) {
	if m == nil {
		return
	}
	m.policyDecisions.WithLabelValues(outcome).Inc()
}

// RecordSyncDrift counts a detected inconsistency.
func (m *MetricsService) RecordSyncDrift(kind models.DriftKind) {
	if m == nil {
		return
	}
	m.syncDrifts.WithLabelValues(string(kind)).Inc()
}

// RecordSyncRepair counts a repaired application pair.
func (m *MetricsService) RecordSyncRepair() {
	if m == nil {
		return
	}
	m.syncRepairs.Inc()
}

// RecordNotificationFailure counts an abandoned notification.
func (m *MetricsService) RecordNotificationFailure() {
	if m == nil {
		return
	}
	m.notificationsFailed.Inc()
}

// RecordNotificationDropped counts a notification that never reached the queue.
func (m *MetricsService) RecordNotificationDropped() {
	if m == nil {
		return
	}
	m.notificationsDropped.Inc()
}
