package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// Recompute scopes and outcomes used as metric labels.
const (
	ScopeCourse  = "course"
	ScopeProgram = "program"

	OutcomeSuccess  = "success"
	OutcomePartial  = "partial"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// MetricsService owns the Prometheus registry for HTTP, cache and recompute instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	recomputeDuration *prometheus.HistogramVec
	recomputeTotal    *prometheus.CounterVec
	entityFailures    *prometheus.CounterVec
	lockWait          *prometheus.HistogramVec
}

// NewMetricsService registers the collectors.
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
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	recomputeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attainment_recompute_duration_seconds",
		Help:    "Duration of attainment recompute runs",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"scope"})

	recomputeTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attainment_recompute_total",
		Help: "Attainment recompute runs by scope and outcome",
	}, []string{"scope", "outcome"})

	entityFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attainment_entity_failures_total",
		Help: "Outcomes that could not be computed, by scope and reason",
	}, []string{"scope", "reason"})

	lockWait := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attainment_lock_wait_seconds",
		Help:    "Time spent waiting for the per-scope recompute lock",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		recomputeDuration, recomputeTotal, entityFailures, lockWait, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		recomputeDuration: recomputeDuration,
		recomputeTotal:    recomputeTotal,
		entityFailures:    entityFailures,
		lockWait:          lockWait,
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

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveLockWait records how long a run waited for its scope lock.
func (m *MetricsService) ObserveLockWait(scope string, duration time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.WithLabelValues(scope).Observe(duration.Seconds())
}

// ObserveRecompute records one finished or rejected recompute run.
func (m *MetricsService) ObserveRecompute(scope, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.recomputeTotal.WithLabelValues(scope, outcome).Inc()
	m.recomputeDuration.WithLabelValues(scope).Observe(duration.Seconds())
}

// RecordFailures counts per-entity failures of a run by reason.
func (m *MetricsService) RecordFailures(scope string, failures []models.AttainmentFailure) {
	if m == nil {
		return
	}
	for _, f := range failures {
		m.entityFailures.WithLabelValues(scope, string(f.Reason)).Inc()
	}
}
