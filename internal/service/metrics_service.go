package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload outcomes recorded by MetricsService.RecordUpload.
const (
	UploadOutcomeStored   = "stored"
	UploadOutcomeLimited  = "limited"
	UploadOutcomeRejected = "rejected"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	uploads         *prometheus.CounterVec
	analyses        prometheus.Counter
	matchRatio      prometheus.Histogram
	payments        *prometheus.CounterVec
	sideEffects     *prometheus.CounterVec
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

	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dataset_uploads_total",
		Help: "Dataset upload attempts by outcome",
	}, []string{"outcome"})

	analyses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dataset_analyses_total",
		Help: "Completed dataset analyses",
	})

	matchRatio := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dataset_match_percentage",
		Help:    "Distribution of analysis match percentages",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_total",
		Help: "Simulated payments by plan",
	}, []string{"plan"})

	sideEffects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "side_effects_total",
		Help: "Best-effort writes by name and result",
	}, []string{"name", "applied"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses, uploads, analyses, matchRatio, payments, sideEffects, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		uploads:         uploads,
		analyses:        analyses,
		matchRatio:      matchRatio,
		payments:        payments,
		sideEffects:     sideEffects,
	}
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
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

// RecordCacheOperation records cache hit/miss metrics.
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

// RecordUpload counts an upload attempt.
func (m *MetricsService) RecordUpload(outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
}

// RecordAnalysis counts a completed analysis and its match percentage.
func (m *MetricsService) RecordAnalysis(matchPercentage float64) {
	if m == nil {
		return
	}
	m.analyses.Inc()
	m.matchRatio.Observe(matchPercentage)
}

// RecordPayment counts a simulated payment.
func (m *MetricsService) RecordPayment(plan string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(plan).Inc()
}

// RecordSideEffect counts a best-effort write.
func (m *MetricsService) RecordSideEffect(name string, applied bool) {
	if m == nil {
		return
	}
	m.sideEffects.WithLabelValues(name, fmt.Sprintf("%t", applied)).Inc()
}
