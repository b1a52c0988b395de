package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP host and the solver.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	solvePasses     *prometheus.CounterVec
	solveDuration   prometheus.Histogram
	unplaced        prometheus.Gauge
	placements      *prometheus.CounterVec
	snapshotLatency *prometheus.HistogramVec
}

// NewMetricsService registers the collectors on a private registry.
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
		Name:    "export_cache_latency_seconds",
		Help:    "Latency for export cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "export_cache_write_seconds",
		Help:    "Latency for export cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "export_cache_hits_total",
		Help: "Total export cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "export_cache_misses_total",
		Help: "Total export cache misses",
	})

	solvePasses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_solver_passes_total",
		Help: "Solver passes by name and outcome",
	}, []string{"pass", "outcome"})

	solveDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_solve_duration_seconds",
		Help:    "Wall time of a full auto-schedule",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8},
	})

	unplaced := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_unplaced_sessions",
		Help: "Sessions left unplaced by the last auto-schedule",
	})

	placements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_manual_placements_total",
		Help: "Manual placement attempts by result",
	}, []string{"result"})

	snapshotLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_snapshot_duration_seconds",
		Help:    "Duration of snapshot persistence operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		solvePasses, solveDuration, unplaced, placements, snapshotLatency, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		solvePasses:     solvePasses,
		solveDuration:   solveDuration,
		unplaced:        unplaced,
		placements:      placements,
		snapshotLatency: snapshotLatency,
	}
}

// Registry exposes the underlying registry, mostly for tests.
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

// RecordCacheOperation records an export cache lookup.
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

// ObserveCacheWrite tracks the duration of export cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveSolve records an auto-schedule result.
func (m *MetricsService) ObserveSolve(result SolveResult, duration time.Duration) {
	if m == nil {
		return
	}
	for _, pass := range result.Passes {
		outcome := "failed"
		switch {
		case pass.Succeeded:
			outcome = "succeeded"
		case pass.TimedOut:
			outcome = "timed_out"
		}
		m.solvePasses.WithLabelValues(pass.Name, outcome).Inc()
	}
	m.solveDuration.Observe(duration.Seconds())
	m.unplaced.Set(float64(result.UnplacedCount))
}

// ObservePlacement counts a manual placement attempt.
func (m *MetricsService) ObservePlacement(err error) {
	if m == nil {
		return
	}
	result := "placed"
	if err != nil {
		result = "rejected"
	}
	m.placements.WithLabelValues(result).Inc()
}

// ObserveSnapshot records the duration of a snapshot save or restore.
func (m *MetricsService) ObserveSnapshot(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.snapshotLatency.WithLabelValues(operation).Observe(duration.Seconds())
}
