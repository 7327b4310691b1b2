// Package metrics provides Prometheus metrics for monitoring the service.
package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts completed /screenshot requests by mode, response
	// type, and outcome status.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pantin_requests_total",
			Help: "Total number of screenshot requests processed",
		},
		[]string{"mode", "response_type", "status"},
	)

	// RequestDuration tracks end-to-end screenshot request duration by mode.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pantin_request_duration_seconds",
			Help:    "Screenshot request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~51s
		},
		[]string{"mode"},
	)

	// BrowserPoolSize shows the configured pool size.
	BrowserPoolSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pantin_browser_pool_size",
			Help: "Configured browser pool capacity",
		},
	)

	// BrowserPoolAvailable shows currently idle workers in the pool.
	BrowserPoolAvailable = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pantin_browser_pool_available",
			Help: "Idle browser workers currently available in the pool",
		},
	)

	// BrowserPoolInUse shows currently checked-out workers.
	BrowserPoolInUse = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pantin_browser_pool_in_use",
			Help: "Browser workers currently checked out of the pool",
		},
	)

	// BrowserPoolAcquired counts total checkouts from the pool.
	BrowserPoolAcquired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pantin_browser_pool_acquired_total",
			Help: "Total browser worker checkouts from the pool",
		},
	)

	// BrowserPoolRecycled counts workers returned to idle (not evicted).
	BrowserPoolRecycled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pantin_browser_pool_recycled_total",
			Help: "Total browser workers recycled back into the pool",
		},
	)

	// BrowserPoolEvicted counts workers closed due to age/use-count eviction
	// or cancellation-poisoning.
	BrowserPoolEvicted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pantin_browser_pool_evicted_total",
			Help: "Total browser workers evicted and closed",
		},
		[]string{"reason"},
	)

	// MemoryUsageBytes shows current memory usage.
	MemoryUsageBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pantin_memory_usage_bytes",
			Help: "Current memory usage in bytes (alloc)",
		},
	)

	// MemorySysBytes shows system memory obtained.
	MemorySysBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pantin_memory_sys_bytes",
			Help: "Total memory obtained from system",
		},
	)

	// GoroutineCount shows current goroutine count.
	GoroutineCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pantin_goroutines",
			Help: "Current number of goroutines",
		},
	)

	// BuildInfo provides build information as labels.
	BuildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pantin_build_info",
			Help: "Build information",
		},
		[]string{"version", "go_version"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		BrowserPoolSize,
		BrowserPoolAvailable,
		BrowserPoolInUse,
		BrowserPoolAcquired,
		BrowserPoolRecycled,
		BrowserPoolEvicted,
		MemoryUsageBytes,
		MemorySysBytes,
		GoroutineCount,
		BuildInfo,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetBuildInfo sets the build info metric.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// StartMemoryCollector starts a goroutine that periodically updates memory metrics.
func StartMemoryCollector(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			updateMemoryMetrics()
		case <-stopCh:
			return
		}
	}
}

func updateMemoryMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	MemoryUsageBytes.Set(float64(m.Alloc))
	MemorySysBytes.Set(float64(m.Sys))
	GoroutineCount.Set(float64(runtime.NumGoroutine()))
}

// RecordRequest records metrics for a completed screenshot request.
func RecordRequest(mode, responseType, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(mode, responseType, status).Inc()
	RequestDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordEviction records a pool eviction by reason ("age", "recycle_count", "poisoned").
func RecordEviction(reason string) {
	BrowserPoolEvicted.WithLabelValues(reason).Inc()
}

// UpdatePoolMetrics updates the browser pool gauges.
func UpdatePoolMetrics(size int64, available, inUse int) {
	BrowserPoolSize.Set(float64(size))
	BrowserPoolAvailable.Set(float64(available))
	BrowserPoolInUse.Set(float64(inUse))
}
