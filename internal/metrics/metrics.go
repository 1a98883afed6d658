// Package metrics exposes Prometheus collectors for the cloner service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	clonerJobsTotal                *prometheus.CounterVec
	clonerActiveJobs               prometheus.Gauge
	clonerScrapeRetriesTotal       prometheus.Counter
	clonerGenerationFallbacksTotal prometheus.Counter
	httpRequestsTotal              *prometheus.CounterVec
	httpRequestDurationSeconds     *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		clonerJobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cloner_jobs_total",
				Help: "Total number of clone jobs reaching a terminal state, labeled by status.",
			},
			[]string{"status"},
		)

		clonerActiveJobs = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "cloner_active_jobs",
				Help: "Number of clone jobs currently running.",
			},
		)

		clonerScrapeRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "cloner_scrape_retries_total",
				Help: "Total number of scrape attempts retried after a failure.",
			},
		)

		clonerGenerationFallbacksTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "cloner_generation_fallbacks_total",
				Help: "Total number of generations served by the deterministic fallback.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveJob increments the terminal job counter for the given status.
func ObserveJob(status string) {
	clonerJobsTotal.WithLabelValues(status).Inc()
}

// IncActiveJobs increments the active jobs gauge.
func IncActiveJobs() {
	clonerActiveJobs.Inc()
}

// DecActiveJobs decrements the active jobs gauge.
func DecActiveJobs() {
	clonerActiveJobs.Dec()
}

// ObserveScrapeRetry increments the scrape retry counter.
func ObserveScrapeRetry() {
	clonerScrapeRetriesTotal.Inc()
}

// ObserveGenerationFallback increments the fallback generation counter.
func ObserveGenerationFallback() {
	clonerGenerationFallbacksTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
