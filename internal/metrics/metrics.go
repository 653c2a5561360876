// Package metrics exposes Prometheus collectors for the harvester.
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
	fetchAttemptsTotal         *prometheus.CounterVec
	fetchDurationSeconds       *prometheus.HistogramVec
	fetchTLSFallbacksTotal     prometheus.Counter
	decodeFallbacksTotal       *prometheus.CounterVec
	domainsTotal               *prometheus.CounterVec
	inflightRequests           prometheus.Gauge
	rateLimitDelaysSeconds     prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	matchesTotal               *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_fetch_attempts_total",
				Help: "HTTP attempts issued by the fetcher, labeled by status class.",
			},
			[]string{"status"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvester_fetch_duration_seconds",
				Help:    "Latency of single fetch attempts, labeled by status class.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 45},
			},
			[]string{"status"},
		)

		fetchTLSFallbacksTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvester_fetch_tls_fallbacks_total",
				Help: "Extra unverified attempts issued after a TLS negotiation failure.",
			},
		)

		decodeFallbacksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_decode_fallbacks_total",
				Help: "Bodies decoded through a fallback encoding, labeled by result.",
			},
			[]string{"encoding"},
		)

		domainsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_domains_total",
				Help: "Domains that reached a terminal state, labeled by state.",
			},
			[]string{"state"},
		)

		inflightRequests = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "harvester_inflight_requests",
				Help: "HTTP attempts currently holding an admission slot.",
			},
		)

		rateLimitDelaysSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "harvester_rate_limit_delays_seconds",
				Help:    "Histogram of politeness limiter wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of API requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of API request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		matchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_matches_total",
				Help: "Company match lookups, labeled by whether a profile was found.",
			},
			[]string{"found"},
		)
	})
}

// StatusClass buckets a status code as "2xx".."5xx", or "error" when absent.
func StatusClass(code int, ok bool) string {
	if !ok || code < 100 || code > 599 {
		return "error"
	}
	return strconv.Itoa(code/100) + "xx"
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one HTTP attempt. Hosts are not labels; an input list can
// hold thousands of them.
func ObserveFetch(code int, ok bool, duration time.Duration) {
	Init()
	class := StatusClass(code, ok)
	fetchAttemptsTotal.WithLabelValues(class).Inc()
	fetchDurationSeconds.WithLabelValues(class).Observe(duration.Seconds())
}

// ObserveTLSFallback counts an extra unverified attempt.
func ObserveTLSFallback() {
	Init()
	fetchTLSFallbacksTotal.Inc()
}

// ObserveDecodeFallback counts a body decoded by a fallback encoding ("none" when all failed).
func ObserveDecodeFallback(encoding string) {
	Init()
	decodeFallbacksTotal.WithLabelValues(encoding).Inc()
}

// ObserveDomain counts a domain reaching a terminal state.
func ObserveDomain(state string) {
	Init()
	domainsTotal.WithLabelValues(state).Inc()
}

// IncInflight increments the in-flight attempts gauge.
func IncInflight() {
	Init()
	inflightRequests.Inc()
}

// DecInflight decrements the in-flight attempts gauge.
func DecInflight() {
	Init()
	inflightRequests.Dec()
}

// ObserveRateLimitDelay records the duration of a politeness wait.
func ObserveRateLimitDelay(duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the API request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveMatch counts a match lookup.
func ObserveMatch(found bool) {
	Init()
	matchesTotal.WithLabelValues(strconv.FormatBool(found)).Inc()
}
