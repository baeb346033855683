// Package metrics holds the Prometheus instrumentation: HTTP request
// metrics and the shop's domain counters.
//
//	r.Use(metrics.Middleware())
//	r.Get("/metrics", "metrics", metrics.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wellness"

// DefaultRegistry is the registry served on /metrics.
var DefaultRegistry = prometheus.NewRegistry()

var factory = promauto.With(DefaultRegistry)

func counter(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	}, labels)
}

func histogram(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

// HTTP.
var (
	RequestDuration = histogram("http", "request_duration_seconds", "HTTP request latency.",
		prometheus.DefBuckets, "method", "route", "status")
	RequestTotal = counter("http", "requests_total", "HTTP requests served.", "method", "route", "status")
	ResponseSize = histogram("http", "response_size_bytes", "HTTP response body size.",
		prometheus.ExponentialBuckets(100, 10, 6), "method", "route")
	RequestInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "http", Name: "requests_in_flight",
		Help: "HTTP requests being served.",
	})
)

// Storage.
var (
	DBQueryDuration = histogram("db", "query_duration_seconds", "Database query latency.",
		[]float64{.001, .005, .01, .025, .05, .1, .5, 1}, "operation")
	CacheHits   = counter("cache", "hits_total", "Cache hits.", "driver")
	CacheMisses = counter("cache", "misses_total", "Cache misses.", "driver")
)

// Shop.
var (
	// ImportRows: result is created, skipped or blank.
	ImportRows = counter("import", "rows_total", "Bulk import rows by result.", "result")
	// PaymentVerifications: outcome is verified, mismatch, failed or gateway_error.
	PaymentVerifications = counter("payment", "verifications_total", "Paystack verifications by outcome.", "outcome")

	OrdersPlaced = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "shop", Name: "orders_placed_total",
		Help: "Orders created from verified payments.",
	})
	ArticleViews = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "hub", Name: "article_views_total",
		Help: "Distinct article views.",
	})
)

func init() {
	DefaultRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// MustRegister adds collectors owned by other packages.
func MustRegister(c ...prometheus.Collector) {
	DefaultRegistry.MustRegister(c...)
}

// Middleware records the HTTP metrics. Routes are labelled by chi pattern,
// or "unmatched".
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			m := httpsnoop.CaptureMetrics(next, w, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			code := strconv.Itoa(m.Code)
			RequestDuration.WithLabelValues(r.Method, route, code).Observe(m.Duration.Seconds())
			RequestTotal.WithLabelValues(r.Method, route, code).Inc()
			ResponseSize.WithLabelValues(r.Method, route).Observe(float64(m.Written))
		})
	}
}

func Handler() http.HandlerFunc {
	return promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{EnableOpenMetrics: true}).ServeHTTP
}

// ObserveDBQuery is meant for defer:
//
//	defer metrics.ObserveDBQuery("select", time.Now())
func ObserveDBQuery(operation string, start time.Time) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
