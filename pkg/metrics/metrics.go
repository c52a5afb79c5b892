// Package metrics provides Prometheus instrumentation.
//
// Wire it up once in the server bootstrap:
//
//	r.Use(metrics.Middleware())
//	r.Get("/metrics", "metrics", metrics.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ─── HTTP metrics ─────────────────────────────────────────────────────────────

var (
	// RequestDuration tracks how long each HTTP request takes,
	// broken down by method, route path, and status code.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vendora",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts all HTTP requests.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vendora",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestInFlight tracks how many requests are currently being served.
	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vendora",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})
)

// ─── Order flow metrics ───────────────────────────────────────────────────────

var (
	// OrdersTotal counts order lifecycle events by resulting status.
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vendora",
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Order state transitions by target status.",
		},
		[]string{"to"}, // "pending" | "paid" | "cancelled"
	)

	// WebhookEvents counts provider webhook deliveries by outcome.
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vendora",
			Subsystem: "payments",
			Name:      "webhook_events_total",
			Help:      "Stripe webhook deliveries by outcome.",
		},
		[]string{"outcome"}, // "confirmed" | "duplicate" | "ignored" | "invalid_signature"
	)

	// RefundFailures counts provider refunds that failed after the local
	// cancellation already committed (manual follow-up needed).
	RefundFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vendora",
		Subsystem: "payments",
		Name:      "refund_failures_total",
		Help:      "Provider refunds that failed after local cancellation.",
	})

	// StockAdjustments counts ledger mutations by direction.
	StockAdjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vendora",
			Subsystem: "inventory",
			Name:      "stock_adjustments_total",
			Help:      "Stock decrements and restores applied by the ledger.",
		},
		[]string{"direction"}, // "decrement" | "restore"
	)

	// NotificationFailures counts best-effort fan-out tasks that failed.
	NotificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vendora",
			Subsystem: "notifications",
			Name:      "failures_total",
			Help:      "Failed best-effort notification tasks by channel.",
		},
		[]string{"channel"}, // "mail" | "database" | "ws"
	)
)

// ─── Registry ─────────────────────────────────────────────────────────────────

// DefaultRegistry is the Prometheus registry used by the server.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		OrdersTotal,
		WebhookEvents,
		RefundFailures,
		StockAdjustments,
		NotificationFailures,
	)
}

// MustRegister adds collectors to the default registry, panicking on conflict.
func MustRegister(c ...prometheus.Collector) {
	DefaultRegistry.MustRegister(c...)
}

// ─── HTTP middleware ──────────────────────────────────────────────────────────

// responseRecorder wraps http.ResponseWriter to capture the status code.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments every request with duration, count, and in-flight
// metrics.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			status := strconv.Itoa(rec.status)
			RequestDuration.WithLabelValues(r.Method, r.URL.Path, status).
				Observe(time.Since(start).Seconds())
			RequestTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		})
	}
}

// Handler returns the /metrics scrape endpoint.
func Handler() http.HandlerFunc {
	return promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{}).ServeHTTP
}
