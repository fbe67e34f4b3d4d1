package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atelier_build_info",
			Help: "Build information of the Atelier gacha service",
		},
		[]string{"version", "commit", "date"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atelier_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atelier_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "atelier_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Economy metrics
	DrawsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atelier_draws_total",
			Help: "Total number of resolved draws by tier",
		},
		[]string{"tier", "featured"},
	)

	PurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atelier_purchases_total",
			Help: "Total number of committed shop purchases",
		},
		[]string{"currency"},
	)

	SalvagedEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "atelier_salvaged_entries_total",
			Help: "Total number of inventory entries salvaged",
		},
	)

	TxConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atelier_tx_conflicts_total",
			Help: "Serialization conflicts encountered by economy transactions",
		},
		[]string{"op"},
	)
)

// Middleware records request counts, durations and in-flight gauge for every
// HTTP request, labeled by the chi route pattern rather than the raw path.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
