// AngelaMos | 2026
// metrics.go

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	pageBreachesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_breaches_total",
			Help: "Denied role-gated page accesses by page label.",
		},
		[]string{"page"},
	)

	lockoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockouts_total",
			Help: "Lockouts triggered by flow.",
		},
		[]string{"flow"},
	)

	documentTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_transitions_total",
			Help: "Document status transitions by target status.",
		},
		[]string{"to"},
	)
)

// Init registers all collectors in the default registry. Call once
// during startup.
func Init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		loginsTotal,
		pageBreachesTotal,
		lockoutsTotal,
		documentTransitionsTotal,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveLogin(outcome string) {
	loginsTotal.WithLabelValues(outcome).Inc()
}

func ObservePageBreach(page string) {
	pageBreachesTotal.WithLabelValues(page).Inc()
}

func ObserveLockout(flow string) {
	lockoutsTotal.WithLabelValues(flow).Inc()
}

func ObserveDocumentTransition(to string) {
	documentTransitionsTotal.WithLabelValues(to).Inc()
}

// Instrument measures request counts and latency. Paths are not used as
// labels to keep cardinality bounded.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(r.Method, status).
			Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
