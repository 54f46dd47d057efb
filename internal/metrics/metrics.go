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
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pack_store_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pack_store_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	packAssemblies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pack_store_pack_assemblies_total",
			Help: "Pack assemblies by outcome",
		},
		[]string{"outcome"},
	)

	filesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pack_store_pack_files_skipped_total",
		Help: "Selected files missing from storage during assembly",
	})

	packsSwept = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pack_store_packs_swept_total",
			Help: "Expired pack archives processed by the cleanup sweep",
		},
		[]string{"status"},
	)

	emailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pack_store_emails_total",
			Help: "Delivery emails by status",
		},
		[]string{"status"},
	)
)

// Middleware records request count and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		status := strconv.Itoa(code)
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

// RecordAssembly counts one assembly; outcome is "completed", "failed" or "skipped".
func RecordAssembly(outcome string) { packAssemblies.WithLabelValues(outcome).Inc() }

func RecordSkippedFile() { filesSkipped.Inc() }

func RecordSweep(success bool) { inc(packsSwept, success) }

func RecordEmail(success bool) { inc(emailsSent, success) }

func inc(c *prometheus.CounterVec, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.WithLabelValues(status).Inc()
}
