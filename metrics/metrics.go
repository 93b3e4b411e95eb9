// Package metrics holds the Prometheus collectors of the storefront backend.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fotokeramika"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	pricesQuoted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "quotes_total",
			Help:      "Total number of price computations, by base price source.",
		},
		[]string{"source"},
	)

	ordersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "submitted_total",
			Help:      "Total number of order submissions, by outcome.",
		},
		[]string{"result"},
	)

	exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "exports_total",
			Help:      "Total number of scene exports, by outcome.",
		},
		[]string{"result"},
	)

	exportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "export_duration_seconds",
			Help:      "Duration of scene exports including asset loading.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
	)

	assetLoadFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assets",
			Name:      "load_failures_total",
			Help:      "Total number of asset fetch or decode failures.",
		},
		[]string{"scheme"},
	)

	editorSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "editor",
			Name:      "sessions",
			Help:      "Current number of live editor sessions.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		pricesQuoted,
		ordersSubmitted,
		exportsTotal,
		exportDuration,
		assetLoadFailures,
		editorSessions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordQuote counts one price computation
func RecordQuote(source string) {
	if source == "" {
		source = "none"
	}
	pricesQuoted.WithLabelValues(source).Inc()
}

// RecordOrderSubmission counts one order submission attempt
func RecordOrderSubmission(success bool) {
	ordersSubmitted.WithLabelValues(result(success)).Inc()
}

// RecordExport records one scene export
func RecordExport(duration time.Duration, success bool) {
	exportsTotal.WithLabelValues(result(success)).Inc()
	exportDuration.Observe(duration.Seconds())
}

// RecordAssetLoadFailure counts one failed asset load
func RecordAssetLoadFailure(scheme string) {
	if scheme == "" {
		scheme = "unknown"
	}
	assetLoadFailures.WithLabelValues(scheme).Inc()
}

// SetEditorSessions reports the number of live editor sessions
func SetEditorSessions(n int) {
	editorSessions.Set(float64(n))
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// canonicalPath collapses ids so per-session paths share one label,
// e.g. /api/editors/3f2a.../export -> /api/editors/:id/export
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) >= 3 && parts[0] == "api" {
		switch parts[1] {
		case "wizard", "editors":
			parts[2] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}
