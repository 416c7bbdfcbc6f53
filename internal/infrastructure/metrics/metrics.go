// Package metrics provides Prometheus metrics for dutree.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Build metrics
	buildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dutree_builds_total",
			Help: "Total number of tree builds",
		},
		[]string{"result"},
	)

	buildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dutree_build_duration_seconds",
			Help:    "Time to build a tree from a transcript",
			Buckets: prometheus.DefBuckets,
		},
	)

	transcriptLines = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dutree_transcript_lines_total",
			Help: "Total transcript lines consumed",
		},
	)

	treeEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dutree_tree_entries",
			Help: "Number of files and directories in the last built tree",
		},
	)

	// Query metrics
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dutree_queries_total",
			Help: "Total queries run over built trees",
		},
		[]string{"query", "result"},
	)

	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dutree_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dutree_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordBuild records a finished tree build.
func RecordBuild(duration time.Duration, lines, entries int, success bool) {
	buildDuration.Observe(duration.Seconds())
	transcriptLines.Add(float64(lines))
	if !success {
		buildsTotal.WithLabelValues("error").Inc()
		return
	}
	buildsTotal.WithLabelValues("success").Inc()
	treeEntries.Set(float64(entries))
}

// RecordQuery records a query outcome: "found", "empty" or "error".
func RecordQuery(query, result string) {
	queriesTotal.WithLabelValues(query, result).Inc()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	path = routeLabel(path)
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// routeLabel maps a request path to one of the served routes, or "other",
// so label cardinality stays bounded.
func routeLabel(path string) string {
	switch path {
	case "/api/analyze", "/api/reports", "/api/reports/", "/healthz", "/metrics":
		return path
	}
	if strings.HasPrefix(path, "/api/reports/") {
		return "/api/reports/{id}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
