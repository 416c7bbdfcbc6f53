package router

import (
	"net/http"

	"dutree/internal/delivery/http/handler"
	"dutree/internal/delivery/http/middleware"
	"dutree/internal/infrastructure/logging"
	"dutree/internal/infrastructure/metrics"
)

// Options holds the settings routes depend on
type Options struct {
	AllowedOrigins []string
	APIKeyHash     string
	ServeMetrics   bool // mount /metrics on this mux
}

// Setup configures all routes for the application
func Setup(analysis *handler.AnalysisHandler, opts Options) http.Handler {
	mux := http.NewServeMux()

	cors := middleware.CORS(middleware.CORSConfig{AllowedOrigins: opts.AllowedOrigins})
	authRequired := middleware.APIKey(opts.APIKeyHash)

	chain := func(h http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			h = middlewares[i](h)
		}
		return h
	}

	// ==================
	// Analysis routes
	// ==================
	mux.HandleFunc("/api/analyze", chain(analysis.Analyze, cors, authRequired))
	mux.HandleFunc("/api/reports", chain(analysis.HandleReports, cors, authRequired))
	mux.HandleFunc("/api/reports/", chain(analysis.HandleReportByID, cors, authRequired))

	// ==================
	// Operational routes (public)
	// ==================
	mux.HandleFunc("/healthz", analysis.Health)
	if opts.ServeMetrics {
		mux.Handle("/metrics", metrics.Handler())
	}

	return logging.Middleware(metrics.Middleware(mux))
}
