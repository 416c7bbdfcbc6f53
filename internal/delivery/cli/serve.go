package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dutree/internal/delivery/http/handler"
	"dutree/internal/delivery/http/router"
	"dutree/internal/infrastructure/logging"
	"dutree/internal/infrastructure/metrics"
)

const shutdownTimeout = 10 * time.Second

func (r *runner) serve(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: serve takes no arguments", errUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeStore, err := r.newService(true, r.cfg.AutoSave)
	if err != nil {
		return err
	}
	defer closeStore()

	analysisHandler := handler.NewAnalysisHandler(svc, r.cfg.MaxTranscriptSize)
	mux := router.Setup(analysisHandler, router.Options{
		AllowedOrigins: r.cfg.AllowedOrigins,
		APIKeyHash:     r.cfg.APIKeyHash,
		ServeMetrics:   r.cfg.MetricsAddr == "",
	})

	servers := []*http.Server{{
		Addr:              ":" + r.cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if r.cfg.MetricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metrics.Handler())
		servers = append(servers, &http.Server{
			Addr:              r.cfg.MetricsAddr,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	fmt.Fprintln(r.stdout, "=================================")
	fmt.Fprintln(r.stdout, "         dutree server")
	fmt.Fprintln(r.stdout, "=================================")
	fmt.Fprintf(r.stdout, "Server:    http://localhost:%s\n", r.cfg.Port)
	fmt.Fprintf(r.stdout, "Database:  %s\n", r.cfg.DatabasePath)
	if r.cfg.MetricsAddr != "" {
		fmt.Fprintf(r.stdout, "Metrics:   %s\n", r.cfg.MetricsAddr)
	}
	if r.cfg.APIKeyHash != "" {
		fmt.Fprintln(r.stdout, "Auth:      API key")
	}
	fmt.Fprintln(r.stdout, "=================================")

	errc := make(chan error, len(servers))
	for _, srv := range servers {
		go func() {
			r.log.Info("listening", logging.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		r.log.Info("shutting down")
	case err = <-errc:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			r.log.Warn("shutdown", logging.String("addr", srv.Addr), logging.Err(serr))
		}
	}
	return err
}
