// Command atlasd serves the dental atlas intake API: identifier preview,
// record submission with media upload, and record retrieval. Storage and blob
// backends are selected through DENTALATLAS_* environment variables.
package main

import (
	"context"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dentalatlas/internal/adapters/intake"
	"dentalatlas/internal/core"
)

func main() {
	addr := flag.String("addr", envOr("DENTALATLAS_ADDR", ":8080"), "listen address")
	logFormat := flag.String("log-format", envOr("DENTALATLAS_LOG_FORMAT", "text"), "log format: text|json")
	shutdownTimeout := flag.Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	flag.Parse()

	logger, err := newLogger(*logFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	if err := run(*addr, *shutdownTimeout, logger); err != nil {
		logger.Error("atlasd failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(format string) (*slog.Logger, error) {
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, nil)), nil
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, nil)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func run(addr string, shutdownTimeout time.Duration, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	promMetrics, err := core.NewPrometheusMetricsRecorder(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	metrics := core.MultiMetricsRecorder{
		promMetrics,
		core.NewExpvarMetricsRecorder("atlas_service_metrics"),
	}

	sc, err := core.Connect(ctx, logger, core.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sc.Close(); closeErr != nil {
			logger.Warn("closing backends", "error", closeErr)
		}
	}()

	handler := intake.NewHandler(sc.Service)
	mux := http.NewServeMux()
	mux.Handle("/api/v1/", handler)
	mux.Handle("/healthz", handler)
	mux.Handle("/media/", handler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/vars", expvar.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("atlasd listening", "addr", addr,
			"storage", envOr("DENTALATLAS_STORAGE_DRIVER", "sqlite"),
			"blob", string(sc.Media.Driver()))
		if serveErr := server.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
