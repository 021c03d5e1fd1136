// Package httpserver is the shared listen/serve/graceful-shutdown bootstrap
// every binary (cmd/dispatcher, cmd/toolserver, cmd/reminders, the consumer
// processes, cmd/broadcaster) starts its primary and metrics listeners with.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maneeshanif/todo-realtime-core/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Pair bundles a running primary listener (the binary's own routes) with an
// optional metrics listener (Prometheus exposition on a separate port, per
// config.ServerConfig.MetricsPort). Stop shuts both down one after the
// other, each bounded by a fixed grace period.
type Pair struct {
	primary *http.Server
	metrics *http.Server
	logger  *slog.Logger
}

// Start binds addr from cfg and begins serving mux in the background, plus a
// second listener exposing /metrics and /healthz on cfg.MetricsPort. Either
// listener failing to bind is a fatal startup error; either one exiting
// later (other than via graceful Stop) is only logged.
func Start(cfg config.ServerConfig, mux http.Handler, healthz http.HandlerFunc, logger *slog.Logger) (*Pair, error) {
	if logger == nil {
		logger = slog.Default()
	}

	primary, err := listenAndServe(fmt.Sprintf("%s:%d", cfg.Host, cfg.HTTPPort), mux, logger, "http")
	if err != nil {
		return nil, err
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/config/schema", configSchemaHandler(logger))
	if healthz != nil {
		metricsMux.HandleFunc("/healthz", healthz)
	}
	metrics, err := listenAndServe(fmt.Sprintf("%s:%d", cfg.Host, cfg.MetricsPort), metricsMux, logger, "metrics")
	if err != nil {
		_ = shutdown(primary, logger, "http")
		return nil, err
	}

	return &Pair{primary: primary, metrics: metrics, logger: logger}, nil
}

// configSchemaHandler serves the JSON Schema for config.Config on every
// binary's metrics port, so an operator pointed at any one of the seven
// YAML files can introspect the shared shape without reading Go source.
func configSchemaHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		schema, err := config.JSONSchema()
		if err != nil {
			logger.Error("config schema generation failed", "error", err)
			http.Error(w, "schema unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(schema)
	}
}

func listenAndServe(addr string, handler http.Handler, logger *slog.Logger, name string) (*http.Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("httpserver: listen %s on %s: %w", name, addr, err)
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "server", name, "error", err)
		}
	}()

	logger.Info("http server started", "server", name, "addr", addr)
	return server, nil
}

// Stop shuts both listeners down, bounded by a fixed grace period.
func (p *Pair) Stop() {
	if p == nil {
		return
	}
	_ = shutdown(p.primary, p.logger, "http")
	_ = shutdown(p.metrics, p.logger, "metrics")
}

func shutdown(server *http.Server, logger *slog.Logger, name string) error {
	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("http server shutdown error", "server", name, "error", err)
		return err
	}
	return nil
}
