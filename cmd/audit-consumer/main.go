// Command audit-consumer subscribes to the task-events topic and writes one
// audit row per delivered event, deduplicated by correlation id and event
// type.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	auditconsumer "github.com/maneeshanif/todo-realtime-core/internal/consumers/audit"
	"github.com/maneeshanif/todo-realtime-core/internal/config"
	"github.com/maneeshanif/todo-realtime-core/internal/eventbus"
	"github.com/maneeshanif/todo-realtime-core/internal/httpserver"
	"github.com/maneeshanif/todo-realtime-core/internal/logging"
	"github.com/maneeshanif/todo-realtime-core/internal/storage"
)

const taskEventsRoute = "/events/task"

func main() {
	configPath := flag.String("config", "audit-consumer.yaml", "path to the audit consumer's configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "audit-consumer:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.Logging)

	stores, err := storage.OpenFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer stores.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := eventbus.New(cfg.EventBus, logger)
	consumer := auditconsumer.New(stores.AuditLogs, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /dapr/subscribe", bus.SubscribeHandler(map[eventbus.Topic]string{
		eventbus.TopicTaskEvents: taskEventsRoute,
	}))
	mux.HandleFunc("GET /dapr/health", bus.HealthHandler())
	mux.HandleFunc("POST "+taskEventsRoute, consumer.DeliveryHandler())

	srv, err := httpserver.Start(cfg.Server, mux, healthz, logger)
	if err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	logger.Info("audit consumer ready")
	<-ctx.Done()
	logger.Info("audit consumer shutting down")
	srv.Stop()
	return nil
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
