// Command recurring-consumer subscribes to the task-events topic and
// materializes a completed recurring task's next occurrence by calling the
// REST write API, rather than writing storage directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/maneeshanif/todo-realtime-core/internal/config"
	recurringconsumer "github.com/maneeshanif/todo-realtime-core/internal/consumers/recurring"
	"github.com/maneeshanif/todo-realtime-core/internal/eventbus"
	"github.com/maneeshanif/todo-realtime-core/internal/httpserver"
	"github.com/maneeshanif/todo-realtime-core/internal/logging"
)

const taskEventsRoute = "/events/task"

func main() {
	configPath := flag.String("config", "recurring-consumer.yaml", "path to the recurring consumer's configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "recurring-consumer:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := eventbus.New(cfg.EventBus, logger)
	client := recurringconsumer.NewTaskAPIClient(cfg.RestAPI, logger)
	consumer := recurringconsumer.New(client, logger)

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

	logger.Info("recurring consumer ready")
	<-ctx.Done()
	logger.Info("recurring consumer shutting down")
	srv.Stop()
	return nil
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
