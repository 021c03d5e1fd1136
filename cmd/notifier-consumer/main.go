// Command notifier-consumer subscribes to the reminder-events topic and
// turns a due reminder into a user-facing task-updates message.
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
	notifierconsumer "github.com/maneeshanif/todo-realtime-core/internal/consumers/notifier"
	"github.com/maneeshanif/todo-realtime-core/internal/eventbus"
	"github.com/maneeshanif/todo-realtime-core/internal/httpserver"
	"github.com/maneeshanif/todo-realtime-core/internal/logging"
)

const reminderEventsRoute = "/events/reminder"

func main() {
	configPath := flag.String("config", "notifier-consumer.yaml", "path to the notifier consumer's configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "notifier-consumer:", err)
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
	consumer := notifierconsumer.New(bus, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /dapr/subscribe", bus.SubscribeHandler(map[eventbus.Topic]string{
		eventbus.TopicReminderEvents: reminderEventsRoute,
	}))
	mux.HandleFunc("GET /dapr/health", bus.HealthHandler())
	mux.HandleFunc("POST "+reminderEventsRoute, consumer.DeliveryHandler())

	srv, err := httpserver.Start(cfg.Server, mux, healthz, logger)
	if err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	logger.Info("notifier consumer ready")
	<-ctx.Done()
	logger.Info("notifier consumer shutting down")
	srv.Stop()
	return nil
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
