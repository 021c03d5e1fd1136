// Command broadcaster maintains the WebSocket fan-out for task-updates
// events: GET /ws/{user_id} upgrades a connection, and the event bus sidecar
// delivers every task-updates event to this process's subscription route.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/maneeshanif/todo-realtime-core/internal/auth"
	"github.com/maneeshanif/todo-realtime-core/internal/broadcaster"
	"github.com/maneeshanif/todo-realtime-core/internal/config"
	"github.com/maneeshanif/todo-realtime-core/internal/eventbus"
	"github.com/maneeshanif/todo-realtime-core/internal/httpserver"
	"github.com/maneeshanif/todo-realtime-core/internal/logging"
)

const taskUpdatesRoute = "/events/task-update"

func main() {
	configPath := flag.String("config", "broadcaster.yaml", "path to the broadcaster's configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "broadcaster:", err)
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

	authService := auth.NewServiceFromConfig(cfg.Auth)
	if err := authService.Start(ctx); err != nil {
		return fmt.Errorf("start auth service: %w", err)
	}
	defer authService.Stop()

	bus := eventbus.New(cfg.EventBus, logger)
	manager := broadcaster.New(cfg.Broadcaster, authService, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/", manager.ServeHTTP)
	mux.HandleFunc("GET /dapr/subscribe", bus.SubscribeHandler(map[eventbus.Topic]string{
		eventbus.TopicTaskUpdates: taskUpdatesRoute,
	}))
	mux.HandleFunc("GET /dapr/health", bus.HealthHandler())
	mux.HandleFunc("POST "+taskUpdatesRoute, manager.DeliveryHandler())

	srv, err := httpserver.Start(cfg.Server, mux, healthz, logger)
	if err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	go manager.RunHeartbeat(ctx)

	logger.Info("broadcaster ready")
	<-ctx.Done()
	logger.Info("broadcaster shutting down")
	srv.Stop()
	return nil
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
