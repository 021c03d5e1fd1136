// Command reminders runs the scheduled-reminder engine's HTTP surface: the
// Dapr Jobs API sidecar calls back here when a scheduled reminder job
// fires. The engine itself is stateless over storage, so this process and
// the tool server each hold their own Engine instance against the same
// underlying tables rather than sharing one in memory.
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
	"github.com/maneeshanif/todo-realtime-core/internal/eventbus"
	"github.com/maneeshanif/todo-realtime-core/internal/httpserver"
	"github.com/maneeshanif/todo-realtime-core/internal/jobsapi"
	"github.com/maneeshanif/todo-realtime-core/internal/logging"
	"github.com/maneeshanif/todo-realtime-core/internal/reminders"
	"github.com/maneeshanif/todo-realtime-core/internal/storage"
)

func main() {
	configPath := flag.String("config", "reminders.yaml", "path to the reminder engine's configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "reminders:", err)
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
	jobs := jobsapi.New(cfg.Jobs, logger)
	engine := reminders.New(stores.Tasks, stores.Reminders, jobs, bus, cfg.Jobs, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /dapr/jobs/reminder", engine.CallbackHandler())

	srv, err := httpserver.Start(cfg.Server, mux, healthz, logger)
	if err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	logger.Info("reminder engine ready")
	<-ctx.Done()
	logger.Info("reminder engine shutting down")
	srv.Stop()
	return nil
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
