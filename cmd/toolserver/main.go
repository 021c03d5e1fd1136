// Command toolserver exposes the bounded task/tag/reminder/recurring tool
// catalog over the single-endpoint MCP transport the chat dispatcher's
// per-run tool sessions connect to.
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
	"github.com/maneeshanif/todo-realtime-core/internal/toolserver"
)

func main() {
	configPath := flag.String("config", "toolserver.yaml", "path to the tool server's configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "toolserver:", err)
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

	srv := toolserver.New(stores.Tasks, stores.Tags, stores.Reminders, engine, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.ServeHTTP)

	httpSrv, err := httpserver.Start(cfg.Server, mux, healthz, logger)
	if err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	logger.Info("tool server ready")
	<-ctx.Done()
	logger.Info("tool server shutting down")
	httpSrv.Stop()
	return nil
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
