// Command dispatcher serves the chat dispatcher and the task write API: the
// two HTTP surfaces a human or client directly calls (POST /chat, POST
// /chat/stream, and the /api/tasks CRUD routes). Every other binary in this
// module reacts to what this one publishes.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/maneeshanif/todo-realtime-core/internal/audit"
	"github.com/maneeshanif/todo-realtime-core/internal/auth"
	"github.com/maneeshanif/todo-realtime-core/internal/config"
	"github.com/maneeshanif/todo-realtime-core/internal/eventbus"
	"github.com/maneeshanif/todo-realtime-core/internal/httpserver"
	"github.com/maneeshanif/todo-realtime-core/internal/llm"
	"github.com/maneeshanif/todo-realtime-core/internal/logging"
	"github.com/maneeshanif/todo-realtime-core/internal/restapi"
	"github.com/maneeshanif/todo-realtime-core/internal/storage"
)

func main() {
	configPath := flag.String("config", "dispatcher.yaml", "path to the dispatcher's configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "dispatcher:", err)
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

	authService := auth.NewServiceFromConfig(cfg.Auth)
	if err := authService.Start(ctx); err != nil {
		return fmt.Errorf("start auth service: %w", err)
	}
	defer authService.Stop()

	provider, err := llm.New(cfg.LLM)
	if err != nil {
		return fmt.Errorf("build llm provider: %w", err)
	}

	auditLogger, err := audit.NewLogger(cfg.Audit)
	if err != nil {
		return fmt.Errorf("build audit logger: %w", err)
	}
	defer auditLogger.Close()

	bus := eventbus.New(cfg.EventBus, logger)

	dispatcher := restapi.NewDispatcher(stores.Conversations, stores.Messages, provider, cfg.Agent, cfg.ToolServer, auditLogger, logger)
	taskHandlers := restapi.NewTaskHandlers(stores.Tasks, bus, logger)
	router := restapi.NewRouter(dispatcher, taskHandlers, authService, logger)

	srv, err := httpserver.Start(cfg.Server, router, healthz, logger)
	if err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	logger.Info("dispatcher ready")
	<-ctx.Done()
	logger.Info("dispatcher shutting down")
	srv.Stop()
	return nil
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
