package restapi

import (
	"log/slog"
	"net/http"

	"github.com/maneeshanif/todo-realtime-core/internal/auth"
)

// NewRouter mounts the chat dispatcher and task write surface behind the
// shared bearer/API-key auth middleware.
func NewRouter(dispatcher *Dispatcher, tasks *TaskHandlers, authService *auth.Service, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /chat", dispatcher.ChatHandler())
	mux.Handle("POST /chat/stream", dispatcher.StreamHandler())

	mux.Handle("POST /api/tasks", tasks.Create())
	mux.Handle("PATCH /api/tasks/{id}", tasks.Update())
	mux.Handle("PATCH /api/tasks/{id}/complete", tasks.Complete())
	mux.Handle("DELETE /api/tasks/{id}", tasks.Delete())

	return auth.Middleware(authService, logger)(mux)
}
