package restapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/maneeshanif/todo-realtime-core/internal/agent"
	"github.com/maneeshanif/todo-realtime-core/internal/config"
	"github.com/maneeshanif/todo-realtime-core/internal/mcp"
)

const toolServerID = "tasks"

// toolSession is one chat run's scoped connection to the tool server: a
// fresh MCP manager and the tool registry its catalog is bridged into. The
// server derives user_id from the connection's query parameter (never from
// a tool argument), so each run opens its own manager scoped to exactly one
// user rather than sharing a process-wide connection across users.
type toolSession struct {
	manager  *mcp.Manager
	registry *agent.ToolRegistry
}

// openToolSession connects to the tool server on behalf of userID and
// bridges its catalog into a fresh agent.ToolRegistry. The catalog is
// discovered dynamically from whatever the server currently exposes; tool
// names are never hard-coded here.
func openToolSession(ctx context.Context, cfg config.ToolServerClientConfig, userID string, logger *slog.Logger) (*toolSession, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("restapi: tool_server.base_url is not configured")
	}

	serverURL := cfg.BaseURL
	if u, err := url.Parse(cfg.BaseURL); err == nil {
		q := u.Query()
		q.Set("user_id", userID)
		u.RawQuery = q.Encode()
		serverURL = u.String()
	}

	mcpCfg := &mcp.Config{
		Enabled: true,
		Servers: []*mcp.ServerConfig{
			{
				ID:        toolServerID,
				Name:      "tasks",
				Transport: mcp.TransportHTTP,
				URL:       serverURL,
				Timeout:   cfg.Timeout,
				AutoStart: false,
			},
		},
	}

	manager := mcp.NewManager(mcpCfg, logger)
	if err := manager.Connect(ctx, toolServerID); err != nil {
		return nil, fmt.Errorf("restapi: connect to tool server: %w", err)
	}

	registry := agent.NewToolRegistry()
	mcp.RegisterTools(registry, manager)

	return &toolSession{manager: manager, registry: registry}, nil
}

func (s *toolSession) Close() {
	_ = s.manager.Stop()
}
