// Package toolserver exposes the bounded task/tag/reminder/recurring tool
// catalog an agent uses during a chat run, over a single-endpoint MCP
// streamable-HTTP transport. It derives the acting user from a per-connection
// query parameter — tool arguments never carry a user id of their own.
package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/maneeshanif/todo-realtime-core/internal/mcp"
	"github.com/maneeshanif/todo-realtime-core/internal/reminders"
	"github.com/maneeshanif/todo-realtime-core/internal/storage"
)

const protocolVersion = "2024-11-05"

// Server holds the storage and reminder-engine dependencies the catalog's
// tools are implemented against, plus the compiled tool table.
type Server struct {
	tasks     storage.TaskStore
	tags      storage.TagStore
	reminders storage.ReminderStore
	engine    *reminders.Engine
	logger    *slog.Logger
	tools     map[string]toolDef
}

// New builds a Server from its storage dependencies and the reminder
// engine responsible for scheduling/cancelling external jobs.
func New(tasks storage.TaskStore, tags storage.TagStore, reminderStore storage.ReminderStore, engine *reminders.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		tasks:     tasks,
		tags:      tags,
		reminders: reminderStore,
		engine:    engine,
		logger:    logger.With("component", "toolserver"),
	}
	s.tools = s.buildCatalog()
	return s
}

// userFromRequest extracts the acting user id from the request's query
// parameters. Every tool call is scoped to this user regardless of what
// the model passed as arguments.
func userFromRequest(r *http.Request) (string, error) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		return "", fmt.Errorf("user_id is required for tool operations")
	}
	return userID, nil
}

// ServeHTTP implements the single-endpoint JSON-RPC transport: every request
// is a POST carrying one JSON-RPC message, answered with one JSON-RPC
// response. initialize and tools/list need no user context; tools/call
// rejects a connection missing ?user_id=.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req mcp.JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, nil, mcp.ErrCodeParseError, "parse error")
		return
	}

	switch req.Method {
	case "initialize":
		s.handleInitialize(w, req)
	case "tools/list":
		s.handleToolsList(w, req)
	case "tools/call":
		s.handleToolsCall(w, r, req)
	default:
		s.writeError(w, req.ID, mcp.ErrCodeMethodNotFound, "method not found: "+req.Method)
	}
}

func (s *Server) handleInitialize(w http.ResponseWriter, req mcp.JSONRPCRequest) {
	result := mcp.InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    mcp.Capabilities{Tools: &mcp.ToolsCapability{}},
		ServerInfo:      mcp.ServerInfo{Name: "todo-realtime-core-toolserver", Version: "1.0.0"},
	}
	s.writeResult(w, req.ID, result)
}

func (s *Server) handleToolsList(w http.ResponseWriter, req mcp.JSONRPCRequest) {
	tools := make([]*mcp.MCPTool, 0, len(s.tools))
	for _, t := range s.tools {
		tools = append(tools, &mcp.MCPTool{
			Name:        t.name,
			Description: t.description,
			InputSchema: t.inputSchema,
		})
	}
	s.writeResult(w, req.ID, mcp.ListToolsResult{Tools: tools})
}

func (s *Server) handleToolsCall(w http.ResponseWriter, r *http.Request, req mcp.JSONRPCRequest) {
	var params mcp.CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(w, req.ID, mcp.ErrCodeInvalidParams, "invalid params")
		return
	}

	def, ok := s.tools[params.Name]
	if !ok {
		s.writeError(w, req.ID, mcp.ErrCodeToolNotFound, "tool not found: "+params.Name)
		return
	}

	userID, err := userFromRequest(r)
	if err != nil {
		s.writeResult(w, req.ID, toolError(err.Error()))
		return
	}

	result := s.invoke(r.Context(), def, userID, params.Arguments)
	s.writeResult(w, req.ID, result)
}

// invoke runs a tool handler, converting a handler's Go error into the
// catalog's {status: "error", message} shape rather than an RPC fault --
// every tool catches its own failures, per the platform's tool-server error
// contract (unhandled exceptions never cross the wire as stack traces).
func (s *Server) invoke(ctx context.Context, def toolDef, userID string, args json.RawMessage) mcp.ToolCallResult {
	out, err := def.handler(ctx, s, userID, args)
	if err != nil {
		s.logger.Warn("tool call failed", "tool", def.name, "error", err)
		return toolError(err.Error())
	}
	return toolSuccess(out)
}

func toolSuccess(v any) mcp.ToolCallResult {
	body, err := json.Marshal(v)
	if err != nil {
		return toolError("failed to encode tool result")
	}
	return mcp.ToolCallResult{Content: []mcp.ToolResultContent{{Type: "text", Text: string(body)}}}
}

func toolError(message string) mcp.ToolCallResult {
	body, _ := json.Marshal(map[string]string{"status": "error", "message": message})
	return mcp.ToolCallResult{Content: []mcp.ToolResultContent{{Type: "text", Text: string(body)}}, IsError: true}
}

func (s *Server) writeResult(w http.ResponseWriter, id any, result any) {
	body, err := json.Marshal(result)
	if err != nil {
		s.writeError(w, id, mcp.ErrCodeInternalError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(mcp.JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: body})
}

func (s *Server) writeError(w http.ResponseWriter, id any, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(mcp.JSONRPCResponse{
		JSONRPC: "2.0", ID: id,
		Error: &mcp.JSONRPCError{Code: code, Message: message},
	})
}
