package restapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/maneeshanif/todo-realtime-core/internal/agent"
	"github.com/maneeshanif/todo-realtime-core/internal/audit"
	"github.com/maneeshanif/todo-realtime-core/internal/config"
	"github.com/maneeshanif/todo-realtime-core/internal/storage"
	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

// Dispatcher owns one chat run end to end: resolving the conversation,
// opening a per-user tool session, driving the agentic loop, and handing
// back either a single accumulated reply or a stream of translated chunks.
// One Dispatcher is shared across requests; each call to Run/Stream opens
// its own tool session and loop so concurrent runs never share tool state.
type Dispatcher struct {
	conversations storage.ConversationStore
	messages      storage.MessageStore
	provider      agent.LLMProvider
	loopConfig    *agent.LoopConfig
	toolServer    config.ToolServerClientConfig
	systemPrompt  string
	agentName     string
	logger        *slog.Logger
	auditLog      *audit.Logger
}

// NewDispatcher builds a Dispatcher. auditLog may be nil; pass the result of
// audit.NewLogger even when audit.Config.Enabled is false -- NewLogger
// always returns a non-nil, safely-inert Logger in that case, whereas a nil
// *audit.Logger would panic the first time a Log* method dereferences it.
func NewDispatcher(conversations storage.ConversationStore, messages storage.MessageStore, provider agent.LLMProvider, agentCfg config.AgentConfig, toolServer config.ToolServerClientConfig, auditLog *audit.Logger, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	prompt := agentCfg.SystemPrompt
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	agentName := agentCfg.Name
	if agentName == "" {
		agentName = "TodoBot"
	}
	return &Dispatcher{
		conversations: conversations,
		messages:      messages,
		provider:      provider,
		systemPrompt:  prompt,
		agentName:     agentName,
		auditLog:      auditLog,
		loopConfig: &agent.LoopConfig{
			MaxIterations: agentCfg.MaxIterations,
			MaxTokens:     agentCfg.MaxTokens,
			MaxToolCalls:  agentCfg.MaxToolCalls,
			MaxWallTime:   agentCfg.MaxWallTime,
			ExecConfig: agent.ToolExecConfig{
				Concurrency:    agentCfg.Execution.Parallelism,
				PerToolTimeout: agentCfg.Execution.Timeout,
			},
			StreamToolResults: true,
		},
		toolServer: toolServer,
		logger:     logger,
	}
}

// ChatRequest is the decoded body of POST /chat and POST /chat/stream.
type ChatRequest struct {
	UserID         string
	ConversationID string
	Text           string
}

// ChatResult is the non-streaming response body for POST /chat.
type ChatResult struct {
	ConversationID string           `json:"conversation_id"`
	MessageID      string           `json:"message_id"`
	Response       string           `json:"response"`
	ToolCalls      []models.ToolCall `json:"tool_calls,omitempty"`
}

// run resolves the conversation, opens a tool session, drives the agentic
// loop to completion, and returns the raw channel of chunks plus the
// resolved conversation id and a cleanup func the caller must defer.
func (d *Dispatcher) run(ctx context.Context, req ChatRequest) (<-chan *agent.ResponseChunk, string, func(), error) {
	conversationID, isNew, err := d.resolveConversation(ctx, req.UserID, req.ConversationID)
	if err != nil {
		return nil, "", nil, fmt.Errorf("restapi: resolve conversation: %w", err)
	}
	if isNew {
		if err := d.maybeSetTitle(ctx, req.UserID, conversationID, req.Text); err != nil {
			d.logger.Warn("restapi: set conversation title failed", "error", err, "conversation_id", conversationID)
		}
	}

	session, err := openToolSession(ctx, d.toolServer, req.UserID, d.logger)
	if err != nil {
		return nil, "", nil, fmt.Errorf("restapi: open tool session: %w", err)
	}
	cleanup := func() { session.Close() }

	loop := agent.NewAgenticLoop(d.provider, session.registry, newHistoryStore(d.messages), d.loopConfig)
	if models := d.provider.Models(); len(models) > 0 {
		loop.SetDefaultModel(models[0].ID)
	}
	loop.SetDefaultSystem(d.systemPrompt)

	msg := &models.Message{
		ID:        uuid.NewString(),
		SessionID: conversationID,
		Direction: models.DirectionInbound,
		Role:      models.RoleUser,
		Content:   req.Text,
	}

	d.logAgentAction(ctx, req.UserID, "chat_run_started", "dispatching chat message to agentic loop", conversationID)

	chunks, err := loop.Run(ctx, conversationID, msg)
	if err != nil {
		cleanup()
		return nil, "", nil, fmt.Errorf("restapi: start agent run: %w", err)
	}
	return chunks, conversationID, cleanup, nil
}

// Run drains a chat run to completion and returns the accumulated reply.
// Used by the non-streaming POST /chat handler.
func (d *Dispatcher) Run(ctx context.Context, req ChatRequest) (*ChatResult, *agent.AgentError) {
	chunks, conversationID, cleanup, err := d.run(ctx, req)
	if err != nil {
		return nil, agent.ClassifyAgentError(err)
	}
	defer cleanup()

	var text string
	var toolCalls []models.ToolCall
	var runErr error
	for chunk := range chunks {
		if chunk.Error != nil {
			runErr = chunk.Error
			continue
		}
		text += chunk.Text
		if chunk.ToolEvent != nil && chunk.ToolEvent.Stage == models.ToolEventRequested {
			toolCalls = append(toolCalls, models.ToolCall{ID: chunk.ToolEvent.ToolCallID, Name: chunk.ToolEvent.ToolName, Input: chunk.ToolEvent.Input})
		}
	}
	if runErr != nil {
		d.logError(ctx, "chat_run_failed", runErr.Error(), conversationID)
		return nil, agent.ClassifyAgentError(runErr)
	}

	final, err := lastAssistantMessage(ctx, d.messages, conversationID)
	if err != nil {
		return nil, agent.ClassifyAgentError(fmt.Errorf("restapi: recover assistant message: %w", err))
	}
	d.logAgentAction(ctx, req.UserID, "chat_run_completed", "agentic loop returned a final reply", conversationID)

	return &ChatResult{
		ConversationID: conversationID,
		MessageID:      final.ID,
		Response:       text,
		ToolCalls:      toolCalls,
	}, nil
}

// thinkingProcessingMessage is the fixed, one-time "thinking" signal sent at
// the start of every stream, ported from the original agent runner's
// unconditional pre-model-call thinking event -- it announces that the
// agent is working before the first model token arrives, independent of
// whether the underlying provider exposes real extended-thinking output.
const thinkingProcessingMessage = "Processing your request..."

// Stream drains a chat run, translating every chunk onto w in the SSE
// vocabulary defined by spec.md §6, and writes the terminal done/error
// event itself.
func (d *Dispatcher) Stream(ctx context.Context, req ChatRequest, w *sseWriter) {
	chunks, conversationID, cleanup, err := d.run(ctx, req)
	if err != nil {
		ae := agent.ClassifyAgentError(err)
		_ = w.write(eventError, errorPayload(ae))
		return
	}
	defer cleanup()

	_ = w.write(eventThinking, map[string]string{"content": thinkingProcessingMessage, "agent": d.agentName})

	var runErr error
	for chunk := range chunks {
		switch {
		case chunk.Error != nil:
			runErr = chunk.Error
		case chunk.Thinking != "":
			_ = w.write(eventThinking, map[string]string{"content": chunk.Thinking, "agent": d.agentName})
		case chunk.Text != "":
			_ = w.write(eventToken, map[string]string{"content": chunk.Text})
		case chunk.ToolEvent != nil && (chunk.ToolEvent.Stage == models.ToolEventRequested || chunk.ToolEvent.Stage == models.ToolEventStarted):
			_ = w.write(eventToolCall, toolCallPayload(chunk.ToolEvent))
		case chunk.ToolEvent != nil && (chunk.ToolEvent.Stage == models.ToolEventSucceeded || chunk.ToolEvent.Stage == models.ToolEventFailed):
			_ = w.write(eventToolResult, toolResultPayload(chunk.ToolEvent))
		case chunk.Event != nil:
			_ = w.write(eventAgentUpdated, map[string]string{"agent": d.agentName, "content": chunk.Event.Message})
		}
	}

	if runErr != nil {
		d.logError(ctx, "chat_run_failed", runErr.Error(), conversationID)
		ae := agent.ClassifyAgentError(runErr)
		_ = w.write(eventError, errorPayload(ae))
		return
	}

	final, err := lastAssistantMessage(ctx, d.messages, conversationID)
	if err != nil {
		ae := agent.ClassifyAgentError(fmt.Errorf("restapi: recover assistant message: %w", err))
		_ = w.write(eventError, errorPayload(ae))
		return
	}
	d.logAgentAction(ctx, req.UserID, "chat_run_completed", "agentic loop finished streaming a final reply", conversationID)

	_ = w.write(eventDone, map[string]string{"conversation_id": conversationID, "message_id": final.ID})
}

// logAgentAction and logError are nil-safe wrappers: d.auditLog is typically
// a disabled-but-non-nil *audit.Logger (see NewDispatcher), but tests and
// callers that omit it entirely pass nil, which audit.Logger's own methods
// would not tolerate.
func (d *Dispatcher) logAgentAction(ctx context.Context, agentID, action, description, sessionKey string) {
	if d.auditLog == nil {
		return
	}
	d.auditLog.LogAgentAction(ctx, agentID, action, description, nil, sessionKey)
}

func (d *Dispatcher) logError(ctx context.Context, action, errMsg, sessionKey string) {
	if d.auditLog == nil {
		return
	}
	d.auditLog.LogError(ctx, audit.EventAgentError, action, errMsg, nil, sessionKey)
}

func errorPayload(ae *agent.AgentError) map[string]string {
	return map[string]string{"message": agent.FriendlyMessage(ae.Code), "code": string(ae.Code)}
}

// toolCallPayload builds the spec.md §6 {tool, args, call_id} shape. args is
// emitted as the tool's raw JSON input verbatim -- json.RawMessage marshals
// itself as embedded JSON, so an object like {"title":"buy milk"} appears
// as a nested object rather than a string.
func toolCallPayload(e *models.ToolEvent) map[string]any {
	return map[string]any{
		"tool":    e.ToolName,
		"args":    e.Input,
		"call_id": e.ToolCallID,
	}
}

// toolResultPayload builds the spec.md §6 {call_id, output} shape.
func toolResultPayload(e *models.ToolEvent) map[string]any {
	output := e.Output
	if e.Stage == models.ToolEventFailed && output == "" {
		output = e.Error
	}
	return map[string]any{
		"call_id": e.ToolCallID,
		"output":  output,
	}
}

// resolveConversation returns req's conversation id if it already exists and
// belongs to the user, otherwise creates a new one. It returns isNew so the
// caller knows when to run title autogen.
func (d *Dispatcher) resolveConversation(ctx context.Context, userID, conversationID string) (string, bool, error) {
	if conversationID != "" {
		conv, err := d.conversations.Get(ctx, userID, conversationID)
		if err == nil {
			return conv.ID, false, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return "", false, err
		}
	}

	conv := &models.Conversation{
		ID:      uuid.NewString(),
		OwnerID: userID,
	}
	if err := d.conversations.Create(ctx, conv); err != nil {
		return "", false, err
	}
	return conv.ID, true, nil
}

func (d *Dispatcher) maybeSetTitle(ctx context.Context, userID, conversationID, firstMessage string) error {
	conv, err := d.conversations.Get(ctx, userID, conversationID)
	if err != nil {
		return err
	}
	if conv.Title != "" {
		return nil
	}
	conv.Title = deriveTitle(firstMessage)
	return d.conversations.Update(ctx, conv)
}

// defaultSystemPrompt is used when config.AgentConfig.SystemPrompt is unset.
// It describes the assistant's role and the task-management tools available
// to it; the tool catalog itself is discovered dynamically per run from the
// tool server, so this text only sets posture, not capability.
const defaultSystemPrompt = "You are a task-management assistant. Use the available tools to create, " +
	"update, complete, and query the user's tasks, tags, and reminders on their behalf. " +
	"Only act on tasks belonging to the current user; never ask the user for their user id."
