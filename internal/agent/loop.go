package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

// History loads and appends messages for a conversation. It is satisfied by
// internal/restapi's adapter over storage.MessageStore; kept as a narrow seam
// so the loop never imports the storage package directly.
type History interface {
	GetHistory(ctx context.Context, conversationID string, limit int) ([]*models.Message, error)
	AppendMessage(ctx context.Context, conversationID string, msg *models.Message) error
}

// LoopConfig configures the agentic loop behavior including iteration limits,
// token budgets, and tool execution settings.
type LoopConfig struct {
	// MaxIterations limits the number of tool use iterations.
	// Default: 10.
	MaxIterations int

	// MaxTokens is the default max tokens for LLM responses.
	// Default: 4096.
	MaxTokens int

	// MaxToolCalls limits the total tool calls per run (0 = unlimited).
	MaxToolCalls int

	// MaxWallTime limits total run duration (0 = no limit).
	MaxWallTime time.Duration

	// ExecConfig configures the tool executor.
	ExecConfig ToolExecConfig

	// StreamToolResults streams tool results as they complete.
	// Default: true.
	StreamToolResults bool

	// DisableToolEvents disables streaming ToolEvent chunks.
	DisableToolEvents bool

	// ToolResultGuard redacts tool results before persistence.
	ToolResultGuard ToolResultGuard

	// ToolEvents persists tool call/result events when set.
	ToolEvents ToolEventStore

	// EnableThinking requests extended-thinking output from the provider.
	EnableThinking bool

	// ThinkingBudgetTokens bounds the thinking token budget when EnableThinking is set.
	ThinkingBudgetTokens int
}

const (
	// MaxResponseTextSize caps the accumulated assistant text per turn (1MB).
	MaxResponseTextSize = 1 << 20

	// MaxToolCallsPerIteration caps how many tool calls a single model turn may request.
	MaxToolCallsPerIteration = 32
)

// DefaultLoopConfig returns the default loop configuration.
func DefaultLoopConfig() *LoopConfig {
	return &LoopConfig{
		MaxIterations:     10,
		MaxTokens:         4096,
		ExecConfig:        DefaultToolExecConfig(),
		StreamToolResults: true,
	}
}

func sanitizeLoopConfig(config *LoopConfig) *LoopConfig {
	if config == nil {
		return DefaultLoopConfig()
	}
	cfg := *config
	defaults := DefaultLoopConfig()
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaults.MaxIterations
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.ExecConfig.Concurrency <= 0 && cfg.ExecConfig.PerToolTimeout <= 0 {
		cfg.ExecConfig = defaults.ExecConfig
	}
	if cfg.MaxToolCalls < 0 {
		cfg.MaxToolCalls = 0
	}
	if cfg.MaxWallTime < 0 {
		cfg.MaxWallTime = 0
	}
	return &cfg
}

// AgenticLoop implements the single tool-using conversation loop: resolve
// history, stream a completion, execute any tool calls the model asked for,
// feed the results back, and repeat until the model stops calling tools or
// MaxIterations is reached.
//
// The loop is a state machine:
//
//	Init -> Stream -> (no tool calls) -> Complete
//	                -> (tool calls)    -> ExecuteTools -> Continue -> Stream
type AgenticLoop struct {
	provider LLMProvider
	executor *ToolExecutor
	registry *ToolRegistry
	history  History
	config   *LoopConfig

	defaultModel  string
	defaultSystem string
}

// NewAgenticLoop creates a new agentic loop with the given provider, tool registry, and history store.
// If config is nil, DefaultLoopConfig is used.
func NewAgenticLoop(provider LLMProvider, registry *ToolRegistry, history History, config *LoopConfig) *AgenticLoop {
	config = sanitizeLoopConfig(config)
	if registry == nil {
		registry = NewToolRegistry()
	}

	return &AgenticLoop{
		provider: provider,
		executor: NewToolExecutor(registry, config.ExecConfig),
		registry: registry,
		history:  history,
		config:   config,
	}
}

// SetDefaultModel sets the default model used when requests do not specify one.
func (l *AgenticLoop) SetDefaultModel(model string) {
	l.defaultModel = model
}

// SetDefaultSystem sets the default system prompt used when requests do not specify one.
func (l *AgenticLoop) SetDefaultSystem(system string) {
	l.defaultSystem = system
}

// LoopState tracks the current state of an agentic loop execution including
// phase, iteration count, accumulated messages, and pending tool operations.
type LoopState struct {
	Phase           LoopPhase
	Iteration       int
	TotalToolCalls  int
	Messages        []CompletionMessage
	PendingTools    []models.ToolCall
	AccumulatedText string
	AssistantMsgID  string
}

// Run executes the agentic loop and streams results through a channel.
// The channel is closed when the loop completes or an error occurs.
func (l *AgenticLoop) Run(ctx context.Context, conversationID string, msg *models.Message) (<-chan *ResponseChunk, error) {
	if l.provider == nil {
		return nil, ErrNoProvider
	}
	if strings.TrimSpace(conversationID) == "" {
		return nil, errors.New("conversation id is empty")
	}
	if msg == nil {
		return nil, errors.New("message is nil")
	}
	if l.history == nil {
		return nil, errors.New("no history store configured")
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if l.config.MaxWallTime > 0 {
		runCtx, cancel = context.WithTimeout(ctx, l.config.MaxWallTime)
	}

	chunks := make(chan *ResponseChunk, 64)

	go func() {
		defer close(chunks)
		if cancel != nil {
			defer cancel()
		}

		state := &LoopState{Phase: PhaseInit}

		if err := l.initializeState(runCtx, conversationID, msg, state); err != nil {
			chunks <- &ResponseChunk{Error: &LoopError{Phase: PhaseInit, Cause: err}}
			return
		}

		if err := l.persistInboundMessage(runCtx, conversationID, msg); err != nil {
			chunks <- &ResponseChunk{Error: &LoopError{Phase: PhaseInit, Cause: err}}
			return
		}

		for state.Iteration < l.config.MaxIterations {
			select {
			case <-runCtx.Done():
				chunks <- &ResponseChunk{Error: &LoopError{Phase: state.Phase, Iteration: state.Iteration, Cause: runCtx.Err()}}
				return
			default:
			}

			state.Phase = PhaseStream
			toolCalls, err := l.streamPhase(runCtx, state, chunks)
			if err != nil {
				chunks <- &ResponseChunk{Error: &LoopError{Phase: PhaseStream, Iteration: state.Iteration, Cause: err}}
				return
			}

			if l.config.MaxToolCalls > 0 && state.TotalToolCalls+len(toolCalls) > l.config.MaxToolCalls {
				chunks <- &ResponseChunk{Error: &LoopError{
					Phase:     PhaseStream,
					Iteration: state.Iteration,
					Cause:     fmt.Errorf("tool calls exceed maximum of %d for run", l.config.MaxToolCalls),
				}}
				return
			}
			state.TotalToolCalls += len(toolCalls)

			assistantMsgID, err := l.persistAssistantMessage(runCtx, conversationID, state, toolCalls)
			if err != nil {
				chunks <- &ResponseChunk{Error: &LoopError{Phase: PhaseStream, Iteration: state.Iteration, Cause: err}}
				return
			}
			state.AssistantMsgID = assistantMsgID
			l.persistToolCalls(runCtx, conversationID, assistantMsgID, toolCalls)

			if len(toolCalls) == 0 {
				l.addAssistantMessage(state, toolCalls)
				state.AccumulatedText = ""
				state.Phase = PhaseComplete
				return
			}

			state.Phase = PhaseExecuteTools
			state.PendingTools = toolCalls

			toolResults, err := l.executeToolsPhase(runCtx, conversationID, state, chunks)
			if err != nil {
				chunks <- &ResponseChunk{Error: &LoopError{Phase: PhaseExecuteTools, Iteration: state.Iteration, Cause: err}}
				return
			}

			if err := l.persistToolMessage(runCtx, conversationID, toolCalls, toolResults); err != nil {
				chunks <- &ResponseChunk{Error: &LoopError{Phase: PhaseExecuteTools, Iteration: state.Iteration, Cause: err}}
				return
			}

			state.Phase = PhaseContinue
			l.continuePhase(state, toolCalls, toolResults)
			state.Iteration++
		}

		chunks <- &ResponseChunk{Error: &LoopError{
			Phase:     state.Phase,
			Iteration: state.Iteration,
			Cause:     ErrMaxIterations,
			Message:   fmt.Sprintf("reached max iterations: %d", l.config.MaxIterations),
		}}
	}()

	return chunks, nil
}

// initializeState loads conversation history and sets up initial state.
func (l *AgenticLoop) initializeState(ctx context.Context, conversationID string, msg *models.Message, state *LoopState) error {
	history, err := l.history.GetHistory(ctx, conversationID, 50)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	state.Messages = make([]CompletionMessage, 0, len(history)+1)
	for _, m := range history {
		state.Messages = append(state.Messages, CompletionMessage{
			Role:        string(m.Role),
			Content:     m.Content,
			ToolCalls:   m.ToolCalls,
			ToolResults: m.ToolResults,
			Attachments: m.Attachments,
		})
	}

	role := msg.Role
	if role == "" {
		role = models.RoleUser
	}
	state.Messages = append(state.Messages, CompletionMessage{
		Role:        string(role),
		Content:     msg.Content,
		Attachments: msg.Attachments,
	})

	return nil
}

// streamPhase streams from the LLM and collects any tool calls.
func (l *AgenticLoop) streamPhase(ctx context.Context, state *LoopState, chunks chan<- *ResponseChunk) ([]models.ToolCall, error) {
	tools := l.registry.AsLLMTools()

	req := &CompletionRequest{
		Model:                l.defaultModel,
		System:               l.defaultSystem,
		Messages:             state.Messages,
		Tools:                tools,
		MaxTokens:            l.config.MaxTokens,
		EnableThinking:       l.config.EnableThinking,
		ThinkingBudgetTokens: l.config.ThinkingBudgetTokens,
	}

	completion, err := l.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	var toolCalls []models.ToolCall
	var textBuilder strings.Builder

	for chunk := range completion {
		if chunk.Error != nil {
			return nil, chunk.Error
		}

		if chunk.ThinkingStart {
			chunks <- &ResponseChunk{ThinkingStart: true}
		}
		if chunk.Thinking != "" {
			chunks <- &ResponseChunk{Thinking: chunk.Thinking}
		}
		if chunk.ThinkingEnd {
			chunks <- &ResponseChunk{ThinkingEnd: true}
		}

		if chunk.Text != "" {
			if textBuilder.Len()+len(chunk.Text) > MaxResponseTextSize {
				return nil, fmt.Errorf("response text exceeds maximum size of %d bytes", MaxResponseTextSize)
			}
			textBuilder.WriteString(chunk.Text)
			chunks <- &ResponseChunk{Text: chunk.Text}
		}

		if chunk.ToolCall != nil {
			if len(toolCalls) >= MaxToolCallsPerIteration {
				return nil, fmt.Errorf("tool calls exceed maximum of %d per iteration", MaxToolCallsPerIteration)
			}
			toolCalls = append(toolCalls, *chunk.ToolCall)
		}
	}

	state.AccumulatedText = textBuilder.String()
	return toolCalls, nil
}

// executeToolsPhase executes pending tool calls against the registry.
func (l *AgenticLoop) executeToolsPhase(ctx context.Context, conversationID string, state *LoopState, chunks chan<- *ResponseChunk) ([]models.ToolResult, error) {
	if len(state.PendingTools) == 0 {
		return nil, nil
	}

	for _, tc := range state.PendingTools {
		l.emitToolEvent(chunks, &models.ToolEvent{
			ToolCallID: tc.ID,
			ToolName:   tc.Name,
			Stage:      models.ToolEventRequested,
			Input:      tc.Input,
		})
	}
	for _, tc := range state.PendingTools {
		l.emitToolEvent(chunks, &models.ToolEvent{
			ToolCallID: tc.ID,
			ToolName:   tc.Name,
			Stage:      models.ToolEventStarted,
			StartedAt:  time.Now(),
		})
	}

	execResults := l.executor.ExecuteConcurrently(ctx, state.PendingTools, nil)

	results := make([]models.ToolResult, len(state.PendingTools))
	for i, r := range execResults {
		tc := state.PendingTools[i]
		result := r.Result
		if result.ToolCallID == "" {
			result.ToolCallID = tc.ID
		}
		results[i] = result

		stage := models.ToolEventSucceeded
		if result.IsError {
			stage = models.ToolEventFailed
		}
		l.emitToolEvent(chunks, &models.ToolEvent{
			ToolCallID: tc.ID,
			ToolName:   tc.Name,
			Stage:      stage,
			Output:     result.Content,
			Error:      errorIf(result.IsError, result.Content),
			FinishedAt: r.EndTime,
		})

		l.persistToolResult(ctx, conversationID, state.AssistantMsgID, tc, result)
	}

	if l.config.StreamToolResults {
		for i := range results {
			chunks <- &ResponseChunk{ToolResult: &results[i]}
		}
	}

	return results, nil
}

func errorIf(cond bool, msg string) string {
	if cond {
		return msg
	}
	return ""
}

// continuePhase adds the assistant message with tool calls and tool results to history.
func (l *AgenticLoop) continuePhase(state *LoopState, toolCalls []models.ToolCall, toolResults []models.ToolResult) {
	l.addAssistantMessage(state, toolCalls)
	state.Messages = append(state.Messages, CompletionMessage{
		Role:        "tool",
		ToolResults: toolResults,
	})
	state.AccumulatedText = ""
	state.PendingTools = nil
}

func (l *AgenticLoop) addAssistantMessage(state *LoopState, toolCalls []models.ToolCall) {
	state.Messages = append(state.Messages, CompletionMessage{
		Role:      "assistant",
		Content:   state.AccumulatedText,
		ToolCalls: toolCalls,
	})
}

func (l *AgenticLoop) persistInboundMessage(ctx context.Context, conversationID string, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.SessionID == "" {
		msg.SessionID = conversationID
	}
	if msg.Role == "" {
		msg.Role = models.RoleUser
	}
	if msg.Direction == "" {
		msg.Direction = models.DirectionInbound
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	return l.history.AppendMessage(ctx, conversationID, msg)
}

func (l *AgenticLoop) persistAssistantMessage(ctx context.Context, conversationID string, state *LoopState, toolCalls []models.ToolCall) (string, error) {
	assistantMsg := &models.Message{
		ID:        uuid.NewString(),
		SessionID: conversationID,
		Direction: models.DirectionOutbound,
		Role:      models.RoleAssistant,
		Content:   state.AccumulatedText,
		ToolCalls: toolCalls,
		CreatedAt: time.Now(),
	}
	if err := l.history.AppendMessage(ctx, conversationID, assistantMsg); err != nil {
		return "", err
	}
	return assistantMsg.ID, nil
}

func (l *AgenticLoop) persistToolMessage(ctx context.Context, conversationID string, toolCalls []models.ToolCall, toolResults []models.ToolResult) error {
	if len(toolResults) == 0 {
		return nil
	}
	persistResults := guardToolResults(l.config.ToolResultGuard, toolCalls, toolResults)
	resultsForStorage := make([]models.ToolResult, len(persistResults))
	for i := range persistResults {
		resultsForStorage[i] = persistResults[i]
		resultsForStorage[i].Attachments = nil
	}
	toolMsg := &models.Message{
		ID:          uuid.NewString(),
		SessionID:   conversationID,
		Direction:   models.DirectionInbound,
		Role:        models.RoleTool,
		ToolResults: resultsForStorage,
		CreatedAt:   time.Now(),
	}
	return l.history.AppendMessage(ctx, conversationID, toolMsg)
}

func (l *AgenticLoop) emitToolEvent(chunks chan<- *ResponseChunk, event *models.ToolEvent) {
	if l.config.DisableToolEvents || event == nil {
		return
	}
	chunks <- &ResponseChunk{ToolEvent: event}
}

func (l *AgenticLoop) persistToolCalls(ctx context.Context, conversationID string, assistantMsgID string, toolCalls []models.ToolCall) {
	if l.config.ToolEvents == nil {
		return
	}
	for i := range toolCalls {
		tc := toolCalls[i]
		_ = l.config.ToolEvents.AddToolCall(ctx, conversationID, assistantMsgID, &tc)
	}
}

func (l *AgenticLoop) persistToolResult(ctx context.Context, conversationID string, assistantMsgID string, tc models.ToolCall, res models.ToolResult) {
	if l.config.ToolEvents == nil {
		return
	}
	guarded := guardToolResult(l.config.ToolResultGuard, tc.Name, res)
	_ = l.config.ToolEvents.AddToolResult(ctx, conversationID, assistantMsgID, &tc, &guarded)
}
