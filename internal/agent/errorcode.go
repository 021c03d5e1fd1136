package agent

import (
	"context"
	"errors"
	"net/http"

	"github.com/maneeshanif/todo-realtime-core/internal/agent/providers"
)

// ErrorCode is the closed set of stable error codes surfaced to chat
// dispatcher clients. Every exception crossing the agent loop is classified
// into exactly one of these before it reaches an SSE error frame or a
// non-streaming HTTP response.
type ErrorCode string

const (
	CodeRateLimit       ErrorCode = "rate_limit"
	CodeAuthError       ErrorCode = "auth_error"
	CodeConnectionError ErrorCode = "connection_error"
	CodeModelUnavailable ErrorCode = "model_unavailable"
	CodeTimeout         ErrorCode = "timeout"
	CodeToolError       ErrorCode = "tool_error"
	CodeInvalidResponse ErrorCode = "invalid_response"
	CodeUnknownError    ErrorCode = "unknown_error"
)

// AgentError is the Result<T, AgentError>-style tagged outcome carried across
// agent loop boundaries instead of a bare error. Cause is kept for structured
// logging; Message is always the fixed, friendly per-code string shown to
// the client.
type AgentError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *AgentError) Error() string {
	if e.Cause != nil {
		return string(e.Code) + ": " + e.Cause.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *AgentError) Unwrap() error {
	return e.Cause
}

// friendlyMessages holds the fixed, user-visible string per code. Internal
// detail stays on AgentError.Cause and is only ever logged.
var friendlyMessages = map[ErrorCode]string{
	CodeRateLimit:        "The assistant is temporarily rate-limited. Please try again in a moment.",
	CodeAuthError:        "The assistant could not authenticate with its model provider.",
	CodeConnectionError:  "A temporary connection problem reached the model. Please try again.",
	CodeModelUnavailable: "The model is temporarily unavailable. Please try again shortly.",
	CodeTimeout:          "The request took too long and timed out.",
	CodeToolError:        "One of the assistant's tools failed while handling your request.",
	CodeInvalidResponse:  "The assistant produced a response that couldn't be understood.",
	CodeUnknownError:     "Something went wrong handling your request.",
}

// FriendlyMessage returns the fixed client-facing string for code.
func FriendlyMessage(code ErrorCode) string {
	if msg, ok := friendlyMessages[code]; ok {
		return msg
	}
	return friendlyMessages[CodeUnknownError]
}

// HTTPStatus maps a code to the status used by the chat dispatcher's
// non-streaming request variant.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeModelUnavailable, CodeConnectionError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ClassifyAgentError inspects err and returns the AgentError carrying its
// stable code and fixed client-facing message. It recognizes the provider
// package's FailoverReason classification, this package's ToolError/
// ToolErrorType classification, and context deadline/cancellation, falling
// back to CodeUnknownError.
func ClassifyAgentError(err error) *AgentError {
	if err == nil {
		return nil
	}

	var existing *AgentError
	if errors.As(err, &existing) {
		return existing
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newAgentError(CodeTimeout, err)
	}

	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return newAgentError(CodeToolError, err)
	}

	if providerErr, ok := providers.GetProviderError(err); ok {
		return newAgentError(codeFromFailoverReason(providerErr.Reason), err)
	}

	switch providers.ClassifyError(err) {
	case providers.FailoverRateLimit:
		return newAgentError(CodeRateLimit, err)
	case providers.FailoverAuth, providers.FailoverBilling:
		return newAgentError(CodeAuthError, err)
	case providers.FailoverTimeout:
		return newAgentError(CodeTimeout, err)
	case providers.FailoverServerError, providers.FailoverModelUnavailable:
		return newAgentError(CodeModelUnavailable, err)
	case providers.FailoverContentFilter, providers.FailoverInvalidRequest:
		return newAgentError(CodeInvalidResponse, err)
	}

	if errors.Is(err, context.Canceled) {
		return newAgentError(CodeConnectionError, err)
	}

	return newAgentError(CodeUnknownError, err)
}

func codeFromFailoverReason(reason providers.FailoverReason) ErrorCode {
	switch reason {
	case providers.FailoverRateLimit:
		return CodeRateLimit
	case providers.FailoverAuth, providers.FailoverBilling:
		return CodeAuthError
	case providers.FailoverTimeout:
		return CodeTimeout
	case providers.FailoverServerError, providers.FailoverModelUnavailable:
		return CodeModelUnavailable
	case providers.FailoverContentFilter, providers.FailoverInvalidRequest:
		return CodeInvalidResponse
	default:
		return CodeUnknownError
	}
}

func newAgentError(code ErrorCode, cause error) *AgentError {
	return &AgentError{Code: code, Message: FriendlyMessage(code), Cause: cause}
}
