package restapi

import (
	"encoding/json"
	"net/http"

	"github.com/maneeshanif/todo-realtime-core/internal/agent"
	"github.com/maneeshanif/todo-realtime-core/internal/auth"
	"github.com/maneeshanif/todo-realtime-core/internal/taskvalidate"
	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

type chatRequestBody struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ChatHandler implements POST /chat: drains a full chat run and returns the
// accumulated reply as a single JSON body.
func (d *Dispatcher) ChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, body, ok := decodeChatRequest(w, r)
		if !ok {
			return
		}

		result, agentErr := d.Run(r.Context(), ChatRequest{
			UserID:         user.ID,
			ConversationID: body.ConversationID,
			Text:           body.Message,
		})
		if agentErr != nil {
			writeJSONError(w, agent.HTTPStatus(agentErr.Code), string(agentErr.Code), agent.FriendlyMessage(agentErr.Code))
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// StreamHandler implements POST /chat/stream: runs the same chat loop but
// translates it onto the response as a server-sent-event stream.
func (d *Dispatcher) StreamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, body, ok := decodeChatRequest(w, r)
		if !ok {
			return
		}

		sse := newSSEWriter(w)
		d.Stream(r.Context(), ChatRequest{
			UserID:         user.ID,
			ConversationID: body.ConversationID,
			Text:           body.Message,
		}, sse)
	}
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (*models.User, chatRequestBody, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "auth_error", "authentication required")
		return nil, chatRequestBody{}, false
	}

	var body chatRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return nil, chatRequestBody{}, false
	}

	if err := taskvalidate.MessageTextLength(body.Message); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return nil, chatRequestBody{}, false
	}

	return user, body, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}
