package restapi

import (
	"context"

	"github.com/maneeshanif/todo-realtime-core/internal/storage"
	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

// historyStore adapts storage.MessageStore to the agent.History seam the
// agentic loop depends on: it loads/persists by conversation id without the
// loop ever importing internal/storage directly.
type historyStore struct {
	messages storage.MessageStore
}

func newHistoryStore(messages storage.MessageStore) *historyStore {
	return &historyStore{messages: messages}
}

func (h *historyStore) GetHistory(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	all, err := h.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || len(all) <= limit {
		return all, nil
	}
	return all[len(all)-limit:], nil
}

func (h *historyStore) AppendMessage(ctx context.Context, conversationID string, msg *models.Message) error {
	if msg.SessionID == "" {
		msg.SessionID = conversationID
	}
	return h.messages.Create(ctx, msg)
}

// lastAssistantMessage returns the most recently persisted assistant-role
// message for conversationID. The agentic loop persists exactly one
// assistant message per completed run but doesn't surface its id on the
// chunk stream, so the dispatcher re-reads it from storage once the run's
// channel closes cleanly.
func lastAssistantMessage(ctx context.Context, messages storage.MessageStore, conversationID string) (*models.Message, error) {
	all, err := messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Role == models.RoleAssistant {
			return all[i], nil
		}
	}
	return nil, storage.ErrNotFound
}
