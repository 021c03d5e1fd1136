package storage

import (
	"context"
	"errors"

	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// TaskFilter narrows a task listing. Zero values mean "unfiltered" except
// Status, which defaults to "all".
type TaskFilter struct {
	Status    string // all | pending | completed
	Priority  models.Priority
	TagIDs    []int64
	Search    string
	SortBy    string // due_date | priority | created_at | title | updated_at
	SortOrder string // asc | desc
}

// TaskStore persists tasks.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	Get(ctx context.Context, ownerID string, id int64) (*models.Task, error)
	List(ctx context.Context, ownerID string, filter TaskFilter) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, ownerID string, id int64) error
	ListRecurring(ctx context.Context, ownerID string) ([]*models.Task, error)
}

// TagStore persists tags and the task/tag association.
type TagStore interface {
	Create(ctx context.Context, tag *models.Tag) error
	Get(ctx context.Context, ownerID string, id int64) (*models.Tag, error)
	List(ctx context.Context, ownerID string) ([]*models.Tag, error)
	Delete(ctx context.Context, ownerID string, id int64) error
	TagTask(ctx context.Context, ownerID string, taskID, tagID int64) error
	UntagTask(ctx context.Context, ownerID string, taskID, tagID int64) error
	TagsForTask(ctx context.Context, ownerID string, taskID int64) ([]*models.Tag, error)
}

// ReminderStore persists reminders.
type ReminderStore interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	Get(ctx context.Context, id int64) (*models.Reminder, error)
	GetPendingForTask(ctx context.Context, taskID int64) (*models.Reminder, error)
	List(ctx context.Context, ownerID string, taskID int64) ([]*models.Reminder, error)
	ListUpcoming(ctx context.Context, ownerID string, hours int) ([]*models.Reminder, error)
	Update(ctx context.Context, reminder *models.Reminder) error
	Delete(ctx context.Context, ownerID string, id int64) error
}

// ConversationStore persists chat conversations.
type ConversationStore interface {
	Create(ctx context.Context, conv *models.Conversation) error
	Get(ctx context.Context, ownerID, id string) (*models.Conversation, error)
	List(ctx context.Context, ownerID string, limit, offset int) ([]*models.Conversation, error)
	Update(ctx context.Context, conv *models.Conversation) error
}

// MessageStore persists conversation messages, append-only.
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error)
}

// AuditLogStore persists audit records.
type AuditLogStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, actor string, limit, offset int) ([]*models.AuditLog, error)
}

// StoreSet groups storage dependencies shared across the platform's binaries.
type StoreSet struct {
	Tasks         TaskStore
	Tags          TagStore
	Reminders     ReminderStore
	Conversations ConversationStore
	Messages      MessageStore
	AuditLogs     AuditLogStore
	closer        func() error
}

// Close closes any underlying resources.
func (s StoreSet) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
