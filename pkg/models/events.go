package models

import "time"

// TaskEventType enumerates the task-events topic's event types.
type TaskEventType string

const (
	TaskEventCreated   TaskEventType = "task.created"
	TaskEventUpdated   TaskEventType = "task.updated"
	TaskEventCompleted TaskEventType = "task.completed"
	TaskEventDeleted   TaskEventType = "task.deleted"
)

// TaskEventData is the task snapshot carried on a TaskEvent. Title always
// equals the task's title at the moment of emission.
type TaskEventData struct {
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	Completed         bool              `json:"completed"`
	Priority          Priority          `json:"priority"`
	DueDate           *time.Time        `json:"due_date,omitempty"`
	Tags              []Tag             `json:"tags,omitempty"`
	RecurringPattern  RecurrencePattern `json:"recurring_pattern,omitempty"`
	RecurrenceEvery   int               `json:"recurrence_every,omitempty"`
	NextOccurrence    *time.Time        `json:"next_occurrence,omitempty"`
}

// TaskEvent is published to task-events on every write to a task.
//
// EventID and Source are additive CloudEvents-flavored fields carried over
// from the original system's event schema; they don't change the wire
// semantics of CorrelationID/Timestamp.
type TaskEvent struct {
	EventID       string        `json:"event_id"`
	Source        string        `json:"source"`
	EventType     TaskEventType `json:"event_type"`
	TaskID        int64         `json:"task_id"`
	UserID        string        `json:"user_id"`
	TaskData      TaskEventData `json:"task_data"`
	CorrelationID string        `json:"correlation_id"`
	Timestamp     time.Time     `json:"timestamp"`
}

// ReminderEventType enumerates the reminder-events topic's event types.
type ReminderEventType string

const (
	ReminderEventScheduled ReminderEventType = "reminder.scheduled"
	ReminderEventDue       ReminderEventType = "reminder.due"
	ReminderEventCancelled ReminderEventType = "reminder.cancelled"
)

// ReminderEvent is published to reminder-events by the reminder engine.
type ReminderEvent struct {
	EventID       string            `json:"event_id"`
	Source        string            `json:"source"`
	EventType     ReminderEventType `json:"event_type"`
	ReminderID    int64             `json:"reminder_id"`
	TaskID        int64             `json:"task_id"`
	UserID        string            `json:"user_id"`
	Title         string            `json:"title"`
	DueAt         *time.Time        `json:"due_at,omitempty"`
	RemindAt      time.Time         `json:"remind_at"`
	CorrelationID string            `json:"correlation_id"`
	Timestamp     time.Time         `json:"timestamp"`
}

// TaskUpdateAction enumerates the action field of a TaskUpdateEvent.
type TaskUpdateAction string

const (
	TaskUpdateCreated   TaskUpdateAction = "created"
	TaskUpdateUpdated   TaskUpdateAction = "updated"
	TaskUpdateCompleted TaskUpdateAction = "completed"
	TaskUpdateDeleted   TaskUpdateAction = "deleted"
	TaskUpdateReminder  TaskUpdateAction = "reminder"
)

// TaskUpdateEventType enumerates the task-updates topic's event types.
type TaskUpdateEventType string

const (
	TaskUpdateEventSync     TaskUpdateEventType = "task.sync"
	TaskUpdateEventReminder TaskUpdateEventType = "task.reminder"
)

// TaskUpdateEvent is the fan-out-to-clients cousin of a TaskEvent or
// ReminderEvent; the WebSocket broadcaster consumes this topic exclusively.
// SourceClient exists in the schema for echo suppression but the reference
// flow always broadcasts to every connection of the target user (see
// DESIGN.md's open-question decision).
type TaskUpdateEvent struct {
	EventID       string              `json:"event_id"`
	Source        string              `json:"source"`
	EventType     TaskUpdateEventType `json:"event_type"`
	TaskID        int64               `json:"task_id"`
	UserID        string              `json:"user_id"`
	Action        TaskUpdateAction    `json:"action"`
	Changes       map[string]any      `json:"changes,omitempty"`
	SourceClient  string              `json:"source_client,omitempty"`
	CorrelationID string              `json:"correlation_id"`
	Timestamp     time.Time           `json:"timestamp"`
}
