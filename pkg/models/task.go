package models

import "time"

// Priority is a task's urgency level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// RecurrencePattern is the cadence a recurring task repeats on.
type RecurrencePattern string

const (
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
	RecurrenceYearly  RecurrencePattern = "yearly"
)

// Task is a user-owned unit of work. DueDate and NextOccurrence are stored
// as naive UTC (offset stripped after conversion); emission back to the
// wire adds the "Z" suffix.
type Task struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`

	IsRecurring       bool              `json:"is_recurring"`
	RecurrencePattern RecurrencePattern `json:"recurrence_pattern,omitempty"`
	RecurrenceEvery   int               `json:"recurrence_every,omitempty"`
	NextOccurrence    *time.Time        `json:"next_occurrence,omitempty"`

	TagIDs      []int64 `json:"tag_ids,omitempty"`
	CategoryIDs []int64 `json:"category_ids,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tag is a user-owned label. (OwnerID, Name) is unique.
type Tag struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"` // #RRGGBB
	CreatedAt time.Time `json:"created_at"`
}

// ReminderStatus is a reminder's position in its state machine.
// pending -> {sent, failed} is terminal.
type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	ReminderSent    ReminderStatus = "sent"
	ReminderFailed  ReminderStatus = "failed"
)

// Reminder schedules a due-date notification for a task. At most one
// pending reminder exists per task. DaprJobName is non-null only while an
// external job is live; a reminder that failed to schedule stays pending
// with DaprJobName empty ("dormant"). Nothing picks a dormant reminder up
// later; only an Update that reschedules it successfully gives it a job.
type Reminder struct {
	ID          int64          `json:"id"`
	TaskID      int64          `json:"task_id"`
	OwnerID     string         `json:"owner_id"`
	RemindAt    time.Time      `json:"remind_at"`
	Status      ReminderStatus `json:"status"`
	SentAt      *time.Time     `json:"sent_at,omitempty"`
	DaprJobName string         `json:"dapr_job_name,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Conversation is a chat thread owned by a user. Title is auto-derived from
// the first user message when left empty.
type Conversation struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditLog is an append-only record of a platform action.
type AuditLog struct {
	ID           int64          `json:"id"`
	Actor        string         `json:"actor"`
	Action       string         `json:"action"` // "task.created", "auth.login", ...
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	RequestID    string         `json:"request_id,omitempty"`
	ClientIP     string         `json:"client_ip,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
