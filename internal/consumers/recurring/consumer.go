// Package recurring subscribes to the task-events topic and materializes a
// recurring task's next occurrence by calling the REST write API, rather
// than writing storage directly.
package recurring

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/maneeshanif/todo-realtime-core/internal/eventbus"
	"github.com/maneeshanif/todo-realtime-core/internal/recurrence"
	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

// Consumer materializes the next occurrence of a completed recurring task.
type Consumer struct {
	client *TaskAPIClient
	logger *slog.Logger
}

// New builds a Consumer that creates occurrences through client.
func New(client *TaskAPIClient, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{client: client, logger: logger.With("component", "recurring-consumer")}
}

// Handle materializes the next occurrence of event's task when it reports a
// completed recurring task. Any other event type or a non-recurring
// completion is observed and ignored. A redelivered completion event
// creates a second occurrence -- an accepted trade-off, not a bug.
func (c *Consumer) Handle(ctx context.Context, event models.TaskEvent) error {
	if event.EventType != models.TaskEventCompleted || event.TaskData.RecurringPattern == "" {
		return nil
	}

	base := event.TaskData.NextOccurrence
	if base == nil {
		base = event.TaskData.DueDate
	}
	if base == nil {
		base = &event.Timestamp
	}

	next, err := recurrence.Advance(*base, event.TaskData.RecurringPattern, event.TaskData.RecurrenceEvery)
	if err != nil {
		return fmt.Errorf("recurring-consumer: compute next occurrence: %w", err)
	}

	tagIDs := make([]int64, 0, len(event.TaskData.Tags))
	for _, tag := range event.TaskData.Tags {
		tagIDs = append(tagIDs, tag.ID)
	}

	req := createTaskRequest{
		Title:             event.TaskData.Title,
		Description:       event.TaskData.Description,
		Priority:          string(event.TaskData.Priority),
		TagIDs:            tagIDs,
		RecurrencePattern: string(event.TaskData.RecurringPattern),
		RecurrenceEvery:   event.TaskData.RecurrenceEvery,
		DueDate:           formatTime(next),
		NextOccurrence:    formatTime(next),
	}

	taskID, err := c.client.CreateTask(ctx, event.UserID, req)
	if err != nil {
		return err
	}

	c.logger.Info("materialized recurring occurrence", "source_task_id", event.TaskID, "new_task_id", taskID, "next_occurrence", next)
	return nil
}

// DeliveryHandler implements the HTTP route the sidecar POSTs task-events
// deliveries to.
func (c *Consumer) DeliveryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event models.TaskEvent
		if err := eventbus.DecodeDelivery(r, &event); err != nil {
			c.logger.Warn("malformed task event delivery", "error", err)
			eventbus.WriteAck(w, eventbus.AckDrop)
			return
		}

		if err := c.Handle(r.Context(), event); err != nil {
			c.logger.Error("handling task event failed", "error", err)
			eventbus.WriteAck(w, eventbus.AckRetry)
			return
		}

		eventbus.WriteAck(w, eventbus.AckSuccess)
	}
}
