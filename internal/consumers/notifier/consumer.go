// Package notifier subscribes to the reminder-events topic and turns a due
// reminder into a user-facing task-updates message. Non-due event types are
// observed but not actioned.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/maneeshanif/todo-realtime-core/internal/eventbus"
	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

// Consumer turns reminder.due events into task-updates broadcasts.
type Consumer struct {
	bus    *eventbus.Bus
	logger *slog.Logger
}

// New builds a Consumer that publishes through bus.
func New(bus *eventbus.Bus, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{bus: bus, logger: logger.With("component", "notifier-consumer")}
}

// Handle builds and publishes the reminder notification for a due reminder
// event. Non-due event types are logged and otherwise ignored.
func (c *Consumer) Handle(ctx context.Context, event models.ReminderEvent) error {
	if event.EventType != models.ReminderEventDue {
		c.logger.Debug("ignoring non-due reminder event", "event_type", event.EventType, "reminder_id", event.ReminderID)
		return nil
	}

	message := fmt.Sprintf("Reminder: '%s' is due at %s", event.Title, formatDueAt(event))

	update := models.TaskUpdateEvent{
		EventType:     models.TaskUpdateEventReminder,
		TaskID:        event.TaskID,
		UserID:        event.UserID,
		Action:        models.TaskUpdateReminder,
		Changes:       map[string]any{"message": message, "reminder_id": event.ReminderID},
		CorrelationID: event.CorrelationID,
		Timestamp:     event.Timestamp,
	}

	if err := c.bus.Publish(ctx, eventbus.TopicTaskUpdates, update); err != nil {
		return fmt.Errorf("notifier-consumer: publish task update: %w", err)
	}
	return nil
}

// formatDueAt prefers the reminder's due_at (the task's actual due date)
// when present, falling back to the reminder's own fire time.
func formatDueAt(event models.ReminderEvent) string {
	if event.DueAt != nil {
		return event.DueAt.UTC().Format(time.RFC3339)
	}
	return event.RemindAt.UTC().Format(time.RFC3339)
}

// DeliveryHandler implements the HTTP route the sidecar POSTs
// reminder-events deliveries to.
func (c *Consumer) DeliveryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event models.ReminderEvent
		if err := eventbus.DecodeDelivery(r, &event); err != nil {
			c.logger.Warn("malformed reminder event delivery", "error", err)
			eventbus.WriteAck(w, eventbus.AckDrop)
			return
		}

		if err := c.Handle(r.Context(), event); err != nil {
			c.logger.Error("handling reminder event failed", "error", err)
			eventbus.WriteAck(w, eventbus.AckRetry)
			return
		}

		eventbus.WriteAck(w, eventbus.AckSuccess)
	}
}
