// Package audit subscribes to the task-events topic and writes one audit
// row per event, independent of the agent-facing internal/audit logger.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/maneeshanif/todo-realtime-core/internal/cache"
	"github.com/maneeshanif/todo-realtime-core/internal/eventbus"
	"github.com/maneeshanif/todo-realtime-core/internal/storage"
	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

// dedupeTTL bounds how long a (correlation_id, event_type) pair is
// remembered before it's eligible to be treated as a fresh delivery again.
// Redelivery past this window falls through to a second row rather than
// being silently swallowed -- an accepted trade-off, not a guarantee.
const dedupeTTL = 10 * time.Minute

// Consumer writes an audit row for every delivered task event.
type Consumer struct {
	store  storage.AuditLogStore
	dedupe *cache.DedupeCache
	logger *slog.Logger
}

// New builds a Consumer writing into store, with a process-local dedupe
// cache holding up to 10000 keys for dedupeTTL.
func New(store storage.AuditLogStore, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		store: store,
		dedupe: cache.NewDedupeCache(cache.DedupeCacheOptions{
			TTL:     dedupeTTL,
			MaxSize: 10000,
		}),
		logger: logger.With("component", "audit-consumer"),
	}
}

// Handle writes an audit row for event, skipping it if its
// (correlation_id, event_type) pair was already seen inside the dedupe
// window.
func (c *Consumer) Handle(ctx context.Context, event models.TaskEvent) error {
	key := fmt.Sprintf("%s:%s", event.CorrelationID, event.EventType)
	if c.dedupe.Check(key) {
		c.logger.Debug("skipping duplicate task event", "correlation_id", event.CorrelationID, "event_type", event.EventType)
		return nil
	}

	entry := &models.AuditLog{
		Actor:        event.UserID,
		Action:       string(event.EventType),
		ResourceType: "task",
		ResourceID:   fmt.Sprintf("%d", event.TaskID),
		RequestID:    event.CorrelationID,
		Details:      taskSnapshot(event.TaskData),
		Status:       "success",
		CreatedAt:    event.Timestamp,
	}

	if err := c.store.Create(ctx, entry); err != nil {
		return fmt.Errorf("audit-consumer: write audit row: %w", err)
	}
	return nil
}

// taskSnapshot projects the event's task data into the audit row's details
// map, dropping fields that don't carry useful audit context (tags).
func taskSnapshot(data models.TaskEventData) map[string]any {
	snapshot := map[string]any{
		"title":     data.Title,
		"completed": data.Completed,
		"priority":  data.Priority,
	}
	if data.Description != "" {
		snapshot["description"] = data.Description
	}
	if data.DueDate != nil {
		snapshot["due_date"] = data.DueDate.UTC().Format(time.RFC3339)
	}
	if data.RecurringPattern != "" {
		snapshot["recurring_pattern"] = data.RecurringPattern
	}
	return snapshot
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
