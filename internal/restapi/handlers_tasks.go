package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maneeshanif/todo-realtime-core/internal/auth"
	"github.com/maneeshanif/todo-realtime-core/internal/eventbus"
	"github.com/maneeshanif/todo-realtime-core/internal/storage"
	"github.com/maneeshanif/todo-realtime-core/internal/taskvalidate"
	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

const taskEventSource = "rest-api"

// TaskHandlers implements the REST write surface the chat dispatcher's
// tool-server mirrors: POST/PATCH/PATCH .../complete/DELETE on /api/tasks.
// Every mutation publishes the matching task-events/task-updates pair so
// the audit/notifier consumers and the WebSocket broadcaster see the same
// writes the MCP tool catalog produces.
type TaskHandlers struct {
	tasks storage.TaskStore
	bus   *eventbus.Bus
	now   func() time.Time

	logger *slog.Logger
}

func NewTaskHandlers(tasks storage.TaskStore, bus *eventbus.Bus, logger *slog.Logger) *TaskHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandlers{tasks: tasks, bus: bus, now: time.Now, logger: logger.With("component", "restapi.tasks")}
}

type createTaskBody struct {
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	Priority          string  `json:"priority"`
	DueDate           string  `json:"due_date"`
	TagIDs            []int64 `json:"tag_ids"`
	IsRecurring       bool    `json:"is_recurring"`
	RecurrencePattern string  `json:"recurrence_pattern"`
	RecurrenceEvery   int     `json:"recurrence_every"`
}

// Create implements POST /api/tasks.
func (h *TaskHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}

		var body createTaskBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
			return
		}
		if strings.TrimSpace(body.Title) == "" {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "title is required")
			return
		}

		priority, err := taskvalidate.ValidatePriority(body.Priority)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		pattern, err := taskvalidate.ValidateRecurrencePattern(body.RecurrencePattern)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		task := &models.Task{
			OwnerID:           user.ID,
			Title:             body.Title,
			Description:       body.Description,
			Priority:          priority,
			TagIDs:            body.TagIDs,
			IsRecurring:       body.IsRecurring,
			RecurrencePattern: pattern,
			RecurrenceEvery:   body.RecurrenceEvery,
		}
		if body.DueDate != "" {
			due, err := taskvalidate.ParseWireDatetime(body.DueDate)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
				return
			}
			task.DueDate = &due
		}

		if err := h.tasks.Create(r.Context(), task); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "failed to create task")
			return
		}

		h.publish(r.Context(), task, models.TaskEventCreated, models.TaskUpdateCreated, nil)
		writeJSON(w, http.StatusCreated, task)
	}
}

type updateTaskBody struct {
	Title             *string `json:"title"`
	Description       *string `json:"description"`
	Priority          *string `json:"priority"`
	DueDate           *string `json:"due_date"`
	RecurrencePattern *string `json:"recurrence_pattern"`
	RecurrenceEvery   *int    `json:"recurrence_every"`
}

// Update implements PATCH /api/tasks/{id}.
func (h *TaskHandlers) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		taskID, ok := pathTaskID(w, r)
		if !ok {
			return
		}

		var body updateTaskBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
			return
		}

		task, err := h.tasks.Get(r.Context(), user.ID, taskID)
		if errors.Is(err, storage.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "not_found", "task not found")
			return
		}
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "failed to load task")
			return
		}

		changes := map[string]any{}
		if body.Title != nil {
			task.Title = *body.Title
			changes["title"] = *body.Title
		}
		if body.Description != nil {
			task.Description = *body.Description
			changes["description"] = *body.Description
		}
		if body.Priority != nil {
			priority, err := taskvalidate.ValidatePriority(*body.Priority)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
				return
			}
			task.Priority = priority
			changes["priority"] = priority
		}
		if body.RecurrencePattern != nil {
			pattern, err := taskvalidate.ValidateRecurrencePattern(*body.RecurrencePattern)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
				return
			}
			task.RecurrencePattern = pattern
			changes["recurrence_pattern"] = pattern
		}
		if body.RecurrenceEvery != nil {
			task.RecurrenceEvery = *body.RecurrenceEvery
			changes["recurrence_every"] = *body.RecurrenceEvery
		}
		if body.DueDate != nil {
			due, err := taskvalidate.ParseWireDatetime(*body.DueDate)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
				return
			}
			task.DueDate = &due
			changes["due_date"] = due
		}
		task.UpdatedAt = h.now()

		if err := h.tasks.Update(r.Context(), task); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "failed to update task")
			return
		}

		h.publish(r.Context(), task, models.TaskEventUpdated, models.TaskUpdateUpdated, changes)
		writeJSON(w, http.StatusOK, task)
	}
}

// Complete implements PATCH /api/tasks/{id}/complete.
func (h *TaskHandlers) Complete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		taskID, ok := pathTaskID(w, r)
		if !ok {
			return
		}

		task, err := h.tasks.Get(r.Context(), user.ID, taskID)
		if errors.Is(err, storage.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "not_found", "task not found")
			return
		}
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "failed to load task")
			return
		}

		task.Completed = true
		task.UpdatedAt = h.now()
		if err := h.tasks.Update(r.Context(), task); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "failed to update task")
			return
		}

		h.publish(r.Context(), task, models.TaskEventCompleted, models.TaskUpdateCompleted, map[string]any{"completed": true})
		writeJSON(w, http.StatusOK, task)
	}
}

// Delete implements DELETE /api/tasks/{id}.
func (h *TaskHandlers) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		taskID, ok := pathTaskID(w, r)
		if !ok {
			return
		}

		if err := h.tasks.Delete(r.Context(), user.ID, taskID); errors.Is(err, storage.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "not_found", "task not found")
			return
		} else if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "failed to delete task")
			return
		}

		h.publishRaw(r.Context(), user.ID, taskID, models.TaskEventDeleted, models.TaskUpdateDeleted, nil, models.TaskEventData{})
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "id": taskID})
	}
}

// publish emits the task-events/task-updates pair for a mutated task. A
// publish failure is logged, not surfaced: the write already committed to
// storage and the HTTP response has already described it to the caller.
func (h *TaskHandlers) publish(ctx context.Context, task *models.Task, eventType models.TaskEventType, action models.TaskUpdateAction, changes map[string]any) {
	data := models.TaskEventData{
		Title:            task.Title,
		Description:      task.Description,
		Completed:        task.Completed,
		Priority:         task.Priority,
		DueDate:          task.DueDate,
		RecurringPattern: task.RecurrencePattern,
		RecurrenceEvery:  task.RecurrenceEvery,
		NextOccurrence:   task.NextOccurrence,
	}
	h.publishRaw(ctx, task.OwnerID, task.ID, eventType, action, changes, data)
}

func (h *TaskHandlers) publishRaw(ctx context.Context, ownerID string, taskID int64, eventType models.TaskEventType, action models.TaskUpdateAction, changes map[string]any, data models.TaskEventData) {
	correlationID := uuid.NewString()
	now := h.now()

	taskEvent := models.TaskEvent{
		EventID:       uuid.NewString(),
		Source:        taskEventSource,
		EventType:     eventType,
		TaskID:        taskID,
		UserID:        ownerID,
		TaskData:      data,
		CorrelationID: correlationID,
		Timestamp:     now,
	}
	if err := h.bus.Publish(ctx, eventbus.TopicTaskEvents, taskEvent); err != nil {
		h.logger.Warn("publish task event failed", "error", err, "task_id", taskID, "event_type", eventType)
	}

	updateEvent := models.TaskUpdateEvent{
		EventID:       uuid.NewString(),
		Source:        taskEventSource,
		EventType:     models.TaskUpdateEventSync,
		TaskID:        taskID,
		UserID:        ownerID,
		Action:        action,
		Changes:       changes,
		CorrelationID: correlationID,
		Timestamp:     now,
	}
	if err := h.bus.Publish(ctx, eventbus.TopicTaskUpdates, updateEvent); err != nil {
		h.logger.Warn("publish task update failed", "error", err, "task_id", taskID, "action", action)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "auth_error", "authentication required")
		return nil, false
	}
	return user, true
}

// pathTaskID extracts the numeric {id} path segment. Routers mounting
// these handlers are expected to register the id as the final path
// segment (e.g. "/api/tasks/{id}" via net/http's 1.22+ pattern routing).
func pathTaskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid task id")
		return 0, false
	}
	return id, true
}
