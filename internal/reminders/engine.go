// Package reminders implements the scheduled-reminder lifecycle: creating a
// reminder schedules a one-shot job on the Jobs API sidecar (or fires it
// synchronously when it's already past-due), the job's callback publishes a
// due event and transitions the reminder to its terminal state, and
// cancel/delete best-effort clean up the external job.
package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maneeshanif/todo-realtime-core/internal/config"
	"github.com/maneeshanif/todo-realtime-core/internal/eventbus"
	"github.com/maneeshanif/todo-realtime-core/internal/jobsapi"
	"github.com/maneeshanif/todo-realtime-core/internal/storage"
	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

// nower is overridden in tests; production code always uses time.Now.
type nower func() time.Time

// Engine owns the reminder state machine described by the platform's
// scheduled-reminder design: pending -> {sent, failed}, at most one pending
// reminder per task, dapr_job_name non-null only while a job is live.
type Engine struct {
	tasks     storage.TaskStore
	reminders storage.ReminderStore
	jobs      *jobsapi.Client
	bus       *eventbus.Bus
	cfg       config.JobsConfig
	logger    *slog.Logger
	now       nower
}

// New builds an Engine from its storage and sidecar-client dependencies.
func New(tasks storage.TaskStore, reminders storage.ReminderStore, jobs *jobsapi.Client, bus *eventbus.Bus, cfg config.JobsConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		tasks:     tasks,
		reminders: reminders,
		jobs:      jobs,
		bus:       bus,
		cfg:       cfg,
		logger:    logger.With("component", "reminders"),
		now:       time.Now,
	}
}

func jobName(reminderID int64) string {
	return fmt.Sprintf("reminder-%d", reminderID)
}

// Create schedules a new reminder for a task owned by ownerID. A remind time
// at or before now fires the past-due path synchronously before returning.
func (e *Engine) Create(ctx context.Context, ownerID string, taskID int64, remindAt time.Time) (*models.Reminder, error) {
	task, err := e.tasks.Get(ctx, ownerID, taskID)
	if err != nil {
		return nil, fmt.Errorf("reminders: task %d: %w", taskID, err)
	}

	if existing, err := e.reminders.GetPendingForTask(ctx, taskID); err == nil && existing != nil {
		return nil, fmt.Errorf("reminders: task %d already has a pending reminder", taskID)
	} else if err != nil && err != storage.ErrNotFound {
		return nil, fmt.Errorf("reminders: check existing pending reminder: %w", err)
	}

	reminder := &models.Reminder{
		TaskID:    taskID,
		OwnerID:   ownerID,
		RemindAt:  remindAt,
		Status:    models.ReminderPending,
		CreatedAt: e.now(),
	}
	if err := e.reminders.Create(ctx, reminder); err != nil {
		return nil, fmt.Errorf("reminders: create: %w", err)
	}

	if !remindAt.After(e.now()) {
		if err := e.fire(ctx, reminder, task); err != nil {
			e.logger.Error("past-due fire failed", "reminder_id", reminder.ID, "error", err)
		}
		return reminder, nil
	}

	if e.jobs != nil {
		payload := map[string]any{
			"reminder_id": reminder.ID,
			"task_id":     reminder.TaskID,
			"user_id":     reminder.OwnerID,
		}
		if err := e.jobs.ScheduleJob(ctx, jobName(reminder.ID), remindAt, payload); err != nil {
			e.logger.Warn("schedule job failed, reminder left dormant", "reminder_id", reminder.ID, "error", err)
			return reminder, nil
		}
		reminder.DaprJobName = jobName(reminder.ID)
		if err := e.reminders.Update(ctx, reminder); err != nil {
			return nil, fmt.Errorf("reminders: persist job name: %w", err)
		}
	}

	return reminder, nil
}

// HandleCallback is invoked when the Jobs API sidecar fires a reminder's
// job. A reminder no longer found (deleted since scheduling) is a no-op.
func (e *Engine) HandleCallback(ctx context.Context, reminderID int64) error {
	reminder, err := e.reminders.Get(ctx, reminderID)
	if err == storage.ErrNotFound {
		e.logger.Info("reminder not found, skipping callback", "reminder_id", reminderID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reminders: get %d: %w", reminderID, err)
	}

	task, err := e.tasks.Get(ctx, reminder.OwnerID, reminder.TaskID)
	if err != nil {
		return fmt.Errorf("reminders: task %d for reminder %d: %w", reminder.TaskID, reminderID, err)
	}

	return e.fire(ctx, reminder, task)
}

// fire publishes the due event and transitions the reminder's terminal
// state based on publish success, per the engine's state machine.
func (e *Engine) fire(ctx context.Context, reminder *models.Reminder, task *models.Task) error {
	event := models.ReminderEvent{
		EventID:       uuid.NewString(),
		Source:        "reminder-engine",
		EventType:     models.ReminderEventDue,
		ReminderID:    reminder.ID,
		TaskID:        reminder.TaskID,
		UserID:        reminder.OwnerID,
		Title:         task.Title,
		DueAt:         task.DueDate,
		RemindAt:      reminder.RemindAt,
		CorrelationID: uuid.NewString(),
		Timestamp:     e.now(),
	}

	publishErr := e.bus.Publish(ctx, eventbus.TopicReminderEvents, event)

	now := e.now()
	if publishErr == nil {
		reminder.Status = models.ReminderSent
		reminder.SentAt = &now
	} else {
		reminder.Status = models.ReminderFailed
	}
	reminder.DaprJobName = ""

	if err := e.reminders.Update(ctx, reminder); err != nil {
		return fmt.Errorf("reminders: update after fire: %w", err)
	}
	if publishErr != nil {
		return fmt.Errorf("reminders: publish due event: %w", publishErr)
	}
	return nil
}

// Update changes a pending reminder's fire time, re-scheduling its external
// job. Only pending reminders can be updated; the new time must be in the
// future (a reminder that should fire immediately is handled by Create's
// past-due path, not by rescheduling an existing one).
func (e *Engine) Update(ctx context.Context, ownerID string, reminderID int64, newRemindAt time.Time) (*models.Reminder, error) {
	reminder, err := e.reminders.Get(ctx, reminderID)
	if err != nil {
		return nil, fmt.Errorf("reminders: get %d: %w", reminderID, err)
	}
	if reminder.OwnerID != ownerID {
		return nil, storage.ErrNotFound
	}
	if reminder.Status != models.ReminderPending {
		return nil, fmt.Errorf("reminders: reminder %d is not pending", reminderID)
	}
	if !newRemindAt.After(e.now()) {
		return nil, fmt.Errorf("reminders: new remind_at must be in the future")
	}

	if reminder.DaprJobName != "" && e.jobs != nil {
		if _, err := e.jobs.CancelJob(ctx, reminder.DaprJobName); err != nil {
			e.logger.Warn("cancel job failed during update, continuing", "reminder_id", reminderID, "error", err)
		}
	}

	reminder.RemindAt = newRemindAt
	reminder.DaprJobName = ""

	if e.jobs != nil {
		payload := map[string]any{
			"reminder_id": reminder.ID,
			"task_id":     reminder.TaskID,
			"user_id":     reminder.OwnerID,
		}
		if err := e.jobs.ScheduleJob(ctx, jobName(reminder.ID), newRemindAt, payload); err != nil {
			e.logger.Warn("reschedule job failed, reminder left dormant", "reminder_id", reminderID, "error", err)
		} else {
			reminder.DaprJobName = jobName(reminder.ID)
		}
	}

	if err := e.reminders.Update(ctx, reminder); err != nil {
		return nil, fmt.Errorf("reminders: persist update: %w", err)
	}
	return reminder, nil
}

// Delete cancels a reminder's external job (best-effort) and removes its row.
func (e *Engine) Delete(ctx context.Context, ownerID string, reminderID int64) error {
	reminder, err := e.reminders.Get(ctx, reminderID)
	if err != nil {
		return fmt.Errorf("reminders: get %d: %w", reminderID, err)
	}
	if reminder.OwnerID != ownerID {
		return storage.ErrNotFound
	}

	if reminder.DaprJobName != "" && e.jobs != nil {
		if _, err := e.jobs.CancelJob(ctx, reminder.DaprJobName); err != nil {
			e.logger.Warn("cancel job failed during delete, continuing", "reminder_id", reminderID, "error", err)
		}
	}

	if err := e.reminders.Delete(ctx, ownerID, reminderID); err != nil {
		return fmt.Errorf("reminders: delete %d: %w", reminderID, err)
	}
	return nil
}
