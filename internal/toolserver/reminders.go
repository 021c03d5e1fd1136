package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/maneeshanif/todo-realtime-core/internal/storage"
	"github.com/maneeshanif/todo-realtime-core/internal/taskvalidate"
)

func handleScheduleReminder(ctx context.Context, s *Server, ownerID string, raw json.RawMessage) (any, error) {
	var args struct {
		TaskID   int64  `json:"task_id"`
		RemindAt string `json:"remind_at"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	remindAt, err := taskvalidate.ParseWireDatetime(args.RemindAt)
	if err != nil {
		return nil, err
	}

	reminder, err := s.engine.Create(ctx, ownerID, args.TaskID, remindAt)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"status":          "created",
		"reminder_id":     reminder.ID,
		"task_id":         reminder.TaskID,
		"remind_at":       reminder.RemindAt,
		"reminder_status": reminder.Status,
	}, nil
}

func handleListReminders(ctx context.Context, s *Server, ownerID string, raw json.RawMessage) (any, error) {
	var args struct {
		TaskID int64 `json:"task_id"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if args.TaskID != 0 {
		if _, err := s.tasks.Get(ctx, ownerID, args.TaskID); err != nil {
			return nil, fmt.Errorf("task not found")
		}
	}

	list, err := s.reminders.List(ctx, ownerID, args.TaskID)
	if err != nil {
		return nil, err
	}

	entries := make([]map[string]any, 0, len(list))
	for _, r := range list {
		entry := map[string]any{
			"reminder_id": r.ID,
			"task_id":     r.TaskID,
			"remind_at":   r.RemindAt,
			"status":      r.Status,
			"sent_at":     r.SentAt,
			"created_at":  r.CreatedAt,
		}
		if task, err := s.tasks.Get(ctx, ownerID, r.TaskID); err == nil {
			entry["task_title"] = task.Title
			entry["task_completed"] = task.Completed
		}
		entries = append(entries, entry)
	}
	return map[string]any{"status": "success", "total": len(entries), "reminders": entries}, nil
}

func handleCancelReminder(ctx context.Context, s *Server, ownerID string, raw json.RawMessage) (any, error) {
	var args struct {
		ReminderID int64 `json:"reminder_id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := s.engine.Delete(ctx, ownerID, args.ReminderID); err != nil {
		if err == storage.ErrNotFound {
			return nil, fmt.Errorf("reminder not found")
		}
		return nil, err
	}
	return map[string]any{"status": "deleted", "reminder_id": args.ReminderID}, nil
}

func handleGetUpcomingReminders(ctx context.Context, s *Server, ownerID string, raw json.RawMessage) (any, error) {
	var args struct {
		Hours int `json:"hours"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if args.Hours == 0 {
		args.Hours = 24
	}
	if args.Hours < 1 || args.Hours > 168 {
		return nil, fmt.Errorf("hours must be between 1 and 168")
	}

	list, err := s.reminders.ListUpcoming(ctx, ownerID, args.Hours)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entries := make([]map[string]any, 0, len(list))
	for _, r := range list {
		entry := map[string]any{
			"reminder_id": r.ID,
			"task_id":     r.TaskID,
			"remind_at":   r.RemindAt,
			"status":      r.Status,
			"hours_until": hoursUntil(now, r.RemindAt),
		}
		if task, err := s.tasks.Get(ctx, ownerID, r.TaskID); err == nil {
			entry["task_title"] = task.Title
		}
		entries = append(entries, entry)
	}
	return map[string]any{"status": "success", "total": len(entries), "reminders": entries}, nil
}

// hoursUntil rounds to one decimal place so a reminder 90 minutes out reads
// 1.5, not a long floating-point fraction of an hour.
func hoursUntil(now, remindAt time.Time) float64 {
	return math.Round(remindAt.Sub(now).Hours()*10) / 10
}
