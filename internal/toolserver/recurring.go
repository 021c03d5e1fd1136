package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/maneeshanif/todo-realtime-core/internal/recurrence"
)

func handleListRecurring(ctx context.Context, s *Server, ownerID string, _ json.RawMessage) (any, error) {
	tasks, err := s.tasks.ListRecurring(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"status": "success", "total": len(tasks), "tasks": tasks}, nil
}

func handleSkipOccurrence(ctx context.Context, s *Server, ownerID string, raw json.RawMessage) (any, error) {
	var args struct {
		TaskID int64 `json:"task_id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	task, err := s.tasks.Get(ctx, ownerID, args.TaskID)
	if err != nil {
		return nil, fmt.Errorf("task not found")
	}
	if !task.IsRecurring {
		return nil, fmt.Errorf("task %d is not recurring", args.TaskID)
	}

	base := task.NextOccurrence
	if base == nil {
		base = task.DueDate
	}
	if base == nil {
		now := task.CreatedAt
		base = &now
	}
	next, err := recurrence.Advance(*base, task.RecurrencePattern, task.RecurrenceEvery)
	if err != nil {
		return nil, err
	}

	task.NextOccurrence = &next
	task.Completed = false
	task.UpdatedAt = time.Now()
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return map[string]any{"status": "success", "task_id": task.ID, "next_occurrence": next}, nil
}

func handleStopRecurrence(ctx context.Context, s *Server, ownerID string, raw json.RawMessage) (any, error) {
	var args struct {
		TaskID int64 `json:"task_id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	task, err := s.tasks.Get(ctx, ownerID, args.TaskID)
	if err != nil {
		return nil, fmt.Errorf("task not found")
	}

	task.IsRecurring = false
	task.RecurrencePattern = ""
	task.RecurrenceEvery = 0
	task.NextOccurrence = nil
	task.UpdatedAt = time.Now()
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return map[string]any{"status": "success", "task_id": task.ID}, nil
}
