package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/maneeshanif/todo-realtime-core/internal/storage"
	"github.com/maneeshanif/todo-realtime-core/internal/taskvalidate"
	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

type addTaskArgs struct {
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	Priority          string  `json:"priority"`
	DueDate           string  `json:"due_date"`
	TagIDs            []int64 `json:"tag_ids"`
	IsRecurring       bool    `json:"is_recurring"`
	RecurrencePattern string  `json:"recurrence_pattern"`
	RecurrenceEvery   int     `json:"recurrence_every"`
}

func handleAddTask(ctx context.Context, s *Server, ownerID string, raw json.RawMessage) (any, error) {
	var args addTaskArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if args.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	priority, err := taskvalidate.ValidatePriority(args.Priority)
	if err != nil {
		return nil, err
	}
	pattern, err := taskvalidate.ValidateRecurrencePattern(args.RecurrencePattern)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		OwnerID:           ownerID,
		Title:             args.Title,
		Description:       args.Description,
		Priority:          priority,
		TagIDs:            args.TagIDs,
		IsRecurring:       args.IsRecurring,
		RecurrencePattern: pattern,
		RecurrenceEvery:   args.RecurrenceEvery,
	}
	if args.DueDate != "" {
		due, err := taskvalidate.ParseWireDatetime(args.DueDate)
		if err != nil {
			return nil, err
		}
		task.DueDate = &due
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return map[string]any{"status": "created", "task": taskResult(task)}, nil
}

type updateTaskArgs struct {
	TaskID            int64  `json:"task_id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Priority          string `json:"priority"`
	DueDate           string `json:"due_date"`
	RecurrencePattern string `json:"recurrence_pattern"`
	RecurrenceEvery   int    `json:"recurrence_every"`
}

func handleUpdateTask(ctx context.Context, s *Server, ownerID string, raw json.RawMessage) (any, error) {
	var args updateTaskArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	task, err := s.tasks.Get(ctx, ownerID, args.TaskID)
	if err != nil {
		return nil, fmt.Errorf("task not found")
	}

	if args.Title != "" {
		task.Title = args.Title
	}
	if args.Description != "" {
		task.Description = args.Description
	}
	if args.Priority != "" {
		priority, err := taskvalidate.ValidatePriority(args.Priority)
		if err != nil {
			return nil, err
		}
		task.Priority = priority
	}
	if args.RecurrencePattern != "" {
		pattern, err := taskvalidate.ValidateRecurrencePattern(args.RecurrencePattern)
		if err != nil {
			return nil, err
		}
		task.RecurrencePattern = pattern
	}
	if args.RecurrenceEvery != 0 {
		task.RecurrenceEvery = args.RecurrenceEvery
	}
	if args.DueDate != "" {
		due, err := taskvalidate.ParseWireDatetime(args.DueDate)
		if err != nil {
			return nil, err
		}
		task.DueDate = &due
	}
	task.UpdatedAt = time.Now()

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return map[string]any{"status": "updated", "task": taskResult(task)}, nil
}

func handleDeleteTask(ctx context.Context, s *Server, ownerID string, raw json.RawMessage) (any, error) {
	var args struct {
		TaskID int64 `json:"task_id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := s.tasks.Delete(ctx, ownerID, args.TaskID); err != nil {
		return nil, fmt.Errorf("task not found")
	}
	return map[string]any{"status": "deleted", "task_id": args.TaskID}, nil
}

func handleCompleteTask(ctx context.Context, s *Server, ownerID string, raw json.RawMessage) (any, error) {
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
	task.Completed = true
	task.UpdatedAt = time.Now()
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return map[string]any{"status": "completed", "task": taskResult(task)}, nil
}

type listTasksArgs struct {
	Status    string  `json:"status"`
	Priority  string  `json:"priority"`
	TagIDs    []int64 `json:"tag_ids"`
	Search    string  `json:"search"`
	SortBy    string  `json:"sort_by"`
	SortOrder string  `json:"sort_order"`
}

func handleListTasks(ctx context.Context, s *Server, ownerID string, raw json.RawMessage) (any, error) {
	var args listTasksArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if err := taskvalidate.ValidateTaskStatus(args.Status); err != nil {
		return nil, err
	}
	if err := taskvalidate.ValidateSortBy(args.SortBy); err != nil {
		return nil, err
	}
	if err := taskvalidate.ValidateSortOrder(args.SortOrder); err != nil {
		return nil, err
	}
	var priority models.Priority
	if args.Priority != "" {
		p, err := taskvalidate.ValidatePriority(args.Priority)
		if err != nil {
			return nil, err
		}
		priority = p
	}

	filter := storage.TaskFilter{
		Status:    args.Status,
		Priority:  priority,
		TagIDs:    args.TagIDs,
		Search:    args.Search,
		SortBy:    args.SortBy,
		SortOrder: args.SortOrder,
	}
	tasks, err := s.tasks.List(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		result := taskResult(t)
		tags, err := s.tags.TagsForTask(ctx, ownerID, t.ID)
		if err == nil {
			result["tags"] = tags
		}
		results = append(results, result)
	}
	return map[string]any{"status": "success", "total": len(results), "tasks": results}, nil
}

func taskResult(t *models.Task) map[string]any {
	return map[string]any{
		"id":                 t.ID,
		"title":              t.Title,
		"description":        t.Description,
		"completed":          t.Completed,
		"priority":           t.Priority,
		"due_date":           t.DueDate,
		"is_recurring":       t.IsRecurring,
		"recurrence_pattern": t.RecurrencePattern,
		"recurrence_every":   t.RecurrenceEvery,
		"next_occurrence":    t.NextOccurrence,
		"tag_ids":            t.TagIDs,
		"created_at":         t.CreatedAt,
		"updated_at":         t.UpdatedAt,
	}
}
