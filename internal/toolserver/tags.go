package toolserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/maneeshanif/todo-realtime-core/internal/taskvalidate"
	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

func handleAddTag(ctx context.Context, s *Server, ownerID string, raw json.RawMessage) (any, error) {
	var args struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if args.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if err := taskvalidate.ValidateHexColor(args.Color); err != nil {
		return nil, err
	}

	tag := &models.Tag{OwnerID: ownerID, Name: args.Name, Color: args.Color}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, fmt.Errorf("a tag named %q already exists: %w", args.Name, err)
	}
	return map[string]any{"status": "created", "tag": tag}, nil
}

func handleListTags(ctx context.Context, s *Server, ownerID string, _ json.RawMessage) (any, error) {
	tags, err := s.tags.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"status": "success", "total": len(tags), "tags": tags}, nil
}

func handleDeleteTag(ctx context.Context, s *Server, ownerID string, raw json.RawMessage) (any, error) {
	var args struct {
		TagID int64 `json:"tag_id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := s.tags.Delete(ctx, ownerID, args.TagID); err != nil {
		return nil, fmt.Errorf("tag not found")
	}
	return map[string]any{"status": "deleted", "tag_id": args.TagID}, nil
}

func handleTagTask(ctx context.Context, s *Server, ownerID string, raw json.RawMessage) (any, error) {
	var args struct {
		TaskID int64 `json:"task_id"`
		TagID  int64 `json:"tag_id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := s.tags.TagTask(ctx, ownerID, args.TaskID, args.TagID); err != nil {
		return nil, err
	}
	return map[string]any{"status": "success", "task_id": args.TaskID, "tag_id": args.TagID}, nil
}

func handleUntagTask(ctx context.Context, s *Server, ownerID string, raw json.RawMessage) (any, error) {
	var args struct {
		TaskID int64 `json:"task_id"`
		TagID  int64 `json:"tag_id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := s.tags.UntagTask(ctx, ownerID, args.TaskID, args.TagID); err != nil {
		return nil, err
	}
	return map[string]any{"status": "success", "task_id": args.TaskID, "tag_id": args.TagID}, nil
}
