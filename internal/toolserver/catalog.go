package toolserver

import (
	"context"
	"encoding/json"
)

// toolHandler implements one catalog entry against the server's storage and
// reminder-engine dependencies, scoped to the already-resolved owner.
type toolHandler func(ctx context.Context, s *Server, ownerID string, args json.RawMessage) (any, error)

type toolDef struct {
	name        string
	description string
	inputSchema json.RawMessage
	handler     toolHandler
}

func schema(properties map[string]any, required ...string) json.RawMessage {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	body, _ := json.Marshal(s)
	return body
}

func strProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func intProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func boolProp(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func arrProp(items map[string]any, description string) map[string]any {
	return map[string]any{"type": "array", "items": items, "description": description}
}

// buildCatalog wires every tool name to its handler and JSON Schema input
// contract, matching the bounded set the platform names: task CRUD, tag
// CRUD/linking, reminder CRUD, and recurring helpers.
func (s *Server) buildCatalog() map[string]toolDef {
	defs := []toolDef{
		{
			name:        "add_task",
			description: "Create a new task for the current user.",
			inputSchema: schema(map[string]any{
				"title":              strProp("task title"),
				"description":        strProp("optional task description"),
				"priority":           strProp("low | medium | high"),
				"due_date":           strProp("ISO 8601 datetime, optional"),
				"tag_ids":            arrProp(map[string]any{"type": "integer"}, "tag ids to attach"),
				"is_recurring":       boolProp("whether this task recurs"),
				"recurrence_pattern": strProp("daily | weekly | monthly | yearly"),
				"recurrence_every":   intProp("interval multiplier for the pattern"),
			}, "title"),
			handler: handleAddTask,
		},
		{
			name:        "update_task",
			description: "Update fields on an existing task owned by the current user.",
			inputSchema: schema(map[string]any{
				"task_id":            intProp("task id"),
				"title":              strProp("new title"),
				"description":        strProp("new description"),
				"priority":           strProp("low | medium | high"),
				"due_date":           strProp("ISO 8601 datetime"),
				"recurrence_pattern": strProp("daily | weekly | monthly | yearly"),
				"recurrence_every":   intProp("interval multiplier for the pattern"),
			}, "task_id"),
			handler: handleUpdateTask,
		},
		{
			name:        "delete_task",
			description: "Delete a task owned by the current user.",
			inputSchema: schema(map[string]any{"task_id": intProp("task id")}, "task_id"),
			handler:     handleDeleteTask,
		},
		{
			name:        "complete_task",
			description: "Mark a task as completed.",
			inputSchema: schema(map[string]any{"task_id": intProp("task id")}, "task_id"),
			handler:     handleCompleteTask,
		},
		{
			name:        "list_tasks",
			description: "List the current user's tasks with optional filters.",
			inputSchema: schema(map[string]any{
				"status":     strProp("all | pending | completed"),
				"priority":   strProp("low | medium | high"),
				"tag_ids":    arrProp(map[string]any{"type": "integer"}, "restrict to tasks carrying any of these tags"),
				"search":     strProp("substring match against title/description"),
				"sort_by":    strProp("due_date | priority | created_at | title | updated_at"),
				"sort_order": strProp("asc | desc"),
			}),
			handler: handleListTasks,
		},
		{
			name:        "add_tag",
			description: "Create a new tag for the current user.",
			inputSchema: schema(map[string]any{
				"name":  strProp("tag name, unique per user"),
				"color": strProp("#RRGGBB hex color"),
			}, "name", "color"),
			handler: handleAddTag,
		},
		{
			name:        "list_tags",
			description: "List the current user's tags.",
			inputSchema: schema(map[string]any{}),
			handler:     handleListTags,
		},
		{
			name:        "delete_tag",
			description: "Delete a tag owned by the current user.",
			inputSchema: schema(map[string]any{"tag_id": intProp("tag id")}, "tag_id"),
			handler:     handleDeleteTag,
		},
		{
			name:        "tag_task",
			description: "Attach a tag to a task.",
			inputSchema: schema(map[string]any{
				"task_id": intProp("task id"),
				"tag_id":  intProp("tag id"),
			}, "task_id", "tag_id"),
			handler: handleTagTask,
		},
		{
			name:        "untag_task",
			description: "Remove a tag from a task.",
			inputSchema: schema(map[string]any{
				"task_id": intProp("task id"),
				"tag_id":  intProp("tag id"),
			}, "task_id", "tag_id"),
			handler: handleUntagTask,
		},
		{
			name:        "schedule_reminder",
			description: "Schedule a reminder for a task at a given time.",
			inputSchema: schema(map[string]any{
				"task_id":   intProp("task id"),
				"remind_at": strProp("ISO 8601 datetime to fire the reminder at"),
			}, "task_id", "remind_at"),
			handler: handleScheduleReminder,
		},
		{
			name:        "list_reminders",
			description: "List reminders for the current user, optionally filtered by task.",
			inputSchema: schema(map[string]any{
				"task_id": intProp("restrict to this task, optional"),
			}),
			handler: handleListReminders,
		},
		{
			name:        "cancel_reminder",
			description: "Cancel and delete a reminder.",
			inputSchema: schema(map[string]any{"reminder_id": intProp("reminder id")}, "reminder_id"),
			handler:     handleCancelReminder,
		},
		{
			name:        "get_upcoming_reminders",
			description: "List pending reminders due within the next N hours (1..168).",
			inputSchema: schema(map[string]any{"hours": intProp("lookahead window in hours, 1..168")}),
			handler:     handleGetUpcomingReminders,
		},
		{
			name:        "list_recurring",
			description: "List the current user's recurring tasks.",
			inputSchema: schema(map[string]any{}),
			handler:     handleListRecurring,
		},
		{
			name:        "skip_occurrence",
			description: "Advance a recurring task's next occurrence by one interval without completing it.",
			inputSchema: schema(map[string]any{"task_id": intProp("task id")}, "task_id"),
			handler:     handleSkipOccurrence,
		},
		{
			name:        "stop_recurrence",
			description: "Clear a task's recurrence fields, preserving its current state.",
			inputSchema: schema(map[string]any{"task_id": intProp("task id")}, "task_id"),
			handler:     handleStopRecurrence,
		},
	}

	table := make(map[string]toolDef, len(defs))
	for _, d := range defs {
		table[d.name] = d
	}
	return table
}
