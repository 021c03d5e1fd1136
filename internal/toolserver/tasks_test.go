package toolserver

import (
	"testing"
)

func TestAddTaskCreatesTask(t *testing.T) {
	h := newTestHarness(t)
	out := h.callTool(t, "user-1", "add_task", map[string]any{
		"title": "Buy milk", "priority": "high",
	})
	if out["status"] != "created" {
		t.Fatalf("status = %v, want created", out["status"])
	}
}

func TestAddTaskRejectsMissingTitle(t *testing.T) {
	h := newTestHarness(t)
	out := h.callTool(t, "user-1", "add_task", map[string]any{})
	if out["status"] != "error" {
		t.Fatalf("status = %v, want error for a missing title", out["status"])
	}
}

func TestAddTaskRejectsInvalidPriority(t *testing.T) {
	h := newTestHarness(t)
	out := h.callTool(t, "user-1", "add_task", map[string]any{
		"title": "Buy milk", "priority": "urgent",
	})
	if out["status"] != "error" {
		t.Fatalf("status = %v, want error for an invalid priority", out["status"])
	}
}

func TestUpdateTaskChangesFields(t *testing.T) {
	h := newTestHarness(t)
	task := mustCreateTask(t, h.tasks, "user-1", "Buy milk")
	out := h.callTool(t, "user-1", "update_task", map[string]any{
		"task_id": task.ID, "title": "Buy oat milk",
	})
	if out["status"] != "updated" {
		t.Fatalf("status = %v, want updated", out["status"])
	}
}

func TestUpdateTaskRejectsOtherOwner(t *testing.T) {
	h := newTestHarness(t)
	task := mustCreateTask(t, h.tasks, "user-1", "Buy milk")
	out := h.callTool(t, "user-2", "update_task", map[string]any{
		"task_id": task.ID, "title": "hijacked",
	})
	if out["status"] != "error" {
		t.Fatalf("status = %v, want error for cross-owner update", out["status"])
	}
}

func TestCompleteTaskMarksCompleted(t *testing.T) {
	h := newTestHarness(t)
	task := mustCreateTask(t, h.tasks, "user-1", "Buy milk")
	out := h.callTool(t, "user-1", "complete_task", map[string]any{"task_id": task.ID})
	if out["status"] != "completed" {
		t.Fatalf("status = %v, want completed", out["status"])
	}
}

func TestDeleteTaskRemovesTask(t *testing.T) {
	h := newTestHarness(t)
	task := mustCreateTask(t, h.tasks, "user-1", "Buy milk")
	out := h.callTool(t, "user-1", "delete_task", map[string]any{"task_id": task.ID})
	if out["status"] != "deleted" {
		t.Fatalf("status = %v, want deleted", out["status"])
	}
	if _, err := h.tasks.Get(t.Context(), "user-1", task.ID); err == nil {
		t.Fatal("expected task to be gone after delete")
	}
}

func TestListTasksFiltersByOwner(t *testing.T) {
	h := newTestHarness(t)
	mustCreateTask(t, h.tasks, "user-1", "Mine")
	mustCreateTask(t, h.tasks, "user-2", "Not mine")

	out := h.callTool(t, "user-1", "list_tasks", map[string]any{})
	if out["status"] != "success" {
		t.Fatalf("status = %v, want success", out["status"])
	}
	if int(out["total"].(float64)) != 1 {
		t.Fatalf("total = %v, want 1", out["total"])
	}
}

func TestListTasksRejectsInvalidSortBy(t *testing.T) {
	h := newTestHarness(t)
	out := h.callTool(t, "user-1", "list_tasks", map[string]any{"sort_by": "popularity"})
	if out["status"] != "error" {
		t.Fatalf("status = %v, want error for an invalid sort_by", out["status"])
	}
}
