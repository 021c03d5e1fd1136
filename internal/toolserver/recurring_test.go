package toolserver

import (
	"testing"
	"time"

	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

func mustCreateRecurringTask(t *testing.T, h *testHarness, ownerID string) *models.Task {
	t.Helper()
	due := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	task := &models.Task{
		OwnerID: ownerID, Title: "Water the plants", Priority: models.PriorityMedium,
		IsRecurring: true, RecurrencePattern: models.RecurrenceWeekly, RecurrenceEvery: 1,
		DueDate: &due, Completed: true,
	}
	if err := h.tasks.Create(t.Context(), task); err != nil {
		t.Fatalf("create recurring task: %v", err)
	}
	return task
}

func TestListRecurringReturnsOnlyRecurringTasks(t *testing.T) {
	h := newTestHarness(t)
	mustCreateRecurringTask(t, h, "user-1")
	mustCreateTask(t, h.tasks, "user-1", "One-off task")

	out := h.callTool(t, "user-1", "list_recurring", map[string]any{})
	if out["status"] != "success" {
		t.Fatalf("status = %v, want success", out["status"])
	}
	if int(out["total"].(float64)) != 1 {
		t.Fatalf("total = %v, want 1", out["total"])
	}
}

func TestSkipOccurrenceAdvancesAndUncompletes(t *testing.T) {
	h := newTestHarness(t)
	task := mustCreateRecurringTask(t, h, "user-1")

	out := h.callTool(t, "user-1", "skip_occurrence", map[string]any{"task_id": task.ID})
	if out["status"] != "success" {
		t.Fatalf("status = %v, want success", out["status"])
	}

	stored, err := h.tasks.Get(t.Context(), "user-1", task.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Completed {
		t.Fatal("skip_occurrence should un-complete the task")
	}
	if stored.NextOccurrence == nil || !stored.NextOccurrence.After(*task.DueDate) {
		t.Fatalf("NextOccurrence = %v, want after %v", stored.NextOccurrence, task.DueDate)
	}
}

func TestSkipOccurrenceRejectsNonRecurring(t *testing.T) {
	h := newTestHarness(t)
	task := mustCreateTask(t, h.tasks, "user-1", "One-off task")
	out := h.callTool(t, "user-1", "skip_occurrence", map[string]any{"task_id": task.ID})
	if out["status"] != "error" {
		t.Fatalf("status = %v, want error for a non-recurring task", out["status"])
	}
}

func TestStopRecurrenceClearsFieldsPreservesState(t *testing.T) {
	h := newTestHarness(t)
	task := mustCreateRecurringTask(t, h, "user-1")

	out := h.callTool(t, "user-1", "stop_recurrence", map[string]any{"task_id": task.ID})
	if out["status"] != "success" {
		t.Fatalf("status = %v, want success", out["status"])
	}

	stored, err := h.tasks.Get(t.Context(), "user-1", task.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.IsRecurring || stored.RecurrencePattern != "" || stored.NextOccurrence != nil {
		t.Fatalf("expected recurrence fields cleared, got %+v", stored)
	}
	if !stored.Completed {
		t.Fatal("stop_recurrence must preserve the task's existing completion state")
	}
}
