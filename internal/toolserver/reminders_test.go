package toolserver

import (
	"testing"
	"time"
)

func TestScheduleReminderCreatesPendingReminder(t *testing.T) {
	h := newTestHarness(t)
	task := mustCreateTask(t, h.tasks, "user-1", "Water the plants")
	remindAt := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)

	out := h.callTool(t, "user-1", "schedule_reminder", map[string]any{
		"task_id": task.ID, "remind_at": remindAt,
	})
	if out["status"] != "created" {
		t.Fatalf("status = %v, want created", out["status"])
	}
}

func TestScheduleReminderRejectsBadDatetime(t *testing.T) {
	h := newTestHarness(t)
	task := mustCreateTask(t, h.tasks, "user-1", "Water the plants")
	out := h.callTool(t, "user-1", "schedule_reminder", map[string]any{
		"task_id": task.ID, "remind_at": "not-a-date",
	})
	if out["status"] != "error" {
		t.Fatalf("status = %v, want error for an unparseable remind_at", out["status"])
	}
}

func TestListRemindersReturnsTaskTitle(t *testing.T) {
	h := newTestHarness(t)
	task := mustCreateTask(t, h.tasks, "user-1", "Water the plants")
	remindAt := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	h.callTool(t, "user-1", "schedule_reminder", map[string]any{"task_id": task.ID, "remind_at": remindAt})

	out := h.callTool(t, "user-1", "list_reminders", map[string]any{})
	if out["status"] != "success" {
		t.Fatalf("status = %v, want success", out["status"])
	}
	reminderList := out["reminders"].([]any)
	if len(reminderList) != 1 {
		t.Fatalf("reminders = %d, want 1", len(reminderList))
	}
	entry := reminderList[0].(map[string]any)
	if entry["task_title"] != "Water the plants" {
		t.Fatalf("task_title = %v, want %q", entry["task_title"], "Water the plants")
	}
}

func TestCancelReminderDeletesIt(t *testing.T) {
	h := newTestHarness(t)
	task := mustCreateTask(t, h.tasks, "user-1", "Water the plants")
	remindAt := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	scheduled := h.callTool(t, "user-1", "schedule_reminder", map[string]any{"task_id": task.ID, "remind_at": remindAt})
	reminderID := int64(scheduled["reminder_id"].(float64))

	out := h.callTool(t, "user-1", "cancel_reminder", map[string]any{"reminder_id": reminderID})
	if out["status"] != "deleted" {
		t.Fatalf("status = %v, want deleted", out["status"])
	}
	if _, err := h.reminders.Get(t.Context(), reminderID); err == nil {
		t.Fatal("expected reminder to be gone after cancel")
	}
}

func TestGetUpcomingRemindersRejectsOutOfRangeHours(t *testing.T) {
	h := newTestHarness(t)
	out := h.callTool(t, "user-1", "get_upcoming_reminders", map[string]any{"hours": 200})
	if out["status"] != "error" {
		t.Fatalf("status = %v, want error for hours > 168", out["status"])
	}
}

func TestGetUpcomingRemindersDefaultsTo24Hours(t *testing.T) {
	h := newTestHarness(t)
	task := mustCreateTask(t, h.tasks, "user-1", "Water the plants")
	remindAt := time.Now().Add(2 * time.Hour).UTC().Format(time.RFC3339)
	h.callTool(t, "user-1", "schedule_reminder", map[string]any{"task_id": task.ID, "remind_at": remindAt})

	out := h.callTool(t, "user-1", "get_upcoming_reminders", map[string]any{})
	if out["status"] != "success" {
		t.Fatalf("status = %v, want success", out["status"])
	}
	if int(out["total"].(float64)) != 1 {
		t.Fatalf("total = %v, want 1", out["total"])
	}
}
