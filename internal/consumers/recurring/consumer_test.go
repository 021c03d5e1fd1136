package recurring

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maneeshanif/todo-realtime-core/internal/config"
	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

func testClient(t *testing.T, onCreate func(body map[string]any)) *TaskAPIClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if onCreate != nil {
			onCreate(body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 99})
	}))
	t.Cleanup(srv.Close)

	return NewTaskAPIClient(config.RestAPIConfig{
		BaseURL:        srv.URL,
		RequestTimeout: 2 * time.Second,
		ServiceToken:   "svc-token",
	}, nil)
}

func TestHandleMaterializesNextOccurrence(t *testing.T) {
	var gotBody map[string]any
	client := testClient(t, func(body map[string]any) { gotBody = body })
	c := New(client, nil)

	due := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	event := models.TaskEvent{
		EventType: models.TaskEventCompleted,
		TaskID:    5,
		UserID:    "user-1",
		TaskData: models.TaskEventData{
			Title: "Water the plants", Priority: models.PriorityMedium,
			DueDate: &due, RecurringPattern: models.RecurrenceWeekly,
			Tags: []models.Tag{{ID: 3, Name: "chores"}},
		},
	}

	if err := c.Handle(context.Background(), event); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if gotBody["title"] != "Water the plants" {
		t.Fatalf("title = %v", gotBody["title"])
	}
	if gotBody["recurrence_pattern"] != "weekly" {
		t.Fatalf("recurrence_pattern = %v", gotBody["recurrence_pattern"])
	}
	wantDue := "2026-01-22T09:00:00Z"
	if gotBody["due_date"] != wantDue {
		t.Fatalf("due_date = %v, want %v", gotBody["due_date"], wantDue)
	}
	tagIDs := gotBody["tag_ids"].([]any)
	if len(tagIDs) != 1 || tagIDs[0].(float64) != 3 {
		t.Fatalf("tag_ids = %v, want [3]", tagIDs)
	}
}

func TestHandleIgnoresNonRecurringCompletion(t *testing.T) {
	created := false
	client := testClient(t, func(map[string]any) { created = true })
	c := New(client, nil)

	event := models.TaskEvent{
		EventType: models.TaskEventCompleted, TaskID: 5, UserID: "user-1",
		TaskData: models.TaskEventData{Title: "One-off"},
	}
	if err := c.Handle(context.Background(), event); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if created {
		t.Fatal("a non-recurring completion should not create a task")
	}
}

func TestHandleIgnoresNonCompletedEvent(t *testing.T) {
	created := false
	client := testClient(t, func(map[string]any) { created = true })
	c := New(client, nil)

	event := models.TaskEvent{
		EventType: models.TaskEventUpdated, TaskID: 5, UserID: "user-1",
		TaskData: models.TaskEventData{Title: "Water the plants", RecurringPattern: models.RecurrenceWeekly},
	}
	if err := c.Handle(context.Background(), event); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if created {
		t.Fatal("a non-completed event should not create a task")
	}
}

func TestDeliveryHandlerAcksSuccess(t *testing.T) {
	client := testClient(t, nil)
	c := New(client, nil)

	due := time.Now()
	body, _ := json.Marshal(map[string]any{"data": models.TaskEvent{
		EventType: models.TaskEventCompleted, TaskID: 1, UserID: "user-1",
		TaskData: models.TaskEventData{Title: "x", RecurringPattern: models.RecurrenceDaily, DueDate: &due},
	}})
	req := httptest.NewRequest(http.MethodPost, "/events/task", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	c.DeliveryHandler()(rec, req)

	var ack map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&ack)
	if ack["status"] != "SUCCESS" {
		t.Fatalf("status = %q, want SUCCESS", ack["status"])
	}
}
