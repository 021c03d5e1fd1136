package storage

import (
	"context"
	"testing"
	"time"

	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

func TestMemoryTaskStoreLifecycle(t *testing.T) {
	store := NewMemoryTaskStore()
	task := &models.Task{
		OwnerID:   "user-1",
		Title:     "Buy milk",
		Priority:  models.PriorityMedium,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := store.Create(context.Background(), task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.ID == 0 {
		t.Fatal("Create() did not assign an id")
	}

	got, err := store.Get(context.Background(), "user-1", task.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != task.Title {
		t.Fatalf("Get() title = %q", got.Title)
	}

	if _, err := store.Get(context.Background(), "other-user", task.ID); err != ErrNotFound {
		t.Fatalf("Get() cross-owner expected ErrNotFound, got %v", err)
	}

	task.Completed = true
	task.UpdatedAt = time.Now()
	if err := store.Update(context.Background(), task); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	list, err := store.List(context.Background(), "user-1", TaskFilter{Status: "completed"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List() expected 1 completed task, got %d", len(list))
	}

	if err := store.Delete(context.Background(), "user-1", task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestMemoryTagStoreUniqueness(t *testing.T) {
	tasks := NewMemoryTaskStore()
	tags := NewMemoryTagStore(tasks)

	tag := &models.Tag{OwnerID: "user-1", Name: "home", Color: "#00FF00"}
	if err := tags.Create(context.Background(), tag); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dup := &models.Tag{OwnerID: "user-1", Name: "home", Color: "#0000FF"}
	if err := tags.Create(context.Background(), dup); err != ErrAlreadyExists {
		t.Fatalf("Create() duplicate expected ErrAlreadyExists, got %v", err)
	}
}

func TestMemoryTagStoreTagTask(t *testing.T) {
	tasks := NewMemoryTaskStore()
	tags := NewMemoryTagStore(tasks)
	ctx := context.Background()

	task := &models.Task{OwnerID: "user-1", Title: "Pay rent", Priority: models.PriorityHigh}
	if err := tasks.Create(ctx, task); err != nil {
		t.Fatalf("Create() task error = %v", err)
	}
	tag := &models.Tag{OwnerID: "user-1", Name: "bills", Color: "#FF0000"}
	if err := tags.Create(ctx, tag); err != nil {
		t.Fatalf("Create() tag error = %v", err)
	}

	if err := tags.TagTask(ctx, "user-1", task.ID, tag.ID); err != nil {
		t.Fatalf("TagTask() error = %v", err)
	}
	got, err := tags.TagsForTask(ctx, "user-1", task.ID)
	if err != nil {
		t.Fatalf("TagsForTask() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != tag.ID {
		t.Fatalf("TagsForTask() expected [%d], got %v", tag.ID, got)
	}

	if err := tags.UntagTask(ctx, "user-1", task.ID, tag.ID); err != nil {
		t.Fatalf("UntagTask() error = %v", err)
	}
	got, err = tags.TagsForTask(ctx, "user-1", task.ID)
	if err != nil {
		t.Fatalf("TagsForTask() after untag error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("TagsForTask() expected empty after untag, got %v", got)
	}
}

func TestMemoryReminderStoreAtMostOnePending(t *testing.T) {
	store := NewMemoryReminderStore()
	ctx := context.Background()

	reminder := &models.Reminder{TaskID: 1, OwnerID: "user-1", RemindAt: time.Now().Add(time.Hour), Status: models.ReminderPending}
	if err := store.Create(ctx, reminder); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	pending, err := store.GetPendingForTask(ctx, 1)
	if err != nil {
		t.Fatalf("GetPendingForTask() error = %v", err)
	}
	if pending.ID != reminder.ID {
		t.Fatalf("GetPendingForTask() returned wrong reminder")
	}

	reminder.Status = models.ReminderSent
	now := time.Now()
	reminder.SentAt = &now
	if err := store.Update(ctx, reminder); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if _, err := store.GetPendingForTask(ctx, 1); err != ErrNotFound {
		t.Fatalf("GetPendingForTask() after sent expected ErrNotFound, got %v", err)
	}
}

func TestMemoryReminderStoreListUpcoming(t *testing.T) {
	store := NewMemoryReminderStore()
	ctx := context.Background()

	soon := &models.Reminder{TaskID: 1, OwnerID: "user-1", RemindAt: time.Now().Add(2 * time.Hour), Status: models.ReminderPending}
	far := &models.Reminder{TaskID: 2, OwnerID: "user-1", RemindAt: time.Now().Add(200 * time.Hour), Status: models.ReminderPending}
	if err := store.Create(ctx, soon); err != nil {
		t.Fatalf("Create() soon error = %v", err)
	}
	if err := store.Create(ctx, far); err != nil {
		t.Fatalf("Create() far error = %v", err)
	}

	upcoming, err := store.ListUpcoming(ctx, "user-1", 24)
	if err != nil {
		t.Fatalf("ListUpcoming() error = %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].TaskID != 1 {
		t.Fatalf("ListUpcoming() expected only the soon reminder, got %v", upcoming)
	}
}

func TestMemoryConversationAndMessageStores(t *testing.T) {
	convs := NewMemoryConversationStore()
	messages := NewMemoryMessageStore()
	ctx := context.Background()

	conv := &models.Conversation{ID: "conv-1", OwnerID: "user-1", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := convs.Create(ctx, conv); err != nil {
		t.Fatalf("Create() conversation error = %v", err)
	}

	msg := &models.Message{ID: "msg-1", SessionID: conv.ID, Role: models.RoleUser, Content: "hello", CreatedAt: time.Now()}
	if err := messages.Create(ctx, msg); err != nil {
		t.Fatalf("Create() message error = %v", err)
	}

	list, err := messages.ListByConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListByConversation() error = %v", err)
	}
	if len(list) != 1 || list[0].Content != "hello" {
		t.Fatalf("ListByConversation() unexpected result: %v", list)
	}
}

func TestMemoryAuditLogStoreList(t *testing.T) {
	store := NewMemoryAuditLogStore()
	ctx := context.Background()

	entry := &models.AuditLog{Actor: "user-1", Action: "task.created", ResourceType: "task", ResourceID: "1", Status: "ok", CreatedAt: time.Now()}
	if err := store.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	list, err := store.List(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].Action != "task.created" {
		t.Fatalf("List() unexpected result: %v", list)
	}
}
