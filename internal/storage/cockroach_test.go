package storage

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *cockroachTaskStore) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return mock, &cockroachTaskStore{db: db}
}

var taskColumns = []string{
	"id", "owner_id", "title", "description", "completed", "priority", "due_date",
	"is_recurring", "recurrence_pattern", "recurrence_every", "next_occurrence",
	"tag_ids", "category_ids", "created_at", "updated_at",
}

func taskRow(mock sqlmock.Sqlmock, task *models.Task) *sqlmock.Rows {
	tagIDs, _ := pq.Array(task.TagIDs).Value()
	categoryIDs, _ := pq.Array(task.CategoryIDs).Value()
	return sqlmock.NewRows(taskColumns).AddRow(
		task.ID, task.OwnerID, task.Title, task.Description, task.Completed,
		string(task.Priority), task.DueDate, task.IsRecurring,
		string(task.RecurrencePattern), task.RecurrenceEvery, task.NextOccurrence,
		tagIDs, categoryIDs, task.CreatedAt, task.UpdatedAt,
	)
}

// TestCockroachTaskStoreListBuildsDynamicWhereAndOrderClauses exercises the
// filter/sort query assembly named in spec.md §4.3's list_tasks surface: the
// WHERE clause grows with each set filter, placeholder numbers advance
// accordingly, and an unrecognized SortBy falls back to created_at.
func TestCockroachTaskStoreListBuildsDynamicWhereAndOrderClauses(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		filter    TaskFilter
		wantQuery string
		wantArgs  []driver.Value
	}{
		{
			name:      "unfiltered defaults to created_at asc",
			filter:    TaskFilter{},
			wantQuery: `(?s)SELECT (.+) FROM tasks WHERE owner_id = \$1 ORDER BY created_at ASC`,
			wantArgs:  []driver.Value{"user-1"},
		},
		{
			name:      "pending status",
			filter:    TaskFilter{Status: "pending"},
			wantQuery: `(?s)SELECT (.+) FROM tasks WHERE owner_id = \$1 AND completed = false ORDER BY created_at ASC`,
			wantArgs:  []driver.Value{"user-1"},
		},
		{
			name:      "priority and search stack placeholders",
			filter:    TaskFilter{Priority: models.PriorityHigh, Search: "milk"},
			wantQuery: `(?s)SELECT (.+) FROM tasks WHERE owner_id = \$1 AND priority = \$2 AND \(title ILIKE \$3 OR description ILIKE \$3\) ORDER BY created_at ASC`,
			wantArgs:  []driver.Value{"user-1", string(models.PriorityHigh), "%milk%"},
		},
		{
			name:      "sort by due_date descending",
			filter:    TaskFilter{SortBy: "due_date", SortOrder: "desc"},
			wantQuery: `(?s)SELECT (.+) FROM tasks WHERE owner_id = \$1 ORDER BY due_date DESC`,
			wantArgs:  []driver.Value{"user-1"},
		},
		{
			name:      "unknown sort column falls back to created_at",
			filter:    TaskFilter{SortBy: "owner_id"},
			wantQuery: `(?s)SELECT (.+) FROM tasks WHERE owner_id = \$1 ORDER BY created_at ASC`,
			wantArgs:  []driver.Value{"user-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, store := setupMockDB(t)
			task := &models.Task{ID: 1, OwnerID: "user-1", Title: "buy milk", CreatedAt: now, UpdatedAt: now}

			mock.ExpectQuery(tt.wantQuery).
				WithArgs(tt.wantArgs...).
				WillReturnRows(taskRow(mock, task))

			got, err := store.List(t.Context(), "user-1", tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != 1 || got[0].Title != "buy milk" {
				t.Fatalf("List() = %+v", got)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestCockroachTaskStoreListTagFilterAppendsPlaceholder(t *testing.T) {
	mock, store := setupMockDB(t)
	task := &models.Task{ID: 1, OwnerID: "user-1", Title: "buy milk", CreatedAt: time.Now(), UpdatedAt: time.Now()}

	mock.ExpectQuery(`(?s)SELECT (.+) FROM tasks WHERE owner_id = \$1 AND tag_ids && \$2 ORDER BY created_at ASC`).
		WithArgs("user-1", sqlmock.AnyArg()).
		WillReturnRows(taskRow(mock, task))

	got, err := store.List(t.Context(), "user-1", TaskFilter{TagIDs: []int64{5, 6}})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List() = %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCockroachTaskStoreListPropagatesQueryError(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`(?s)SELECT (.+) FROM tasks`).
		WillReturnError(errors.New("connection refused"))

	_, err := store.List(t.Context(), "user-1", TaskFilter{})
	if err == nil || !containsSubstring(err.Error(), "list tasks") {
		t.Fatalf("List() error = %v, want wrapped 'list tasks' error", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCockroachTaskStoreCreateScansReturnedID(t *testing.T) {
	mock, store := setupMockDB(t)
	task := &models.Task{OwnerID: "user-1", Title: "buy milk", CreatedAt: time.Now(), UpdatedAt: time.Now()}

	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs(
			task.OwnerID, task.Title, task.Description, task.Completed, string(task.Priority),
			task.DueDate, task.IsRecurring, string(task.RecurrencePattern), task.RecurrenceEvery,
			task.NextOccurrence, sqlmock.AnyArg(), sqlmock.AnyArg(), task.CreatedAt, task.UpdatedAt,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	if err := store.Create(t.Context(), task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.ID != 42 {
		t.Fatalf("task.ID = %d, want 42", task.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCockroachTaskStoreCreateRejectsMissingTitle(t *testing.T) {
	_, store := setupMockDB(t)

	if err := store.Create(t.Context(), &models.Task{OwnerID: "user-1"}); err == nil {
		t.Fatal("expected an error for a missing title")
	}
}

func TestCockroachTaskStoreGetReturnsErrNotFoundOnNoRows(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`(?s)SELECT (.+) FROM tasks WHERE owner_id = \$1 AND id = \$2`).
		WithArgs("user-1", int64(7)).
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(t.Context(), "user-1", 7)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCockroachTaskStoreUpdateReturnsErrNotFoundWhenNoRowsAffected(t *testing.T) {
	mock, store := setupMockDB(t)
	task := &models.Task{ID: 9, OwnerID: "user-1", Title: "buy milk", UpdatedAt: time.Now()}

	mock.ExpectExec(`UPDATE tasks SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Update(t.Context(), task)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCockroachTaskStoreDeleteSucceeds(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectExec(`DELETE FROM tasks WHERE owner_id = \$1 AND id = \$2`).
		WithArgs("user-1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Delete(t.Context(), "user-1", 3); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func setupMockTagDB(t *testing.T) (sqlmock.Sqlmock, *cockroachTagStore) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return mock, &cockroachTagStore{db: db}
}

func TestCockroachTagStoreCreateTranslatesDuplicateKeyError(t *testing.T) {
	mock, store := setupMockTagDB(t)
	tag := &models.Tag{OwnerID: "user-1", Name: "errands", Color: "#ff0000", CreatedAt: time.Now()}

	mock.ExpectQuery(`INSERT INTO tags`).
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "tags_owner_id_name_key"`))

	err := store.Create(t.Context(), tag)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("Create() error = %v, want ErrAlreadyExists", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func setupMockReminderDB(t *testing.T) (sqlmock.Sqlmock, *cockroachReminderStore) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return mock, &cockroachReminderStore{db: db}
}

func TestCockroachReminderStoreListSwitchesQueryOnTaskID(t *testing.T) {
	mock, store := setupMockReminderDB(t)
	cols := []string{"id", "task_id", "owner_id", "remind_at", "status", "sent_at", "dapr_job_name", "created_at"}

	mock.ExpectQuery(`FROM reminders WHERE owner_id = \$1 AND task_id = \$2`).
		WithArgs("user-1", int64(4)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, 4, "user-1", time.Now(), "pending", nil, "", time.Now()))

	got, err := store.List(t.Context(), "user-1", 4)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List() = %+v", got)
	}

	mock.ExpectQuery(`FROM reminders WHERE owner_id = \$1 ORDER BY`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(cols))

	got, err = store.List(t.Context(), "user-1", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("List() = %+v, want empty", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func containsSubstring(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		func() bool {
			for i := 0; i+len(substr) <= len(s); i++ {
				if s[i:i+len(substr)] == substr {
					return true
				}
			}
			return false
		}())
}

var _ TaskStore = (*cockroachTaskStore)(nil)
var _ TagStore = (*cockroachTagStore)(nil)
var _ ReminderStore = (*cockroachReminderStore)(nil)
