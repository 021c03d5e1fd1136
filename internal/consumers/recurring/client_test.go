package recurring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maneeshanif/todo-realtime-core/internal/config"
)

func TestCreateTaskSendsAuthAndActingUserHeaders(t *testing.T) {
	var gotAuth, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUser = r.Header.Get("X-Acting-User")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 11}`))
	}))
	defer srv.Close()

	client := NewTaskAPIClient(config.RestAPIConfig{
		BaseURL: srv.URL, RequestTimeout: 2 * time.Second, ServiceToken: "tok-123",
	}, nil)

	id, err := client.CreateTask(context.Background(), "user-7", createTaskRequest{Title: "t"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if id != 11 {
		t.Fatalf("id = %d, want 11", id)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotUser != "user-7" {
		t.Fatalf("X-Acting-User = %q", gotUser)
	}
}

func TestCreateTaskReturnsErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewTaskAPIClient(config.RestAPIConfig{
		BaseURL: srv.URL, RequestTimeout: 2 * time.Second,
	}, nil)

	if _, err := client.CreateTask(context.Background(), "user-7", createTaskRequest{Title: "t"}); err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}
