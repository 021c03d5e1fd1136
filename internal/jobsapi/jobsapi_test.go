package jobsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maneeshanif/todo-realtime-core/internal/config"
)

func testConfig(sidecarURL string) config.JobsConfig {
	return config.JobsConfig{
		SidecarURL:     sidecarURL,
		RequestTimeout: 2 * time.Second,
	}
}

func TestScheduleJobSuccess(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1.0/healthz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), nil)
	due := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	err := client.ScheduleJob(context.Background(), "reminder-42", due, map[string]any{"reminder_id": 42})
	if err != nil {
		t.Fatalf("ScheduleJob() error = %v", err)
	}
	if gotPath != "/v1.0-alpha1/jobs/reminder-42" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody["dueTime"] != "2026-08-01T09:00:00Z" {
		t.Fatalf("dueTime = %v", gotBody["dueTime"])
	}
	if gotBody["repeats"].(float64) != 0 {
		t.Fatalf("repeats = %v", gotBody["repeats"])
	}
	if gotBody["ttl"] != "1h" {
		t.Fatalf("ttl = %v", gotBody["ttl"])
	}
}

func TestScheduleJobSidecarUnavailable(t *testing.T) {
	client := New(testConfig("http://127.0.0.1:1"), nil)
	err := client.ScheduleJob(context.Background(), "reminder-1", time.Now(), map[string]any{})
	if err == nil {
		t.Fatal("ScheduleJob() expected error when sidecar unavailable")
	}
}

func TestCancelJobSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1.0/healthz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), nil)
	found, err := client.CancelJob(context.Background(), "reminder-42")
	if err != nil {
		t.Fatalf("CancelJob() error = %v", err)
	}
	if !found {
		t.Fatal("found = false, want true")
	}
}

func TestCancelJobNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1.0/healthz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), nil)
	found, err := client.CancelJob(context.Background(), "reminder-99")
	if err != nil {
		t.Fatalf("CancelJob() error = %v, want nil for 404", err)
	}
	if found {
		t.Fatal("found = true, want false for a job that no longer exists")
	}
}

func TestIsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), nil)
	if !client.IsAvailable(context.Background()) {
		t.Fatal("IsAvailable() = false, want true")
	}
}
