package restapi

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSSEWriterFramesEventAndFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	w := newSSEWriter(rec)

	if err := w.write(eventToken, map[string]string{"content": "hi"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "event: token\n") {
		t.Fatalf("body = %q, want event: token prefix", body)
	}
	if !strings.Contains(body, `data: {"content":"hi"}`) {
		t.Fatalf("body = %q, want data line", body)
	}
	if !strings.HasSuffix(body, "\n\n") {
		t.Fatalf("body = %q, want trailing blank line", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
}

func TestSSEWriterMultipleEventsAppend(t *testing.T) {
	rec := httptest.NewRecorder()
	w := newSSEWriter(rec)

	_ = w.write(eventThinking, map[string]string{"content": "...", "agent": "TodoBot"})
	_ = w.write(eventDone, map[string]string{"conversation_id": "c1", "message_id": "m1"})

	body := rec.Body.String()
	if strings.Count(body, "event: ") != 2 {
		t.Fatalf("expected 2 events, body = %q", body)
	}
	if !strings.Contains(body, "event: done\n") {
		t.Fatalf("expected a done event, body = %q", body)
	}
}
