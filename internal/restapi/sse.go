package restapi

import (
	"encoding/json"
	"net/http"
)

// sseEvent names the chat stream's closed event vocabulary. Terminal event
// is always done or error.
type sseEvent string

const (
	eventThinking     sseEvent = "thinking"
	eventToken        sseEvent = "token"
	eventToolCall     sseEvent = "tool_call"
	eventToolResult   sseEvent = "tool_result"
	eventAgentUpdated sseEvent = "agent_updated"
	eventDone         sseEvent = "done"
	eventError        sseEvent = "error"
)

// sseWriter encodes named JSON payloads onto the wire in the
// "event: <name>\ndata: <json>\n\n" shape and flushes after every write so a
// streaming client sees each event as it's produced.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	return &sseWriter{w: w, flusher: flusher}
}

func (s *sseWriter) write(event sseEvent, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("event: " + string(event) + "\n")); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(data); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("\n\n")); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
