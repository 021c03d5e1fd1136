package broadcaster

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/maneeshanif/todo-realtime-core/internal/config"
	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

// fakeVerifier maps a bearer token directly to a subject, skipping real JWT
// parsing -- the manager only depends on the TokenVerifier interface.
type fakeVerifier struct {
	subjects map[string]string
}

func (f *fakeVerifier) Validate(token string) (*models.User, error) {
	subject, ok := f.subjects[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &models.User{ID: subject}, nil
}

func testManager(t *testing.T, subjects map[string]string) (*Manager, *httptest.Server) {
	t.Helper()
	m := New(config.BroadcasterConfig{
		WriteTimeout:   2 * time.Second,
		PingInterval:   time.Hour,
		SendBufferSize: 4,
	}, &fakeVerifier{subjects: subjects}, nil)

	srv := httptest.NewServer(http.HandlerFunc(m.ServeHTTP))
	t.Cleanup(srv.Close)
	return m, srv
}

func dialWS(t *testing.T, srv *httptest.Server, userID, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + userID + "?token=" + token
	return websocket.DefaultDialer.Dial(wsURL, nil)
}

func waitForConnections(t *testing.T, m *Manager, userID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(m.connectionsFor(userID)) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d connections for %q, have %d", want, userID, len(m.connectionsFor(userID)))
}

func TestServeHTTPAcceptsMatchingSubject(t *testing.T) {
	m, srv := testManager(t, map[string]string{"tok-1": "user-1"})

	conn, _, err := dialWS(t, srv, "user-1", "tok-1")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	waitForConnections(t, m, "user-1", 1)
}

func TestServeHTTPRejectsSubjectMismatch(t *testing.T) {
	_, srv := testManager(t, map[string]string{"tok-1": "user-1"})

	conn, _, err := dialWS(t, srv, "user-2", "tok-1")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("expected a close error, got %v", err)
	}
	if closeErr.Code != websocket.ClosePolicyViolation {
		t.Fatalf("close code = %d, want %d", closeErr.Code, websocket.ClosePolicyViolation)
	}
}

func TestServeHTTPRejectsInvalidToken(t *testing.T) {
	_, srv := testManager(t, map[string]string{})

	conn, _, err := dialWS(t, srv, "user-1", "bogus")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("expected a close error, got %v", err)
	}
	if closeErr.Code != websocket.ClosePolicyViolation {
		t.Fatalf("close code = %d, want %d", closeErr.Code, websocket.ClosePolicyViolation)
	}
}

func TestBroadcastDeliversOnlyToTargetUser(t *testing.T) {
	m, srv := testManager(t, map[string]string{"tok-1": "user-1", "tok-2": "user-1", "tok-3": "user-2"})

	c1, _, err := dialWS(t, srv, "user-1", "tok-1")
	if err != nil {
		t.Fatalf("Dial() c1 error = %v", err)
	}
	defer c1.Close()
	c2, _, err := dialWS(t, srv, "user-1", "tok-2")
	if err != nil {
		t.Fatalf("Dial() c2 error = %v", err)
	}
	defer c2.Close()
	c3, _, err := dialWS(t, srv, "user-2", "tok-3")
	if err != nil {
		t.Fatalf("Dial() c3 error = %v", err)
	}
	defer c3.Close()

	waitForConnections(t, m, "user-1", 2)
	waitForConnections(t, m, "user-2", 1)

	m.Broadcast(t.Context(), models.TaskUpdateEvent{
		UserID: "user-1", TaskID: 5, Action: models.TaskUpdateUpdated,
	})

	for _, conn := range []*websocket.Conn{c1, c2} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() error = %v", err)
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg["type"] != "task_update" {
			t.Fatalf("type = %v, want task_update", msg["type"])
		}
	}

	_ = c3.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, _, err := c3.ReadMessage(); err == nil {
		t.Fatal("user-2's connection should not receive user-1's broadcast")
	}
}

func TestPathUserIDExtractsSegment(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws/user-42?token=x", nil)
	if got := pathUserID(req); got != "user-42" {
		t.Fatalf("pathUserID() = %q, want user-42", got)
	}
}
