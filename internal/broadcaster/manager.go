package broadcaster

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/maneeshanif/todo-realtime-core/internal/config"
	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

// TokenVerifier decodes and verifies a bearer token into its subject. The
// manager only depends on this one method of *auth.JWKSVerifier so it can be
// faked in tests.
type TokenVerifier interface {
	Validate(token string) (*models.User, error)
}

// Manager keys live connections by user id and fans out task-updates events
// to every connection belonging to the event's target user. The isolation
// invariant -- a message for user A never reaches a connection for user B --
// holds because the registry itself is keyed on the authenticated user id,
// never on anything a producer supplies.
type Manager struct {
	cfg      config.BroadcasterConfig
	verifier TokenVerifier
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	byUser map[string]map[*Connection]struct{}
}

// New builds a Manager verifying connection tokens with verifier.
func New(cfg config.BroadcasterConfig, verifier TokenVerifier, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:      cfg,
		verifier: verifier,
		logger:   logger.With("component", "broadcaster"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		byUser: make(map[string]map[*Connection]struct{}),
	}
}

// pathUserID extracts the {user_id} segment from /ws/{user_id}.
func pathUserID(r *http.Request) string {
	path := strings.TrimPrefix(r.URL.Path, "/ws/")
	path = strings.Trim(path, "/")
	return path
}

// ServeHTTP implements GET /ws/{user_id}?token=<jwt>. The token's subject
// must equal the path's user_id; any mismatch or verification failure closes
// with a policy-violation code before the connection is registered.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pathUser := pathUserID(r)
	token := r.URL.Query().Get("token")

	user, err := m.verifier.Validate(token)
	if err != nil || user == nil || user.ID == "" || pathUser == "" || user.ID != pathUser {
		conn, upgradeErr := m.upgrader.Upgrade(w, r, nil)
		if upgradeErr != nil {
			return
		}
		closeMsg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed")
		_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := newConnection(uuid.NewString(), user.ID, conn, m.cfg.SendBufferSize)
	m.register(c)

	go c.writeLoop(m.cfg.WriteTimeout)
	c.readLoop(func() { m.unregister(c) })
}

func (m *Manager) register(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.byUser[c.userID]
	if !ok {
		set = make(map[*Connection]struct{})
		m.byUser[c.userID] = set
	}
	set[c] = struct{}{}
	m.logger.Debug("connection registered", "user_id", c.userID, "connection_id", c.id)
}

func (m *Manager) unregister(c *Connection) {
	c.close()
	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.byUser[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(m.byUser, c.userID)
		}
	}
	m.logger.Debug("connection unregistered", "user_id", c.userID, "connection_id", c.id)
}

// connectionsFor returns a snapshot of the live connections for userID,
// taken under the read lock so Broadcast/Heartbeat never hold it while
// writing to a socket.
func (m *Manager) connectionsFor(userID string) []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.byUser[userID]
	out := make([]*Connection, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// allConnections returns a snapshot of every live connection, for the
// heartbeat sweep.
func (m *Manager) allConnections() []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Connection
	for _, set := range m.byUser {
		for c := range set {
			out = append(out, c)
		}
	}
	return out
}

// outboundMessage is the wire shape a connected client receives for a
// fanned-out task update.
type outboundMessage struct {
	Type      string    `json:"type"`
	Event     string    `json:"event"`
	Task      any       `json:"task"`
	Timestamp time.Time `json:"timestamp"`
}

// Broadcast fans event out to every live connection of event.UserID. A
// connection whose send buffer is full (not keeping up) is evicted rather
// than blocking this call.
func (m *Manager) Broadcast(ctx context.Context, event models.TaskUpdateEvent) {
	conns := m.connectionsFor(event.UserID)
	if len(conns) == 0 {
		return
	}

	payload, err := json.Marshal(outboundMessage{
		Type:  "task_update",
		Event: string(event.Action),
		Task: map[string]any{
			"id":      event.TaskID,
			"changes": event.Changes,
		},
		Timestamp: event.Timestamp,
	})
	if err != nil {
		m.logger.Error("encode task update failed", "error", err)
		return
	}

	for _, c := range conns {
		if !c.enqueue(payload) {
			m.logger.Warn("evicting connection with full send buffer", "user_id", event.UserID, "connection_id", c.id)
			m.unregister(c)
		}
	}
}

// RunHeartbeat pings every live connection on cfg.PingInterval until ctx is
// cancelled. A failed ping evicts the connection immediately rather than
// waiting for the next read deadline to expire.
func (m *Manager) RunHeartbeat(ctx context.Context) {
	interval := m.cfg.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pingAll()
		}
	}
}

func (m *Manager) pingAll() {
	for _, c := range m.allConnections() {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
			m.logger.Debug("heartbeat ping failed, evicting", "user_id", c.userID, "connection_id", c.id, "error", err)
			m.unregister(c)
		}
	}
}
