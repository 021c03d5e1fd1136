// Package broadcaster maintains one long-lived WebSocket connection set per
// user and fans out task-updates events to every connection of the event's
// target user.
package broadcaster

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxPayloadBytes = 1 << 16
	pongWait        = 60 * time.Second
	writeWait       = 10 * time.Second
)

// Connection wraps one upgraded WebSocket with the outbound channel and
// lifecycle state the manager tracks it by.
type Connection struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc

	closed atomic.Bool
}

func newConnection(id, userID string, conn *websocket.Conn, sendBuffer int) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		id:     id,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// enqueue attempts a non-blocking send; a full buffer means this connection
// is no longer keeping up and is evicted rather than stalling the publisher.
func (c *Connection) enqueue(payload []byte) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Connection) close() {
	if c.closed.CompareAndSwap(false, true) {
		c.cancel()
		close(c.send)
		_ = c.conn.Close()
	}
}

// readLoop drains client frames, refreshing the read deadline on every pong
// and every client-sent ping (other messages do not refresh it) and replying
// to client-sent pings with a pong. It never
// interprets inbound text frames as commands -- this is a fan-out-only
// connection.
func (c *Connection) readLoop(onClose func()) {
	defer onClose()

	c.conn.SetReadLimit(maxPayloadBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	c.conn.SetPingHandler(func(data string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop drains the outbound buffer onto the socket until the connection
// is closed.
func (c *Connection) writeLoop(writeTimeout time.Duration) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
