package config

import "time"

// BroadcasterConfig configures the WebSocket connection manager that fans
// task-update events out to connected clients, keyed by user.
type BroadcasterConfig struct {
	// WriteTimeout bounds a single message write to a connection.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// PingInterval is how often idle connections are pinged to detect
	// half-open sockets.
	PingInterval time.Duration `yaml:"ping_interval"`

	// SendBufferSize is the per-connection outbound channel buffer. When
	// full, the broadcaster drops the connection rather than blocking the
	// publisher.
	SendBufferSize int `yaml:"send_buffer_size"`
}
