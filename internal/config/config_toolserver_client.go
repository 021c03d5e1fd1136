package config

import "time"

// ToolServerClientConfig points the chat dispatcher at the MCP tool server
// it opens a per-run, per-user session against (see 4.3). BaseURL carries
// no query string; the dispatcher appends ?user_id=<id> itself so the tool
// server's catalog can never be called with a user_id supplied by anything
// other than the session owner.
type ToolServerClientConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}
