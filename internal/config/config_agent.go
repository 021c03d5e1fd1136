package config

import "time"

// AgentConfig controls the dispatcher's tool-using loop.
type AgentConfig struct {
	// Name identifies the agent in the agent_updated and thinking SSE events'
	// "agent" field. Reserved for the future multi-agent extension spec.md
	// §6 names; today there is exactly one agent per run.
	Name          string        `yaml:"name"`
	MaxIterations int           `yaml:"max_iterations"`
	MaxToolCalls  int           `yaml:"max_tool_calls"`
	MaxTokens     int           `yaml:"max_tokens"`
	MaxWallTime   time.Duration `yaml:"max_wall_time"`
	SystemPrompt  string        `yaml:"system_prompt"`

	Execution ToolExecutionConfig `yaml:"execution"`
	Guard     ToolResultGuardConfig `yaml:"result_guard"`
}

// ToolExecutionConfig controls runtime tool execution concurrency and retry.
type ToolExecutionConfig struct {
	Parallelism  int           `yaml:"parallelism"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// ToolResultGuardConfig controls redaction of tool results before persistence.
type ToolResultGuardConfig struct {
	Enabled         bool     `yaml:"enabled"`
	MaxChars        int      `yaml:"max_chars"`
	Denylist        []string `yaml:"denylist"`
	RedactPatterns  []string `yaml:"redact_patterns"`
	SanitizeSecrets bool     `yaml:"sanitize_secrets"`
}
