package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/maneeshanif/todo-realtime-core/internal/audit"
)

// Config is the root configuration structure shared by every binary
// (cmd/dispatcher, cmd/toolserver, cmd/reminders, cmd/*-consumer,
// cmd/broadcaster). Each binary only reads the sections it needs.
type Config struct {
	// Version is optional. When set, Load checks it against CurrentVersion
	// right after decoding the file and before env overrides, defaults and
	// validation, so a config file written for an older/newer build of this
	// module fails with a clear version message. A file that does not decode
	// (e.g. an unknown field) still fails at decode time, before this check.
	// Omitted entirely, it's treated as
	// unversioned and skipped -- most of this module's own config fixtures
	// predate the version field and have no reason to carry it.
	Version     int                    `yaml:"version,omitempty"`
	Server      ServerConfig           `yaml:"server"`
	Database    DatabaseConfig         `yaml:"database"`
	Auth        AuthConfig             `yaml:"auth"`
	LLM         LLMConfig              `yaml:"llm"`
	Agent       AgentConfig            `yaml:"agent"`
	EventBus    EventBusConfig         `yaml:"event_bus"`
	Jobs        JobsConfig             `yaml:"jobs"`
	RestAPI     RestAPIConfig          `yaml:"rest_api"`
	ToolServer  ToolServerClientConfig `yaml:"tool_server"`
	Broadcaster BroadcasterConfig      `yaml:"broadcaster"`
	Audit       audit.Config           `yaml:"audit"`
	Logging     LoggingConfig          `yaml:"logging"`
}

// Load reads and parses a configuration file, applying environment variable
// overrides and defaults before validating. It goes through LoadRaw rather
// than decoding the file directly, so a deployment can split shared sections
// (event_bus, jobs sidecar URLs, logging) into a base file and have each
// binary's own config $include it -- seven near-identical YAML files would
// otherwise repeat the same sidecar endpoints seven times.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfgPtr, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	cfg := *cfgPtr

	if cfg.Version != 0 {
		if err := ValidateVersion(cfg.Version); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyAuthDefaults(&cfg.Auth)
	applyLLMDefaults(&cfg.LLM)
	applyAgentDefaults(&cfg.Agent)
	applyEventBusDefaults(&cfg.EventBus)
	applyJobsDefaults(&cfg.Jobs)
	applyRestAPIDefaults(&cfg.RestAPI)
	applyToolServerClientDefaults(&cfg.ToolServer)
	applyBroadcasterDefaults(&cfg.Broadcaster)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = 8080
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = 9090
	}
}

func applyDatabaseDefaults(cfg *DatabaseConfig) {
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 25
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}
}

func applyAuthDefaults(cfg *AuthConfig) {
	if cfg.JWKSRefreshInterval == 0 {
		cfg.JWKSRefreshInterval = 10 * time.Minute
	}
}

// applyLLMDefaults only fills in a default_provider when the config file
// actually configured at least one provider. Binaries other than the
// dispatcher (the tool server, the reminder engine, the consumers, the
// broadcaster) never touch LLM and legitimately ship a config with an empty
// llm section; defaulting DefaultProvider unconditionally would make
// validateConfig reject their config for missing a provider entry they never
// needed.
func applyLLMDefaults(cfg *LLMConfig) {
	if cfg.DefaultProvider == "" && len(cfg.Providers) > 0 {
		cfg.DefaultProvider = "anthropic"
	}
}

func applyAgentDefaults(cfg *AgentConfig) {
	if cfg.Name == "" {
		cfg.Name = "TodoBot"
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = 10
	}
	if cfg.MaxToolCalls == 0 {
		cfg.MaxToolCalls = 32
	}
	if cfg.MaxWallTime == 0 {
		cfg.MaxWallTime = 2 * time.Minute
	}
	if cfg.Execution.Parallelism == 0 {
		cfg.Execution.Parallelism = 4
	}
	if cfg.Execution.Timeout == 0 {
		cfg.Execution.Timeout = 30 * time.Second
	}
	if cfg.Execution.MaxAttempts == 0 {
		cfg.Execution.MaxAttempts = 1
	}
}

func applyEventBusDefaults(cfg *EventBusConfig) {
	if cfg.PubSubName == "" {
		cfg.PubSubName = "pubsub"
	}
	if cfg.Topics.TaskEvents == "" {
		cfg.Topics.TaskEvents = "task-events"
	}
	if cfg.Topics.ReminderEvents == "" {
		cfg.Topics.ReminderEvents = "reminder-events"
	}
	if cfg.Topics.TaskUpdates == "" {
		cfg.Topics.TaskUpdates = "task-updates"
	}
	if cfg.PublishTimeout == 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
}

func applyJobsDefaults(cfg *JobsConfig) {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.PastDuePollInterval == 0 {
		cfg.PastDuePollInterval = 30 * time.Second
	}
}

func applyRestAPIDefaults(cfg *RestAPIConfig) {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
}

func applyToolServerClientDefaults(cfg *ToolServerClientConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
}

func applyBroadcasterDefaults(cfg *BroadcasterConfig) {
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.SendBufferSize == 0 {
		cfg.SendBufferSize = 16
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if value := strings.TrimSpace(os.Getenv("HOST")); value != "" {
		cfg.Server.Host = value
	}
	if value := strings.TrimSpace(os.Getenv("HTTP_PORT")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			cfg.Server.HTTPPort = parsed
		}
	}
	if value := strings.TrimSpace(os.Getenv("METRICS_PORT")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			cfg.Server.MetricsPort = parsed
		}
	}
	if value := strings.TrimSpace(os.Getenv("DATABASE_URL")); value != "" {
		cfg.Database.URL = value
	}
	if value := strings.TrimSpace(os.Getenv("JWKS_URL")); value != "" {
		cfg.Auth.JWKSURL = value
	}
	if value := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); value != "" {
		if cfg.LLM.Providers == nil {
			cfg.LLM.Providers = map[string]LLMProviderConfig{}
		}
		provider := cfg.LLM.Providers["anthropic"]
		provider.APIKey = value
		cfg.LLM.Providers["anthropic"] = provider
	}
	if value := strings.TrimSpace(os.Getenv("ANTHROPIC_MODEL")); value != "" {
		if cfg.LLM.Providers == nil {
			cfg.LLM.Providers = map[string]LLMProviderConfig{}
		}
		provider := cfg.LLM.Providers["anthropic"]
		provider.DefaultModel = value
		cfg.LLM.Providers["anthropic"] = provider
	}
	if value := strings.TrimSpace(os.Getenv("DAPR_PUBSUB_SIDECAR_URL")); value != "" {
		cfg.EventBus.SidecarURL = value
	}
	if value := strings.TrimSpace(os.Getenv("DAPR_JOBS_SIDECAR_URL")); value != "" {
		cfg.Jobs.SidecarURL = value
	}
	if value := strings.TrimSpace(os.Getenv("REST_API_BASE_URL")); value != "" {
		cfg.RestAPI.BaseURL = value
	}
	if value := strings.TrimSpace(os.Getenv("TOOL_SERVER_URL")); value != "" {
		cfg.ToolServer.BaseURL = value
	}
}

// ConfigValidationError collects all validation issues found in a config.
type ConfigValidationError struct {
	Issues []string
}

func (e *ConfigValidationError) Error() string {
	return "config validation failed:\n- " + strings.Join(e.Issues, "\n- ")
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var issues []string

	if cfg.Database.MaxConnections < 0 {
		issues = append(issues, "database.max_connections must be >= 0")
	}

	defaultProvider := strings.ToLower(strings.TrimSpace(cfg.LLM.DefaultProvider))
	if defaultProvider != "" {
		if _, ok := cfg.LLM.Providers[defaultProvider]; !ok {
			if _, ok := cfg.LLM.Providers[cfg.LLM.DefaultProvider]; !ok {
				issues = append(issues, fmt.Sprintf("llm.providers missing entry for default_provider %q", cfg.LLM.DefaultProvider))
			}
		}
	}

	seenKeys := map[string]struct{}{}
	for i, entry := range cfg.Auth.APIKeys {
		key := strings.TrimSpace(entry.Key)
		if key == "" {
			issues = append(issues, fmt.Sprintf("auth.api_keys[%d].key must be set", i))
			continue
		}
		if _, ok := seenKeys[key]; ok {
			issues = append(issues, fmt.Sprintf("auth.api_keys[%d].key must be unique", i))
		} else {
			seenKeys[key] = struct{}{}
		}
	}

	if cfg.Agent.MaxIterations < 0 {
		issues = append(issues, "agent.max_iterations must be >= 0")
	}
	if cfg.Agent.Execution.Parallelism < 0 {
		issues = append(issues, "agent.execution.parallelism must be >= 0")
	}

	if len(issues) > 0 {
		return &ConfigValidationError{Issues: issues}
	}

	return nil
}
