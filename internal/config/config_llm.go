package config

// LLMConfig configures the chat-completions provider used by internal/llm.
type LLMConfig struct {
	DefaultProvider string                       `yaml:"default_provider"`
	Providers       map[string]LLMProviderConfig `yaml:"providers"`

	// FallbackChain lists provider IDs to try if the default provider's
	// request fails, tried in order until one succeeds.
	FallbackChain []string `yaml:"fallback_chain"`
}

// LLMProviderConfig configures a single provider entry.
type LLMProviderConfig struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
	BaseURL      string `yaml:"base_url"`
	APIVersion   string `yaml:"api_version"`
}
