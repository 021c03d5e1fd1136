package llm

import (
	"fmt"

	"github.com/maneeshanif/todo-realtime-core/internal/agent"
	"github.com/maneeshanif/todo-realtime-core/internal/agent/providers"
	"github.com/maneeshanif/todo-realtime-core/internal/config"
)

// New builds the agent.LLMProvider the dispatcher's agentic loop runs
// against, from the configured provider map and fallback chain. Every
// configured provider entry is backed by the Anthropic Messages API client;
// the map exists so operators can point distinct entries at different
// credentials, base URLs, or regions and have the router fail over between
// them, not to select between provider vendors.
func New(cfg config.LLMConfig) (agent.LLMProvider, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("llm: no providers configured")
	}

	byName := make(map[string]agent.LLMProvider, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		provider, err := providers.NewAnthropicProvider(providers.AnthropicConfig{
			APIKey:       pc.APIKey,
			BaseURL:      pc.BaseURL,
			DefaultModel: pc.DefaultModel,
		})
		if err != nil {
			return nil, fmt.Errorf("llm: provider %q: %w", name, err)
		}
		byName[name] = provider
	}

	chain := cfg.FallbackChain
	if len(chain) == 0 {
		chain = []string{cfg.DefaultProvider}
	}
	// Always try the default provider first even if the operator forgot to
	// list it explicitly in the fallback chain.
	if cfg.DefaultProvider != "" && (len(chain) == 0 || chain[0] != cfg.DefaultProvider) {
		chain = append([]string{cfg.DefaultProvider}, chain...)
	}
	chain = dedupe(chain)

	return NewRouter(DefaultRouterConfig(), chain, byName)
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
