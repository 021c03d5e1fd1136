// Package llm wires the configured chat-completions provider(s) into the
// agent loop. It owns no completion logic of its own: internal/agent's
// AgenticLoop drives the conversation, internal/agent/providers talks to the
// wire protocol, and this package is the seam that turns config.LLMConfig
// into a ready agent.LLMProvider, with failover across configured providers.
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/maneeshanif/todo-realtime-core/internal/agent"
	"github.com/maneeshanif/todo-realtime-core/internal/agent/providers"
)

// RouterConfig configures the failover behavior across providers.
type RouterConfig struct {
	MaxRetries              int
	RetryBackoff            time.Duration
	MaxRetryBackoff         time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

// DefaultRouterConfig returns sensible defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		MaxRetries:              2,
		RetryBackoff:            100 * time.Millisecond,
		MaxRetryBackoff:         5 * time.Second,
		CircuitBreakerThreshold: 3,
		CircuitBreakerTimeout:   30 * time.Second,
	}
}

type providerState struct {
	failures      int
	circuitOpen   bool
	circuitOpenAt time.Time
}

func (s *providerState) isAvailable(cfg RouterConfig) bool {
	if !s.circuitOpen {
		return true
	}
	return time.Since(s.circuitOpenAt) > cfg.CircuitBreakerTimeout
}

// Router implements agent.LLMProvider over an ordered list of named
// providers, trying each in turn on errors whose FailoverReason warrants
// moving to the next provider (billing, auth, model unavailability), and
// tripping a per-provider circuit breaker after repeated failures.
type Router struct {
	names     []string
	providers []agent.LLMProvider
	cfg       RouterConfig

	mu     sync.Mutex
	states map[string]*providerState
}

// NewRouter builds a Router over named providers, tried in the given order.
func NewRouter(cfg RouterConfig, names []string, byName map[string]agent.LLMProvider) (*Router, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("llm: at least one provider is required")
	}
	r := &Router{
		cfg:    cfg,
		states: make(map[string]*providerState),
	}
	for _, name := range names {
		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("llm: provider %q not configured", name)
		}
		r.names = append(r.names, name)
		r.providers = append(r.providers, p)
		r.states[name] = &providerState{}
	}
	return r, nil
}

// Complete implements agent.LLMProvider, trying providers in order.
func (r *Router) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	var lastErr error

	for i, name := range r.names {
		r.mu.Lock()
		state := r.states[name]
		r.mu.Unlock()

		if !state.isAvailable(r.cfg) {
			continue
		}

		ch, err := r.tryProvider(ctx, r.providers[i], req)
		if err == nil {
			r.recordSuccess(name)
			return ch, nil
		}

		lastErr = err
		r.recordFailure(name)

		if !providers.ShouldFailover(err) {
			return nil, err
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("llm: no available providers")
	}
	return nil, lastErr
}

func (r *Router) tryProvider(ctx context.Context, p agent.LLMProvider, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	var lastErr error
	backoff := r.cfg.RetryBackoff

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		ch, err := p.Complete(ctx, req)
		if err == nil {
			return ch, nil
		}
		lastErr = err

		if !providers.IsRetryable(err) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt >= r.cfg.MaxRetries {
			break
		}
		select {
		case <-time.After(backoff):
			backoff *= 2
			if backoff > r.cfg.MaxRetryBackoff {
				backoff = r.cfg.MaxRetryBackoff
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (r *Router) recordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := r.states[name]
	state.failures = 0
	state.circuitOpen = false
}

func (r *Router) recordFailure(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := r.states[name]
	state.failures++
	if state.failures >= r.cfg.CircuitBreakerThreshold && !state.circuitOpen {
		state.circuitOpen = true
		state.circuitOpenAt = time.Now()
	}
}

// Name implements agent.LLMProvider, reporting the chain in priority order.
func (r *Router) Name() string {
	return "router:" + strings.Join(r.names, ",")
}

// Models implements agent.LLMProvider, the union across all chained providers.
func (r *Router) Models() []agent.Model {
	seen := make(map[string]bool)
	var all []agent.Model
	for _, p := range r.providers {
		for _, m := range p.Models() {
			if !seen[m.ID] {
				seen[m.ID] = true
				all = append(all, m)
			}
		}
	}
	return all
}

// SupportsTools implements agent.LLMProvider.
func (r *Router) SupportsTools() bool {
	for _, p := range r.providers {
		if p.SupportsTools() {
			return true
		}
	}
	return false
}
