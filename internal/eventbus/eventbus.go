// Package eventbus is the pub/sub façade every producer and consumer binary
// mounts: a thin HTTP client over a Dapr-shaped sidecar's publish endpoint,
// plus the handlers the sidecar calls back on for subscription discovery and
// readiness. It owns no broker logic of its own — the sidecar talks to the
// underlying broker, this package only knows the sidecar's wire contract.
package eventbus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/maneeshanif/todo-realtime-core/internal/config"
)

// Topic names a logical channel. Bus resolves these to the configured wire
// topic names in config.EventBusTopicsConfig.
type Topic string

const (
	TopicTaskEvents     Topic = "task_events"
	TopicReminderEvents Topic = "reminder_events"
	TopicTaskUpdates    Topic = "task_updates"
)

// Bus publishes envelopes to the sidecar's pub/sub HTTP surface.
//
//	POST {SidecarURL}/v1.0/publish/{PubSubName}/{topic}
//	GET  {SidecarURL}/v1.0/healthz
type Bus struct {
	cfg        config.EventBusConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds a Bus from the façade's configuration.
func New(cfg config.EventBusConfig, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.PublishTimeout},
		logger:     logger.With("component", "eventbus"),
	}
}

// wireTopic resolves a logical Topic to its configured sidecar topic name.
func (b *Bus) wireTopic(topic Topic) (string, error) {
	switch topic {
	case TopicTaskEvents:
		return b.cfg.Topics.TaskEvents, nil
	case TopicReminderEvents:
		return b.cfg.Topics.ReminderEvents, nil
	case TopicTaskUpdates:
		return b.cfg.Topics.TaskUpdates, nil
	default:
		return "", fmt.Errorf("eventbus: unknown topic %q", topic)
	}
}

// Publish marshals event as JSON and posts it to the sidecar's publish
// endpoint for topic. This is a single short-timeout attempt, not a retry
// loop: durability and redelivery are the broker/sidecar's responsibility,
// not the façade's. Callers on the write path must treat a publish failure
// as non-blocking — log and surface it, but don't abort the request that
// triggered it.
func (b *Bus) Publish(ctx context.Context, topic Topic, event any) error {
	wireTopic, err := b.wireTopic(topic)
	if err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("eventbus: marshal event: %w", err)
	}

	url := fmt.Sprintf("%s/v1.0/publish/%s/%s", b.cfg.SidecarURL, b.cfg.PubSubName, wireTopic)

	if err := b.postOnce(ctx, url, body); err != nil {
		b.logger.Warn("publish failed", "topic", wireTopic, "error", err)
		return fmt.Errorf("eventbus: publish to %q: %w", wireTopic, err)
	}

	b.logger.Debug("published event", "topic", wireTopic)
	return nil
}

func (b *Bus) postOnce(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("sidecar returned status %d", resp.StatusCode)
	}
	return nil
}

// IsAvailable checks the sidecar's health endpoint, mirroring the readiness
// probe the original service used before attempting a publish.
func (b *Bus) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.cfg.SidecarURL+"/v1.0/healthz", nil)
	if err != nil {
		return false
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent
}
