package eventbus

import (
	"encoding/json"
	"net/http"
)

// subscription is one entry of the Dapr subscribe-discovery response.
type subscription struct {
	PubsubName string `json:"pubsubname"`
	Topic      string `json:"topic"`
	Route      string `json:"route"`
}

// SubscribeHandler returns an http.HandlerFunc implementing GET
// /dapr/subscribe: the sidecar calls this at startup to learn which topics
// this service consumes and which local route to deliver them to. routes
// maps a Topic this service subscribes to onto the local HTTP path that
// receives deliveries; a producer-only binary (the chat dispatcher) passes
// an empty map and answers with an empty list.
func (b *Bus) SubscribeHandler(routes map[Topic]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs := make([]subscription, 0, len(routes))
		for topic, route := range routes {
			wireTopic, err := b.wireTopic(topic)
			if err != nil {
				continue
			}
			subs = append(subs, subscription{
				PubsubName: b.cfg.PubSubName,
				Topic:      wireTopic,
				Route:      route,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(subs); err != nil {
			b.logger.Error("encode subscribe response failed", "error", err)
		}
	}
}

// HealthHandler returns an http.HandlerFunc implementing GET /dapr/health,
// the sidecar readiness probe target.
func (b *Bus) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"service": "todo-realtime-core",
		})
	}
}

// cloudEvent is the envelope the sidecar wraps every delivered message in.
// Consumers only care about the payload it carries in data.
type cloudEvent struct {
	Data json.RawMessage `json:"data"`
}

// DecodeDelivery unwraps a sidecar delivery request's CloudEvents envelope
// and unmarshals its data field into v.
func DecodeDelivery(r *http.Request, v any) error {
	var env cloudEvent
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		return err
	}
	return json.Unmarshal(env.Data, v)
}

// ackStatus is one of the three outcomes the sidecar's delivery protocol
// recognizes for a consumer's response body.
type ackStatus string

const (
	AckSuccess ackStatus = "SUCCESS"
	AckRetry   ackStatus = "RETRY"
	AckDrop    ackStatus = "DROP"
)

// WriteAck answers a delivery request with the given outcome. DROP and
// SUCCESS both stop redelivery; RETRY asks the sidecar to redeliver later.
func WriteAck(w http.ResponseWriter, status ackStatus) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]ackStatus{"status": status})
}
