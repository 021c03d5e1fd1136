package broadcaster

import (
	"net/http"

	"github.com/maneeshanif/todo-realtime-core/internal/eventbus"
	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

// DeliveryHandler implements the HTTP route the sidecar POSTs task-updates
// deliveries to. Every task-updates event (task mutations, reminder
// notifications, recurring-materialization syncs alike) is fanned out the
// same way: Broadcast keys purely on the event's UserID.
func (m *Manager) DeliveryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event models.TaskUpdateEvent
		if err := eventbus.DecodeDelivery(r, &event); err != nil {
			m.logger.Warn("malformed task update delivery", "error", err)
			eventbus.WriteAck(w, eventbus.AckDrop)
			return
		}

		m.Broadcast(r.Context(), event)
		eventbus.WriteAck(w, eventbus.AckSuccess)
	}
}
