package events

import (
	"time"

	"github.com/spec-kit/forum-relay/internal/domain"
)

// Envelope carries a classified project item event through the queue.
type Envelope struct {
	DeliveryID string
	ReceivedAt time.Time
	Event      domain.ProjectItemEvent
}

// NewEnvelope wraps event with its webhook delivery id.
func NewEnvelope(deliveryID string, event domain.ProjectItemEvent) Envelope {
	return Envelope{DeliveryID: deliveryID, ReceivedAt: time.Now().UTC(), Event: event}
}
