package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies who caused the event. System-initiated events (cron
// reconciliation) carry no actor.
type ActorRef struct {
	UserID  uuid.UUID  `json:"userId"`
	StoreID *uuid.UUID `json:"storeId,omitempty"`
	Role    string     `json:"role,omitempty"`
}

// PayloadEnvelope is the versioned payload written to outbox_events and
// published verbatim to the domain topic. Consumers switch on Version.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
