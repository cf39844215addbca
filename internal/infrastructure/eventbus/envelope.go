package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lllypuk/statuswatch/internal/domain/event"
)

// Envelope is the wire form of a domain event on the bus.
type Envelope struct {
	ID            string          `json:"id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	TenantID      string          `json:"tenant_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Metadata      event.Metadata  `json:"metadata"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps a domain event for serialization.
func NewEnvelope(evt event.DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return Envelope{
		ID:            uuid.New().String(),
		EventType:     evt.EventType(),
		AggregateID:   evt.AggregateID(),
		AggregateType: evt.AggregateType(),
		TenantID:      evt.TenantID(),
		OccurredAt:    evt.OccurredAt(),
		Metadata:      evt.Metadata(),
		Payload:       payload,
	}, nil
}

// ReceivedEvent implements DomainEvent for events reconstructed from the bus.
type ReceivedEvent struct {
	envelope Envelope
}

func (e *ReceivedEvent) EventType() string        { return e.envelope.EventType }
func (e *ReceivedEvent) AggregateID() string      { return e.envelope.AggregateID }
func (e *ReceivedEvent) AggregateType() string    { return e.envelope.AggregateType }
func (e *ReceivedEvent) TenantID() string         { return e.envelope.TenantID }
func (e *ReceivedEvent) OccurredAt() time.Time    { return e.envelope.OccurredAt }
func (e *ReceivedEvent) Metadata() event.Metadata { return e.envelope.Metadata }

// ID returns the envelope id assigned at publish time.
func (e *ReceivedEvent) ID() string { return e.envelope.ID }

// Payload returns the raw JSON payload of the event.
func (e *ReceivedEvent) Payload() json.RawMessage { return e.envelope.Payload }

// DecodePayload unmarshals the payload into v.
func (e *ReceivedEvent) DecodePayload(v any) error {
	return json.Unmarshal(e.envelope.Payload, v)
}
