// Package event holds the domain event contract shared by aggregates and the event bus.
package event

import (
	"context"
	"time"
)

// DomainEvent is what aggregates record and the bus transports.
// TenantID is part of the contract: every consumer filters by tenant.
type DomainEvent interface {
	EventType() string
	AggregateID() string
	AggregateType() string
	TenantID() string
	OccurredAt() time.Time
	Metadata() Metadata
}

// Bus publishes domain events. Implementations: eventbus.RedisEventBus, eventbus.InProcessBus.
type Bus interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// BaseEvent реализует DomainEvent, конкретные события встраивают его
type BaseEvent struct {
	eventType     string
	aggregateID   string
	aggregateType string
	tenantID      string
	occurredAt    time.Time
	metadata      Metadata
}

// NewBaseEvent stamps the event with the current UTC time.
func NewBaseEvent(eventType, aggregateID, aggregateType, tenantID string, metadata Metadata) BaseEvent {
	return BaseEvent{
		eventType:     eventType,
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		tenantID:      tenantID,
		occurredAt:    time.Now().UTC(),
		metadata:      metadata,
	}
}

func (e BaseEvent) EventType() string     { return e.eventType }
func (e BaseEvent) AggregateID() string   { return e.aggregateID }
func (e BaseEvent) AggregateType() string { return e.aggregateType }
func (e BaseEvent) TenantID() string      { return e.tenantID }
func (e BaseEvent) OccurredAt() time.Time { return e.occurredAt }
func (e BaseEvent) Metadata() Metadata    { return e.metadata }
