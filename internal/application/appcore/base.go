package appcore

import (
	"context"
	"log/slog"

	"github.com/lllypuk/statuswatch/internal/domain/event"
)

// EventSource is an aggregate that queues domain events.
type EventSource interface {
	GetUncommittedEvents() []event.DomainEvent
	MarkEventsAsCommitted()
}

// PublishEvents publishes the aggregate's queued events after it has been saved.
// Failures are logged and never undo the saved change.
func PublishEvents(ctx context.Context, bus event.Bus, logger *slog.Logger, source EventSource) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, evt := range source.GetUncommittedEvents() {
		if err := bus.Publish(ctx, evt); err != nil {
			logger.WarnContext(ctx, "failed to publish event",
				slog.String("event_type", evt.EventType()),
				slog.String("aggregate_id", evt.AggregateID()),
				slog.String("correlation_id", GetCorrelationID(ctx)),
				slog.String("error", err.Error()))
		}
	}
	source.MarkEventsAsCommitted()
}
