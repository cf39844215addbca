package eventbus

import (
	"context"
	"log/slog"

	"github.com/lllypuk/statuswatch/internal/domain/event"
)

// InProcessBus delivers events synchronously to local handlers.
// Used in mock mode where API and scheduler share one process.
type InProcessBus struct {
	handlers *handlerSet
	logger   *slog.Logger
	observer PublishObserver
}

// NewInProcessBus creates an in-process bus
func NewInProcessBus(logger *slog.Logger, observer PublishObserver) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{
		handlers: newHandlerSet(),
		logger:   logger,
		observer: observer,
	}
}

// Subscribe registers a handler for the event type
func (b *InProcessBus) Subscribe(eventType string, handler EventHandler) error {
	return b.handlers.add(eventType, handler)
}

// Publish runs every handler of the event type. Handler errors are logged
// and do not fail the publish.
func (b *InProcessBus) Publish(ctx context.Context, evt event.DomainEvent) error {
	if evt == nil {
		return ErrNilEvent
	}

	for _, handler := range b.handlers.get(evt.EventType()) {
		if err := handler(ctx, evt); err != nil {
			b.logger.WarnContext(ctx, "event handler failed",
				slog.String("event_type", evt.EventType()),
				slog.String("aggregate_id", evt.AggregateID()),
				slog.String("error", err.Error()),
			)
		}
	}

	if b.observer != nil {
		b.observer(evt.EventType(), nil)
	}
	return nil
}

var _ event.Bus = (*InProcessBus)(nil)
