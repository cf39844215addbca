package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lllypuk/statuswatch/internal/domain/event"
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

// Subscriber is implemented by both buses.
type Subscriber interface {
	Subscribe(eventType string, handler EventHandler) error
}

// auditPayload is the union of the status event payloads
type auditPayload struct {
	Application    status.Snapshot `json:"application"`
	OriginalStatus status.Status   `json:"originalStatus"`
	NewStatus      status.Status   `json:"newStatus"`
	UpdatedBy      string          `json:"updatedBy"`
	Error          string          `json:"error"`
}

// AuditLogger writes one structured log line per status event.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates an audit handler
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger.With(slog.String("component", "audit"))}
}

// Register subscribes the audit handler to every status event type.
func (a *AuditLogger) Register(bus Subscriber) error {
	for _, eventType := range status.EventTypes() {
		if err := bus.Subscribe(eventType, a.Handle); err != nil {
			return fmt.Errorf("failed to subscribe audit logger to %s: %w", eventType, err)
		}
	}
	return nil
}

// Handle logs the event
func (a *AuditLogger) Handle(ctx context.Context, evt event.DomainEvent) error {
	raw, err := payloadOf(evt)
	if err != nil {
		return err
	}

	var p auditPayload
	if err = json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", evt.EventType(), err)
	}

	attrs := []slog.Attr{
		slog.String("event_type", evt.EventType()),
		slog.String("application_id", evt.AggregateID()),
		slog.String("tenant_id", evt.TenantID()),
		slog.String("app_key", p.Application.AppKey),
		slog.String("status", string(p.Application.Status)),
		slog.String("endpoint_status", string(p.Application.EndpointStatus)),
	}
	switch evt.EventType() {
	case status.EventTypeStatusChanged:
		attrs = append(attrs,
			slog.String("original_status", string(p.OriginalStatus)),
			slog.String("new_status", string(p.NewStatus)),
			slog.String("updated_by", p.UpdatedBy),
		)
	case status.EventTypeApplicationUnhealthy:
		attrs = append(attrs, slog.String("error", p.Error))
	}

	a.logger.LogAttrs(ctx, slog.LevelInfo, "status event", attrs...)
	return nil
}

func payloadOf(evt event.DomainEvent) (json.RawMessage, error) {
	if received, ok := evt.(*ReceivedEvent); ok {
		return received.Payload(), nil
	}
	raw, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", evt.EventType(), err)
	}
	return raw, nil
}
