package status

import (
	"time"

	"github.com/lllypuk/statuswatch/internal/domain/event"
)

// AggregateType is the aggregate name carried by every status event.
const AggregateType = "StatusApplication"

// Event types
const (
	EventTypeHealthCheckStarted   = "health-check-started"
	EventTypeHealthCheckStopped   = "health-check-stopped"
	EventTypeApplicationHealthy   = "application-healthy"
	EventTypeApplicationUnhealthy = "application-unhealthy"
	EventTypeStatusChanged        = "application-status-changed"
)

// EventTypes lists every event type emitted by the status aggregate.
func EventTypes() []string {
	return []string{
		EventTypeHealthCheckStarted,
		EventTypeHealthCheckStopped,
		EventTypeApplicationHealthy,
		EventTypeApplicationUnhealthy,
		EventTypeStatusChanged,
	}
}

// Snapshot is the application state attached to event payloads.
type Snapshot struct {
	ApplicationID   string        `json:"applicationId"`
	AppKey          string        `json:"appKey"`
	TenantID        string        `json:"tenantId"`
	Name            string        `json:"name,omitempty"`
	Description     string        `json:"description,omitempty"`
	URL             string        `json:"url,omitempty"`
	Enabled         bool          `json:"enabled"`
	Status          Status        `json:"status"`
	InternalStatus  string        `json:"internalStatus,omitempty"`
	EndpointStatus  EndpointState `json:"endpointStatus"`
	StatusTimestamp time.Time     `json:"statusTimestamp"`
	Timestamp       time.Time     `json:"timestamp"`
}

// HealthCheckStarted событие включения опроса
type HealthCheckStarted struct {
	event.BaseEvent

	Application Snapshot `json:"application"`
}

// HealthCheckStopped событие выключения опроса
type HealthCheckStopped struct {
	event.BaseEvent

	Application Snapshot `json:"application"`
}

// ApplicationHealthy событие подтвержденной доступности
type ApplicationHealthy struct {
	event.BaseEvent

	Application Snapshot `json:"application"`
}

// ApplicationUnhealthy событие подтвержденной недоступности
type ApplicationUnhealthy struct {
	event.BaseEvent

	Application Snapshot `json:"application"`
	Error       string   `json:"error,omitempty"`
}

// StatusChanged событие смены публичного статуса
type StatusChanged struct {
	event.BaseEvent

	Application    Snapshot `json:"application"`
	OriginalStatus Status   `json:"originalStatus"`
	NewStatus      Status   `json:"newStatus"`
	UpdatedBy      string   `json:"updatedBy"`
}

// describable событие со снимком приложения
type describable interface {
	snapshot() *Snapshot
}

func (e *HealthCheckStarted) snapshot() *Snapshot   { return &e.Application }
func (e *HealthCheckStopped) snapshot() *Snapshot   { return &e.Application }
func (e *ApplicationHealthy) snapshot() *Snapshot   { return &e.Application }
func (e *ApplicationUnhealthy) snapshot() *Snapshot { return &e.Application }
func (e *StatusChanged) snapshot() *Snapshot        { return &e.Application }

func newBase(eventType string, a *Application, metadata event.Metadata) event.BaseEvent {
	return event.NewBaseEvent(eventType, a.id.String(), AggregateType, a.tenantID, metadata)
}

// NewHealthCheckStarted создает событие HealthCheckStarted
func NewHealthCheckStarted(a *Application, metadata event.Metadata) *HealthCheckStarted {
	return &HealthCheckStarted{
		BaseEvent:   newBase(EventTypeHealthCheckStarted, a, metadata),
		Application: a.Snapshot(),
	}
}

// NewHealthCheckStopped создает событие HealthCheckStopped
func NewHealthCheckStopped(a *Application, metadata event.Metadata) *HealthCheckStopped {
	return &HealthCheckStopped{
		BaseEvent:   newBase(EventTypeHealthCheckStopped, a, metadata),
		Application: a.Snapshot(),
	}
}

// NewApplicationHealthy создает событие ApplicationHealthy
func NewApplicationHealthy(a *Application) *ApplicationHealthy {
	return &ApplicationHealthy{
		BaseEvent:   newBase(EventTypeApplicationHealthy, a, event.SystemMetadata()),
		Application: a.Snapshot(),
	}
}

// NewApplicationUnhealthy создает событие ApplicationUnhealthy
func NewApplicationUnhealthy(a *Application, cause string) *ApplicationUnhealthy {
	return &ApplicationUnhealthy{
		BaseEvent:   newBase(EventTypeApplicationUnhealthy, a, event.SystemMetadata()),
		Application: a.Snapshot(),
		Error:       cause,
	}
}

// NewStatusChanged создает событие StatusChanged
func NewStatusChanged(a *Application, original Status, metadata event.Metadata) *StatusChanged {
	return &StatusChanged{
		BaseEvent:      newBase(EventTypeStatusChanged, a, metadata),
		Application:    a.Snapshot(),
		OriginalStatus: original,
		NewStatus:      a.status,
		UpdatedBy:      metadata.UpdatedBy(),
	}
}
