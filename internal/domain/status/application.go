package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
	"github.com/lllypuk/statuswatch/internal/domain/event"
	"github.com/lllypuk/statuswatch/internal/domain/uuid"
)

const (
	// InternalStatusHealthy machine status after a confirmed success
	InternalStatusHealthy = "healthy"
	// InternalStatusUnhealthy machine status after a confirmed failure
	InternalStatusUnhealthy = "unhealthy"
)

// Endpoint is the polled URL and its debounced state.
type Endpoint struct {
	URL    string
	Status EndpointState
}

// Application is the runtime status record of one monitored application.
// All state changes go through its methods; each change queues events that
// the caller publishes after the record is saved.
type Application struct {
	id              uuid.UUID
	appKey          string
	tenantID        string
	tenantName      string
	enabled         bool
	status          Status
	internalStatus  string
	statusTimestamp time.Time
	endpoint        Endpoint
	metadata        string
	generation      int
	deleted         bool
	createdAt       time.Time
	updatedAt       time.Time

	uncommittedEvents []event.DomainEvent
}

// State is the persisted form of an Application.
type State struct {
	ID              uuid.UUID
	AppKey          string
	TenantID        string
	TenantName      string
	Enabled         bool
	Status          Status
	InternalStatus  string
	StatusTimestamp time.Time
	Endpoint        Endpoint
	Metadata        string
	Generation      int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewApplication registers a new, disabled application in the actor's tenant.
func NewApplication(actor Actor, name, url, metadata string) (*Application, error) {
	if actor.TenantID == "" {
		return nil, fmt.Errorf("%w: actor has no tenant", errs.ErrUnauthorized)
	}
	if !actor.IsOperator() {
		return nil, fmt.Errorf("%w: role %s required", errs.ErrUnauthorized, RoleStatusAdmin)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", errs.ErrInvalidInput)
	}
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: url is required", errs.ErrInvalidInput)
	}

	tenantName := actor.TenantName
	if tenantName == "" {
		tenantName = actor.TenantID
	}

	now := time.Now().UTC()
	return &Application{
		id:                uuid.NewUUID(),
		appKey:            BuildAppKey(tenantName, name),
		tenantID:          actor.TenantID,
		tenantName:        tenantName,
		enabled:           false,
		status:            StatusDisabled,
		statusTimestamp:   now,
		endpoint:          Endpoint{URL: url, Status: EndpointUnknown},
		metadata:          metadata,
		createdAt:         now,
		updatedAt:         now,
		uncommittedEvents: make([]event.DomainEvent, 0),
	}, nil
}

// Reconstruct восстанавливает агрегат из хранилища без проверки бизнес-правил.
func Reconstruct(s State) *Application {
	endpoint := s.Endpoint
	if endpoint.Status == "" {
		endpoint.Status = EndpointUnknown
	}
	return &Application{
		id:                s.ID,
		appKey:            s.AppKey,
		tenantID:          s.TenantID,
		tenantName:        s.TenantName,
		enabled:           s.Enabled,
		status:            s.Status,
		internalStatus:    s.InternalStatus,
		statusTimestamp:   s.StatusTimestamp,
		endpoint:          endpoint,
		metadata:          s.Metadata,
		generation:        s.Generation,
		createdAt:         s.CreatedAt,
		updatedAt:         s.UpdatedAt,
		uncommittedEvents: make([]event.DomainEvent, 0),
	}
}

// CheckAccess verifies that the actor belongs to the application's tenant.
func (a *Application) CheckAccess(actor Actor) error {
	if actor.TenantID == "" || actor.TenantID != a.tenantID {
		return fmt.Errorf("%w: application belongs to another tenant", errs.ErrUnauthorized)
	}
	return nil
}

// CheckOperator verifies tenant access and the operator role.
func (a *Application) CheckOperator(actor Actor) error {
	if err := a.CheckAccess(actor); err != nil {
		return err
	}
	if !actor.IsOperator() {
		return fmt.Errorf("%w: role %s required", errs.ErrUnauthorized, RoleStatusAdmin)
	}
	return nil
}

// Enable turns polling on. The application restarts from a clean slate:
// status pending, endpoint unknown and a new generation for the polling task.
func (a *Application) Enable(actor Actor) error {
	if err := a.CheckOperator(actor); err != nil {
		return err
	}
	if a.enabled {
		return nil
	}

	original := a.status
	now := time.Now().UTC()

	a.enabled = true
	a.generation++
	a.status = StatusPending
	a.internalStatus = ""
	a.statusTimestamp = now
	a.endpoint.Status = EndpointUnknown
	a.updatedAt = now

	metadata := actor.Metadata()
	a.addEvent(NewHealthCheckStarted(a, metadata))
	a.addEvent(NewStatusChanged(a, original, metadata))
	return nil
}

// Disable turns polling off. Disabling a disabled application does nothing.
func (a *Application) Disable(actor Actor) error {
	if err := a.CheckOperator(actor); err != nil {
		return err
	}
	if !a.enabled {
		return nil
	}

	original := a.status
	now := time.Now().UTC()

	a.enabled = false
	a.status = StatusDisabled
	a.statusTimestamp = now
	a.updatedAt = now

	metadata := actor.Metadata()
	a.addEvent(NewHealthCheckStopped(a, metadata))
	a.addEvent(NewStatusChanged(a, original, metadata))
	return nil
}

// Toggle flips the enabled flag.
func (a *Application) Toggle(actor Actor) error {
	if a.enabled {
		return a.Disable(actor)
	}
	return a.Enable(actor)
}

// SetStatus applies an operator override.
func (a *Application) SetStatus(actor Actor, s Status) error {
	if err := a.CheckOperator(actor); err != nil {
		return err
	}
	if _, err := ParseStatus(string(s)); err != nil {
		return err
	}
	if s == StatusDisabled && a.enabled {
		return fmt.Errorf("%w: disable the application instead of setting status %s",
			errs.ErrInvalidOperation, StatusDisabled)
	}
	if s == a.status {
		return nil
	}

	original := a.status
	now := time.Now().UTC()
	a.status = s
	a.statusTimestamp = now
	a.updatedAt = now

	a.addEvent(NewStatusChanged(a, original, actor.Metadata()))
	return nil
}

// RecordPollResult feeds a sample into the polling task's debouncer and
// applies a confirmed transition. It reports whether anything changed.
// Manual statuses are kept; the endpoint state still follows the samples.
func (a *Application) RecordPollResult(d *Debouncer, sample PollSample) (bool, error) {
	if !a.enabled {
		return false, fmt.Errorf("%w: application %s is disabled", errs.ErrInvalidState, a.id)
	}

	state, changed := d.Observe(sample.OK)
	if !changed {
		return false, nil
	}

	now := time.Now().UTC()
	a.endpoint.Status = state
	a.updatedAt = now

	if state == EndpointUp {
		a.internalStatus = InternalStatusHealthy
		a.addEvent(NewApplicationHealthy(a))
	} else {
		a.internalStatus = InternalStatusUnhealthy
		a.addEvent(NewApplicationUnhealthy(a, sample.Error))
	}

	if a.status.IsManual() {
		return true, nil
	}

	next := statusFor(state)
	if next != a.status {
		original := a.status
		a.status = next
		a.statusTimestamp = now
		a.addEvent(NewStatusChanged(a, original, event.SystemMetadata()))
	}
	return true, nil
}

// UpdateDetails changes the polled URL and the free-form metadata.
func (a *Application) UpdateDetails(actor Actor, url, metadata string) error {
	if err := a.CheckOperator(actor); err != nil {
		return err
	}
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("%w: url is required", errs.ErrInvalidInput)
	}
	a.endpoint.URL = url
	a.metadata = metadata
	a.updatedAt = time.Now().UTC()
	return nil
}

// SyncURL copies the authoritative URL from configuration.
func (a *Application) SyncURL(url string) bool {
	if url == "" || url == a.endpoint.URL {
		return false
	}
	a.endpoint.URL = url
	a.updatedAt = time.Now().UTC()
	return true
}

// Delete marks the application for removal. Repeated calls are safe.
func (a *Application) Delete(actor Actor) error {
	if err := a.CheckOperator(actor); err != nil {
		return err
	}
	a.deleted = true
	return nil
}

// Snapshot returns the event payload view of the application.
func (a *Application) Snapshot() Snapshot {
	return Snapshot{
		ApplicationID:   a.id.String(),
		AppKey:          a.appKey,
		TenantID:        a.tenantID,
		URL:             a.endpoint.URL,
		Enabled:         a.enabled,
		Status:          a.status,
		InternalStatus:  a.internalStatus,
		EndpointStatus:  a.endpoint.Status,
		StatusTimestamp: a.statusTimestamp,
		Timestamp:       time.Now().UTC(),
	}
}

// DescribeEvents copies the configured name and description into the
// snapshots of the queued events. Status records do not store them, so the
// caller passes them from the merged configuration.
func (a *Application) DescribeEvents(cfg ApplicationConfig) {
	for _, evt := range a.uncommittedEvents {
		if d, ok := evt.(describable); ok {
			snap := d.snapshot()
			snap.Name = cfg.Name
			snap.Description = cfg.Description
		}
	}
}

// State returns the persisted form of the application.
func (a *Application) State() State {
	return State{
		ID:              a.id,
		AppKey:          a.appKey,
		TenantID:        a.tenantID,
		TenantName:      a.tenantName,
		Enabled:         a.enabled,
		Status:          a.status,
		InternalStatus:  a.internalStatus,
		StatusTimestamp: a.statusTimestamp,
		Endpoint:        a.endpoint,
		Metadata:        a.metadata,
		Generation:      a.generation,
		CreatedAt:       a.createdAt,
		UpdatedAt:       a.updatedAt,
	}
}

func (a *Application) addEvent(evt event.DomainEvent) {
	a.uncommittedEvents = append(a.uncommittedEvents, evt)
}

// GetUncommittedEvents возвращает новые события
func (a *Application) GetUncommittedEvents() []event.DomainEvent {
	return a.uncommittedEvents
}

// MarkEventsAsCommitted помечает события как зафиксированные
func (a *Application) MarkEventsAsCommitted() {
	a.uncommittedEvents = make([]event.DomainEvent, 0)
}

// Getters

// ID возвращает ID приложения
func (a *Application) ID() uuid.UUID { return a.id }

// AppKey возвращает slug приложения
func (a *Application) AppKey() string { return a.appKey }

// TenantID возвращает ID тенанта
func (a *Application) TenantID() string { return a.tenantID }

// TenantName возвращает имя тенанта
func (a *Application) TenantName() string { return a.tenantName }

// IsEnabled возвращает признак включенного опроса
func (a *Application) IsEnabled() bool { return a.enabled }

// Status возвращает публичный статус
func (a *Application) Status() Status { return a.status }

// InternalStatus возвращает машинный статус
func (a *Application) InternalStatus() string { return a.internalStatus }

// StatusTimestamp возвращает время последней смены статуса
func (a *Application) StatusTimestamp() time.Time { return a.statusTimestamp }

// Endpoint возвращает URL и подтвержденное состояние
func (a *Application) Endpoint() Endpoint { return a.endpoint }

// Metadata возвращает произвольные метаданные
func (a *Application) Metadata() string { return a.metadata }

// Generation возвращает номер цикла включения
func (a *Application) Generation() int { return a.generation }

// IsDeleted возвращает признак удаления
func (a *Application) IsDeleted() bool { return a.deleted }

// CreatedAt возвращает время создания
func (a *Application) CreatedAt() time.Time { return a.createdAt }

// UpdatedAt возвращает время последнего изменения
func (a *Application) UpdatedAt() time.Time { return a.updatedAt }
