package status_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
	"github.com/lllypuk/statuswatch/internal/domain/event"
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

func operator(tenantID string) status.Actor {
	return status.Actor{
		UserID:     "user-1",
		UserName:   "jane",
		TenantID:   tenantID,
		TenantName: "Acme Corp",
		Roles:      []string{status.RoleStatusAdmin},
	}
}

func newApp(t *testing.T) *status.Application {
	t.Helper()
	app, err := status.NewApplication(operator("tenant-1"), "BillingAPI", "https://billing.example.com/health", "")
	require.NoError(t, err)
	return app
}

func newEnabledApp(t *testing.T) *status.Application {
	t.Helper()
	app := newApp(t)
	require.NoError(t, app.Enable(operator("tenant-1")))
	app.MarkEventsAsCommitted()
	return app
}

func eventTypes(events []event.DomainEvent) []string {
	types := make([]string, 0, len(events))
	for _, evt := range events {
		types = append(types, evt.EventType())
	}
	return types
}

func countEvents(events []event.DomainEvent, eventType string) int {
	n := 0
	for _, evt := range events {
		if evt.EventType() == eventType {
			n++
		}
	}
	return n
}

func sample(ok bool) status.PollSample {
	s := status.PollSample{URL: "https://billing.example.com/health", OK: ok, StatusCode: 200}
	if !ok {
		s.StatusCode = 503
		s.Error = "unexpected status 503"
	}
	return s
}

func TestNewApplication(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		app := newApp(t)

		assert.False(t, app.ID().IsZero())
		assert.Equal(t, "acme-corp-billing-api", app.AppKey())
		assert.Equal(t, "tenant-1", app.TenantID())
		assert.False(t, app.IsEnabled())
		assert.Equal(t, status.StatusDisabled, app.Status())
		assert.Equal(t, status.EndpointUnknown, app.Endpoint().Status)
		assert.Equal(t, 0, app.Generation())
		assert.Empty(t, app.GetUncommittedEvents())
	})

	t.Run("missing role", func(t *testing.T) {
		actor := operator("tenant-1")
		actor.Roles = nil

		_, err := status.NewApplication(actor, "Billing", "https://x", "")
		require.ErrorIs(t, err, errs.ErrUnauthorized)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := status.NewApplication(operator("tenant-1"), " ", "https://x", "")
		require.ErrorIs(t, err, errs.ErrInvalidInput)
	})

	t.Run("empty url", func(t *testing.T) {
		_, err := status.NewApplication(operator("tenant-1"), "Billing", "", "")
		require.ErrorIs(t, err, errs.ErrInvalidInput)
	})
}

func TestApplication_TenantIsolation(t *testing.T) {
	foreign := operator("tenant-2")

	operations := map[string]func(app *status.Application) error{
		"enable":         func(app *status.Application) error { return app.Enable(foreign) },
		"disable":        func(app *status.Application) error { return app.Disable(foreign) },
		"toggle":         func(app *status.Application) error { return app.Toggle(foreign) },
		"set status":     func(app *status.Application) error { return app.SetStatus(foreign, status.StatusMaintenance) },
		"update details": func(app *status.Application) error { return app.UpdateDetails(foreign, "https://y", "") },
		"delete":         func(app *status.Application) error { return app.Delete(foreign) },
		"read access":    func(app *status.Application) error { return app.CheckAccess(foreign) },
	}

	for name, op := range operations {
		t.Run(name, func(t *testing.T) {
			app := newEnabledApp(t)
			before := app.State()

			err := op(app)

			require.ErrorIs(t, err, errs.ErrUnauthorized)
			assert.Equal(t, before, app.State())
			assert.Empty(t, app.GetUncommittedEvents())
		})
	}
}

func TestApplication_RequiresOperatorRole(t *testing.T) {
	app := newApp(t)
	viewer := operator("tenant-1")
	viewer.Roles = []string{"viewer"}

	require.ErrorIs(t, app.Enable(viewer), errs.ErrUnauthorized)
	require.NoError(t, app.CheckAccess(viewer))
	assert.False(t, app.IsEnabled())
}

func TestApplication_FirstEnable(t *testing.T) {
	app := newApp(t)

	require.NoError(t, app.Enable(operator("tenant-1")))

	assert.True(t, app.IsEnabled())
	assert.Equal(t, status.StatusPending, app.Status())
	assert.Equal(t, 1, app.Generation())
	assert.Equal(t,
		[]string{status.EventTypeHealthCheckStarted, status.EventTypeStatusChanged},
		eventTypes(app.GetUncommittedEvents()))
	app.MarkEventsAsCommitted()

	d := status.NewDebouncer(status.DefaultPolicy(), app.Endpoint().Status)
	changed, err := app.RecordPollResult(d, sample(true))

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, status.StatusOperational, app.Status())
	assert.Equal(t, status.EndpointUp, app.Endpoint().Status)
	assert.Equal(t, status.InternalStatusHealthy, app.InternalStatus())
	assert.Equal(t,
		[]string{status.EventTypeApplicationHealthy, status.EventTypeStatusChanged},
		eventTypes(app.GetUncommittedEvents()))

	statusEvt, ok := app.GetUncommittedEvents()[1].(*status.StatusChanged)
	require.True(t, ok)
	assert.Equal(t, status.StatusPending, statusEvt.OriginalStatus)
	assert.Equal(t, status.StatusOperational, statusEvt.NewStatus)
	assert.Equal(t, event.SystemUser, statusEvt.UpdatedBy)
}

func TestApplication_DescribeEvents(t *testing.T) {
	app := newApp(t)
	require.NoError(t, app.Enable(operator("tenant-1")))
	assert.Empty(t, app.GetUncommittedEvents()[0].(*status.HealthCheckStarted).Application.Name)

	app.DescribeEvents(status.ApplicationConfig{Name: "Billing API", Description: "payments"})

	started, ok := app.GetUncommittedEvents()[0].(*status.HealthCheckStarted)
	require.True(t, ok)
	assert.Equal(t, "Billing API", started.Application.Name)
	assert.Equal(t, "payments", started.Application.Description)

	changed, ok := app.GetUncommittedEvents()[1].(*status.StatusChanged)
	require.True(t, ok)
	assert.Equal(t, "Billing API", changed.Application.Name)
}

func TestApplication_EnableIsIdempotent(t *testing.T) {
	app := newEnabledApp(t)

	require.NoError(t, app.Enable(operator("tenant-1")))

	assert.Equal(t, 1, app.Generation())
	assert.Empty(t, app.GetUncommittedEvents())
}

func TestApplication_ReEnableStartsFromCleanSlate(t *testing.T) {
	app := newEnabledApp(t)
	actor := operator("tenant-1")
	d := status.NewDebouncer(status.DefaultPolicy(), app.Endpoint().Status)
	_, err := app.RecordPollResult(d, sample(true))
	require.NoError(t, err)

	require.NoError(t, app.Disable(actor))
	require.NoError(t, app.Enable(actor))

	assert.Equal(t, status.StatusPending, app.Status())
	assert.Equal(t, status.EndpointUnknown, app.Endpoint().Status)
	assert.Empty(t, app.InternalStatus())
	assert.Equal(t, 2, app.Generation())
}

func TestApplication_IdempotentDisable(t *testing.T) {
	app := newEnabledApp(t)
	actor := operator("tenant-1")

	require.NoError(t, app.Disable(actor))
	require.NoError(t, app.Disable(actor))

	events := app.GetUncommittedEvents()
	assert.Equal(t, 1, countEvents(events, status.EventTypeHealthCheckStopped))
	assert.Equal(t, status.EventTypeHealthCheckStopped, events[0].EventType())
	assert.False(t, app.IsEnabled())
	assert.Equal(t, status.StatusDisabled, app.Status())
}

func TestApplication_Toggle(t *testing.T) {
	app := newApp(t)
	actor := operator("tenant-1")

	require.NoError(t, app.Toggle(actor))
	assert.True(t, app.IsEnabled())

	require.NoError(t, app.Toggle(actor))
	assert.False(t, app.IsEnabled())

	assert.Equal(t, []string{
		status.EventTypeHealthCheckStarted,
		status.EventTypeStatusChanged,
		status.EventTypeHealthCheckStopped,
		status.EventTypeStatusChanged,
	}, eventTypes(app.GetUncommittedEvents()))
}

func TestApplication_SetStatus(t *testing.T) {
	actor := operator("tenant-1")

	t.Run("manual override", func(t *testing.T) {
		app := newEnabledApp(t)
		before := app.StatusTimestamp()

		require.NoError(t, app.SetStatus(actor, status.StatusMaintenance))

		assert.Equal(t, status.StatusMaintenance, app.Status())
		assert.False(t, app.StatusTimestamp().Before(before))
		events := app.GetUncommittedEvents()
		require.Len(t, events, 1)
		evt, ok := events[0].(*status.StatusChanged)
		require.True(t, ok)
		assert.Equal(t, status.StatusPending, evt.OriginalStatus)
		assert.Equal(t, status.StatusMaintenance, evt.NewStatus)
		assert.Equal(t, "jane", evt.UpdatedBy)
		assert.Equal(t, "tenant-1", evt.TenantID())
		assert.Equal(t, app.ID().String(), evt.AggregateID())
	})

	t.Run("disabled while enabled", func(t *testing.T) {
		app := newEnabledApp(t)

		err := app.SetStatus(actor, status.StatusDisabled)

		require.ErrorIs(t, err, errs.ErrInvalidOperation)
		assert.Equal(t, status.StatusPending, app.Status())
	})

	t.Run("unknown value", func(t *testing.T) {
		app := newEnabledApp(t)
		require.ErrorIs(t, app.SetStatus(actor, "broken"), errs.ErrInvalidInput)
	})

	t.Run("same value is a no-op", func(t *testing.T) {
		app := newEnabledApp(t)
		require.NoError(t, app.SetStatus(actor, status.StatusPending))
		assert.Empty(t, app.GetUncommittedEvents())
	})
}

func TestApplication_DebounceFailureThreshold(t *testing.T) {
	app := newEnabledApp(t)
	d := status.NewDebouncer(status.DefaultPolicy(), app.Endpoint().Status)
	_, err := app.RecordPollResult(d, sample(true))
	require.NoError(t, err)
	app.MarkEventsAsCommitted()

	changed, err := app.RecordPollResult(d, sample(false))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, status.StatusOperational, app.Status())
	assert.Empty(t, app.GetUncommittedEvents())

	changed, err = app.RecordPollResult(d, sample(false))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, status.StatusOutage, app.Status())
	assert.Equal(t, status.EndpointDown, app.Endpoint().Status)

	events := app.GetUncommittedEvents()
	require.Len(t, events, 2)
	unhealthy, ok := events[0].(*status.ApplicationUnhealthy)
	require.True(t, ok)
	assert.Equal(t, "unexpected status 503", unhealthy.Error)
}

func TestApplication_DebounceRecovery(t *testing.T) {
	app := newEnabledApp(t)
	d := status.NewDebouncer(status.DefaultPolicy(), app.Endpoint().Status)
	for range 2 {
		_, err := app.RecordPollResult(d, sample(false))
		require.NoError(t, err)
	}
	require.Equal(t, status.StatusOutage, app.Status())
	app.MarkEventsAsCommitted()

	changed, err := app.RecordPollResult(d, sample(true))

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, status.StatusOperational, app.Status())
	assert.Equal(t, 1, countEvents(app.GetUncommittedEvents(), status.EventTypeApplicationHealthy))
}

func TestApplication_NoRepeatedUnhealthyEvents(t *testing.T) {
	app := newEnabledApp(t)
	d := status.NewDebouncer(status.DefaultPolicy(), app.Endpoint().Status)

	for range 7 {
		_, err := app.RecordPollResult(d, sample(false))
		require.NoError(t, err)
	}

	assert.Equal(t, 1, countEvents(app.GetUncommittedEvents(), status.EventTypeApplicationUnhealthy))
	assert.Equal(t, status.StatusOutage, app.Status())
}

func TestApplication_ManualOverrideIsSticky(t *testing.T) {
	actor := operator("tenant-1")
	app := newEnabledApp(t)
	d := status.NewDebouncer(status.DefaultPolicy(), app.Endpoint().Status)
	require.NoError(t, app.SetStatus(actor, status.StatusMaintenance))

	for _, ok := range []bool{true, false, false, true, true} {
		_, err := app.RecordPollResult(d, sample(ok))
		require.NoError(t, err)
		assert.Equal(t, status.StatusMaintenance, app.Status())
	}
	assert.Equal(t, status.EndpointUp, app.Endpoint().Status)
	assert.Zero(t, countEvents(app.GetUncommittedEvents()[1:], status.EventTypeStatusChanged))

	require.NoError(t, app.SetStatus(actor, status.StatusOperational))
	assert.Equal(t, status.StatusOperational, app.Status())
}

func TestApplication_RecordPollResultWhenDisabled(t *testing.T) {
	app := newApp(t)
	d := status.NewDebouncer(status.DefaultPolicy(), app.Endpoint().Status)

	changed, err := app.RecordPollResult(d, sample(true))

	require.ErrorIs(t, err, errs.ErrInvalidState)
	assert.False(t, changed)
	assert.Empty(t, app.GetUncommittedEvents())
}

func TestApplication_Delete(t *testing.T) {
	app := newApp(t)

	require.NoError(t, app.Delete(operator("tenant-1")))
	require.NoError(t, app.Delete(operator("tenant-1")))

	assert.True(t, app.IsDeleted())
}

func TestReconstruct(t *testing.T) {
	app := newEnabledApp(t)

	restored := status.Reconstruct(app.State())

	assert.Equal(t, app.State(), restored.State())
	assert.Empty(t, restored.GetUncommittedEvents())
}
