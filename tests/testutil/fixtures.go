package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lllypuk/statuswatch/internal/domain/status"
)

// Fixture defaults
const (
	DefaultTenantID   = "tenant-1"
	DefaultTenantName = "Acme"
)

// ActorFixture returns an operator of the default tenant
func ActorFixture() status.Actor {
	return status.Actor{
		UserID:     "user-1",
		UserName:   "operator",
		TenantID:   DefaultTenantID,
		TenantName: DefaultTenantName,
		Roles:      []string{status.RoleStatusAdmin},
	}
}

// WithTenant sets tenant id and name
func WithTenant(tenantID string) func(*status.Actor) {
	return func(a *status.Actor) {
		a.TenantID = tenantID
		a.TenantName = tenantID
	}
}

// WithoutRoles strips every role
func WithoutRoles() func(*status.Actor) {
	return func(a *status.Actor) {
		a.Roles = nil
	}
}

// BuildActor creates an actor with modifiers
func BuildActor(modifiers ...func(*status.Actor)) status.Actor {
	actor := ActorFixture()
	for _, modifier := range modifiers {
		modifier(&actor)
	}
	return actor
}

// NewApplication creates a disabled application for the actor
func NewApplication(t *testing.T, actor status.Actor, name, url string) *status.Application {
	t.Helper()

	app, err := status.NewApplication(actor, name, url, "")
	require.NoError(t, err)
	return app
}

// NewEnabledApplication creates an enabled application with committed events
func NewEnabledApplication(t *testing.T, actor status.Actor, name, url string) *status.Application {
	t.Helper()

	app := NewApplication(t, actor, name, url)
	require.NoError(t, app.Enable(actor))
	app.MarkEventsAsCommitted()
	return app
}

// ConfigFor returns the configuration entry of an application
func ConfigFor(app *status.Application, name string) status.ApplicationConfig {
	return status.ApplicationConfig{
		ID:     app.ID(),
		AppKey: app.AppKey(),
		Name:   name,
		URL:    app.Endpoint().URL,
	}
}
