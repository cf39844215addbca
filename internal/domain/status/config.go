package status

import (
	"context"

	"github.com/lllypuk/statuswatch/internal/domain/uuid"
)

// ApplicationConfig is the tenant-authored description of an application,
// owned by the external configuration store. Read-only for this service.
type ApplicationConfig struct {
	ID          uuid.UUID
	AppKey      string
	Name        string
	Description string
	URL         string
}

// View is the read-time join of configuration and status by id.
type View struct {
	Config ApplicationConfig
	Status *Application
}

// NewView joins a config entry with its status record.
func NewView(cfg ApplicationConfig, app *Application) View {
	return View{Config: cfg, Status: app}
}

// URL returns the authoritative endpoint URL.
func (v View) URL() string {
	if v.Config.URL != "" {
		return v.Config.URL
	}
	return v.Status.Endpoint().URL
}

// Join merges config entries with status records by id. Status records with
// no config entry are returned as orphans and excluded from the views.
func Join(configs []ApplicationConfig, apps []*Application) ([]View, []*Application) {
	byID := make(map[uuid.UUID]ApplicationConfig, len(configs))
	for _, cfg := range configs {
		byID[cfg.ID] = cfg
	}

	views := make([]View, 0, len(apps))
	orphans := make([]*Application, 0)
	for _, app := range apps {
		cfg, ok := byID[app.ID()]
		if !ok {
			orphans = append(orphans, app)
			continue
		}
		views = append(views, NewView(cfg, app))
	}
	return views, orphans
}

// PatchOperation is the kind of change sent to the configuration store.
type PatchOperation string

const (
	// PatchUpdate upserts the entry under Key
	PatchUpdate PatchOperation = "UPDATE"
	// PatchDelete removes the entry under Key
	PatchDelete PatchOperation = "DELETE"
)

// ConfigPatch is one change to a tenant's configuration.
type ConfigPatch struct {
	Operation PatchOperation
	Key       string
	Value     *ApplicationConfig
}

// ConfigStore is the external, tenant-scoped configuration service.
// Failures are reported wrapped in errs.ErrUpstreamUnavailable.
type ConfigStore interface {
	// GetConfiguration returns the valid application entries of a tenant
	GetConfiguration(ctx context.Context, tenantID string) ([]ApplicationConfig, error)

	// PatchConfiguration applies one change
	PatchConfiguration(ctx context.Context, tenantID string, patch ConfigPatch) error
}
