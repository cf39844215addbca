package status

import (
	"context"

	"github.com/lllypuk/statuswatch/internal/domain/uuid"
)

// Filter selects status records. Zero fields do not filter.
type Filter struct {
	TenantID string
	AppKey   string
	Enabled  *bool
}

// Repository stores status records.
type Repository interface {
	// Find returns records matching the filter
	Find(ctx context.Context, filter Filter) ([]*Application, error)

	// FindEnabled returns every enabled record across tenants
	FindEnabled(ctx context.Context) ([]*Application, error)

	// Get returns a record by id or errs.ErrNotFound
	Get(ctx context.Context, id uuid.UUID) (*Application, error)

	// FindByAppKey returns a tenant's record by slug or errs.ErrNotFound
	FindByAppKey(ctx context.Context, tenantID, appKey string) (*Application, error)

	// Create inserts a new record; a duplicate appKey within the tenant
	// yields errs.ErrAlreadyExists
	Create(ctx context.Context, app *Application) error

	// Save writes the record, last write wins
	Save(ctx context.Context, app *Application) error

	// SaveTransition writes only the poll result fields (status, internal
	// status, status timestamp, endpoint state). The write applies only while
	// the stored record is enabled, has app's generation and still carries
	// status expected; otherwise nothing is written and false is returned.
	// A deleted record is never recreated.
	SaveTransition(ctx context.Context, app *Application, expected Status) (bool, error)

	// SaveURL writes only the endpoint URL of an existing record and reports
	// whether the record was found
	SaveURL(ctx context.Context, app *Application) (bool, error)

	// Delete removes the record and reports whether it existed
	Delete(ctx context.Context, app *Application) (bool, error)
}

// HistoryStore keeps the append-only poll history.
type HistoryStore interface {
	// Append stores one entry
	Append(ctx context.Context, entry EndpointStatusEntry) error

	// FindRecentByURLAndApplicationID returns the newest entries first
	FindRecentByURLAndApplicationID(
		ctx context.Context,
		url string,
		applicationID uuid.UUID,
		limit int,
	) ([]EndpointStatusEntry, error)
}
