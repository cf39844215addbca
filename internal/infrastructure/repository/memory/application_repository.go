// Package memory provides in-process repositories used in mock mode and tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
	"github.com/lllypuk/statuswatch/internal/domain/status"
	"github.com/lllypuk/statuswatch/internal/domain/uuid"
)

// ApplicationRepository keeps status records in memory. Records are stored
// as state copies, so every load returns an independent aggregate.
type ApplicationRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]status.State
}

// NewApplicationRepository creates an empty repository.
func NewApplicationRepository() *ApplicationRepository {
	return &ApplicationRepository{records: make(map[uuid.UUID]status.State)}
}

// Find returns records matching the filter.
func (r *ApplicationRepository) Find(_ context.Context, filter status.Filter) ([]*status.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*status.Application, 0)
	for _, s := range r.records {
		if filter.TenantID != "" && s.TenantID != filter.TenantID {
			continue
		}
		if filter.AppKey != "" && s.AppKey != filter.AppKey {
			continue
		}
		if filter.Enabled != nil && s.Enabled != *filter.Enabled {
			continue
		}
		result = append(result, status.Reconstruct(s))
	}

	slices.SortFunc(result, func(a, b *status.Application) int {
		return cmp.Or(cmp.Compare(a.TenantID(), b.TenantID()), cmp.Compare(a.AppKey(), b.AppKey()))
	})
	return result, nil
}

// FindEnabled returns every enabled record.
func (r *ApplicationRepository) FindEnabled(ctx context.Context) ([]*status.Application, error) {
	enabled := true
	return r.Find(ctx, status.Filter{Enabled: &enabled})
}

// Get returns a record by id.
func (r *ApplicationRepository) Get(_ context.Context, id uuid.UUID) (*status.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.records[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return status.Reconstruct(s), nil
}

// FindByAppKey returns a tenant's record by slug.
func (r *ApplicationRepository) FindByAppKey(_ context.Context, tenantID, appKey string) (*status.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.records {
		if s.TenantID == tenantID && s.AppKey == appKey {
			return status.Reconstruct(s), nil
		}
	}
	return nil, errs.ErrNotFound
}

// Create inserts a new record.
func (r *ApplicationRepository) Create(_ context.Context, app *status.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[app.ID()]; ok {
		return fmt.Errorf("application %s: %w", app.ID(), errs.ErrAlreadyExists)
	}
	for _, s := range r.records {
		if s.TenantID == app.TenantID() && s.AppKey == app.AppKey() {
			return fmt.Errorf("app key %s: %w", app.AppKey(), errs.ErrAlreadyExists)
		}
	}
	r.records[app.ID()] = app.State()
	return nil
}

// Save writes the record.
func (r *ApplicationRepository) Save(_ context.Context, app *status.Application) error {
	if app == nil {
		return errs.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[app.ID()] = app.State()
	return nil
}

// SaveTransition copies the poll result fields onto the stored record while
// it is still enabled, of the same generation and in status expected.
func (r *ApplicationRepository) SaveTransition(
	_ context.Context,
	app *status.Application,
	expected status.Status,
) (bool, error) {
	if app == nil {
		return false, errs.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.records[app.ID()]
	if !ok || !stored.Enabled || stored.Generation != app.Generation() || stored.Status != expected {
		return false, nil
	}

	next := app.State()
	stored.Status = next.Status
	stored.InternalStatus = next.InternalStatus
	stored.StatusTimestamp = next.StatusTimestamp
	stored.Endpoint.Status = next.Endpoint.Status
	stored.UpdatedAt = next.UpdatedAt
	r.records[app.ID()] = stored
	return true, nil
}

// SaveURL copies the endpoint URL onto the stored record.
func (r *ApplicationRepository) SaveURL(_ context.Context, app *status.Application) (bool, error) {
	if app == nil {
		return false, errs.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.records[app.ID()]
	if !ok {
		return false, nil
	}
	stored.Endpoint.URL = app.Endpoint().URL
	stored.UpdatedAt = app.UpdatedAt()
	r.records[app.ID()] = stored
	return true, nil
}

// Delete removes the record.
func (r *ApplicationRepository) Delete(_ context.Context, app *status.Application) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[app.ID()]; !ok {
		return false, nil
	}
	delete(r.records, app.ID())
	return true, nil
}

var _ status.Repository = (*ApplicationRepository)(nil)
