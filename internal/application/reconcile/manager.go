// Package reconcile joins tenant configuration with runtime status records.
package reconcile

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
	"github.com/lllypuk/statuswatch/internal/domain/status"
	"github.com/lllypuk/statuswatch/internal/domain/uuid"
)

// DefaultConcurrency limits parallel per-tenant configuration fetches.
const DefaultConcurrency = 8

// Manager merges configuration and status into application views.
type Manager struct {
	repo        status.Repository
	store       status.ConfigStore
	logger      *slog.Logger
	concurrency int
}

// Option configures Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithConcurrency sets the tenant fan-out limit.
func WithConcurrency(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// NewManager creates a new Manager.
func NewManager(repo status.Repository, store status.ConfigStore, opts ...Option) *Manager {
	m := &Manager{
		repo:        repo,
		store:       store,
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetActiveApplications returns merged views of every enabled application
// across tenants. A tenant whose configuration cannot be fetched contributes
// nothing; only a repository failure is returned.
func (m *Manager) GetActiveApplications(ctx context.Context) ([]status.View, error) {
	apps, err := m.repo.FindEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("find enabled applications: %w", err)
	}

	var (
		mu    sync.Mutex
		views = make([]status.View, 0, len(apps))
	)

	byTenant := groupByTenant(apps)
	g := new(errgroup.Group)
	g.SetLimit(m.concurrency)

	for tenantID, tenantApps := range byTenant {
		g.Go(func() error {
			configs, fetchErr := m.store.GetConfiguration(ctx, tenantID)
			if fetchErr != nil {
				m.logger.WarnContext(ctx, "skipping tenant: configuration unavailable",
					slog.String("tenant_id", tenantID),
					slog.Int("applications", len(tenantApps)),
					slog.String("error", fetchErr.Error()))
				return nil
			}

			joined, orphans := status.Join(configs, tenantApps)
			m.logOrphans(ctx, orphans)

			mu.Lock()
			views = append(views, joined...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	sortViews(views)
	return views, nil
}

// GetTenantApplications returns the merged views of one tenant, enabled or not.
func (m *Manager) GetTenantApplications(ctx context.Context, tenantID string) ([]status.View, error) {
	apps, err := m.repo.Find(ctx, status.Filter{TenantID: tenantID})
	if err != nil {
		return nil, fmt.Errorf("find tenant applications: %w", err)
	}

	configs, err := m.fetch(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	views, orphans := status.Join(configs, apps)
	m.logOrphans(ctx, orphans)
	sortViews(views)
	return views, nil
}

// GetApplication returns the merged view of one application.
func (m *Manager) GetApplication(ctx context.Context, tenantID string, id uuid.UUID) (status.View, error) {
	app, err := m.repo.Get(ctx, id)
	if err != nil {
		return status.View{}, fmt.Errorf("get application %s: %w", id, err)
	}
	if app.TenantID() != tenantID {
		return status.View{}, fmt.Errorf("application %s: %w", id, errs.ErrUnauthorized)
	}
	return m.merge(ctx, app)
}

// FindByAppKey returns the merged view of an application by its slug.
// A slug owned only by other tenants yields errs.ErrUnauthorized.
func (m *Manager) FindByAppKey(ctx context.Context, tenantID, appKey string) (status.View, error) {
	app, err := status.FindForTenant(ctx, m.repo, tenantID, appKey)
	if err != nil {
		return status.View{}, fmt.Errorf("find application %s: %w", appKey, err)
	}
	return m.merge(ctx, app)
}

// Merge joins an already loaded status record with its configuration entry.
func (m *Manager) Merge(ctx context.Context, app *status.Application) (status.View, error) {
	return m.merge(ctx, app)
}

func (m *Manager) merge(ctx context.Context, app *status.Application) (status.View, error) {
	configs, err := m.fetch(ctx, app.TenantID())
	if err != nil {
		return status.View{}, err
	}

	for _, cfg := range configs {
		if cfg.ID == app.ID() {
			return status.NewView(cfg, app), nil
		}
	}

	m.logOrphans(ctx, []*status.Application{app})
	return status.View{}, fmt.Errorf("configuration of application %s: %w", app.ID(), errs.ErrNotFound)
}

func (m *Manager) fetch(ctx context.Context, tenantID string) ([]status.ApplicationConfig, error) {
	configs, err := m.store.GetConfiguration(ctx, tenantID)
	if err == nil {
		return configs, nil
	}
	if errors.Is(err, errs.ErrUpstreamUnavailable) {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, err)
	}
	return nil, fmt.Errorf("tenant %s: %w: %w", tenantID, errs.ErrUpstreamUnavailable, err)
}

func (m *Manager) logOrphans(ctx context.Context, orphans []*status.Application) {
	for _, app := range orphans {
		m.logger.WarnContext(ctx, "status record has no configuration entry",
			slog.String("application_id", app.ID().String()),
			slog.String("app_key", app.AppKey()),
			slog.String("tenant_id", app.TenantID()))
	}
}

func groupByTenant(apps []*status.Application) map[string][]*status.Application {
	byTenant := make(map[string][]*status.Application)
	for _, app := range apps {
		byTenant[app.TenantID()] = append(byTenant[app.TenantID()], app)
	}
	return byTenant
}

func sortViews(views []status.View) {
	slices.SortFunc(views, func(a, b status.View) int {
		return cmp.Or(
			cmp.Compare(a.Status.TenantID(), b.Status.TenantID()),
			cmp.Compare(a.Status.AppKey(), b.Status.AppKey()),
		)
	})
}
