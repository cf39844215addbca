package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lllypuk/statuswatch/internal/domain/status"
	"github.com/lllypuk/statuswatch/internal/domain/uuid"
)

// SyncReport summarises one orphan detection pass.
type SyncReport struct {
	Tenants       int
	Applications  int
	Orphans       []uuid.UUID
	FailedTenants []string
	URLsSynced    int
}

// SynchronizeData lists every status record, looks up its configuration
// entry and reports records without one. Nothing is deleted.
func (m *Manager) SynchronizeData(ctx context.Context) (SyncReport, error) {
	apps, err := m.repo.Find(ctx, status.Filter{})
	if err != nil {
		return SyncReport{}, fmt.Errorf("find applications: %w", err)
	}

	byTenant := groupByTenant(apps)
	report := SyncReport{
		Tenants:       len(byTenant),
		Applications:  len(apps),
		Orphans:       make([]uuid.UUID, 0),
		FailedTenants: make([]string, 0),
	}

	for tenantID, tenantApps := range byTenant {
		if err = ctx.Err(); err != nil {
			return report, err
		}

		configs, fetchErr := m.store.GetConfiguration(ctx, tenantID)
		if fetchErr != nil {
			m.logger.WarnContext(ctx, "orphan check skipped: configuration unavailable",
				slog.String("tenant_id", tenantID),
				slog.String("error", fetchErr.Error()))
			report.FailedTenants = append(report.FailedTenants, tenantID)
			continue
		}

		_, orphans := status.Join(configs, tenantApps)
		for _, app := range orphans {
			m.logger.InfoContext(ctx, "orphan status record, candidate for removal",
				slog.String("application_id", app.ID().String()),
				slog.String("app_key", app.AppKey()),
				slog.String("tenant_id", tenantID))
			report.Orphans = append(report.Orphans, app.ID())
		}
	}

	m.logger.InfoContext(ctx, "orphan check completed",
		slog.Int("tenants", report.Tenants),
		slog.Int("applications", report.Applications),
		slog.Int("orphans", len(report.Orphans)),
		slog.Int("failed_tenants", len(report.FailedTenants)))

	return report, nil
}

// SyncEndpointURLs copies the configured URL onto every enabled status record
// whose polled URL differs from it. Only the URL is written, so a concurrent
// state change is kept. The scheduler restarts a changed task on its next scan.
func (m *Manager) SyncEndpointURLs(ctx context.Context) (int, error) {
	views, err := m.GetActiveApplications(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, view := range views {
		app := view.Status
		previous := app.Endpoint().URL
		if !app.SyncURL(view.Config.URL) {
			continue
		}

		found, saveErr := m.repo.SaveURL(ctx, app)
		if saveErr != nil {
			return synced, fmt.Errorf("save url of application %s: %w", app.ID(), saveErr)
		}
		if !found {
			continue
		}

		synced++
		m.logger.InfoContext(ctx, "endpoint url synced from configuration",
			slog.String("application_id", app.ID().String()),
			slog.String("tenant_id", app.TenantID()),
			slog.String("previous_url", previous),
			slog.String("url", app.Endpoint().URL))
	}
	return synced, nil
}
