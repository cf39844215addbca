package status

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lllypuk/statuswatch/internal/application/appcore"
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

func validateActor(actor status.Actor) error {
	if actor.TenantID == "" {
		return appcore.NewValidationError("tenantId", "is required")
	}
	return nil
}

func validateTarget(actor status.Actor, appKey string) error {
	if err := validateActor(actor); err != nil {
		return err
	}
	return appcore.ValidateRequired("appKey", appKey)
}

// loadForActor finds the actor's application by slug. Another tenant's
// application yields errs.ErrUnauthorized.
func loadForActor(
	ctx context.Context,
	repo status.Repository,
	actor status.Actor,
	appKey string,
) (*status.Application, error) {
	app, err := status.FindForTenant(ctx, repo, actor.TenantID, appKey)
	if err != nil {
		return nil, fmt.Errorf("failed to find application %s: %w", appKey, err)
	}
	if err = app.CheckAccess(actor); err != nil {
		return nil, err
	}
	return app, nil
}

// mergeBestEffort returns the merged view, or the status-only view when the
// configuration store cannot be reached after a successful change.
func mergeBestEffort(
	ctx context.Context,
	reconciler Reconciler,
	logger *slog.Logger,
	app *status.Application,
) status.View {
	view, err := reconciler.Merge(ctx, app)
	if err != nil {
		logger.WarnContext(ctx, "returning status without configuration",
			slog.String("application_id", app.ID().String()),
			slog.String("error", err.Error()))
		return status.View{
			Config: status.ApplicationConfig{ID: app.ID(), AppKey: app.AppKey(), URL: app.Endpoint().URL},
			Status: app,
		}
	}
	return view
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
