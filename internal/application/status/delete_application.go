package status

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lllypuk/statuswatch/internal/application/appcore"
	"github.com/lllypuk/statuswatch/internal/domain/errs"
	"github.com/lllypuk/statuswatch/internal/domain/event"
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

// DeleteApplicationUseCase удаляет приложение. Порядок: выключение опроса,
// удаление записи статуса, удаление записи конфигурации.
type DeleteApplicationUseCase struct {
	repo    status.Repository
	store   status.ConfigStore
	bus     event.Bus
	stopper TaskStopper
	logger  *slog.Logger
}

// NewDeleteApplicationUseCase создает use case удаления. stopper may be nil
// when the scheduler runs in another process.
func NewDeleteApplicationUseCase(
	repo status.Repository,
	store status.ConfigStore,
	bus event.Bus,
	stopper TaskStopper,
	logger *slog.Logger,
) *DeleteApplicationUseCase {
	return &DeleteApplicationUseCase{
		repo:    repo,
		store:   store,
		bus:     bus,
		stopper: stopper,
		logger:  loggerOrDefault(logger),
	}
}

// Execute выполняет удаление
func (uc *DeleteApplicationUseCase) Execute(ctx context.Context, cmd DeleteApplicationCommand) (Result, error) {
	if err := validateTarget(cmd.Actor, cmd.AppKey); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	app, err := loadForActor(ctx, uc.repo, cmd.Actor, cmd.AppKey)
	if err != nil {
		return Result{}, err
	}
	if err = app.Delete(cmd.Actor); err != nil {
		return Result{}, err
	}

	// A scheduler in another process sees the disabled record and drops the task.
	if app.IsEnabled() {
		if err = app.Disable(cmd.Actor); err != nil {
			return Result{}, err
		}
		if err = uc.repo.Save(ctx, app); err != nil {
			return Result{}, fmt.Errorf("failed to disable application: %w", err)
		}
		uc.describe(ctx, app)
		appcore.PublishEvents(ctx, uc.bus, uc.logger, app)
	}
	if uc.stopper != nil {
		uc.stopper.Stop(app.ID())
	}

	deleted, err := uc.repo.Delete(ctx, app)
	if err != nil {
		return Result{}, fmt.Errorf("failed to delete application: %w", err)
	}
	if !deleted {
		return Result{}, fmt.Errorf("application %s: %w", cmd.AppKey, errs.ErrNotFound)
	}

	patch := status.ConfigPatch{Operation: status.PatchDelete, Key: app.ID().String()}
	if err = uc.store.PatchConfiguration(ctx, app.TenantID(), patch); err != nil {
		// the status record is gone; the leftover entry has no status and is never polled
		return Result{}, fmt.Errorf("failed to remove configuration: %w", err)
	}

	uc.logger.InfoContext(ctx, "application deleted",
		slog.String("application_id", app.ID().String()),
		slog.String("app_key", app.AppKey()),
		slog.String("tenant_id", app.TenantID()))

	view := status.View{
		Config: status.ApplicationConfig{ID: app.ID(), AppKey: app.AppKey(), URL: app.Endpoint().URL},
		Status: app,
	}
	return Result{Result: appcore.Result[status.View]{Value: view}}, nil
}

// describe adds the configured name to the queued events; the entry is
// removed right after, so this is the last chance to read it.
func (uc *DeleteApplicationUseCase) describe(ctx context.Context, app *status.Application) {
	configs, err := uc.store.GetConfiguration(ctx, app.TenantID())
	if err != nil {
		return
	}
	for _, cfg := range configs {
		if cfg.ID == app.ID() {
			app.DescribeEvents(cfg)
			return
		}
	}
}
