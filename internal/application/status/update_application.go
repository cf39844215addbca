package status

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lllypuk/statuswatch/internal/application/appcore"
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

// UpdateApplicationUseCase меняет имя, описание и URL приложения.
// appKey не меняется.
type UpdateApplicationUseCase struct {
	repo   status.Repository
	store  status.ConfigStore
	logger *slog.Logger
}

// NewUpdateApplicationUseCase создает use case обновления приложения
func NewUpdateApplicationUseCase(
	repo status.Repository,
	store status.ConfigStore,
	logger *slog.Logger,
) *UpdateApplicationUseCase {
	return &UpdateApplicationUseCase{repo: repo, store: store, logger: loggerOrDefault(logger)}
}

// Execute выполняет обновление
func (uc *UpdateApplicationUseCase) Execute(ctx context.Context, cmd UpdateApplicationCommand) (Result, error) {
	if err := uc.validate(cmd); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	app, err := loadForActor(ctx, uc.repo, cmd.Actor, cmd.AppKey)
	if err != nil {
		return Result{}, err
	}
	if err = app.UpdateDetails(cmd.Actor, cmd.URL, cmd.Metadata); err != nil {
		return Result{}, err
	}

	cfg := status.ApplicationConfig{
		ID:          app.ID(),
		AppKey:      app.AppKey(),
		Name:        cmd.Name,
		Description: cmd.Description,
		URL:         cmd.URL,
	}
	patch := status.ConfigPatch{Operation: status.PatchUpdate, Key: app.ID().String(), Value: &cfg}
	if err = uc.store.PatchConfiguration(ctx, app.TenantID(), patch); err != nil {
		return Result{}, fmt.Errorf("failed to write configuration: %w", err)
	}

	if err = uc.repo.Save(ctx, app); err != nil {
		return Result{}, fmt.Errorf("failed to save application: %w", err)
	}

	uc.logger.InfoContext(ctx, "application updated",
		slog.String("application_id", app.ID().String()),
		slog.String("app_key", app.AppKey()))

	return Result{Result: appcore.Result[status.View]{Value: status.NewView(cfg, app)}}, nil
}

func (uc *UpdateApplicationUseCase) validate(cmd UpdateApplicationCommand) error {
	if err := validateTarget(cmd.Actor, cmd.AppKey); err != nil {
		return err
	}
	if err := appcore.ValidateRequired("name", cmd.Name); err != nil {
		return err
	}
	if err := appcore.ValidateMaxLength("name", cmd.Name, appcore.MaxNameLength); err != nil {
		return err
	}
	if err := appcore.ValidateMaxLength("description", cmd.Description, appcore.MaxDescriptionLength); err != nil {
		return err
	}
	return appcore.ValidateHTTPURL("url", cmd.URL)
}
