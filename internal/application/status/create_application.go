package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lllypuk/statuswatch/internal/application/appcore"
	"github.com/lllypuk/statuswatch/internal/domain/errs"
	"github.com/lllypuk/statuswatch/internal/domain/event"
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

// CreateApplicationUseCase регистрирует приложение: запись статуса, затем
// запись в конфигурации тенанта.
type CreateApplicationUseCase struct {
	repo   status.Repository
	store  status.ConfigStore
	bus    event.Bus
	logger *slog.Logger
}

// NewCreateApplicationUseCase создает use case регистрации приложения
func NewCreateApplicationUseCase(
	repo status.Repository,
	store status.ConfigStore,
	bus event.Bus,
	logger *slog.Logger,
) *CreateApplicationUseCase {
	return &CreateApplicationUseCase{
		repo:   repo,
		store:  store,
		bus:    bus,
		logger: loggerOrDefault(logger),
	}
}

// Execute выполняет регистрацию
func (uc *CreateApplicationUseCase) Execute(ctx context.Context, cmd CreateApplicationCommand) (Result, error) {
	if err := uc.validate(cmd); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	app, err := status.NewApplication(cmd.Actor, cmd.Name, cmd.URL, cmd.Metadata)
	if err != nil {
		return Result{}, err
	}

	if err = uc.repo.Create(ctx, app); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return Result{}, fmt.Errorf("%w: application %s: %w", errs.ErrInvalidOperation, app.AppKey(), err)
		}
		return Result{}, fmt.Errorf("failed to create application: %w", err)
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
		uc.rollback(ctx, app)
		return Result{}, fmt.Errorf("failed to write configuration: %w", err)
	}

	uc.logger.InfoContext(ctx, "application created",
		slog.String("application_id", app.ID().String()),
		slog.String("app_key", app.AppKey()),
		slog.String("tenant_id", app.TenantID()))

	app.DescribeEvents(cfg)
	appcore.PublishEvents(ctx, uc.bus, uc.logger, app)
	return Result{Result: appcore.Result[status.View]{Value: status.NewView(cfg, app)}}, nil
}

// rollback removes the status record when the configuration entry could not be written.
func (uc *CreateApplicationUseCase) rollback(ctx context.Context, app *status.Application) {
	if _, err := uc.repo.Delete(context.WithoutCancel(ctx), app); err != nil {
		uc.logger.ErrorContext(ctx, "failed to remove status record after configuration error",
			slog.String("application_id", app.ID().String()),
			slog.String("error", err.Error()))
	}
}

func (uc *CreateApplicationUseCase) validate(cmd CreateApplicationCommand) error {
	if err := validateActor(cmd.Actor); err != nil {
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
