package status

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lllypuk/statuswatch/internal/application/appcore"
	"github.com/lllypuk/statuswatch/internal/domain/event"
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

// SetStatusUseCase ручная установка статуса оператором
type SetStatusUseCase struct {
	repo       status.Repository
	reconciler Reconciler
	bus        event.Bus
	logger     *slog.Logger
}

// NewSetStatusUseCase создает use case
func NewSetStatusUseCase(
	repo status.Repository,
	reconciler Reconciler,
	bus event.Bus,
	logger *slog.Logger,
) *SetStatusUseCase {
	return &SetStatusUseCase{repo: repo, reconciler: reconciler, bus: bus, logger: loggerOrDefault(logger)}
}

// Execute выполняет установку статуса
func (uc *SetStatusUseCase) Execute(ctx context.Context, cmd SetStatusCommand) (Result, error) {
	if err := validateTarget(cmd.Actor, cmd.AppKey); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}
	if _, err := status.ParseStatus(string(cmd.Status)); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	app, err := loadForActor(ctx, uc.repo, cmd.Actor, cmd.AppKey)
	if err != nil {
		return Result{}, err
	}
	if err = app.SetStatus(cmd.Actor, cmd.Status); err != nil {
		return Result{}, err
	}

	changed := len(app.GetUncommittedEvents()) > 0
	if changed {
		if err = uc.repo.Save(ctx, app); err != nil {
			return Result{}, fmt.Errorf("failed to save application: %w", err)
		}
	}

	view := mergeBestEffort(ctx, uc.reconciler, uc.logger, app)
	if changed {
		app.DescribeEvents(view.Config)
		appcore.PublishEvents(ctx, uc.bus, uc.logger, app)
	}
	return Result{Result: appcore.Result[status.View]{Value: view}}, nil
}
