package status

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lllypuk/statuswatch/internal/application/appcore"
	"github.com/lllypuk/statuswatch/internal/domain/event"
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

// ChangeStateUseCase включает, выключает или переключает опрос приложения
type ChangeStateUseCase struct {
	repo       status.Repository
	reconciler Reconciler
	bus        event.Bus
	stopper    TaskStopper
	logger     *slog.Logger
}

// NewChangeStateUseCase создает use case. stopper may be nil.
func NewChangeStateUseCase(
	repo status.Repository,
	reconciler Reconciler,
	bus event.Bus,
	stopper TaskStopper,
	logger *slog.Logger,
) *ChangeStateUseCase {
	return &ChangeStateUseCase{
		repo:       repo,
		reconciler: reconciler,
		bus:        bus,
		stopper:    stopper,
		logger:     loggerOrDefault(logger),
	}
}

// Execute выполняет изменение
func (uc *ChangeStateUseCase) Execute(ctx context.Context, cmd ChangeStateCommand) (Result, error) {
	if err := uc.validate(cmd); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	app, err := loadForActor(ctx, uc.repo, cmd.Actor, cmd.AppKey)
	if err != nil {
		return Result{}, err
	}

	switch cmd.Action {
	case ActionEnable:
		err = app.Enable(cmd.Actor)
	case ActionDisable:
		err = app.Disable(cmd.Actor)
	case ActionToggle:
		err = app.Toggle(cmd.Actor)
	}
	if err != nil {
		return Result{}, err
	}

	if len(app.GetUncommittedEvents()) == 0 {
		return Result{Result: appcore.Result[status.View]{Value: mergeBestEffort(ctx, uc.reconciler, uc.logger, app)}}, nil
	}

	if err = uc.repo.Save(ctx, app); err != nil {
		return Result{}, fmt.Errorf("failed to save application: %w", err)
	}
	if !app.IsEnabled() && uc.stopper != nil {
		uc.stopper.Stop(app.ID())
	}
	uc.logger.InfoContext(ctx, "application state changed",
		slog.String("application_id", app.ID().String()),
		slog.String("action", string(cmd.Action)),
		slog.Bool("enabled", app.IsEnabled()))

	view := mergeBestEffort(ctx, uc.reconciler, uc.logger, app)
	app.DescribeEvents(view.Config)
	appcore.PublishEvents(ctx, uc.bus, uc.logger, app)

	return Result{Result: appcore.Result[status.View]{Value: view}}, nil
}

func (uc *ChangeStateUseCase) validate(cmd ChangeStateCommand) error {
	if err := validateTarget(cmd.Actor, cmd.AppKey); err != nil {
		return err
	}
	return appcore.ValidateEnum("action", string(cmd.Action),
		[]string{string(ActionEnable), string(ActionDisable), string(ActionToggle)})
}
