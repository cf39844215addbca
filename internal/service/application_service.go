package service

import (
	"context"

	statusapp "github.com/lllypuk/statuswatch/internal/application/status"
	"github.com/lllypuk/statuswatch/internal/domain/status"
	httphandler "github.com/lllypuk/statuswatch/internal/handler/http"
)

// Compile-time assertion that ApplicationService implements httphandler.ApplicationService.
var _ httphandler.ApplicationService = (*ApplicationService)(nil)

// ListApplicationsUseCase определяет интерфейс для use case списка приложений.
type ListApplicationsUseCase interface {
	Execute(ctx context.Context, query statusapp.ListApplicationsQuery) (statusapp.ListResult, error)
}

// GetApplicationUseCase определяет интерфейс для use case получения приложения.
type GetApplicationUseCase interface {
	Execute(ctx context.Context, query statusapp.GetApplicationQuery) (statusapp.Result, error)
}

// CreateApplicationUseCase определяет интерфейс для use case регистрации приложения.
type CreateApplicationUseCase interface {
	Execute(ctx context.Context, cmd statusapp.CreateApplicationCommand) (statusapp.Result, error)
}

// UpdateApplicationUseCase определяет интерфейс для use case обновления приложения.
type UpdateApplicationUseCase interface {
	Execute(ctx context.Context, cmd statusapp.UpdateApplicationCommand) (statusapp.Result, error)
}

// DeleteApplicationUseCase определяет интерфейс для use case удаления приложения.
type DeleteApplicationUseCase interface {
	Execute(ctx context.Context, cmd statusapp.DeleteApplicationCommand) (statusapp.Result, error)
}

// ChangeStateUseCase определяет интерфейс для enable/disable/toggle.
type ChangeStateUseCase interface {
	Execute(ctx context.Context, cmd statusapp.ChangeStateCommand) (statusapp.Result, error)
}

// SetStatusUseCase определяет интерфейс для ручной установки статуса.
type SetStatusUseCase interface {
	Execute(ctx context.Context, cmd statusapp.SetStatusCommand) (statusapp.Result, error)
}

// GetEndpointEntriesUseCase определяет интерфейс для истории опроса.
type GetEndpointEntriesUseCase interface {
	Execute(ctx context.Context, query statusapp.GetEndpointEntriesQuery) (statusapp.EntriesResult, error)
}

// ApplicationServiceConfig содержит зависимости для ApplicationService.
type ApplicationServiceConfig struct {
	ListUC    ListApplicationsUseCase
	GetUC     GetApplicationUseCase
	CreateUC  CreateApplicationUseCase
	UpdateUC  UpdateApplicationUseCase
	DeleteUC  DeleteApplicationUseCase
	StateUC   ChangeStateUseCase
	StatusUC  SetStatusUseCase
	EntriesUC GetEndpointEntriesUseCase
}

// ApplicationService реализует httphandler.ApplicationService поверх use cases.
type ApplicationService struct {
	listUC    ListApplicationsUseCase
	getUC     GetApplicationUseCase
	createUC  CreateApplicationUseCase
	updateUC  UpdateApplicationUseCase
	deleteUC  DeleteApplicationUseCase
	stateUC   ChangeStateUseCase
	statusUC  SetStatusUseCase
	entriesUC GetEndpointEntriesUseCase
}

// NewApplicationService создаёт новый ApplicationService.
func NewApplicationService(cfg ApplicationServiceConfig) *ApplicationService {
	return &ApplicationService{
		listUC:    cfg.ListUC,
		getUC:     cfg.GetUC,
		createUC:  cfg.CreateUC,
		updateUC:  cfg.UpdateUC,
		deleteUC:  cfg.DeleteUC,
		stateUC:   cfg.StateUC,
		statusUC:  cfg.StatusUC,
		entriesUC: cfg.EntriesUC,
	}
}

// ListApplications возвращает приложения тенанта актора.
func (s *ApplicationService) ListApplications(ctx context.Context, actor status.Actor) ([]status.View, error) {
	result, err := s.listUC.Execute(ctx, statusapp.ListApplicationsQuery{Actor: actor})
	if err != nil {
		return nil, err
	}
	return result.Applications, nil
}

// GetApplication возвращает приложение по appKey.
func (s *ApplicationService) GetApplication(
	ctx context.Context,
	actor status.Actor,
	appKey string,
) (status.View, error) {
	return value(s.getUC.Execute(ctx, statusapp.GetApplicationQuery{Actor: actor, AppKey: appKey}))
}

// CreateApplication регистрирует приложение.
func (s *ApplicationService) CreateApplication(
	ctx context.Context,
	cmd statusapp.CreateApplicationCommand,
) (status.View, error) {
	return value(s.createUC.Execute(ctx, cmd))
}

// UpdateApplication обновляет описание приложения.
func (s *ApplicationService) UpdateApplication(
	ctx context.Context,
	cmd statusapp.UpdateApplicationCommand,
) (status.View, error) {
	return value(s.updateUC.Execute(ctx, cmd))
}

// DeleteApplication удаляет приложение.
func (s *ApplicationService) DeleteApplication(ctx context.Context, cmd statusapp.DeleteApplicationCommand) error {
	_, err := s.deleteUC.Execute(ctx, cmd)
	return err
}

// ChangeState включает, выключает или переключает опрос.
func (s *ApplicationService) ChangeState(
	ctx context.Context,
	cmd statusapp.ChangeStateCommand,
) (status.View, error) {
	return value(s.stateUC.Execute(ctx, cmd))
}

// SetStatus устанавливает статус вручную.
func (s *ApplicationService) SetStatus(ctx context.Context, cmd statusapp.SetStatusCommand) (status.View, error) {
	return value(s.statusUC.Execute(ctx, cmd))
}

// GetEndpointEntries возвращает последние результаты опроса.
func (s *ApplicationService) GetEndpointEntries(
	ctx context.Context,
	query statusapp.GetEndpointEntriesQuery,
) (statusapp.EntriesResult, error) {
	return s.entriesUC.Execute(ctx, query)
}

func value(result statusapp.Result, err error) (status.View, error) {
	if err != nil {
		return status.View{}, err
	}
	return result.Value, nil
}
