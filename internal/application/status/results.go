package status

import (
	"github.com/lllypuk/statuswatch/internal/application/appcore"
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

// Result результат операции над одним приложением
type Result struct {
	appcore.Result[status.View]
}

// ListResult результат запроса списка
type ListResult struct {
	Applications []status.View
}

// EntriesResult результат запроса истории опроса
type EntriesResult struct {
	ApplicationID string
	URL           string
	Entries       []status.EndpointStatusEntry
}

// Compile-time assertions that the use cases share the appcore.UseCase shape.
var (
	_ appcore.UseCase[ListApplicationsQuery, ListResult]      = (*ListApplicationsUseCase)(nil)
	_ appcore.UseCase[GetApplicationQuery, Result]            = (*GetApplicationUseCase)(nil)
	_ appcore.UseCase[CreateApplicationCommand, Result]       = (*CreateApplicationUseCase)(nil)
	_ appcore.UseCase[UpdateApplicationCommand, Result]       = (*UpdateApplicationUseCase)(nil)
	_ appcore.UseCase[DeleteApplicationCommand, Result]       = (*DeleteApplicationUseCase)(nil)
	_ appcore.UseCase[ChangeStateCommand, Result]             = (*ChangeStateUseCase)(nil)
	_ appcore.UseCase[SetStatusCommand, Result]               = (*SetStatusUseCase)(nil)
	_ appcore.UseCase[GetEndpointEntriesQuery, EntriesResult] = (*GetEndpointEntriesUseCase)(nil)
)
