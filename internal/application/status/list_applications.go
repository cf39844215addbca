package status

import (
	"context"
	"fmt"
)

// ListApplicationsUseCase возвращает приложения тенанта
type ListApplicationsUseCase struct {
	reconciler Reconciler
}

// NewListApplicationsUseCase создает use case списка приложений
func NewListApplicationsUseCase(reconciler Reconciler) *ListApplicationsUseCase {
	return &ListApplicationsUseCase{reconciler: reconciler}
}

// Execute выполняет запрос
func (uc *ListApplicationsUseCase) Execute(ctx context.Context, query ListApplicationsQuery) (ListResult, error) {
	if err := validateActor(query.Actor); err != nil {
		return ListResult{}, fmt.Errorf("validation failed: %w", err)
	}

	views, err := uc.reconciler.GetTenantApplications(ctx, query.Actor.TenantID)
	if err != nil {
		return ListResult{}, fmt.Errorf("failed to list applications: %w", err)
	}
	return ListResult{Applications: views}, nil
}
