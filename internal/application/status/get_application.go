package status

import (
	"context"
	"fmt"

	"github.com/lllypuk/statuswatch/internal/application/appcore"
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

// GetApplicationUseCase возвращает приложение по appKey
type GetApplicationUseCase struct {
	reconciler Reconciler
}

// NewGetApplicationUseCase создает use case получения приложения
func NewGetApplicationUseCase(reconciler Reconciler) *GetApplicationUseCase {
	return &GetApplicationUseCase{reconciler: reconciler}
}

// Execute выполняет запрос
func (uc *GetApplicationUseCase) Execute(ctx context.Context, query GetApplicationQuery) (Result, error) {
	if err := validateTarget(query.Actor, query.AppKey); err != nil {
		return Result{}, fmt.Errorf("validation failed: %w", err)
	}

	view, err := uc.reconciler.FindByAppKey(ctx, query.Actor.TenantID, query.AppKey)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get application: %w", err)
	}
	if err = view.Status.CheckAccess(query.Actor); err != nil {
		return Result{}, err
	}

	return Result{Result: appcore.Result[status.View]{Value: view}}, nil
}
