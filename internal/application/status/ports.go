package status

import (
	"context"

	"github.com/lllypuk/statuswatch/internal/domain/status"
	"github.com/lllypuk/statuswatch/internal/domain/uuid"
)

// Reconciler returns merged application views.
// Интерфейс объявлен на стороне потребителя (application layer)
type Reconciler interface {
	GetTenantApplications(ctx context.Context, tenantID string) ([]status.View, error)
	FindByAppKey(ctx context.Context, tenantID, appKey string) (status.View, error)
	Merge(ctx context.Context, app *status.Application) (status.View, error)
}

// TaskStopper stops the polling task of an application and waits for it.
// Only available when the scheduler runs in the same process.
type TaskStopper interface {
	Stop(id uuid.UUID)
}
