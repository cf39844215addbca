package status

import (
	"context"
	"errors"
	"fmt"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
)

// FindForTenant returns the tenant's record with the given appKey. A key
// that exists only under other tenants yields errs.ErrUnauthorized; a key
// unknown everywhere yields errs.ErrNotFound.
func FindForTenant(ctx context.Context, repo Repository, tenantID, appKey string) (*Application, error) {
	app, err := repo.FindByAppKey(ctx, tenantID, appKey)
	if err == nil || !errors.Is(err, errs.ErrNotFound) {
		return app, err
	}

	others, findErr := repo.Find(ctx, Filter{AppKey: appKey})
	if findErr != nil {
		return nil, errors.Join(err, findErr)
	}
	if len(others) > 0 {
		return nil, fmt.Errorf("%w: application %s belongs to another tenant", errs.ErrUnauthorized, appKey)
	}
	return nil, err
}
