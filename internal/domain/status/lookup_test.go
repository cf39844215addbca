package status_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
	"github.com/lllypuk/statuswatch/internal/domain/status"
	"github.com/lllypuk/statuswatch/internal/infrastructure/repository/memory"
	"github.com/lllypuk/statuswatch/tests/testutil"
)

func TestFindForTenant(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewApplicationRepository()
	owner := testutil.ActorFixture()
	app := testutil.NewApplication(t, owner, "Billing", "https://billing.example.com")
	require.NoError(t, repo.Create(ctx, app))

	found, err := status.FindForTenant(ctx, repo, owner.TenantID, app.AppKey())
	require.NoError(t, err)
	assert.Equal(t, app.ID(), found.ID())

	_, err = status.FindForTenant(ctx, repo, "tenant-other", app.AppKey())
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.NotErrorIs(t, err, errs.ErrNotFound)

	_, err = status.FindForTenant(ctx, repo, "tenant-other", "acme-unknown")
	require.ErrorIs(t, err, errs.ErrNotFound)
}
