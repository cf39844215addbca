package configstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
	"github.com/lllypuk/statuswatch/internal/domain/status"
	"github.com/lllypuk/statuswatch/internal/domain/uuid"
	"github.com/lllypuk/statuswatch/internal/infrastructure/configstore"
)

func TestMemoryStore(t *testing.T) {
	store := configstore.NewMemoryStore()
	ctx := context.Background()

	configs, err := store.GetConfiguration(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Empty(t, configs)

	billing := &status.ApplicationConfig{ID: uuid.UUID(appID1), AppKey: "acme-billing", Name: "Billing", URL: "https://b"}
	search := &status.ApplicationConfig{ID: uuid.UUID(appID2), AppKey: "acme-a-search", Name: "Search", URL: "https://s"}
	require.NoError(t, store.PatchConfiguration(ctx, "tenant-1", status.ConfigPatch{Operation: status.PatchUpdate, Key: appID1, Value: billing}))
	require.NoError(t, store.PatchConfiguration(ctx, "tenant-1", status.ConfigPatch{Operation: status.PatchUpdate, Key: appID2, Value: search}))

	configs, err = store.GetConfiguration(ctx, "tenant-1")
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "acme-a-search", configs[0].AppKey)

	other, err := store.GetConfiguration(ctx, "tenant-2")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, store.PatchConfiguration(ctx, "tenant-1", status.ConfigPatch{Operation: status.PatchDelete, Key: appID1}))
	configs, err = store.GetConfiguration(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Len(t, configs, 1)

	err = store.PatchConfiguration(ctx, "tenant-1", status.ConfigPatch{Operation: status.PatchUpdate, Key: appID1})
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}
