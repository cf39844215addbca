package status_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/statuswatch/internal/domain/status"
)

func TestBuildAppKey(t *testing.T) {
	tests := []struct {
		tenant, app, want string
	}{
		{"Acme Corp", "BillingAPI", "acme-corp-billing-api"},
		{"acme", "billing_service", "acme-billing-service"},
		{"  Big   Co ", "myApp", "big-co-my-app"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, status.BuildAppKey(tt.tenant, tt.app))
		})
	}
}

func TestJoin_ExcludesOrphans(t *testing.T) {
	known := newApp(t)
	orphan := newApp(t)
	configs := []status.ApplicationConfig{
		{ID: known.ID(), AppKey: known.AppKey(), Name: "Billing", URL: "https://billing.example.com"},
	}

	views, orphans := status.Join(configs, []*status.Application{known, orphan})

	require.Len(t, views, 1)
	assert.Equal(t, known.ID(), views[0].Status.ID())
	assert.Equal(t, "https://billing.example.com", views[0].URL())
	require.Len(t, orphans, 1)
	assert.Equal(t, orphan.ID(), orphans[0].ID())
}

func TestParseStatus(t *testing.T) {
	for _, s := range status.AllStatuses() {
		parsed, err := status.ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := status.ParseStatus("degraded")
	require.Error(t, err)
}
