package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/statuswatch/internal/application/reconcile"
	"github.com/lllypuk/statuswatch/internal/infrastructure/metrics"
	"github.com/lllypuk/statuswatch/internal/infrastructure/repository/memory"
	"github.com/lllypuk/statuswatch/internal/worker"
	"github.com/lllypuk/statuswatch/tests/mocks"
	"github.com/lllypuk/statuswatch/tests/testutil"
)

type failingSynchronizer struct{}

func (failingSynchronizer) SynchronizeData(context.Context) (reconcile.SyncReport, error) {
	return reconcile.SyncReport{}, errors.New("mongo down")
}

func (failingSynchronizer) SyncEndpointURLs(context.Context) (int, error) {
	return 0, errors.New("mongo down")
}

func TestOrphanSyncJob_RunOnce(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	repo := memory.NewApplicationRepository()
	store := mocks.NewMockConfigStore()
	actor := testutil.ActorFixture()

	configured := testutil.NewApplication(t, actor, "Billing", "https://billing.example.com")
	orphan := testutil.NewApplication(t, actor, "Legacy", "https://legacy.example.com")
	require.NoError(t, repo.Create(ctx, configured))
	require.NoError(t, repo.Create(ctx, orphan))
	store.Put(actor.TenantID, testutil.ConfigFor(configured, "Billing"))

	m := metrics.NewSchedulerMetrics(prometheus.NewRegistry())
	job, err := worker.NewOrphanSyncJob(
		reconcile.NewManager(repo, store, reconcile.WithLogger(testutil.NewTestLogger(nil))),
		m, testutil.NewTestLogger(nil), worker.DefaultOrphanSyncConfig(),
	)
	require.NoError(t, err)

	report, err := job.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Applications)
	require.Len(t, report.Orphans, 1)
	assert.Equal(t, orphan.ID(), report.Orphans[0])
	assert.InDelta(t, 1, promtestutil.ToFloat64(m.Orphans), 0)

	// ничего не удаляется
	_, err = repo.Get(ctx, orphan.ID())
	assert.NoError(t, err)
}

func TestOrphanSyncJob_RunOnceSyncsConfiguredURL(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	repo := memory.NewApplicationRepository()
	store := mocks.NewMockConfigStore()
	actor := testutil.ActorFixture()

	app := testutil.NewEnabledApplication(t, actor, "Billing", "https://billing.example.com")
	require.NoError(t, repo.Create(ctx, app))
	cfg := testutil.ConfigFor(app, "Billing")
	cfg.URL = "https://billing.example.com/health"
	store.Put(actor.TenantID, cfg)

	job, err := worker.NewOrphanSyncJob(
		reconcile.NewManager(repo, store, reconcile.WithLogger(testutil.NewTestLogger(nil))),
		nil, testutil.NewTestLogger(nil), worker.DefaultOrphanSyncConfig(),
	)
	require.NoError(t, err)

	report, err := job.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.URLsSynced)

	stored, err := repo.Get(ctx, app.ID())
	require.NoError(t, err)
	assert.Equal(t, "https://billing.example.com/health", stored.Endpoint().URL)

	// повторный проход ничего не меняет
	report, err = job.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.URLsSynced)
}

func TestOrphanSyncJob_RunOnceError(t *testing.T) {
	job, err := worker.NewOrphanSyncJob(failingSynchronizer{}, nil, nil, worker.DefaultOrphanSyncConfig())
	require.NoError(t, err)

	_, err = job.RunOnce(context.Background())
	assert.ErrorContains(t, err, "mongo down")
}

func TestNewOrphanSyncJob_Schedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"default", "", false},
		{"hourly", "0 * * * *", false},
		{"descriptor", "@every 15m", false},
		{"garbage", "every hour", true},
		{"too many fields", "0 0 * * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := worker.DefaultOrphanSyncConfig()
			cfg.Schedule = tt.schedule

			_, err := worker.NewOrphanSyncJob(failingSynchronizer{}, nil, nil, cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOrphanSyncJob_RunStopsOnCancel(t *testing.T) {
	repo := memory.NewApplicationRepository()
	store := mocks.NewMockConfigStore()
	job, err := worker.NewOrphanSyncJob(
		reconcile.NewManager(repo, store), nil, testutil.NewTestLogger(nil), worker.DefaultOrphanSyncConfig(),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- job.Run(ctx) }()
	cancel()

	select {
	case err = <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("job did not stop")
	}
}

func TestOrphanSyncJob_Disabled(t *testing.T) {
	cfg := worker.DefaultOrphanSyncConfig()
	cfg.Enabled = false
	job, err := worker.NewOrphanSyncJob(failingSynchronizer{}, nil, nil, cfg)
	require.NoError(t, err)

	assert.NoError(t, job.Run(context.Background()))
}
