package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lllypuk/statuswatch/internal/application/reconcile"
	"github.com/lllypuk/statuswatch/internal/infrastructure/metrics"
)

// DefaultOrphanSyncSchedule runs the orphan check at the top of every hour.
const DefaultOrphanSyncSchedule = "0 * * * *"

// OrphanSyncConfig contains configuration for the orphan sync job.
type OrphanSyncConfig struct {
	// Schedule is a standard 5-field cron expression or a descriptor like "@every 1h".
	Schedule string

	// RunOnStart triggers one pass before the first scheduled run.
	RunOnStart bool

	// Enabled determines if the job should run.
	Enabled bool
}

// DefaultOrphanSyncConfig returns sensible default configuration.
func DefaultOrphanSyncConfig() OrphanSyncConfig {
	return OrphanSyncConfig{
		Schedule:   DefaultOrphanSyncSchedule,
		RunOnStart: true,
		Enabled:    true,
	}
}

// DataSynchronizer reports status records without configuration and
// realigns polled URLs with configuration.
type DataSynchronizer interface {
	SynchronizeData(ctx context.Context) (reconcile.SyncReport, error)
	SyncEndpointURLs(ctx context.Context) (int, error)
}

// OrphanSyncJob periodically reports orphan status records and copies
// configured URLs onto enabled records. It never deletes.
type OrphanSyncJob struct {
	synchronizer DataSynchronizer
	metrics      *metrics.SchedulerMetrics
	logger       *slog.Logger
	config       OrphanSyncConfig
	schedule     cron.Schedule
}

// NewOrphanSyncJob creates the job and parses its schedule.
func NewOrphanSyncJob(
	synchronizer DataSynchronizer,
	metrics *metrics.SchedulerMetrics,
	logger *slog.Logger,
	config OrphanSyncConfig,
) (*OrphanSyncJob, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Schedule == "" {
		config.Schedule = DefaultOrphanSyncSchedule
	}

	schedule, err := cron.ParseStandard(config.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid orphan sync schedule %q: %w", config.Schedule, err)
	}

	return &OrphanSyncJob{
		synchronizer: synchronizer,
		metrics:      metrics,
		logger:       logger,
		config:       config,
		schedule:     schedule,
	}, nil
}

// Run schedules the job and blocks until the context is cancelled.
// A pass still running at shutdown is waited for.
func (j *OrphanSyncJob) Run(ctx context.Context) error {
	if !j.config.Enabled {
		j.logger.InfoContext(ctx, "orphan sync job is disabled")
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(j.schedule, cron.FuncJob(func() {
		j.runOnce(ctx)
	}))

	j.logger.InfoContext(ctx, "starting orphan sync job",
		slog.String("schedule", j.config.Schedule),
		slog.Time("next_run", j.schedule.Next(time.Now())),
	)

	if j.config.RunOnStart {
		j.runOnce(ctx)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	j.logger.InfoContext(ctx, "orphan sync job stopped")
	return ctx.Err()
}

// RunOnce performs a single pass and returns its report.
func (j *OrphanSyncJob) RunOnce(ctx context.Context) (reconcile.SyncReport, error) {
	report, err := j.synchronizer.SynchronizeData(ctx)
	if err != nil {
		return report, fmt.Errorf("orphan sync failed: %w", err)
	}
	j.metrics.SetOrphans(len(report.Orphans))

	if report.URLsSynced, err = j.synchronizer.SyncEndpointURLs(ctx); err != nil {
		return report, fmt.Errorf("url sync failed: %w", err)
	}
	return report, nil
}

func (j *OrphanSyncJob) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := j.RunOnce(ctx); err != nil {
		j.logger.ErrorContext(ctx, "orphan sync failed", slog.String("error", err.Error()))
	}
}
