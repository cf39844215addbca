package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/lllypuk/statuswatch/internal/application/appcore"
	"github.com/lllypuk/statuswatch/internal/domain/errs"
	"github.com/lllypuk/statuswatch/internal/domain/event"
	"github.com/lllypuk/statuswatch/internal/domain/status"
	"github.com/lllypuk/statuswatch/internal/domain/uuid"
	"github.com/lllypuk/statuswatch/internal/infrastructure/metrics"
)

// Default health scheduler configuration values.
const (
	defaultScanInterval = 30 * time.Second
	defaultPollInterval = 60 * time.Second
	defaultMaxJitter    = 10 * time.Second
)

// HealthSchedulerConfig contains configuration for the health scheduler.
type HealthSchedulerConfig struct {
	// ScanInterval is the time between reconciliations of the running tasks
	// with the enabled applications.
	ScanInterval time.Duration

	// PollInterval is the time between two probes of one application.
	PollInterval time.Duration

	// MaxJitter bounds the random delay before a task's first probe.
	MaxJitter time.Duration

	// Policy holds the debounce thresholds.
	Policy status.Policy

	// Enabled determines if the scheduler should run.
	Enabled bool
}

// DefaultHealthSchedulerConfig returns sensible default configuration.
func DefaultHealthSchedulerConfig() HealthSchedulerConfig {
	return HealthSchedulerConfig{
		ScanInterval: defaultScanInterval,
		PollInterval: defaultPollInterval,
		MaxJitter:    defaultMaxJitter,
		Policy:       status.DefaultPolicy(),
		Enabled:      true,
	}
}

// Prober performs one reachability check of an endpoint.
type Prober interface {
	Probe(ctx context.Context, url string) status.PollSample
}

// HealthScheduler keeps one polling task per enabled application.
type HealthScheduler struct {
	repo    status.Repository
	history status.HistoryStore
	prober  Prober
	bus     event.Bus
	metrics *metrics.SchedulerMetrics
	logger  *slog.Logger
	config  HealthSchedulerConfig

	mu      sync.Mutex
	tasks   map[uuid.UUID]*pollTask
	retired sync.WaitGroup
}

// pollTask is the handle of a running polling goroutine.
type pollTask struct {
	id         uuid.UUID
	url        string
	generation int
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHealthScheduler creates a new health scheduler. metrics may be nil.
func NewHealthScheduler(
	repo status.Repository,
	history status.HistoryStore,
	prober Prober,
	bus event.Bus,
	metrics *metrics.SchedulerMetrics,
	logger *slog.Logger,
	config HealthSchedulerConfig,
) *HealthScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ScanInterval <= 0 {
		config.ScanInterval = defaultScanInterval
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaultPollInterval
	}
	if config.Policy.Validate() != nil {
		config.Policy = status.DefaultPolicy()
	}

	return &HealthScheduler{
		repo:    repo,
		history: history,
		prober:  prober,
		bus:     bus,
		metrics: metrics,
		logger:  logger,
		config:  config,
		tasks:   make(map[uuid.UUID]*pollTask),
	}
}

// Run scans immediately and then on every scan interval until the context
// is cancelled. All tasks are stopped before Run returns.
func (s *HealthScheduler) Run(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.InfoContext(ctx, "health scheduler is disabled")
		return nil
	}

	s.logger.InfoContext(ctx, "starting health scheduler",
		slog.Duration("scan_interval", s.config.ScanInterval),
		slog.Duration("poll_interval", s.config.PollInterval),
		slog.Int("failure_threshold", s.config.Policy.FailureThreshold),
		slog.Int("recovery_threshold", s.config.Policy.RecoveryThreshold),
	)
	defer s.StopAll()

	ticker := time.NewTicker(s.config.ScanInterval)
	defer ticker.Stop()

	if err := s.Scan(ctx); err != nil {
		s.logger.ErrorContext(ctx, "initial scan failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "health scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Scan(ctx); err != nil {
				s.logger.ErrorContext(ctx, "scan failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Scan reconciles the running tasks with the enabled applications. Tasks of
// applications that were disabled, deleted or re-enabled (new generation) or
// whose URL changed are cancelled without waiting; missing tasks are started.
func (s *HealthScheduler) Scan(ctx context.Context) error {
	start := time.Now()

	apps, err := s.repo.FindEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to find enabled applications: %w", err)
	}

	desired := make(map[uuid.UUID]*status.Application, len(apps))
	for _, app := range apps {
		desired[app.ID()] = app
	}

	s.mu.Lock()
	var stale []*pollTask
	for id, task := range s.tasks {
		app, ok := desired[id]
		if ok && app.Generation() == task.generation && app.Endpoint().URL == task.url {
			continue
		}
		stale = append(stale, task)
		delete(s.tasks, id)
	}

	// Scan не ждет остановки: проба в полете может висеть до таймаута.
	// Выход отмененной задачи дожидается StopAll.
	for _, task := range stale {
		s.retire(task)
	}

	started := 0
	for id, app := range desired {
		if _, running := s.tasks[id]; running {
			continue
		}
		s.tasks[id] = s.start(ctx, app)
		started++
	}
	active := len(s.tasks)
	s.mu.Unlock()

	s.metrics.ObserveScan(time.Since(start), active)
	if started > 0 || len(stale) > 0 {
		s.logger.InfoContext(ctx, "health scan completed",
			slog.Int("started", started),
			slog.Int("stopped", len(stale)),
			slog.Int("active", active),
		)
	}
	return nil
}

// Stop cancels the application's task and waits for it to exit.
// Stopping an unknown id does nothing.
func (s *HealthScheduler) Stop(id uuid.UUID) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	delete(s.tasks, id)
	s.mu.Unlock()

	if ok {
		task.stop()
		s.logger.Debug("polling task stopped", slog.String("application_id", id.String()))
	}
}

// StopAll cancels every task and waits for them, including tasks a scan
// has already cancelled.
func (s *HealthScheduler) StopAll() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = make(map[uuid.UUID]*pollTask)
	s.mu.Unlock()

	for _, task := range tasks {
		task.cancel()
	}
	for _, task := range tasks {
		<-task.done
	}
	s.retired.Wait()
	s.metrics.SetActiveTasks(0)
}

// ActiveTasks returns the number of running tasks.
func (s *HealthScheduler) ActiveTasks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *HealthScheduler) start(parent context.Context, app *status.Application) *pollTask {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	task := &pollTask{
		id:         app.ID(),
		url:        app.Endpoint().URL,
		generation: app.Generation(),
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	// после enable статус эндпоинта unknown, после рестарта процесса берется сохраненный
	debouncer := status.NewDebouncer(s.config.Policy, app.Endpoint().Status)
	go s.loop(ctx, task, debouncer)
	return task
}

func (s *HealthScheduler) loop(ctx context.Context, task *pollTask, debouncer *status.Debouncer) {
	defer close(task.done)

	if !sleepCtx(ctx, s.jitter()) {
		return
	}

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		s.poll(ctx, task, debouncer)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll probes once. A probe already in flight when the task is cancelled
// completes and is recorded, but no transition follows it.
func (s *HealthScheduler) poll(ctx context.Context, task *pollTask, debouncer *status.Debouncer) {
	if ctx.Err() != nil {
		return
	}

	sample := s.prober.Probe(context.WithoutCancel(ctx), task.url)
	s.metrics.ObservePoll(sample.OK, sample.ResponseTime)

	entry := status.NewEndpointStatusEntry(task.id, sample)
	if err := s.history.Append(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.WarnContext(ctx, "failed to append endpoint status entry",
			slog.String("application_id", task.id.String()),
			slog.String("error", err.Error()),
		)
	}

	if ctx.Err() != nil {
		return
	}

	app, err := s.repo.Get(ctx, task.id)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to reload application",
				slog.String("application_id", task.id.String()),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	if !app.IsEnabled() || app.Generation() != task.generation {
		return
	}

	expected := app.Status()
	changed, err := app.RecordPollResult(debouncer, sample)
	if err != nil || !changed || ctx.Err() != nil {
		return
	}

	saved, err := s.repo.SaveTransition(ctx, app, expected)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to save poll transition",
			slog.String("application_id", task.id.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	if !saved {
		// запись изменилась после перечитывания, переход отбрасывается
		s.logger.DebugContext(ctx, "poll transition discarded, record changed concurrently",
			slog.String("application_id", task.id.String()),
		)
		s.resync(ctx, task, debouncer)
		return
	}

	s.metrics.ObserveTransition(app.Endpoint().Status.String())
	s.logger.InfoContext(ctx, "endpoint state changed",
		slog.String("application_id", task.id.String()),
		slog.String("tenant_id", app.TenantID()),
		slog.String("endpoint_status", app.Endpoint().Status.String()),
		slog.String("status", app.Status().String()),
	)
	appcore.PublishEvents(ctx, s.bus, s.logger, app)
}

// resync restarts the debouncer from the stored endpoint state so the next
// samples confirm the transition against the current record.
func (s *HealthScheduler) resync(ctx context.Context, task *pollTask, debouncer *status.Debouncer) {
	app, err := s.repo.Get(ctx, task.id)
	if err != nil || app.Generation() != task.generation {
		return
	}
	debouncer.Reset(app.Endpoint().Status)
}

func (s *HealthScheduler) jitter() time.Duration {
	if s.config.MaxJitter <= 0 {
		return 0
	}
	return rand.N(s.config.MaxJitter)
}

// retire cancels a task without waiting for it. Called with s.mu held.
func (s *HealthScheduler) retire(task *pollTask) {
	task.cancel()
	s.retired.Add(1)
	go func() {
		defer s.retired.Done()
		<-task.done
	}()
}

func (t *pollTask) stop() {
	t.cancel()
	<-t.done
}

// sleepCtx waits for d and reports false if the context ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
