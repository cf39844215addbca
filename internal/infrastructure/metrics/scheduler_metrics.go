// Package metrics holds the Prometheus collectors of the status engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label values
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// SchedulerMetrics contains Prometheus metrics of the health check scheduler.
// A nil *SchedulerMetrics is valid and records nothing.
type SchedulerMetrics struct {
	ActiveTasks     prometheus.Gauge
	PollsTotal      *prometheus.CounterVec
	PollDuration    prometheus.Histogram
	Transitions     *prometheus.CounterVec
	ScanDuration    prometheus.Histogram
	EventsPublished *prometheus.CounterVec
	Orphans         prometheus.Gauge
}

// NewSchedulerMetrics creates and registers scheduler metrics with the given registerer.
func NewSchedulerMetrics(registerer prometheus.Registerer) *SchedulerMetrics {
	m := &SchedulerMetrics{
		ActiveTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "statuswatch_scheduler_tasks_active",
			Help: "Number of applications currently polled",
		}),
		PollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statuswatch_polls_total",
				Help: "Total number of endpoint polls",
			},
			[]string{"result"}, // ok/failed
		),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "statuswatch_poll_duration_seconds",
			Help:    "Endpoint response time",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statuswatch_transitions_total",
				Help: "Confirmed endpoint state changes",
			},
			[]string{"state"}, // up/down
		),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "statuswatch_scheduler_scan_duration_seconds",
			Help:    "Time to reconcile running tasks with enabled applications",
			Buckets: prometheus.DefBuckets,
		}),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statuswatch_events_published_total",
				Help: "Domain events handed to the event bus",
			},
			[]string{"event_type", "result"},
		),
		Orphans: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "statuswatch_orphan_applications",
			Help: "Status records without configuration found by the last sync",
		}),
	}

	registerer.MustRegister(
		m.ActiveTasks,
		m.PollsTotal,
		m.PollDuration,
		m.Transitions,
		m.ScanDuration,
		m.EventsPublished,
		m.Orphans,
	)

	return m
}

// ObservePoll records one poll
func (m *SchedulerMetrics) ObservePoll(ok bool, responseTime time.Duration) {
	if m == nil {
		return
	}
	m.PollsTotal.WithLabelValues(result(ok)).Inc()
	if responseTime > 0 {
		m.PollDuration.Observe(responseTime.Seconds())
	}
}

// ObserveTransition records a confirmed state change
func (m *SchedulerMetrics) ObserveTransition(state string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(state).Inc()
}

// ObserveScan records one scan and the resulting task count
func (m *SchedulerMetrics) ObserveScan(d time.Duration, activeTasks int) {
	if m == nil {
		return
	}
	m.ScanDuration.Observe(d.Seconds())
	m.ActiveTasks.Set(float64(activeTasks))
}

// SetActiveTasks sets the running task count
func (m *SchedulerMetrics) SetActiveTasks(n int) {
	if m == nil {
		return
	}
	m.ActiveTasks.Set(float64(n))
}

// EventPublished matches eventbus.PublishObserver
func (m *SchedulerMetrics) EventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType, result(err == nil)).Inc()
}

// SetOrphans records the orphan count of the last sync
func (m *SchedulerMetrics) SetOrphans(n int) {
	if m == nil {
		return
	}
	m.Orphans.Set(float64(n))
}

func result(ok bool) string {
	if ok {
		return ResultOK
	}
	return ResultFailed
}
