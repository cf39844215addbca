package healthcheck

import (
	"context"
	"sync"
	"time"

	"github.com/lllypuk/statuswatch/internal/application/appcore"
	"github.com/lllypuk/statuswatch/internal/infrastructure/httpserver"
)

const defaultCheckTimeout = 3 * time.Second

// Registry runs component checks concurrently and feeds the HTTP health endpoints.
type Registry struct {
	checkers []appcore.HealthChecker
	timeout  time.Duration
}

// NewRegistry creates a registry of checkers
func NewRegistry(checkers ...appcore.HealthChecker) *Registry {
	return &Registry{checkers: checkers, timeout: defaultCheckTimeout}
}

// Add registers another checker
func (r *Registry) Add(checker appcore.HealthChecker) {
	r.checkers = append(r.checkers, checker)
}

// IsReady reports whether every component is healthy.
func (r *Registry) IsReady(ctx context.Context) bool {
	for _, s := range r.GetHealthStatus(ctx) {
		if s.Status != httpserver.StatusHealthy {
			return false
		}
	}
	return true
}

// GetHealthStatus returns the status of every component, in registration order.
func (r *Registry) GetHealthStatus(ctx context.Context) []httpserver.ComponentStatus {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	statuses := make([]httpserver.ComponentStatus, len(r.checkers))
	var wg sync.WaitGroup
	for i, checker := range r.checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := checker.Check(ctx)
			comp := httpserver.ComponentStatus{
				Name:    checker.Name(),
				Status:  httpserver.StatusHealthy,
				Message: res.Message,
			}
			if !res.Healthy {
				comp.Status = httpserver.StatusUnhealthy
			}
			statuses[i] = comp
		}()
	}
	wg.Wait()
	return statuses
}

var _ httpserver.HealthChecker = (*Registry)(nil)
