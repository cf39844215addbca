// Package httpserver provides HTTP server infrastructure components.
package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health statuses shared by /health, /ready and /health/details.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
	StatusReady     = "ready"
	StatusNotReady  = "not_ready"
)

// ComponentStatus is the health of one dependency (mongodb, redis, eventbus).
type ComponentStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the body of every health endpoint.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components []ComponentStatus `json:"components,omitempty"`
}

// HealthChecker is implemented by healthcheck.Registry.
// Both methods receive the request context.
type HealthChecker interface {
	IsReady(ctx context.Context) bool
	GetHealthStatus(ctx context.Context) []ComponentStatus
}

// HealthEndpoints serves liveness, readiness and detailed component status.
// A nil checker means there is nothing to wait for: the process is always ready.
type HealthEndpoints struct {
	checker HealthChecker
}

// NewHealthEndpoints creates a new HealthEndpoints instance.
func NewHealthEndpoints(checker HealthChecker) *HealthEndpoints {
	return &HealthEndpoints{checker: checker}
}

// Register mounts GET /health, GET /ready and GET /health/details.
func (h *HealthEndpoints) Register(e *echo.Echo) {
	e.GET("/health", h.liveness)
	e.GET("/ready", h.readiness)
	e.GET("/health/details", h.details)
}

// liveness answers 200 as long as the process serves HTTP.
func (h *HealthEndpoints) liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: StatusHealthy})
}

func (h *HealthEndpoints) readiness(c echo.Context) error {
	ctx := c.Request().Context()
	resp := HealthResponse{Status: StatusReady, Components: h.components(ctx)}

	if h.checker != nil && !h.checker.IsReady(ctx) {
		resp.Status = StatusNotReady
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *HealthEndpoints) details(c echo.Context) error {
	components := h.components(c.Request().Context())
	status, code := summarize(components)
	return c.JSON(code, HealthResponse{Status: status, Components: components})
}

func (h *HealthEndpoints) components(ctx context.Context) []ComponentStatus {
	if h.checker == nil {
		return nil
	}
	return h.checker.GetHealthStatus(ctx)
}

// summarize folds component statuses: unhealthy wins over degraded,
// and only unhealthy turns the response into 503.
func summarize(components []ComponentStatus) (string, int) {
	status := StatusHealthy
	for _, comp := range components {
		switch comp.Status {
		case StatusUnhealthy:
			return StatusUnhealthy, http.StatusServiceUnavailable
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status, http.StatusOK
}

// RegisterHealthEndpointsWithChecker mounts the health endpoints on the router's echo.
func (r *Router) RegisterHealthEndpointsWithChecker(checker HealthChecker) {
	NewHealthEndpoints(checker).Register(r.echo)
}
