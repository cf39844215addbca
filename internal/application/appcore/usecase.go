// Package appcore holds what the status use cases share: the use case
// contract, validation, correlation IDs and publishing of queued events.
package appcore

import (
	"context"
	"time"
)

// UseCase executes one command against the status service.
type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// Result wraps the value a use case produced.
type Result[T any] struct {
	Value T
	Error error
}

// HealthChecker reports the state of one dependency (MongoDB, Redis, event bus).
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) HealthStatus
}

// HealthStatus is a single check outcome.
type HealthStatus struct {
	Healthy   bool           `json:"healthy"`
	Message   string         `json:"message,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CheckedAt time.Time      `json:"checked_at"`
}
