// Package status models the runtime health record of one monitored application:
// its enabled flag, public status, debounced endpoint state and the events
// emitted when any of these change.
package status

import (
	"fmt"
	"slices"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
)

// Status is the public-facing status of an application.
type Status string

const (
	// StatusOperational the endpoint answers and no operator override is set
	StatusOperational Status = "operational"
	// StatusMaintenance manual override
	StatusMaintenance Status = "maintenance"
	// StatusReportedIssues manual override
	StatusReportedIssues Status = "reported-issues"
	// StatusOutage the endpoint is confirmed down
	StatusOutage Status = "outage"
	// StatusPending enabled, no confirmed result yet
	StatusPending Status = "pending"
	// StatusDisabled polling is off
	StatusDisabled Status = "disabled"
)

// AllStatuses lists every valid status value.
func AllStatuses() []Status {
	return []Status{
		StatusOperational,
		StatusMaintenance,
		StatusReportedIssues,
		StatusOutage,
		StatusPending,
		StatusDisabled,
	}
}

// ParseStatus validates a raw status value.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !slices.Contains(AllStatuses(), st) {
		return "", fmt.Errorf("%w: unknown status %q", errs.ErrInvalidInput, s)
	}
	return st, nil
}

// String returns the wire value.
func (s Status) String() string { return string(s) }

// IsManual reports whether the status can only be set by an operator and
// must survive automatic poll results.
func (s Status) IsManual() bool {
	return s == StatusMaintenance || s == StatusReportedIssues
}

// EndpointState is the debounced reachability of the application endpoint.
type EndpointState string

const (
	// EndpointUnknown no confirmed result since the last enable
	EndpointUnknown EndpointState = "unknown"
	// EndpointUp confirmed reachable
	EndpointUp EndpointState = "up"
	// EndpointDown confirmed unreachable
	EndpointDown EndpointState = "down"
)

// String returns the wire value.
func (s EndpointState) String() string { return string(s) }

// statusFor maps a confirmed endpoint state to the status the poller proposes.
func statusFor(state EndpointState) Status {
	if state == EndpointUp {
		return StatusOperational
	}
	return StatusOutage
}
