package status

import (
	"fmt"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
)

const (
	// DefaultFailureThreshold consecutive failures before an outage is confirmed
	DefaultFailureThreshold = 2
	// DefaultRecoveryThreshold consecutive successes before recovery is confirmed
	DefaultRecoveryThreshold = 1
)

// Policy holds the debounce thresholds of a deployment.
type Policy struct {
	FailureThreshold  int
	RecoveryThreshold int
}

// DefaultPolicy returns N=2 failures, M=1 success.
func DefaultPolicy() Policy {
	return Policy{
		FailureThreshold:  DefaultFailureThreshold,
		RecoveryThreshold: DefaultRecoveryThreshold,
	}
}

// Validate checks that both thresholds are positive.
func (p Policy) Validate() error {
	if p.FailureThreshold < 1 {
		return fmt.Errorf("%w: failure threshold must be at least 1", errs.ErrInvalidInput)
	}
	if p.RecoveryThreshold < 1 {
		return fmt.Errorf("%w: recovery threshold must be at least 1", errs.ErrInvalidInput)
	}
	return nil
}

// Debouncer converts raw poll samples into confirmed endpoint states.
// One instance belongs to exactly one polling task and is not safe for
// concurrent use.
type Debouncer struct {
	policy    Policy
	confirmed EndpointState
	failures  int
	successes int
}

// NewDebouncer creates a debouncer starting from the given confirmed state.
// Invalid thresholds fall back to the defaults.
func NewDebouncer(policy Policy, confirmed EndpointState) *Debouncer {
	if policy.Validate() != nil {
		policy = DefaultPolicy()
	}
	if confirmed == "" {
		confirmed = EndpointUnknown
	}
	return &Debouncer{policy: policy, confirmed: confirmed}
}

// Observe feeds one sample and returns the confirmed state along with whether
// this sample changed it.
func (d *Debouncer) Observe(ok bool) (EndpointState, bool) {
	if ok {
		d.successes++
		d.failures = 0
		if d.confirmed != EndpointUp && d.successes >= d.policy.RecoveryThreshold {
			d.confirmed = EndpointUp
			return d.confirmed, true
		}
		return d.confirmed, false
	}

	d.failures++
	d.successes = 0
	if d.confirmed != EndpointDown && d.failures >= d.policy.FailureThreshold {
		d.confirmed = EndpointDown
		return d.confirmed, true
	}
	return d.confirmed, false
}

// Reset drops both streaks and restarts from the given confirmed state.
func (d *Debouncer) Reset(confirmed EndpointState) {
	if confirmed == "" {
		confirmed = EndpointUnknown
	}
	d.confirmed = confirmed
	d.failures = 0
	d.successes = 0
}

// Confirmed returns the last confirmed state.
func (d *Debouncer) Confirmed() EndpointState { return d.confirmed }

// ConsecutiveFailures returns the current failure streak.
func (d *Debouncer) ConsecutiveFailures() int { return d.failures }

// ConsecutiveSuccesses returns the current success streak.
func (d *Debouncer) ConsecutiveSuccesses() int { return d.successes }

// Policy returns the thresholds in use.
func (d *Debouncer) Policy() Policy { return d.policy }
