package status_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

func TestDebouncer_Observe(t *testing.T) {
	tests := []struct {
		name      string
		policy    status.Policy
		start     status.EndpointState
		samples   []bool
		wantState status.EndpointState
		wantFlips int
	}{
		{
			name:      "single failure after up does not flip",
			policy:    status.DefaultPolicy(),
			start:     status.EndpointUp,
			samples:   []bool{false},
			wantState: status.EndpointUp,
			wantFlips: 0,
		},
		{
			name:      "two consecutive failures flip",
			policy:    status.DefaultPolicy(),
			start:     status.EndpointUp,
			samples:   []bool{false, false},
			wantState: status.EndpointDown,
			wantFlips: 1,
		},
		{
			name:      "interrupted failures do not flip",
			policy:    status.DefaultPolicy(),
			start:     status.EndpointUp,
			samples:   []bool{false, true, false, true},
			wantState: status.EndpointUp,
			wantFlips: 0,
		},
		{
			name:      "single success recovers",
			policy:    status.DefaultPolicy(),
			start:     status.EndpointDown,
			samples:   []bool{true},
			wantState: status.EndpointUp,
			wantFlips: 1,
		},
		{
			name:      "long outage flips once",
			policy:    status.DefaultPolicy(),
			start:     status.EndpointUp,
			samples:   []bool{false, false, false, false, false},
			wantState: status.EndpointDown,
			wantFlips: 1,
		},
		{
			name:      "custom recovery threshold",
			policy:    status.Policy{FailureThreshold: 1, RecoveryThreshold: 3},
			start:     status.EndpointDown,
			samples:   []bool{true, true},
			wantState: status.EndpointDown,
			wantFlips: 0,
		},
		{
			name:      "unknown start confirms on first success",
			policy:    status.DefaultPolicy(),
			start:     status.EndpointUnknown,
			samples:   []bool{true},
			wantState: status.EndpointUp,
			wantFlips: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := status.NewDebouncer(tt.policy, tt.start)

			flips := 0
			for _, ok := range tt.samples {
				if _, changed := d.Observe(ok); changed {
					flips++
				}
			}

			assert.Equal(t, tt.wantState, d.Confirmed())
			assert.Equal(t, tt.wantFlips, flips)
		})
	}
}

func TestDebouncer_Counters(t *testing.T) {
	d := status.NewDebouncer(status.DefaultPolicy(), status.EndpointUp)

	d.Observe(false)
	assert.Equal(t, 1, d.ConsecutiveFailures())
	assert.Equal(t, 0, d.ConsecutiveSuccesses())

	d.Observe(true)
	assert.Equal(t, 0, d.ConsecutiveFailures())
	assert.Equal(t, 1, d.ConsecutiveSuccesses())
}

func TestDebouncer_Reset(t *testing.T) {
	d := status.NewDebouncer(status.DefaultPolicy(), status.EndpointUnknown)
	_, changed := d.Observe(true)
	require.True(t, changed)
	d.Observe(false)

	d.Reset(status.EndpointUnknown)

	assert.Equal(t, status.EndpointUnknown, d.Confirmed())
	assert.Zero(t, d.ConsecutiveFailures())
	state, changed := d.Observe(true)
	assert.True(t, changed)
	assert.Equal(t, status.EndpointUp, state)
}

func TestNewDebouncer_InvalidPolicyFallsBack(t *testing.T) {
	d := status.NewDebouncer(status.Policy{}, "")

	assert.Equal(t, status.DefaultPolicy(), d.Policy())
	assert.Equal(t, status.EndpointUnknown, d.Confirmed())
}

func TestPolicy_Validate(t *testing.T) {
	require.NoError(t, status.DefaultPolicy().Validate())
	require.ErrorIs(t, status.Policy{FailureThreshold: 0, RecoveryThreshold: 1}.Validate(), errs.ErrInvalidInput)
	require.ErrorIs(t, status.Policy{FailureThreshold: 1, RecoveryThreshold: 0}.Validate(), errs.ErrInvalidInput)
}
