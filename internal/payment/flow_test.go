package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHappyPathTransitions(t *testing.T) {
	path := []FlowState{FlowRegistering, FlowSubmitting, FlowProcessing, FlowCompleted}

	state := FlowIdle
	for _, next := range path {
		got, err := Transition(state, next)
		assert.NoError(t, err)
		state = got
	}
	assert.Equal(t, FlowCompleted, state)
}

func TestTerminalStatesAreSticky(t *testing.T) {
	terminals := []FlowState{FlowCompleted, FlowFailed, FlowCancelled}
	others := []FlowState{FlowRegistering, FlowSubmitting, FlowProcessing, FlowCompleted, FlowFailed, FlowCancelled}

	for _, from := range terminals {
		for _, to := range others {
			if from == to {
				continue
			}
			got, err := Transition(from, to)
			assert.Error(t, err, "%s -> %s must be rejected", from, to)
			assert.Equal(t, from, got, "rejected transition must keep the state")
		}
		// the only way out is an explicit reset
		got, err := Transition(from, FlowIdle)
		assert.NoError(t, err)
		assert.Equal(t, FlowIdle, got)
	}
}

func TestResumeSkipsRegistration(t *testing.T) {
	// a persisted marker resumes straight into processing
	got, err := Transition(FlowIdle, FlowProcessing)
	assert.NoError(t, err)
	assert.Equal(t, FlowProcessing, got)
}

func TestIllegalForwardJumps(t *testing.T) {
	_, err := Transition(FlowIdle, FlowCompleted)
	assert.Error(t, err)

	_, err = Transition(FlowRegistering, FlowProcessing)
	assert.Error(t, err)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, Status("UNKNOWN").Terminal())
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status   Status
		state    FlowState
		terminal bool
	}{
		{StatusCompleted, FlowCompleted, true},
		{StatusFailed, FlowFailed, true},
		{StatusCancelled, FlowCancelled, true},
		{StatusPending, FlowProcessing, false},
	}
	for _, tc := range tests {
		state, terminal := FromStatus(tc.status)
		assert.Equal(t, tc.state, state)
		assert.Equal(t, tc.terminal, terminal)
	}
}
