package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_HappyPath(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, StateIdle, m.Current())

	for _, next := range []State{StateCollecting, StateSequenced, StateMaterializing, StateMerging, StateDone} {
		require.NoError(t, m.Transition(next))
		assert.Equal(t, next, m.Current())
	}

	assert.True(t, m.Current().IsTerminal())
	assert.Equal(t, []State{StateIdle, StateCollecting, StateSequenced, StateMaterializing, StateMerging, StateDone}, m.History())
}

func TestMachine_FailedFromEveryActiveState(t *testing.T) {
	path := []State{StateIdle, StateCollecting, StateSequenced, StateMaterializing, StateMerging}

	for i, from := range path {
		t.Run(string(from), func(t *testing.T) {
			m := NewMachine()
			for _, next := range path[1 : i+1] {
				require.NoError(t, m.Transition(next))
			}
			require.NoError(t, m.Transition(StateFailed))
			assert.Equal(t, StateFailed, m.Current())
		})
	}
}

func TestMachine_RejectsBackwardAndSkippingTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup []State
		next  State
	}{
		{name: "skip collecting", next: StateSequenced},
		{name: "idle to done", next: StateDone},
		{name: "back to collecting", setup: []State{StateCollecting, StateSequenced}, next: StateCollecting},
		{name: "back to idle", setup: []State{StateCollecting}, next: StateIdle},
		{name: "leave done", setup: []State{StateCollecting, StateSequenced, StateMaterializing, StateMerging, StateDone}, next: StateFailed},
		{name: "leave failed", setup: []State{StateFailed}, next: StateCollecting},
		{name: "self loop", setup: []State{StateCollecting}, next: StateCollecting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			for _, s := range tt.setup {
				require.NoError(t, m.Transition(s))
			}
			before := m.Current()

			err := m.Transition(tt.next)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, before, m.Current())
		})
	}
}

func TestMachine_FailIsNoopWhenTerminal(t *testing.T) {
	m := NewMachine()
	for _, s := range []State{StateCollecting, StateSequenced, StateMaterializing, StateMerging, StateDone} {
		require.NoError(t, m.Transition(s))
	}

	m.Fail()
	assert.Equal(t, StateDone, m.Current())

	m2 := NewMachine()
	m2.Fail()
	m2.Fail()
	assert.Equal(t, []State{StateIdle, StateFailed}, m2.History())
}

func TestTransitions_CoverEveryState(t *testing.T) {
	for _, s := range []State{StateIdle, StateCollecting, StateSequenced, StateMaterializing, StateMerging, StateDone, StateFailed} {
		_, ok := transitions[s]
		assert.True(t, ok, "state %s has no transition entry", s)
	}
}
