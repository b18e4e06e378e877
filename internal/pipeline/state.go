package pipeline

import (
	"errors"
	"fmt"
	"slices"
)

// State is a phase of a single download run.
type State string

// Run states, in the order a successful run passes through them.
const (
	StateIdle          State = "idle"
	StateCollecting    State = "collecting"
	StateSequenced     State = "sequenced"
	StateMaterializing State = "materializing"
	StateMerging       State = "merging"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// ErrInvalidTransition is returned when a run tries to move to a state that
// does not follow its current one.
var ErrInvalidTransition = errors.New("invalid state transition")

// transitions lists the states reachable from each state. Runs are single
// pass, so there are no edges back; failed is reachable from every
// non-terminal state.
var transitions = map[State][]State{
	StateIdle:          {StateCollecting, StateFailed},
	StateCollecting:    {StateSequenced, StateFailed},
	StateSequenced:     {StateMaterializing, StateFailed},
	StateMaterializing: {StateMerging, StateFailed},
	StateMerging:       {StateDone, StateFailed},
	StateDone:          {},
	StateFailed:        {},
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether a run in state from may move to state to.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

// Machine tracks the state of one run.
type Machine struct {
	current State
	history []State
}

// NewMachine creates a machine in the idle state.
func NewMachine() *Machine {
	return &Machine{current: StateIdle, history: []State{StateIdle}}
}

// Current returns the current state.
func (m *Machine) Current() State {
	return m.current
}

// History returns every state visited so far, oldest first.
func (m *Machine) History() []State {
	return slices.Clone(m.history)
}

// Transition moves the machine to next.
func (m *Machine) Transition(next State) error {
	if !CanTransition(m.current, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, next)
	}
	m.current = next
	m.history = append(m.history, next)
	return nil
}

// Fail moves the machine to failed unless it has already finished.
func (m *Machine) Fail() {
	if m.current.IsTerminal() {
		return
	}
	m.current = StateFailed
	m.history = append(m.history, StateFailed)
}
