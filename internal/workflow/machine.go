package workflow

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidTransition is returned when a trigger is not permitted in the
// current state.
var ErrInvalidTransition = errors.New("invalid state transition")

// Machine tracks the current state and validates transitions. Safe for use
// from the handler goroutine and the polling goroutine.
type Machine struct {
	mu          sync.Mutex
	current     State
	transitions map[State]map[Trigger]State
}

// Builder configures a Machine
type Builder struct {
	transitions map[State]map[Trigger]State
}

// NewBuilder creates a machine builder
func NewBuilder() *Builder {
	return &Builder{transitions: make(map[State]map[Trigger]State)}
}

// Permit allows trigger to move from one state to another
func (b *Builder) Permit(from State, trigger Trigger, to State) *Builder {
	if !from.IsValid() || !to.IsValid() {
		panic(fmt.Sprintf("invalid state in transition %s -%s-> %s", from, trigger, to))
	}
	if b.transitions[from] == nil {
		b.transitions[from] = make(map[Trigger]State)
	}
	b.transitions[from][trigger] = to
	return b
}

// Build creates a machine starting at initial
func (b *Builder) Build(initial State) *Machine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}

	transitions := make(map[State]map[Trigger]State, len(b.transitions))
	for from, byTrigger := range b.transitions {
		copied := make(map[Trigger]State, len(byTrigger))
		for trigger, to := range byTrigger {
			copied[trigger] = to
		}
		transitions[from] = copied
	}

	return &Machine{current: initial, transitions: transitions}
}

// State returns the current state
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// CanFire returns true if trigger is permitted in the current state
func (m *Machine) CanFire(trigger Trigger) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.transitions[m.current][trigger]
	return ok
}

// Fire executes the trigger, moving to the configured target state
func (m *Machine) Fire(trigger Trigger) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	to, ok := m.transitions[m.current][trigger]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}
	m.current = to
	return nil
}

// NewUploadMachine builds the upload pipeline's view-mode machine:
// upload → processing → summary, with failure and reset paths back to upload.
func NewUploadMachine() *Machine {
	return NewBuilder().
		Permit(StateUpload, TriggerSubmit, StateProcessing).
		Permit(StateProcessing, TriggerExtracted, StateSummary).
		Permit(StateProcessing, TriggerFail, StateUpload).
		Permit(StateProcessing, TriggerReset, StateUpload).
		Permit(StateSummary, TriggerReset, StateUpload).
		Build(StateUpload)
}
