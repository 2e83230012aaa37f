package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidTransition is returned when a trigger is not allowed from the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a persisted status is not a known state
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when every guard on an allowed trigger refuses
	ErrGuardFailed = errors.New("guard condition failed")
)

// Guard decides at fire time whether a rule applies
type Guard func(ctx context.Context) bool

type rule struct {
	to    State
	guard Guard
}

// Definition is a set of allowed transitions. It is configured once and
// then shared by every machine started from it.
type Definition struct {
	rules map[State]map[Trigger][]rule
}

// NewDefinition returns an empty definition
func NewDefinition() *Definition {
	return &Definition{rules: make(map[State]map[Trigger][]rule)}
}

// Allow permits trigger to move from one state to another
func (d *Definition) Allow(from State, trigger Trigger, to State) *Definition {
	return d.AllowIf(from, trigger, to, nil)
}

// AllowIf permits the transition when guard passes. Rules for the same
// trigger are tried in the order they were added.
func (d *Definition) AllowIf(from State, trigger Trigger, to State, guard Guard) *Definition {
	if !from.IsValid() || !to.IsValid() {
		panic(fmt.Sprintf("invalid transition %s -> %s", from, to))
	}
	if d.rules[from] == nil {
		d.rules[from] = make(map[Trigger][]rule)
	}
	d.rules[from][trigger] = append(d.rules[from][trigger], rule{to: to, guard: guard})
	return d
}

// Start returns a machine positioned at state
func (d *Definition) Start(state State) (*Machine, error) {
	if !state.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, state)
	}
	return &Machine{def: d, state: state}, nil
}

// Transition records one successful Fire
type Transition struct {
	From    State
	To      State
	Trigger Trigger
}

// Machine tracks the state of one record
type Machine struct {
	def   *Definition
	state State
}

// State returns the current state
func (m *Machine) State() State {
	return m.state
}

// CanFire reports whether trigger has any rule from the current state.
// Guards are not evaluated.
func (m *Machine) CanFire(trigger Trigger) bool {
	return len(m.def.rules[m.state][trigger]) > 0
}

// Fire moves the machine along the first rule whose guard passes
func (m *Machine) Fire(ctx context.Context, trigger Trigger) (Transition, error) {
	rules := m.def.rules[m.state][trigger]
	if len(rules) == 0 {
		return Transition{}, fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, trigger, m.state)
	}

	for _, r := range rules {
		if r.guard == nil || r.guard(ctx) {
			t := Transition{From: m.state, To: r.to, Trigger: trigger}
			m.state = r.to
			return t, nil
		}
	}
	return Transition{}, fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.state)
}

// PermittedTriggers returns the triggers with rules from the current state, sorted
func (m *Machine) PermittedTriggers() []Trigger {
	triggers := make([]Trigger, 0, len(m.def.rules[m.state]))
	for trigger := range m.def.rules[m.state] {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
