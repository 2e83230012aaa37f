package workflow

import "github.com/garyjia/field-expense/internal/domain/entity"

// State is a position in the expense approval lifecycle. The values are the
// persisted expense status strings.
type State string

const (
	StateDraft    State = "draft"
	StatePending  State = State(entity.ExpenseStatusPending)
	StateFlagged  State = State(entity.ExpenseStatusFlagged)
	StateApproved State = State(entity.ExpenseStatusApproved)
	StateRejected State = State(entity.ExpenseStatusRejected)
)

var validStates = map[State]bool{
	StateDraft:    true,
	StatePending:  true,
	StateFlagged:  true,
	StateApproved: true,
	StateRejected: true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}
