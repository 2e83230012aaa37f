package workflow

import (
	"context"
	"strings"
)

type rejectionReasonKey struct{}

// WithRejectionReason attaches the reviewer's reason to ctx for the reject guard
func WithRejectionReason(ctx context.Context, reason string) context.Context {
	return context.WithValue(ctx, rejectionReasonKey{}, reason)
}

// RejectionReason returns the reason stored by WithRejectionReason
func RejectionReason(ctx context.Context) string {
	reason, _ := ctx.Value(rejectionReasonKey{}).(string)
	return reason
}

func hasRejectionReason(ctx context.Context) bool {
	return strings.TrimSpace(RejectionReason(ctx)) != ""
}

var expenseLifecycle = newExpenseLifecycle()

// newExpenseLifecycle configures the expense lifecycle:
//
//	draft   -> pending
//	pending -> flagged | approved | rejected
//	flagged -> approved | rejected
//
// Rejection requires a reason in the context.
func newExpenseLifecycle() *Definition {
	return NewDefinition().
		Allow(StateDraft, TriggerSubmit, StatePending).
		Allow(StatePending, TriggerFlag, StateFlagged).
		Allow(StatePending, TriggerApprove, StateApproved).
		AllowIf(StatePending, TriggerReject, StateRejected, hasRejectionReason).
		Allow(StateFlagged, TriggerApprove, StateApproved).
		AllowIf(StateFlagged, TriggerReject, StateRejected, hasRejectionReason)
}

// NewExpenseMachine returns a machine positioned at a persisted expense status
func NewExpenseMachine(status string) (*Machine, error) {
	return expenseLifecycle.Start(State(status))
}
