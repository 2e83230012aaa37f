package entity

import "time"

// StatusHistory records one status change of an expense
type StatusHistory struct {
	ID             int64     `json:"id"`
	ExpenseID      string    `json:"expense_id"`
	ActorID        string    `json:"actor_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Action         string    `json:"action"`
	Note           string    `json:"note,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
