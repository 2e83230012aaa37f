package entity

import "time"

// Notification is an outbox record drained by the notification worker
type Notification struct {
	ID           int64      `json:"id"`
	ExpenseID    string     `json:"expense_id"`
	RecipientID  string     `json:"recipient_id"`
	Event        string     `json:"event"`
	Content      string     `json:"content"`
	Status       string     `json:"status"`
	Attempts     int        `json:"attempts"`
	ErrorMessage string     `json:"error_message,omitempty"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
