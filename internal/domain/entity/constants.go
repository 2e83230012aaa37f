package entity

// Status constants for Expense
const (
	ExpenseStatusPending  = "pending"
	ExpenseStatusFlagged  = "flagged"
	ExpenseStatusApproved = "approved"
	ExpenseStatusRejected = "rejected"
)

// Image kinds accepted by the validators
const (
	ImageKindOdometer = "odometer"
	ImageKindBill     = "hotel_bill"
)

// Notification status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// Notification event constants
const (
	NotificationEventSubmitted = "EXPENSE_SUBMITTED"
	NotificationEventApproved  = "EXPENSE_APPROVED"
	NotificationEventRejected  = "EXPENSE_REJECTED"
	NotificationEventFlagged   = "EXPENSE_FLAGGED"
)

// History action constants
const (
	HistoryActionSubmit  = "SUBMIT"
	HistoryActionFlag    = "FLAG"
	HistoryActionApprove = "APPROVE"
	HistoryActionReject  = "REJECT"
)
