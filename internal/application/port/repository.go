package port

import (
	"context"
	"time"

	"github.com/garyjia/field-expense/internal/domain/entity"
)

// ExpenseRepository defines persistence operations for Expense.
// Lookups return nil, nil when no row matches.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *entity.Expense) error
	GetByID(ctx context.Context, id string) (*entity.Expense, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Expense, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.Expense, error)

	// ListByDateRange returns expenses dated within [from, to]. An empty userID
	// matches every user.
	ListByDateRange(ctx context.Context, userID string, from, to time.Time) ([]*entity.Expense, error)
	UpdateStatus(ctx context.Context, id string, update StatusUpdate) error

	// ListImageHashes returns hashes of every image attached to the user's
	// submitted expenses
	ListImageHashes(ctx context.Context, userID string) ([]string, error)
}

// StatusUpdate carries the fields written when a manager acts on an expense
type StatusUpdate struct {
	Status          string
	ApprovedByID    string
	ApprovedByName  string
	RejectionReason string
	ProcessedAt     *time.Time
	UpdatedAt       time.Time
}

// SettingsRepository persists the single app settings row
type SettingsRepository interface {
	// Get returns nil, nil when settings were never saved
	Get(ctx context.Context) (*entity.AppSettings, error)
	Save(ctx context.Context, settings *entity.AppSettings) error
}

// HistoryRepository defines persistence operations for StatusHistory
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.StatusHistory) error
	ListByExpense(ctx context.Context, expenseID string) ([]*entity.StatusHistory, error)
}

// NotificationRepository is the notification outbox
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	ListPending(ctx context.Context, maxAttempts, limit int) ([]*entity.Notification, error)
	MarkSent(ctx context.Context, id int64, sentAt time.Time) error
	MarkFailed(ctx context.Context, id int64, errMsg string, giveUp bool) error
}

// UploadRepository defines persistence operations for ImageUpload
type UploadRepository interface {
	Create(ctx context.Context, upload *entity.ImageUpload) error
	GetByRef(ctx context.Context, ref string) (*entity.ImageUpload, error)
	AttachToExpense(ctx context.Context, refs []string, expenseID string) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
