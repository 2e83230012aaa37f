package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/field-expense/internal/application/port"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/garyjia/field-expense/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlite.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create queues a notification in the outbox
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (
			expense_id, recipient_id, event, content, status,
			attempts, error_message, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	if n.Status == "" {
		n.Status = entity.NotificationStatusPending
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		n.ExpenseID,
		n.RecipientID,
		n.Event,
		n.Content,
		n.Status,
		n.Attempts,
		n.ErrorMessage,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("expense_id", n.ExpenseID),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return nil
}

// ListPending returns pending notifications that have attempts left, oldest first
func (r *NotificationRepository) ListPending(ctx context.Context, maxAttempts, limit int) ([]*entity.Notification, error) {
	query := `
		SELECT id, expense_id, recipient_id, event, content, status,
			attempts, error_message, sent_at, created_at, updated_at
		FROM notifications
		WHERE status = ? AND attempts < ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, entity.NotificationStatusPending, maxAttempts, limit)
	if err != nil {
		r.logger.Error("Failed to list pending notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var sentAt sql.NullTime
		err := rows.Scan(
			&n.ID,
			&n.ExpenseID,
			&n.RecipientID,
			&n.Event,
			&n.Content,
			&n.Status,
			&n.Attempts,
			&n.ErrorMessage,
			&sentAt,
			&n.CreatedAt,
			&n.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// MarkSent records a successful delivery
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	query := `
		UPDATE notifications
		SET status = ?, sent_at = ?, attempts = attempts + 1, error_message = '', updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, entity.NotificationStatusSent, sentAt, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to mark notification sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}

	return nil
}

// MarkFailed records a failed attempt. The row stays pending for a retry
// unless giveUp is set.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errMsg string, giveUp bool) error {
	query := `
		UPDATE notifications
		SET status = ?, attempts = attempts + 1, error_message = ?, updated_at = ?
		WHERE id = ?
	`

	status := entity.NotificationStatusPending
	if giveUp {
		status = entity.NotificationStatusFailed
	}

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, status, errMsg, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to mark notification failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}

	return nil
}
