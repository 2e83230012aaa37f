package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/field-expense/internal/application/port"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/garyjia/field-expense/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlite.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new history record
func (r *HistoryRepository) Create(ctx context.Context, history *entity.StatusHistory) error {
	query := `
		INSERT INTO expense_status_history (
			expense_id, actor_id, previous_status, new_status,
			action, note, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if history.Timestamp.IsZero() {
		history.Timestamp = time.Now()
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		history.ExpenseID,
		history.ActorID,
		history.PreviousStatus,
		history.NewStatus,
		history.Action,
		history.Note,
		history.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	return nil
}

// ListByExpense retrieves all history records for an expense in order
func (r *HistoryRepository) ListByExpense(ctx context.Context, expenseID string) ([]*entity.StatusHistory, error) {
	query := `
		SELECT id, expense_id, actor_id, previous_status, new_status,
			action, note, timestamp
		FROM expense_status_history
		WHERE expense_id = ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, expenseID)
	if err != nil {
		r.logger.Error("Failed to get history by expense", zap.String("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	records := []*entity.StatusHistory{}
	for rows.Next() {
		var record entity.StatusHistory
		err := rows.Scan(
			&record.ID,
			&record.ExpenseID,
			&record.ActorID,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.Action,
			&record.Note,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}
