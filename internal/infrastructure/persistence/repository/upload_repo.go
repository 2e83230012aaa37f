package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/field-expense/internal/application/port"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/garyjia/field-expense/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// UploadRepository implements port.UploadRepository
type UploadRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewUploadRepository creates a new upload repository
func NewUploadRepository(db *sqlite.DB, logger *zap.Logger) port.UploadRepository {
	return &UploadRepository{
		db:     db,
		logger: logger,
	}
}

// Create records a stored upload and its verdict
func (r *UploadRepository) Create(ctx context.Context, u *entity.ImageUpload) error {
	query := `
		INSERT INTO image_uploads (
			ref, user_id, kind, hash, mime_type, size, verdict, expense_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	verdict, err := marshalVerdict(u.Verdict)
	if err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	_, err = r.db.Executor(ctx).ExecContext(ctx, query,
		u.Ref, u.UserID, u.Kind, u.Hash, u.MIMEType, u.Size,
		verdict, nullableString(u.ExpenseID), u.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create upload", zap.String("ref", u.Ref), zap.Error(err))
		return fmt.Errorf("failed to create upload: %w", err)
	}

	return nil
}

// GetByRef retrieves an upload by its reference
func (r *UploadRepository) GetByRef(ctx context.Context, ref string) (*entity.ImageUpload, error) {
	query := `
		SELECT ref, user_id, kind, hash, mime_type, size, verdict, expense_id, created_at
		FROM image_uploads
		WHERE ref = ?
	`

	var u entity.ImageUpload
	var verdict, expenseID sql.NullString
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, ref).Scan(
		&u.Ref, &u.UserID, &u.Kind, &u.Hash, &u.MIMEType, &u.Size,
		&verdict, &expenseID, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get upload", zap.String("ref", ref), zap.Error(err))
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}

	u.ExpenseID = expenseID.String
	if u.Verdict, err = unmarshalVerdict(verdict); err != nil {
		return nil, err
	}

	return &u, nil
}

// AttachToExpense links uploads to the expense that references them
func (r *UploadRepository) AttachToExpense(ctx context.Context, refs []string, expenseID string) error {
	if len(refs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(refs)), ",")
	query := `UPDATE image_uploads SET expense_id = ? WHERE ref IN (` + placeholders + `)`

	args := make([]interface{}, 0, len(refs)+1)
	args = append(args, expenseID)
	for _, ref := range refs {
		args = append(args, ref)
	}

	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to attach uploads",
			zap.String("expense_id", expenseID),
			zap.Strings("refs", refs),
			zap.Error(err))
		return fmt.Errorf("failed to attach uploads: %w", err)
	}

	return nil
}
