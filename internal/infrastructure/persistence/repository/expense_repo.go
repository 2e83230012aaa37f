package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garyjia/field-expense/internal/application/port"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/garyjia/field-expense/internal/infrastructure/persistence/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const expenseColumns = `
	id, user_id, user_name, role, expense_date, distance_km,
	is_outstation, is_night_stay, hotel_bill_amount, bill_proof_ref,
	odometer_start, odometer_end, odometer_start_photo, odometer_end_photo,
	is_joint_work, joint_work_mr_id, joint_work_mr_name,
	calculated_da, calculated_ta, hotel_amount, total_expense, breakdown,
	status, manager_id, approved_by_id, approved_by_name, rejection_reason,
	submitted_at, processed_at, bill_validation, odometer_validation,
	ai_risk_flag, created_at, updated_at`

// ExpenseRepository implements port.ExpenseRepository
type ExpenseRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sqlite.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a computed expense
func (r *ExpenseRepository) Create(ctx context.Context, e *entity.Expense) error {
	query := `INSERT INTO expenses (` + expenseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	breakdown, err := json.Marshal(e.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal breakdown: %w", err)
	}
	billValidation, err := marshalVerdict(e.BillValidation)
	if err != nil {
		return err
	}
	odometerValidation, err := marshalVerdict(e.OdometerValidation)
	if err != nil {
		return err
	}

	var odoStart, odoEnd sql.NullString
	var odoStartPhoto, odoEndPhoto string
	if e.Odometer != nil {
		odoStart = nullableDecimal(e.Odometer.Start)
		odoEnd = nullableDecimal(e.Odometer.End)
		odoStartPhoto = e.Odometer.StartPhotoRef
		odoEndPhoto = e.Odometer.EndPhotoRef
	}

	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}

	_, err = r.db.Executor(ctx).ExecContext(ctx, query,
		e.ID, e.UserID, e.UserName, string(e.Role), formatDate(e.ExpenseDate), e.DistanceKm.String(),
		boolToInt(e.IsOutstation), boolToInt(e.IsNightStay), e.HotelBillAmount.String(), e.BillProofRef,
		odoStart, odoEnd, odoStartPhoto, odoEndPhoto,
		boolToInt(e.IsJointWork), e.JointWorkMRID, e.JointWorkMRName,
		e.CalculatedDA.String(), e.CalculatedTA.String(), e.HotelAmount.String(), e.TotalExpense.String(), string(breakdown),
		e.Status, e.ManagerID, e.ApprovedByID, e.ApprovedByName, e.RejectionReason,
		e.SubmittedAt, nullableTime(e.ProcessedAt), billValidation, odometerValidation,
		boolToInt(e.AIRiskFlag), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.String("id", e.ID), zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// GetByID retrieves an expense by ID
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

	e, err := scanExpense(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return e, nil
}

// ListByUser returns a user's expenses, newest expense date first
func (r *ExpenseRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE user_id = ?
		ORDER BY expense_date DESC, submitted_at DESC
		LIMIT ? OFFSET ?`

	return r.list(ctx, "list expenses by user", query, userID, limit, offset)
}

// ListByStatus returns expenses in a status, oldest submission first
func (r *ExpenseRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE status = ?
		ORDER BY submitted_at ASC
		LIMIT ? OFFSET ?`

	return r.list(ctx, "list expenses by status", query, status, limit, offset)
}

// ListByDateRange returns expenses dated within [from, to]
func (r *ExpenseRepository) ListByDateRange(ctx context.Context, userID string, from, to time.Time) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE expense_date BETWEEN ? AND ?
			AND (? = '' OR user_id = ?)
		ORDER BY expense_date ASC, submitted_at ASC`

	return r.list(ctx, "list expenses by date range", query, formatDate(from), formatDate(to), userID, userID)
}

// UpdateStatus writes the outcome of a manager decision
func (r *ExpenseRepository) UpdateStatus(ctx context.Context, id string, u port.StatusUpdate) error {
	query := `
		UPDATE expenses
		SET status = ?, approved_by_id = ?, approved_by_name = ?,
			rejection_reason = ?, processed_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		u.Status, u.ApprovedByID, u.ApprovedByName,
		u.RejectionReason, nullableTime(u.ProcessedAt), u.UpdatedAt,
		id,
	)
	if err != nil {
		r.logger.Error("Failed to update expense status",
			zap.String("id", id),
			zap.String("status", u.Status),
			zap.Error(err))
		return fmt.Errorf("failed to update expense status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("expense not found: %s", id)
	}

	return nil
}

// ListImageHashes returns the hashes of images attached to the user's expenses
func (r *ExpenseRepository) ListImageHashes(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT DISTINCT hash FROM image_uploads
		WHERE user_id = ? AND expense_id IS NOT NULL
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list image hashes", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list image hashes: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan image hash: %w", err)
		}
		hashes = append(hashes, hash)
	}

	return hashes, rows.Err()
}

func (r *ExpenseRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]*entity.Expense, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	expenses := []*entity.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(row rowScanner) (*entity.Expense, error) {
	var (
		e                                      entity.Expense
		role, expenseDate, distance, hotelBill string
		calcDA, calcTA, hotelAmount, total     string
		breakdown                              string
		odoStart, odoEnd                       sql.NullString
		odoStartPhoto, odoEndPhoto             string
		isOutstation, isNightStay, isJoint     bool
		aiRisk                                 bool
		processedAt                            sql.NullTime
		billValidation, odometerValidation     sql.NullString
	)

	err := row.Scan(
		&e.ID, &e.UserID, &e.UserName, &role, &expenseDate, &distance,
		&isOutstation, &isNightStay, &hotelBill, &e.BillProofRef,
		&odoStart, &odoEnd, &odoStartPhoto, &odoEndPhoto,
		&isJoint, &e.JointWorkMRID, &e.JointWorkMRName,
		&calcDA, &calcTA, &hotelAmount, &total, &breakdown,
		&e.Status, &e.ManagerID, &e.ApprovedByID, &e.ApprovedByName, &e.RejectionReason,
		&e.SubmittedAt, &processedAt, &billValidation, &odometerValidation,
		&aiRisk, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Role = entity.Role(role)
	e.IsOutstation = isOutstation
	e.IsNightStay = isNightStay
	e.IsJointWork = isJoint
	e.AIRiskFlag = aiRisk
	if processedAt.Valid {
		e.ProcessedAt = &processedAt.Time
	}

	if e.ExpenseDate, err = parseDate(expenseDate); err != nil {
		return nil, err
	}
	amounts := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&e.DistanceKm, distance},
		{&e.HotelBillAmount, hotelBill},
		{&e.CalculatedDA, calcDA},
		{&e.CalculatedTA, calcTA},
		{&e.HotelAmount, hotelAmount},
		{&e.TotalExpense, total},
	}
	for _, a := range amounts {
		if *a.dst, err = parseDecimal(a.src); err != nil {
			return nil, err
		}
	}

	if err := json.Unmarshal([]byte(breakdown), &e.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal breakdown: %w", err)
	}

	if odoStart.Valid || odoEnd.Valid || odoStartPhoto != "" || odoEndPhoto != "" {
		odo := &entity.OdometerReading{StartPhotoRef: odoStartPhoto, EndPhotoRef: odoEndPhoto}
		if odo.Start, err = scanNullDecimal(odoStart); err != nil {
			return nil, err
		}
		if odo.End, err = scanNullDecimal(odoEnd); err != nil {
			return nil, err
		}
		e.Odometer = odo
	}

	if e.BillValidation, err = unmarshalVerdict(billValidation); err != nil {
		return nil, err
	}
	if e.OdometerValidation, err = unmarshalVerdict(odometerValidation); err != nil {
		return nil, err
	}

	return &e, nil
}
