package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/field-expense/internal/application/port"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/garyjia/field-expense/internal/infrastructure/persistence/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SettingsRepository implements port.SettingsRepository over a single-row table
type SettingsRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *sqlite.DB, logger *zap.Logger) port.SettingsRepository {
	return &SettingsRepository{
		db:     db,
		logger: logger,
	}
}

// Get loads the settings row, or nil when none was saved yet
func (r *SettingsRepository) Get(ctx context.Context) (*entity.AppSettings, error) {
	query := `
		SELECT mr_da_local, mr_da_outstation, manager_da_solo, manager_da_joint,
			ta_per_km, mr_hotel_limit, manager_hotel_limit, outstation_ta_cap,
			outstation_distance_threshold, expense_entry_start_hour,
			company_logo, updated_at
		FROM app_settings
		WHERE id = 1
	`

	var s entity.AppSettings
	var raw [9]string
	err := r.db.Executor(ctx).QueryRowContext(ctx, query).Scan(
		&raw[0], &raw[1], &raw[2], &raw[3],
		&raw[4], &raw[5], &raw[6], &raw[7],
		&raw[8], &s.ExpenseEntryStartHour,
		&s.CompanyLogo, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get settings", zap.Error(err))
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	dst := []*decimal.Decimal{
		&s.MRDALocal, &s.MRDAOutstation, &s.ManagerDASolo, &s.ManagerDAJoint,
		&s.TAPerKm, &s.MRHotelLimit, &s.ManagerHotelLimit, &s.OutstationTACap,
		&s.OutstationDistanceThreshold,
	}
	for i, d := range dst {
		if *d, err = parseDecimal(raw[i]); err != nil {
			return nil, err
		}
	}

	return &s, nil
}

// Save upserts the settings row
func (r *SettingsRepository) Save(ctx context.Context, s *entity.AppSettings) error {
	query := `
		INSERT INTO app_settings (
			id, mr_da_local, mr_da_outstation, manager_da_solo, manager_da_joint,
			ta_per_km, mr_hotel_limit, manager_hotel_limit, outstation_ta_cap,
			outstation_distance_threshold, expense_entry_start_hour,
			company_logo, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mr_da_local = excluded.mr_da_local,
			mr_da_outstation = excluded.mr_da_outstation,
			manager_da_solo = excluded.manager_da_solo,
			manager_da_joint = excluded.manager_da_joint,
			ta_per_km = excluded.ta_per_km,
			mr_hotel_limit = excluded.mr_hotel_limit,
			manager_hotel_limit = excluded.manager_hotel_limit,
			outstation_ta_cap = excluded.outstation_ta_cap,
			outstation_distance_threshold = excluded.outstation_distance_threshold,
			expense_entry_start_hour = excluded.expense_entry_start_hour,
			company_logo = excluded.company_logo,
			updated_at = excluded.updated_at
	`

	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		s.MRDALocal.String(), s.MRDAOutstation.String(), s.ManagerDASolo.String(), s.ManagerDAJoint.String(),
		s.TAPerKm.String(), s.MRHotelLimit.String(), s.ManagerHotelLimit.String(), s.OutstationTACap.String(),
		s.OutstationDistanceThreshold.String(), s.ExpenseEntryStartHour,
		s.CompanyLogo, s.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save settings", zap.Error(err))
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}
