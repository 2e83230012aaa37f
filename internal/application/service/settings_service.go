package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/garyjia/field-expense/internal/application/port"
	"github.com/garyjia/field-expense/internal/clock"
	"github.com/garyjia/field-expense/internal/domain/entity"
)

// SettingsService serves the admin rate table
type SettingsService interface {
	// Get returns the stored settings, or the defaults when none were saved
	Get(ctx context.Context) (entity.AppSettings, error)
	Update(ctx context.Context, patch entity.SettingsPatch) (entity.AppSettings, error)
	Reset(ctx context.Context) (entity.AppSettings, error)
}

type settingsServiceImpl struct {
	repo     port.SettingsRepository
	defaults entity.AppSettings
	clock    clock.Clock
	logger   Logger

	mu     sync.RWMutex
	cached *entity.AppSettings
}

// NewSettingsService creates a new SettingsService. defaults seeds Get and
// Reset until an admin saves a rate table.
func NewSettingsService(
	repo port.SettingsRepository,
	defaults entity.AppSettings,
	c clock.Clock,
	logger Logger,
) SettingsService {
	return &settingsServiceImpl{
		repo:     repo,
		defaults: defaults,
		clock:    c,
		logger:   logger,
	}
}

// Get returns the current settings
func (s *settingsServiceImpl) Get(ctx context.Context) (entity.AppSettings, error) {
	s.mu.RLock()
	if s.cached != nil {
		settings := *s.cached
		s.mu.RUnlock()
		return settings, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// Update applies a partial update and persists it
func (s *settingsServiceImpl) Update(ctx context.Context, patch entity.SettingsPatch) (entity.AppSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadLocked(ctx)
	if err != nil {
		return entity.AppSettings{}, err
	}

	updated := patch.Apply(current)
	if err := validateSettings(updated); err != nil {
		return entity.AppSettings{}, err
	}

	if err := s.saveLocked(ctx, updated); err != nil {
		return entity.AppSettings{}, err
	}

	s.logger.Info("Settings updated", "entry_start_hour", updated.ExpenseEntryStartHour)
	return *s.cached, nil
}

// Reset restores the default rate table
func (s *settingsServiceImpl) Reset(ctx context.Context) (entity.AppSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveLocked(ctx, s.defaults); err != nil {
		return entity.AppSettings{}, err
	}

	s.logger.Info("Settings reset to defaults")
	return *s.cached, nil
}

func (s *settingsServiceImpl) loadLocked(ctx context.Context) (entity.AppSettings, error) {
	if s.cached != nil {
		return *s.cached, nil
	}

	stored, err := s.repo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load settings", "error", err)
		return entity.AppSettings{}, fmt.Errorf("load settings: %w", err)
	}

	settings := s.defaults
	if stored != nil {
		settings = *stored
	}
	s.cached = &settings
	return settings, nil
}

func (s *settingsServiceImpl) saveLocked(ctx context.Context, settings entity.AppSettings) error {
	settings.UpdatedAt = s.clock.Now()
	if err := s.repo.Save(ctx, &settings); err != nil {
		s.logger.Error("Failed to save settings", "error", err)
		return fmt.Errorf("save settings: %w", err)
	}
	s.cached = &settings
	return nil
}

// validateSettings only range-checks the start hour. Rates are taken as given.
func validateSettings(s entity.AppSettings) error {
	if s.ExpenseEntryStartHour < 0 || s.ExpenseEntryStartHour > 23 {
		return fmt.Errorf("%w: expense_entry_start_hour must be between 0 and 23, got %d",
			ErrInvalidSettings, s.ExpenseEntryStartHour)
	}
	return nil
}
