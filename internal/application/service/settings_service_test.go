package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/field-expense/internal/clock"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSettingsService(repo *mockSettingsRepo) SettingsService {
	c := clock.NewFakeClock(time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC))
	return NewSettingsService(repo, entity.DefaultAppSettings(), c, &mockLogger{})
}

func TestSettingsService_GetDefaultsWhenUnset(t *testing.T) {
	repo := &mockSettingsRepo{}
	svc := newTestSettingsService(repo)

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, got.TAPerKm.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, 20, got.ExpenseEntryStartHour)

	_, err = svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.getCall, "second read should come from cache")
}

func TestSettingsService_GetStored(t *testing.T) {
	stored := entity.DefaultAppSettings()
	stored.MRDALocal = decimal.NewFromInt(150)
	svc := newTestSettingsService(&mockSettingsRepo{stored: &stored})

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, got.MRDALocal.Equal(decimal.NewFromInt(150)))
}

func TestSettingsService_GetError(t *testing.T) {
	svc := newTestSettingsService(&mockSettingsRepo{getErr: errors.New("db down")})

	_, err := svc.Get(context.Background())
	assert.Error(t, err)
}

func TestSettingsService_Update(t *testing.T) {
	hour := func(h int) *int { return &h }
	rate := decimal.RequireFromString("3")

	tests := []struct {
		name    string
		patch   entity.SettingsPatch
		wantErr error
		check   func(t *testing.T, s entity.AppSettings)
	}{
		{
			name:  "partial update keeps other fields",
			patch: entity.SettingsPatch{TAPerKm: &rate},
			check: func(t *testing.T, s entity.AppSettings) {
				assert.True(t, s.TAPerKm.Equal(rate))
				assert.True(t, s.ManagerDAJoint.Equal(decimal.NewFromInt(500)))
			},
		},
		{
			name:  "start hour zero allowed",
			patch: entity.SettingsPatch{ExpenseEntryStartHour: hour(0)},
			check: func(t *testing.T, s entity.AppSettings) {
				assert.Equal(t, 0, s.ExpenseEntryStartHour)
			},
		},
		{
			name:    "start hour above range",
			patch:   entity.SettingsPatch{ExpenseEntryStartHour: hour(24)},
			wantErr: ErrInvalidSettings,
		},
		{
			name:    "negative start hour",
			patch:   entity.SettingsPatch{ExpenseEntryStartHour: hour(-1)},
			wantErr: ErrInvalidSettings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockSettingsRepo{}
			svc := newTestSettingsService(repo)

			got, err := svc.Update(context.Background(), tt.patch)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, repo.saves)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, repo.saves)
			assert.False(t, got.UpdatedAt.IsZero())
			tt.check(t, got)

			cached, err := svc.Get(context.Background())
			require.NoError(t, err)
			tt.check(t, cached)
		})
	}
}

func TestSettingsService_Reset(t *testing.T) {
	stored := entity.DefaultAppSettings()
	stored.OutstationTACap = decimal.NewFromInt(900)
	repo := &mockSettingsRepo{stored: &stored}
	svc := newTestSettingsService(repo)

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, got.OutstationTACap.Equal(decimal.NewFromInt(900)))

	got, err = svc.Reset(context.Background())
	require.NoError(t, err)
	assert.True(t, got.OutstationTACap.Equal(decimal.NewFromInt(500)))
	assert.True(t, repo.stored.OutstationTACap.Equal(decimal.NewFromInt(500)))
}
