package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/field-expense/internal/expense"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/expenses.db", cfg.Database.Path)
	assert.Equal(t, 3, cfg.Worker.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Worker.NotificationInterval)
	assert.False(t, cfg.Lark.Enabled)
	assert.Equal(t, 20, cfg.DefaultSettings().ExpenseEntryStartHour)

	policy, err := cfg.ValidationPolicy()
	require.NoError(t, err)
	assert.Equal(t, expense.DefaultValidationPolicy().UnusualAmountSeverity, policy.UnusualAmountSeverity)
	assert.True(t, policy.MaxDistanceKm.Equal(decimal.NewFromInt(1000)))
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
expense:
  timezone: Asia/Kolkata
  unusual_amount_severity: warning
  max_hotel_bill: 8000
  entry_start_hour: 19
ai:
  high_threshold: 85
  low_threshold: 60
worker:
  notification_interval: 5s
`)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("COMPANY_NAME", "Acme Pharma")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "Acme Pharma", cfg.Report.CompanyName)
	assert.Equal(t, 5*time.Second, cfg.Worker.NotificationInterval)
	assert.Equal(t, 85, cfg.Thresholds().HighThreshold)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())

	policy, err := cfg.ValidationPolicy()
	require.NoError(t, err)
	assert.Equal(t, expense.SeverityWarning, policy.UnusualAmountSeverity)
	assert.True(t, policy.MaxHotelBill.Equal(decimal.NewFromInt(8000)))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"lark without credentials", func(c *Config) { c.Lark.Enabled = true }, "lark.app_id"},
		{"unknown timezone", func(c *Config) { c.Expense.Timezone = "Mars/Olympus" }, "expense.timezone"},
		{"unknown severity", func(c *Config) { c.Expense.UnusualAmountSeverity = "fatal" }, "unusual_amount_severity"},
		{"start hour", func(c *Config) { c.Expense.EntryStartHour = 24 }, "entry_start_hour"},
		{"inverted thresholds", func(c *Config) { c.AI.HighThreshold = 50 }, "ai thresholds"},
		{"bill amount", func(c *Config) { c.AI.MaxBillAmount = "-1" }, "ai.max_bill_amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
