package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/garyjia/field-expense/internal/ai"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/garyjia/field-expense/internal/expense"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Lark     LarkConfig     `mapstructure:"lark"`
	Expense  ExpenseConfig  `mapstructure:"expense"`
	AI       AIConfig       `mapstructure:"ai"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Report   ReportConfig   `mapstructure:"report"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// OpenAIConfig holds vision model configuration. An empty APIKey runs the
// validators offline.
type OpenAIConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	Model       string `mapstructure:"model"`
	PromptsPath string `mapstructure:"prompts_path"`
}

// LarkConfig holds Lark messaging configuration
type LarkConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	AppID         string        `mapstructure:"app_id"`
	AppSecret     string        `mapstructure:"app_secret"`
	ReceiveIDType string        `mapstructure:"receive_id_type"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// ExpenseConfig holds expense engine configuration
type ExpenseConfig struct {
	Timezone              string `mapstructure:"timezone"`
	UnusualAmountSeverity string `mapstructure:"unusual_amount_severity"`
	MaxDistanceKm         string `mapstructure:"max_distance_km"`
	MaxHotelBill          string `mapstructure:"max_hotel_bill"`
	EntryStartHour        int    `mapstructure:"entry_start_hour"`
}

// AIConfig holds image verdict thresholds
type AIConfig struct {
	HighThreshold int    `mapstructure:"high_threshold"`
	LowThreshold  int    `mapstructure:"low_threshold"`
	MaxBillAmount string `mapstructure:"max_bill_amount"`
}

// StorageConfig holds proof photo storage configuration
type StorageConfig struct {
	PhotoDir string `mapstructure:"photo_dir"`
}

// ReportConfig holds statement configuration
type ReportConfig struct {
	CompanyName string `mapstructure:"company_name"`
}

// WorkerConfig holds notification worker configuration
type WorkerConfig struct {
	NotificationInterval time.Duration `mapstructure:"notification_interval"`
	MaxAttempts          int           `mapstructure:"max_attempts"`
	BatchSize            int           `mapstructure:"batch_size"`
}

// MetricsConfig holds Prometheus configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from an optional YAML file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_bytes", 10<<20)

	v.SetDefault("database.path", "data/expenses.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("openai.model", "gpt-4o")

	v.SetDefault("lark.enabled", false)
	v.SetDefault("lark.receive_id_type", "user_id")
	v.SetDefault("lark.timeout", 10*time.Second)

	v.SetDefault("expense.timezone", "Local")
	v.SetDefault("expense.unusual_amount_severity", string(expense.SeverityBlocking))
	v.SetDefault("expense.max_distance_km", "1000")
	v.SetDefault("expense.max_hotel_bill", "10000")
	v.SetDefault("expense.entry_start_hour", 20)

	v.SetDefault("ai.high_threshold", 90)
	v.SetDefault("ai.low_threshold", 70)
	v.SetDefault("ai.max_bill_amount", "10000")

	v.SetDefault("storage.photo_dir", "data/photos")

	v.SetDefault("report.company_name", "Field Expense")

	v.SetDefault("worker.notification_interval", 30*time.Second)
	v.SetDefault("worker.max_attempts", 3)
	v.SetDefault("worker.batch_size", 20)

	v.SetDefault("metrics.enabled", true)
}

// bindEnvVars binds credentials that are conventionally set without a prefix
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("lark.app_id", "LARK_APP_ID")
	_ = v.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	_ = v.BindEnv("database.path", "DATABASE_PATH")
	_ = v.BindEnv("report.company_name", "COMPANY_NAME")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path is required"))
	}

	if c.Lark.Enabled && (c.Lark.AppID == "" || c.Lark.AppSecret == "") {
		errs = append(errs, fmt.Errorf("lark.app_id and lark.app_secret are required when lark is enabled"))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.ValidationPolicy(); err != nil {
		errs = append(errs, err)
	}
	if h := c.Expense.EntryStartHour; h < 0 || h > 23 {
		errs = append(errs, fmt.Errorf("expense.entry_start_hour must be between 0 and 23, got %d", h))
	}

	if err := c.Thresholds().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ai thresholds: %w", err))
	}
	if _, err := c.MaxBillAmount(); err != nil {
		errs = append(errs, err)
	}

	if c.Storage.PhotoDir == "" {
		errs = append(errs, fmt.Errorf("storage.photo_dir is required"))
	}
	if c.Worker.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("worker.max_attempts must be positive"))
	}

	return errors.Join(errs...)
}

// Location returns the timezone the entry window is evaluated in
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Expense.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid expense.timezone %q: %w", c.Expense.Timezone, err)
	}
	return loc, nil
}

// ValidationPolicy builds the engine's policy for unusually high amounts
func (c *Config) ValidationPolicy() (expense.ValidationPolicy, error) {
	severity := expense.Severity(strings.ToLower(c.Expense.UnusualAmountSeverity))
	if severity != expense.SeverityBlocking && severity != expense.SeverityWarning {
		return expense.ValidationPolicy{}, fmt.Errorf("expense.unusual_amount_severity must be blocking or warning, got %q", c.Expense.UnusualAmountSeverity)
	}

	maxDistance, err := parseAmount("expense.max_distance_km", c.Expense.MaxDistanceKm)
	if err != nil {
		return expense.ValidationPolicy{}, err
	}
	maxBill, err := parseAmount("expense.max_hotel_bill", c.Expense.MaxHotelBill)
	if err != nil {
		return expense.ValidationPolicy{}, err
	}

	return expense.ValidationPolicy{
		UnusualAmountSeverity: severity,
		MaxDistanceKm:         maxDistance,
		MaxHotelBill:          maxBill,
	}, nil
}

// DefaultSettings returns the rate table seeded before an admin edits it
func (c *Config) DefaultSettings() entity.AppSettings {
	s := entity.DefaultAppSettings()
	s.ExpenseEntryStartHour = c.Expense.EntryStartHour
	return s
}

// Thresholds returns the confidence routing thresholds
func (c *Config) Thresholds() ai.ConfidenceThreshold {
	t := ai.DefaultConfidenceThreshold()
	t.HighThreshold = c.AI.HighThreshold
	t.LowThreshold = c.AI.LowThreshold
	return t
}

// MaxBillAmount returns the largest bill amount the validator accepts as plausible
func (c *Config) MaxBillAmount() (decimal.Decimal, error) {
	return parseAmount("ai.max_bill_amount", c.AI.MaxBillAmount)
}

func parseAmount(key, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be positive, got %s", key, value)
	}
	return d, nil
}
