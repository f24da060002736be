package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values
const (
	EnvDatabaseURL   = "VMS_DATABASE_URL"
	EnvAdminPassword = "VMS_ADMIN_PASSWORD"
	EnvRedisAddr     = "VMS_REDIS_ADDR"
)

// Database backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// DatabaseConfig selects and locates the store
type DatabaseConfig struct {
	Backend string `yaml:"backend" validate:"required,oneof=memory postgres"`
	URL     string `yaml:"url,omitempty" validate:"required_if=Backend postgres"`
}

// GmailConfig enables email notifications through the Gmail API
type GmailConfig struct {
	Sender string `yaml:"sender,omitempty"`
	// Recipient for volunteer notifications when the volunteer has no email on file
	FallbackTo string `yaml:"fallbackTo,omitempty" validate:"omitempty,email"`
}

// RedisConfig enables publishing notifications onto a Redis list
type RedisConfig struct {
	Addr  string `yaml:"addr" validate:"required"`
	DB    int    `yaml:"db,omitempty" validate:"min=0"`
	Queue string `yaml:"queue" validate:"required"`
}

// KafkaConfig enables publishing notifications onto a Kafka topic
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" validate:"required,min=1,dive,required"`
	Topic   string   `yaml:"topic" validate:"required"`
}

// NotificationsConfig lists the enabled notification sinks. Any number may be
// enabled at once.
type NotificationsConfig struct {
	Log   bool         `yaml:"log"`
	Gmail *GmailConfig `yaml:"gmail,omitempty"`
	Redis *RedisConfig `yaml:"redis,omitempty"`
	Kafka *KafkaConfig `yaml:"kafka,omitempty"`
}

// DefaultAPIAddr is used when api.addr is not set
const DefaultAPIAddr = ":8080"

// APIConfig configures the HTTP server started by serve
type APIConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// ReportingConfig defines reporting periods for batch timesheet generation
type ReportingConfig struct {
	// RRULE whose occurrences mark the last day of each reporting period
	PeriodRule string `yaml:"periodRule" validate:"required"`
	PeriodDays int    `yaml:"periodDays" validate:"required,min=1"`
	// Standard 5-field cron spec for running period generation inside serve
	Schedule string `yaml:"schedule,omitempty"`
}

// SheetsConfig locates the Google Sheets used for import and publishing
type SheetsConfig struct {
	VolunteerSheetID string `yaml:"volunteerSheetID" validate:"required"`
	VolunteersTab    string `yaml:"volunteersTab" validate:"required"`
	TimesheetSheetID string `yaml:"timesheetSheetID" validate:"required"`
}

// AdminConfig is the default administrator account created by seeding
type AdminConfig struct {
	Username  string `yaml:"username" validate:"required"`
	FirstName string `yaml:"firstName,omitempty"`
	LastName  string `yaml:"lastName,omitempty"`
	Email     string `yaml:"email" validate:"required,email"`
	Password  string `yaml:"password,omitempty" validate:"required,min=8"`
}

// Config represents the application configuration
type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	Notifications NotificationsConfig `yaml:"notifications"`
	API           APIConfig           `yaml:"api"`
	Reporting     *ReportingConfig    `yaml:"reporting,omitempty"`
	Sheets        *SheetsConfig       `yaml:"sheets,omitempty"`
	Admin         AdminConfig         `yaml:"admin"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads vms_config.<env>.yaml after reading an optional .env file.
// It looks for the config file in the current directory first, then in the user's home directory.
func LoadWithEnv(env string) (*Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads the configuration from a specific path, applies
// environment overrides and validates the result
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if url := os.Getenv(EnvDatabaseURL); url != "" {
		cfg.Database.URL = url
	}
	if password := os.Getenv(EnvAdminPassword); password != "" {
		cfg.Admin.Password = password
	}
	if addr := os.Getenv(EnvRedisAddr); addr != "" && cfg.Notifications.Redis != nil {
		cfg.Notifications.Redis.Addr = addr
	}
}

// Validate validates the configuration struct and checks rrule and cron syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Reporting != nil {
		if _, err := rrule.StrToRRule(cfg.Reporting.PeriodRule); err != nil {
			return fmt.Errorf("invalid rrule in reporting.periodRule: %w", err)
		}
		if cfg.Reporting.Schedule != "" {
			if _, err := cron.ParseStandard(cfg.Reporting.Schedule); err != nil {
				return fmt.Errorf("invalid cron spec in reporting.schedule: %w", err)
			}
		}
	}

	return nil
}

// findConfigFile searches for vms_config.<env>.yaml
func findConfigFile(env string) (string, error) {
	return findInSearchPath(fmt.Sprintf("vms_config.%s.yaml", env))
}

// findInSearchPath looks for fileName in the current directory, then in the user's home directory
func findInSearchPath(fileName string) (string, error) {
	if _, err := os.Stat(fileName); err == nil {
		return fileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, fileName)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", fileName)
}
