package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the tool reads.
const EnvPrefix = "BOTCHECK_"

// Config holds all configuration options for botcheck
type Config struct {
	// Follower-listing API
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// Reputation-scoring API
	Botometer BotometerConfig `yaml:"botometer" json:"botometer"`

	// API keys (may also come from the credential stores)
	Credentials CredentialsConfig `yaml:"credentials" json:"credentials"`

	// Enrichment pass settings
	Check CheckConfig `yaml:"check" json:"check"`

	// Per-account database location
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// CSV export settings
	Export ExportConfig `yaml:"export" json:"export"`

	// Recurring runs
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TwitterConfig holds follower-listing API settings
type TwitterConfig struct {
	BaseURL         string        `yaml:"base_url" json:"base_url" validate:"required,url"`
	TokenURL        string        `yaml:"token_url" json:"token_url" validate:"required,url"`
	PageSize        int           `yaml:"page_size" json:"page_size" validate:"gte=1,lte=200"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
	RateLimitCalls  int           `yaml:"rate_limit_calls" json:"rate_limit_calls" validate:"gte=1"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window" json:"rate_limit_window" validate:"gt=0"`
	// RateLimitWait is used when a 429 carries no reset header.
	RateLimitWait time.Duration `yaml:"rate_limit_wait" json:"rate_limit_wait" validate:"gt=0"`
}

// BotometerConfig holds reputation-scoring API settings
type BotometerConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url" validate:"required,url"`
	Host    string        `yaml:"host" json:"host" validate:"required"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
}

// CredentialsConfig holds API keys supplied through config, env or flags
type CredentialsConfig struct {
	ConsumerKey    string `yaml:"consumer_key" json:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret" json:"consumer_secret"`
	RapidAPIKey    string `yaml:"rapidapi_key" json:"rapidapi_key"`
	// File points at a credentials.json in the twitter_app_auth/botometer_auth layout.
	File    string `yaml:"file" json:"file"`
	Profile string `yaml:"profile" json:"profile"`
}

// CheckConfig holds enrichment pass settings
type CheckConfig struct {
	TTLDays        int           `yaml:"ttl_days" json:"ttl_days" validate:"gte=0,lte=360"`
	DailyCap       int           `yaml:"daily_cap" json:"daily_cap" validate:"gte=0"`
	CallInterval   time.Duration `yaml:"call_interval" json:"call_interval" validate:"gte=0"`
	QuotaCooldown  time.Duration `yaml:"quota_cooldown" json:"quota_cooldown" validate:"gte=0"`
	BacklogWarning int           `yaml:"backlog_warning" json:"backlog_warning" validate:"gte=0"`
}

// StorageConfig holds database location settings
type StorageConfig struct {
	DataDir string `yaml:"data_dir" json:"data_dir" validate:"required"`
	// Database overrides the derived <data_dir>/<account>_followers.db path.
	Database string `yaml:"database" json:"database"`
}

// ExportConfig holds CSV export settings
type ExportConfig struct {
	Auto bool `yaml:"auto" json:"auto"`
	// Directory defaults to the storage data_dir when empty.
	Directory string `yaml:"directory" json:"directory"`
}

// ScheduleConfig holds settings for the schedule command
type ScheduleConfig struct {
	Spec string `yaml:"spec" json:"spec" validate:"required"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnComplete       bool   `yaml:"on_complete" json:"on_complete"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	NotificationType string `yaml:"notification_type" json:"notification_type" validate:"oneof=terminal desktop none"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn warning error"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			BaseURL:         "https://api.twitter.com",
			TokenURL:        "https://api.twitter.com/oauth2/token",
			PageSize:        200,
			Timeout:         30 * time.Second,
			RateLimitCalls:  15,
			RateLimitWindow: 15 * time.Minute,
			RateLimitWait:   60 * time.Second,
		},
		Botometer: BotometerConfig{
			BaseURL: "https://botometer-pro.p.rapidapi.com",
			Host:    "botometer-pro.p.rapidapi.com",
			Timeout: 60 * time.Second,
		},
		Check: CheckConfig{
			TTLDays:        180,
			DailyCap:       480,
			CallInterval:   time.Second,
			QuotaCooldown:  15 * time.Minute,
			BacklogWarning: 500,
		},
		Storage: StorageConfig{
			DataDir: "data",
		},
		Export: ExportConfig{
			Auto: true,
		},
		Schedule: ScheduleConfig{
			Spec: "@daily",
		},
		Notifications: NotificationConfig{
			Enabled:          true,
			OnComplete:       true,
			OnError:          true,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	setString("CONSUMER_KEY", &c.Credentials.ConsumerKey)
	setString("CONSUMER_SECRET", &c.Credentials.ConsumerSecret)
	setString("RAPIDAPI_KEY", &c.Credentials.RapidAPIKey)
	setString("CREDENTIALS_FILE", &c.Credentials.File)

	setString("DATA_DIR", &c.Storage.DataDir)
	setString("DATABASE", &c.Storage.Database)
	setString("EXPORT_DIR", &c.Export.Directory)

	setInt("TTL_DAYS", &c.Check.TTLDays)
	setInt("DAILY_CAP", &c.Check.DailyCap)
	setDuration("CALL_INTERVAL", &c.Check.CallInterval)
	setDuration("QUOTA_COOLDOWN", &c.Check.QuotaCooldown)

	setString("SCHEDULE", &c.Schedule.Spec)
	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FILE", &c.Logging.File)

	if v := os.Getenv(EnvPrefix + "NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.EqualFold(v, "true")
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"botcheck.yaml",
		"botcheck.yml",
		".botcheck.yaml",
		".botcheck.yml",
		filepath.Join(home, ".config", "botcheck", "config.yaml"),
		filepath.Join(home, ".config", "botcheck", "config.yml"),
		filepath.Join(home, ".botcheck.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			errs = append(errs, fmt.Errorf("%s: must satisfy %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			errs = append(errs, fmt.Errorf("%s: %s", fe.Namespace(), fe.Tag()))
		}
	}
	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["ttl-days"].(int); ok {
		c.Check.TTLDays = v
	}
	if v, ok := flags["daily-cap"].(int); ok {
		c.Check.DailyCap = v
	}
	if v, ok := flags["call-interval"].(time.Duration); ok {
		c.Check.CallInterval = v
	}
	if v, ok := flags["quota-cooldown"].(time.Duration); ok {
		c.Check.QuotaCooldown = v
	}
	if v, ok := flags["data-dir"].(string); ok && v != "" {
		c.Storage.DataDir = v
	}
	if v, ok := flags["database"].(string); ok && v != "" {
		c.Storage.Database = v
	}
	if v, ok := flags["export-dir"].(string); ok && v != "" {
		c.Export.Directory = v
	}
	if v, ok := flags["auto-export"].(bool); ok {
		c.Export.Auto = v
	}
	if v, ok := flags["credentials-file"].(string); ok && v != "" {
		c.Credentials.File = v
	}
	if v, ok := flags["profile"].(string); ok && v != "" {
		c.Credentials.Profile = v
	}
	if v, ok := flags["schedule"].(string); ok && v != "" {
		c.Schedule.Spec = v
	}
	if v, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".botcheck.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
