// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Backend    BackendConfig    `mapstructure:"backend"`
	Phone      PhoneConfig      `mapstructure:"phone"`
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// BackendConfig points at the remote contact/booking service.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
	// PartialCaptureTimeout bounds the detached abandonment request.
	PartialCaptureTimeout int `mapstructure:"partial_capture_timeout"` // milliseconds
}

type PhoneConfig struct {
	CountryCode string `mapstructure:"country_code"`
	MaxDigits   int    `mapstructure:"max_digits"`
}

type SchedulingConfig struct {
	DefaultTimezone string `mapstructure:"default_timezone"`
	EventTypeSlug   string `mapstructure:"event_type_slug"`
	SlotRetries     int    `mapstructure:"slot_retries"`
	RetryDelay      int    `mapstructure:"retry_delay"` // milliseconds
	SamplesPath     string `mapstructure:"samples_path"`
}

type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
	// LedgerTTL is how long a created booking is remembered, in milliseconds.
	LedgerTTL int `mapstructure:"ledger_ttl"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// String renders a redacted summary for startup logs.
func (c *Config) String() string {
	return fmt.Sprintf("app=%s env=%s backend=%s tz=%s redis=%t",
		c.App.Name, c.App.Environment, c.Backend.BaseURL, c.Scheduling.DefaultTimezone, c.Cache.Redis.Enabled())
}
