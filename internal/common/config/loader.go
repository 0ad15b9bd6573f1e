// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	apperrors "consultation-booking/internal/common/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL  = "https://contact-form.up.railway.app"
	DefaultTimezone = "Asia/Dhaka"
)

// Load reads configs/config.yaml (and config.<APP_ENVIRONMENT>.yaml when
// present), then applies environment overrides and defaults.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// BACKEND_BASE_URL overrides backend.base_url
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		"backend.base_url",
		"backend.timeout",
		"scheduling.default_timezone",
		"scheduling.event_type_slug",
		"cache.redis.address",
		"cache.redis.password",
		"logging.level",
	} {
		_ = v.BindEnv(key)
	}
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied, for callers
// that run without a config file.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)
	return &cfg
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			// unset variables expand to "" so overrideEmptyConfig can fill them
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Backend.BaseURL == "" {
		if val := os.Getenv("CONTACT_API_URL"); val != "" {
			cfg.Backend.BaseURL = val
		} else {
			cfg.Backend.BaseURL = DefaultBaseURL
		}
	}
	if cfg.Cache.Redis.Address == "" {
		if val := os.Getenv("REDIS_URL"); val != "" {
			cfg.Cache.Redis.Address = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "consultation-booking"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 15000
	}
	if cfg.Backend.PartialCaptureTimeout == 0 {
		cfg.Backend.PartialCaptureTimeout = 5000
	}

	if cfg.Phone.CountryCode == "" {
		cfg.Phone.CountryCode = "880"
	}
	if cfg.Phone.MaxDigits == 0 {
		cfg.Phone.MaxDigits = 10
	}

	if cfg.Scheduling.DefaultTimezone == "" {
		cfg.Scheduling.DefaultTimezone = DefaultTimezone
	}
	if cfg.Scheduling.SlotRetries == 0 {
		cfg.Scheduling.SlotRetries = apperrors.GetRetryCount(apperrors.ErrCodeSlotsUnavailable)
	}
	if cfg.Scheduling.RetryDelay == 0 {
		cfg.Scheduling.RetryDelay = 500
	}

	if cfg.Cache.LedgerTTL == 0 {
		cfg.Cache.LedgerTTL = int((24 * time.Hour).Milliseconds())
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	u, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute URL, got %q", cfg.Backend.BaseURL)
	}

	for _, r := range cfg.Phone.CountryCode {
		if r < '0' || r > '9' {
			return fmt.Errorf("phone.country_code must contain digits only, got %q", cfg.Phone.CountryCode)
		}
	}
	if cfg.Phone.MaxDigits < 1 {
		return fmt.Errorf("phone.max_digits must be positive")
	}

	if _, err := time.LoadLocation(cfg.Scheduling.DefaultTimezone); err != nil {
		return fmt.Errorf("scheduling.default_timezone %q: %w", cfg.Scheduling.DefaultTimezone, err)
	}
	if cfg.Scheduling.SlotRetries < 0 {
		return fmt.Errorf("scheduling.slot_retries must not be negative")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
