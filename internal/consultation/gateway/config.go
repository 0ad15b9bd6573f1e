package gateway

import (
	"strings"
	"time"

	"consultation-booking/internal/common/config"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// MaxBodyBytes caps how much of a response is read.
	MaxBodyBytes int64
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		BaseURL:      strings.TrimRight(cfg.Backend.BaseURL, "/"),
		Timeout:      config.GetDuration(cfg.Backend.Timeout),
		MaxBodyBytes: 1 << 20,
	}
}
