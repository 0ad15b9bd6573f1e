package session

import (
	"time"

	"consultation-booking/internal/common/config"
	apperrors "consultation-booking/internal/common/errors"
	"consultation-booking/internal/consultation/phone"
	"consultation-booking/internal/consultation/scheduling"
)

type Config struct {
	Phone                 phone.Normalizer
	DefaultTimezone       string
	EventTypeSlug         string
	SlotRetries           int
	RetryDelay            time.Duration
	PartialCaptureTimeout time.Duration
	LedgerTTL             time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Phone:                 phone.NewNormalizer(cfg.Phone.CountryCode, cfg.Phone.MaxDigits),
		DefaultTimezone:       cfg.Scheduling.DefaultTimezone,
		EventTypeSlug:         cfg.Scheduling.EventTypeSlug,
		SlotRetries:           cfg.Scheduling.SlotRetries,
		RetryDelay:            config.GetDuration(cfg.Scheduling.RetryDelay),
		PartialCaptureTimeout: config.GetDuration(cfg.Backend.PartialCaptureTimeout),
		LedgerTTL:             config.GetDuration(cfg.Cache.LedgerTTL),
	}
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.Phone.CountryCode == "" || out.Phone.MaxDigits == 0 {
		out.Phone = phone.NewNormalizer(out.Phone.CountryCode, out.Phone.MaxDigits)
	}
	if out.DefaultTimezone == "" {
		out.DefaultTimezone = scheduling.DefaultTimezone
	}
	if out.SlotRetries <= 0 {
		out.SlotRetries = apperrors.GetRetryCount(apperrors.ErrCodeSlotsUnavailable)
	}
	if out.PartialCaptureTimeout <= 0 {
		out.PartialCaptureTimeout = 5 * time.Second
	}
	if out.LedgerTTL <= 0 {
		out.LedgerTTL = 24 * time.Hour
	}
	return &out
}
