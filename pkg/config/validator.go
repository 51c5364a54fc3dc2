package config

import (
	"fmt"
	"strings"
)

// ConfigValidator validates configuration with clear error messages
type ConfigValidator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration
func NewValidator(cfg *Config) *ConfigValidator {
	return &ConfigValidator{cfg: cfg}
}

// ValidateAll validates every section, stopping at the first error.
func (v *ConfigValidator) ValidateAll() error {
	if err := v.validateAutoClose(); err != nil {
		return fmt.Errorf("auto_close validation failed: %w", err)
	}
	if err := v.validateTimeline(); err != nil {
		return fmt.Errorf("timeline validation failed: %w", err)
	}
	if err := v.validateTransport(); err != nil {
		return fmt.Errorf("transport validation failed: %w", err)
	}
	if err := v.validateAuth(); err != nil {
		return fmt.Errorf("auth validation failed: %w", err)
	}
	return nil
}

func (v *ConfigValidator) validateAutoClose() error {
	ac := v.cfg.AutoClose
	if ac.Duration <= 0 {
		return NewValidationError("auto_close", "duration", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if ac.TickInterval <= 0 {
		return NewValidationError("auto_close", "tick_interval", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if ac.TickInterval > ac.Duration {
		return NewValidationError("auto_close", "tick_interval", fmt.Errorf("%w: must not exceed duration", ErrInvalidValue))
	}
	switch ac.Store {
	case AutoCloseStoreMemory:
	case AutoCloseStoreRedis:
		if v.cfg.RedisURL() == "" {
			return NewValidationError("auto_close", "store",
				fmt.Errorf("%w: environment variable %s is not set", ErrMissingRequiredField, v.cfg.Redis.URLEnv))
		}
	default:
		return NewValidationError("auto_close", "store", fmt.Errorf("%w: %q (want redis or memory)", ErrInvalidValue, ac.Store))
	}
	if strings.TrimSpace(ac.KeyPrefix) == "" {
		return NewValidationError("auto_close", "key_prefix", ErrMissingRequiredField)
	}
	return nil
}

func (v *ConfigValidator) validateTimeline() error {
	if v.cfg.Timeline.DelayThreshold < 0 {
		return NewValidationError("timeline", "delay_threshold", fmt.Errorf("%w: must not be negative", ErrInvalidValue))
	}
	return nil
}

func (v *ConfigValidator) validateTransport() error {
	t := v.cfg.Transport
	if t.RouteKey == "" {
		return NewValidationError("transport", "route_key", ErrMissingRequiredField)
	}
	if t.ArrivalBuffer < 0 {
		return NewValidationError("transport", "arrival_buffer", fmt.Errorf("%w: must not be negative", ErrInvalidValue))
	}
	if t.RefreshInterval < 0 {
		return NewValidationError("transport", "refresh_interval", fmt.Errorf("%w: must not be negative", ErrInvalidValue))
	}
	return nil
}

func (v *ConfigValidator) validateAuth() error {
	if v.cfg.JWTSecret() == "" {
		return NewValidationError("auth", "jwt_secret_env",
			fmt.Errorf("%w: environment variable %s is not set", ErrMissingRequiredField, v.cfg.Auth.JWTSecretEnv))
	}
	if v.cfg.Auth.TokenTTL <= 0 {
		return NewValidationError("auth", "token_ttl", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	return nil
}
