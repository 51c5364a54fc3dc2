package config

import "time"

// Auto-close timer state backends.
const (
	AutoCloseStoreRedis  = "redis"
	AutoCloseStoreMemory = "memory"
)

// AutoCloseConfig controls the unattended close of confirmed tickets.
type AutoCloseConfig struct {
	// Duration is how long a ticket stays confirmed before it is closed.
	Duration time.Duration `yaml:"duration"`

	// TickInterval is how often armed timers are re-evaluated.
	TickInterval time.Duration `yaml:"tick_interval"`

	// Store selects where armed start times are kept: "redis" or "memory".
	Store string `yaml:"store"`

	// KeyPrefix is prepended to the ticket id for persisted start times.
	KeyPrefix string `yaml:"key_prefix"`
}

// DefaultAutoCloseConfig returns the built-in auto-close defaults.
func DefaultAutoCloseConfig() *AutoCloseConfig {
	return &AutoCloseConfig{
		Duration:     5 * time.Minute,
		TickInterval: 1 * time.Second,
		Store:        AutoCloseStoreMemory,
		KeyPrefix:    "autoclose:",
	}
}
