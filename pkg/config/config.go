package config

import (
	"os"
	"time"
)

// Config is the resolved configuration returned by Initialize and passed
// to every component at startup.
type Config struct {
	configDir string

	DashboardURL   string
	AllowedOrigins []string

	// Location defines local midnight and hour buckets for the timeline.
	Location *time.Location

	AutoClose *AutoCloseConfig
	Timeline  *TimelineConfig
	Transport *TransportConfig
	Messaging *MessagingConfig
	Auth      *AuthConfig
	Redis     *RedisConfig
}

// ConfigDir returns the configuration directory path
func (c *Config) ConfigDir() string {
	return c.configDir
}

// JWTSecret returns the signing secret from the configured env var.
func (c *Config) JWTSecret() string {
	return os.Getenv(c.Auth.JWTSecretEnv)
}

// CronSecret returns the cron bearer secret. Empty disables the check.
func (c *Config) CronSecret() string {
	return os.Getenv(c.Auth.CronSecretEnv)
}

// ResendAPIKey returns the Resend key. Empty puts email in demo mode.
func (c *Config) ResendAPIKey() string {
	return os.Getenv(c.Messaging.ResendKeyEnv)
}

// TelegramToken returns the bot token. Empty puts Telegram in demo mode.
func (c *Config) TelegramToken() string {
	return os.Getenv(c.Messaging.TelegramTokenEnv)
}

// GoogleMapsKey returns the Distance Matrix key. Empty skips live traffic.
func (c *Config) GoogleMapsKey() string {
	return os.Getenv(c.Transport.GoogleMapsKeyEnv)
}

// RedisURL returns the Redis URL, required when the auto-close store is redis.
func (c *Config) RedisURL() string {
	return os.Getenv(c.Redis.URLEnv)
}
