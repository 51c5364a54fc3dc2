package config

import "time"

// MessagingConfig holds resolved guest messaging configuration.
type MessagingConfig struct {
	EmailFrom        string // Sender address (default: "concierge@thefitz.hotel")
	ResendKeyEnv     string // Env var for the Resend API key (default: "RESEND_API_KEY")
	TelegramTokenEnv string // Env var for the Telegram bot token (default: "TELEGRAM_BOT_TOKEN")
}

// AuthConfig holds resolved staff authentication configuration.
type AuthConfig struct {
	JWTSecretEnv  string        // Env var for the HS256 signing secret (default: "JWT_SECRET")
	TokenTTL      time.Duration // Lifetime of issued tokens (default: 8h)
	CronSecretEnv string        // Env var for the cron bearer secret (default: "CRON_SECRET")
}

// RedisConfig holds resolved Redis connection configuration.
type RedisConfig struct {
	URLEnv string // Env var holding a redis:// URL (default: "REDIS_URL")
}

// TimelineConfig holds timeline aggregation settings.
type TimelineConfig struct {
	// DelayThreshold is the flight delay above which an arrival is "delayed".
	DelayThreshold time.Duration `yaml:"delay_threshold"`
}

// DefaultTimelineConfig returns the built-in timeline defaults.
func DefaultTimelineConfig() *TimelineConfig {
	return &TimelineConfig{
		DelayThreshold: 15 * time.Minute,
	}
}
