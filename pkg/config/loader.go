package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // Hotel time zones resolve without a system zoneinfo

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the file read from the configuration directory.
const ConfigFileName = "companion.yaml"

// CompanionYAMLConfig represents the complete companion.yaml file structure
type CompanionYAMLConfig struct {
	System    *SystemYAMLConfig    `yaml:"system"`
	AutoClose *AutoCloseConfig     `yaml:"auto_close"`
	Timeline  *TimelineConfig      `yaml:"timeline"`
	Transport *TransportConfig     `yaml:"transport"`
	Messaging *MessagingYAMLConfig `yaml:"messaging"`
	Auth      *AuthYAMLConfig      `yaml:"auth"`
}

// SystemYAMLConfig groups system-wide infrastructure settings.
type SystemYAMLConfig struct {
	DashboardURL   string           `yaml:"dashboard_url"`
	AllowedOrigins []string         `yaml:"allowed_origins"`
	Timezone       string           `yaml:"timezone"`
	Redis          *RedisYAMLConfig `yaml:"redis"`
}

// RedisYAMLConfig holds Redis settings from YAML.
type RedisYAMLConfig struct {
	URLEnv string `yaml:"url_env,omitempty"`
}

// MessagingYAMLConfig holds guest messaging settings from YAML.
type MessagingYAMLConfig struct {
	EmailFrom        string `yaml:"email_from,omitempty"`
	ResendKeyEnv     string `yaml:"resend_key_env,omitempty"`
	TelegramTokenEnv string `yaml:"telegram_token_env,omitempty"`
}

// AuthYAMLConfig holds staff auth settings from YAML.
type AuthYAMLConfig struct {
	JWTSecretEnv  string `yaml:"jwt_secret_env,omitempty"`
	TokenTTL      string `yaml:"token_ttl,omitempty"` // Parsed to time.Duration
	CronSecretEnv string `yaml:"cron_secret_env,omitempty"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
//
// Steps performed:
//  1. Read companion.yaml from configDir
//  2. Expand {{.VAR}} environment references
//  3. Parse YAML into structs
//  4. Merge user sections over built-in defaults
//  5. Validate
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration initialized successfully",
		"timezone", cfg.Location.String(),
		"auto_close_duration", cfg.AutoClose.Duration,
		"auto_close_store", cfg.AutoClose.Store,
		"delay_threshold", cfg.Timeline.DelayThreshold,
		"transport_refresh_interval", cfg.Transport.RefreshInterval)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadCompanionYAML()
	if err != nil {
		return nil, NewLoadError(ConfigFileName, err)
	}

	autoClose := DefaultAutoCloseConfig()
	if yamlCfg.AutoClose != nil {
		if err := mergo.Merge(autoClose, yamlCfg.AutoClose, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge auto_close config: %w", err)
		}
	}

	timeline := DefaultTimelineConfig()
	if yamlCfg.Timeline != nil {
		if err := mergo.Merge(timeline, yamlCfg.Timeline, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge timeline config: %w", err)
		}
	}

	transport := DefaultTransportConfig()
	if yamlCfg.Transport != nil {
		if err := mergo.Merge(transport, yamlCfg.Transport, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge transport config: %w", err)
		}
	}

	location, err := resolveLocation(yamlCfg.System)
	if err != nil {
		return nil, err
	}

	return &Config{
		configDir:      configDir,
		DashboardURL:   resolveDashboardURL(yamlCfg.System),
		AllowedOrigins: resolveAllowedOrigins(yamlCfg.System),
		Location:       location,
		AutoClose:      autoClose,
		Timeline:       timeline,
		Transport:      transport,
		Messaging:      resolveMessagingConfig(yamlCfg.Messaging),
		Auth:           resolveAuthConfig(yamlCfg.Auth),
		Redis:          resolveRedisConfig(yamlCfg.System),
	}, nil
}

func validate(cfg *Config) error {
	return NewValidator(cfg).ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadCompanionYAML() (*CompanionYAMLConfig, error) {
	var config CompanionYAMLConfig
	if err := l.loadYAML(ConfigFileName, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// resolveLocation loads the hotel time zone. Empty means the process local zone.
func resolveLocation(sys *SystemYAMLConfig) (*time.Location, error) {
	if sys == nil || sys.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(sys.Timezone)
	if err != nil {
		return nil, NewValidationError("system", "timezone", fmt.Errorf("%w: %v", ErrInvalidValue, err))
	}
	return loc, nil
}

func resolveDashboardURL(sys *SystemYAMLConfig) string {
	if sys != nil && sys.DashboardURL != "" {
		return sys.DashboardURL
	}
	return "http://localhost:5173"
}

// resolveAllowedOrigins returns CORS origins; the dashboard URL is always allowed.
func resolveAllowedOrigins(sys *SystemYAMLConfig) []string {
	origins := []string{resolveDashboardURL(sys)}
	if sys != nil {
		origins = append(origins, sys.AllowedOrigins...)
	}
	return origins
}

func resolveRedisConfig(sys *SystemYAMLConfig) *RedisConfig {
	cfg := &RedisConfig{URLEnv: "REDIS_URL"}
	if sys != nil && sys.Redis != nil && sys.Redis.URLEnv != "" {
		cfg.URLEnv = sys.Redis.URLEnv
	}
	return cfg
}

func resolveMessagingConfig(m *MessagingYAMLConfig) *MessagingConfig {
	cfg := &MessagingConfig{
		EmailFrom:        "concierge@thefitz.hotel",
		ResendKeyEnv:     "RESEND_API_KEY",
		TelegramTokenEnv: "TELEGRAM_BOT_TOKEN",
	}
	if m == nil {
		return cfg
	}
	if m.EmailFrom != "" {
		cfg.EmailFrom = m.EmailFrom
	}
	if m.ResendKeyEnv != "" {
		cfg.ResendKeyEnv = m.ResendKeyEnv
	}
	if m.TelegramTokenEnv != "" {
		cfg.TelegramTokenEnv = m.TelegramTokenEnv
	}
	return cfg
}

func resolveAuthConfig(a *AuthYAMLConfig) *AuthConfig {
	cfg := &AuthConfig{
		JWTSecretEnv:  "JWT_SECRET",
		TokenTTL:      8 * time.Hour,
		CronSecretEnv: "CRON_SECRET",
	}
	if a == nil {
		return cfg
	}
	if a.JWTSecretEnv != "" {
		cfg.JWTSecretEnv = a.JWTSecretEnv
	}
	if a.CronSecretEnv != "" {
		cfg.CronSecretEnv = a.CronSecretEnv
	}
	if a.TokenTTL != "" {
		if d, err := time.ParseDuration(a.TokenTTL); err == nil {
			cfg.TokenTTL = d
		} else {
			slog.Warn("Invalid token_ttl in auth config, using default",
				"value", a.TokenTTL,
				"default", cfg.TokenTTL,
				"error", err)
		}
	}
	return cfg
}
