package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644)
	require.NoError(t, err)
	return dir
}

func TestInitialize(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("FITZ_WEB", "https://desk.thefitz.hotel")

	dir := writeConfig(t, `
system:
  dashboard_url: "{{.FITZ_WEB}}"
  allowed_origins: ["http://localhost:3000"]
  timezone: Europe/Dublin
auto_close:
  duration: 2m
timeline:
  delay_threshold: 20m
transport:
  refresh_interval: 10m
messaging:
  email_from: frontdesk@thefitz.hotel
auth:
  token_ttl: 4h
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ConfigDir())
	assert.Equal(t, "https://desk.thefitz.hotel", cfg.DashboardURL)
	assert.Equal(t, []string{"https://desk.thefitz.hotel", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, "Europe/Dublin", cfg.Location.String())

	// Overridden values
	assert.Equal(t, 2*time.Minute, cfg.AutoClose.Duration)
	assert.Equal(t, 20*time.Minute, cfg.Timeline.DelayThreshold)
	assert.Equal(t, 10*time.Minute, cfg.Transport.RefreshInterval)
	assert.Equal(t, "frontdesk@thefitz.hotel", cfg.Messaging.EmailFrom)
	assert.Equal(t, 4*time.Hour, cfg.Auth.TokenTTL)

	// Defaults preserved where YAML is silent
	assert.Equal(t, time.Second, cfg.AutoClose.TickInterval)
	assert.Equal(t, AutoCloseStoreMemory, cfg.AutoClose.Store)
	assert.Equal(t, "autoclose:", cfg.AutoClose.KeyPrefix)
	assert.Equal(t, "dublin_airport_to_hotel", cfg.Transport.RouteKey)
	assert.Equal(t, 30*time.Minute, cfg.Transport.ArrivalBuffer)
	assert.Equal(t, "RESEND_API_KEY", cfg.Messaging.ResendKeyEnv)
	assert.Equal(t, "test-secret", cfg.JWTSecret())
}

func TestInitializeMinimalFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	dir := writeConfig(t, "{}\n")

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, DefaultAutoCloseConfig(), cfg.AutoClose)
	assert.Equal(t, DefaultTimelineConfig(), cfg.Timeline)
	assert.Equal(t, DefaultTransportConfig(), cfg.Transport)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "REDIS_URL", cfg.Redis.URLEnv)
}

func TestInitializeConfigNotFound(t *testing.T) {
	_, err := Initialize(context.Background(), "/nonexistent/directory")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestInitializeInvalidYAML(t *testing.T) {
	dir := writeConfig(t, "auto_close: [unclosed\n")

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestInitializeInvalidTimezone(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	dir := writeConfig(t, "system:\n  timezone: Mars/Olympus_Mons\n")

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestInitializeInvalidTokenTTLFallsBack(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	dir := writeConfig(t, "auth:\n  token_ttl: soon\n")

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenTTL)
}

func TestInitializeValidationFailure(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	dir := writeConfig(t, "{}\n")

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}
