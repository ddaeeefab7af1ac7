package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 5, cfg.WorkerPoolSize)
	assert.Equal(t, "MXN", cfg.StoreCurrency)
	assert.Equal(t, "USD", cfg.ForeignCurrency)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.NotEmpty(t, cfg.DatabaseURL)
	assert.NotEmpty(t, cfg.RedisURL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_CURRENCY", "COP")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "COP", cfg.StoreCurrency)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
}

// Keys with no default must still be readable from the environment.
func TestLoadEnvOnlyKeys(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "reports")
	t.Setenv("SMTP_PASSWORD", "hunter2")
	t.Setenv("REPORT_EMAIL", "owner@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
	assert.Equal(t, "reports", cfg.SMTPUser)
	assert.Equal(t, "hunter2", cfg.SMTPPassword)
	assert.Equal(t, "owner@example.com", cfg.ReportEmail)
}
