package config

import (
	"bytes"
	"log/slog"
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GO_ENV", "PORT", "LOG_LEVEL", "DATABASE_URL", "REDIS_ADDR", "JWT_SECRET", "JWT_EXPIRY", "SESSION_TTL",
		"CORS_ALLOWED_ORIGINS", "REQUEST_TIMEOUT", "LOGIN_RATE_LIMIT", "TRUSTED_PROXIES", "EMAIL_PROVIDER", "EMAIL_FROM_ADDRESS",
		"EMAIL_FROM_NAME", "AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "SES_INSECURE_SKIP_VERIFY",
		"FIRST_SUPERUSER_EMAIL", "FIRST_SUPERUSER_PASSWORD",
	} {
		// Setenv registers the restore; the variable itself must be absent for defaults to apply.
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 10, cfg.LoginRateLimit)
	assert.Equal(t, "noop", cfg.EmailProvider)
	assert.Empty(t, cfg.TrustedProxyPrefixes())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GO_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRY", "15m")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LOGIN_RATE_LIMIT", "5")
	t.Setenv("EMAIL_PROVIDER", " SES ")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("EMAIL_FROM_ADDRESS", "no-reply@example.com")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, 15*time.Minute, cfg.JWTExpiry)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 5, cfg.LoginRateLimit)
	assert.Equal(t, "ses", cfg.EmailProvider)
	assert.Equal(t, []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8"), netip.MustParsePrefix("192.0.2.1/32")}, cfg.TrustedProxyPrefixes())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "production without secret", env: map[string]string{"GO_ENV": "production"}},
		{name: "bad duration", env: map[string]string{"JWT_EXPIRY": "soon"}},
		{name: "negative rate limit", env: map[string]string{"LOGIN_RATE_LIMIT": "-1"}},
		{name: "ses without region", env: map[string]string{"EMAIL_PROVIDER": "ses", "EMAIL_FROM_ADDRESS": "a@b.c"}},
		{name: "bad trusted proxy", env: map[string]string{"TRUSTED_PROXIES": "10.0.0.0/33"}},
		{name: "superuser email without password", env: map[string]string{"FIRST_SUPERUSER_EMAIL": "root@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("production", "warn", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
