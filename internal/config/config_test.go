//go:build unit

package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"LOG_LEVEL", "ENABLE_AUTHENTICATION", "BEARER_TOKEN", "REDIS_URL", "INTEGRATIONS_FILE", "GITLAB_API_PATH", "GITLAB_TIMEOUT_SECONDS", "PORT"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.EnableAuthentication)
	assert.Equal(t, "/api/v4", cfg.GitLabAPIPath)
	assert.Equal(t, 30*time.Second, cfg.GitLabTimeout)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENABLE_AUTHENTICATION", "TRUE")
	t.Setenv("BEARER_TOKEN", "secret")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("INTEGRATIONS_FILE", "/etc/bridge/integrations.yaml")
	t.Setenv("GITLAB_TIMEOUT_SECONDS", "5")
	t.Setenv("PORT", "9090")

	cfg := LoadConfig()

	assert.Equal(t, slog.LevelDebug, cfg.GetLogLevel())
	assert.True(t, cfg.EnableAuthentication)
	assert.Equal(t, "secret", cfg.BearerToken)
	assert.Equal(t, "/etc/bridge/integrations.yaml", cfg.IntegrationsFile)
	assert.Equal(t, 5*time.Second, cfg.GitLabTimeout)
	assert.Equal(t, "9090", cfg.Port)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			RedisURL:      "redis://localhost:6379/0",
			GitLabAPIPath: "/api/v4",
			GitLabTimeout: time.Second,
		}
	}

	tests := []struct {
		name          string
		mutate        func(c *Config)
		expectedField string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing redis url", mutate: func(c *Config) { c.RedisURL = "" }, expectedField: "REDIS_URL"},
		{name: "auth without token", mutate: func(c *Config) { c.EnableAuthentication = true }, expectedField: "BEARER_TOKEN"},
		{name: "relative api path", mutate: func(c *Config) { c.GitLabAPIPath = "api/v4" }, expectedField: "GITLAB_API_PATH"},
		{name: "zero timeout", mutate: func(c *Config) { c.GitLabTimeout = 0 }, expectedField: "GITLAB_TIMEOUT_SECONDS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectedField == "" {
				assert.NoError(t, err)
				return
			}

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.expectedField, cfgErr.Field)
		})
	}
}

func TestConfig_GetLogLevel(t *testing.T) {
	levels := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}

	for in, want := range levels {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.GetLogLevel(), in)
	}
}
