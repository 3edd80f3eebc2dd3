package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	// Logging configuration
	LogLevel string

	// Authentication configuration
	EnableAuthentication bool
	BearerToken          string

	// Redis configuration
	RedisURL string

	// Integrations seeded into Redis at startup (optional YAML file)
	IntegrationsFile string

	// GitLab configuration
	GitLabAPIPath string
	GitLabTimeout time.Duration

	// Server configuration
	Port string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		// Logging
		LogLevel: getEnvString("LOG_LEVEL", "info"),

		// Authentication
		EnableAuthentication: getEnvBool("ENABLE_AUTHENTICATION", false),
		BearerToken:          getEnvString("BEARER_TOKEN", ""),

		// Redis
		RedisURL: getEnvString("REDIS_URL", ""),

		IntegrationsFile: getEnvString("INTEGRATIONS_FILE", ""),

		// GitLab
		GitLabAPIPath: getEnvString("GITLAB_API_PATH", "/api/v4"),
		GitLabTimeout: time.Duration(getEnvInt("GITLAB_TIMEOUT_SECONDS", 30)) * time.Second,

		// Server
		Port: getEnvString("PORT", "8080"),
	}
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return &ConfigError{Field: "REDIS_URL", Message: "Redis URL is required"}
	}

	if c.EnableAuthentication && c.BearerToken == "" {
		return &ConfigError{Field: "BEARER_TOKEN", Message: "Bearer token is required when authentication is enabled"}
	}

	if !strings.HasPrefix(c.GitLabAPIPath, "/") {
		return &ConfigError{Field: "GITLAB_API_PATH", Message: "API path must start with /"}
	}

	if c.GitLabTimeout <= 0 {
		return &ConfigError{Field: "GITLAB_TIMEOUT_SECONDS", Message: "timeout must be positive"}
	}

	return nil
}

// GetLogLevel returns the slog.Level for the configured log level
func (c *Config) GetLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "Configuration error for " + e.Field + ": " + e.Message
}

// Helper functions for environment variable parsing

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
