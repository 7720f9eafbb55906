// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database. Empty means the server runs on in-memory repositories.
	DatabaseURL string `koanf:"database_url"`

	// Redis. Empty addr disables the analytics cache and the Redis-backed
	// rate limit store.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`

	// Analytics
	AnalyticsCacheTTLSeconds int `koanf:"analytics_cache_ttl_seconds"`
	ActivityMaxWindowDays    int `koanf:"activity_max_window_days"`

	// Rate limits, requests per minute
	RateLimitGlobal    int `koanf:"rate_limit_global"`
	RateLimitAnalytics int `koanf:"rate_limit_analytics"`
	RateLimitWrite     int `koanf:"rate_limit_write"`

	// CORS
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Tracing (OTLP)
	TracingEnabled  bool   `koanf:"tracing_enabled"`
	TracingEndpoint string `koanf:"tracing_endpoint"`

	// Profiling endpoints (blocked in production regardless)
	ProfilingEnabled bool `koanf:"profiling_enabled"`
}

// Configuration validation errors.
var (
	ErrInvalidPort          = errors.New("PORT must be a valid integer")
	ErrPortOutOfRange       = errors.New("PORT must be between 1 and 65535")
	ErrInvalidCacheTTL      = errors.New("ANALYTICS_CACHE_TTL_SECONDS must not be negative")
	ErrInvalidMaxWindow     = errors.New("ACTIVITY_MAX_WINDOW_DAYS must be positive")
	ErrInvalidRateLimit     = errors.New("rate limits must be positive")
	ErrMissingTracingTarget = errors.New("TRACING_ENDPOINT is required when tracing is enabled")
)

// Default values for non-secret configuration.
const (
	DefaultPort                     = 8080
	DefaultEnv                      = "development"
	DefaultAnalyticsCacheTTLSeconds = 60
	DefaultActivityMaxWindowDays    = 365
	DefaultRateLimitGlobal          = 120
	DefaultRateLimitAnalytics       = 30
	DefaultRateLimitWrite           = 60
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Parse port from env, collecting error if invalid.
	// Try GROUPIFY_PORT first, then PORT.
	port, portErr := getEnvIntOrDefaultMulti([]string{"GROUPIFY_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	cacheTTL, ttlErr := getEnvIntOrDefault("ANALYTICS_CACHE_TTL_SECONDS", k.Int("analytics_cache_ttl_seconds"), DefaultAnalyticsCacheTTLSeconds)
	if ttlErr != nil {
		loadErrs = append(loadErrs, ttlErr)
	}

	maxWindow, windowErr := getEnvIntOrDefault("ACTIVITY_MAX_WINDOW_DAYS", k.Int("activity_max_window_days"), DefaultActivityMaxWindowDays)
	if windowErr != nil {
		loadErrs = append(loadErrs, windowErr)
	}

	globalLimit, globalErr := getEnvIntOrDefault("RATE_LIMIT_GLOBAL", k.Int("rate_limit_global"), DefaultRateLimitGlobal)
	if globalErr != nil {
		loadErrs = append(loadErrs, globalErr)
	}
	analyticsLimit, analyticsErr := getEnvIntOrDefault("RATE_LIMIT_ANALYTICS", k.Int("rate_limit_analytics"), DefaultRateLimitAnalytics)
	if analyticsErr != nil {
		loadErrs = append(loadErrs, analyticsErr)
	}
	writeLimit, writeErr := getEnvIntOrDefault("RATE_LIMIT_WRITE", k.Int("rate_limit_write"), DefaultRateLimitWrite)
	if writeErr != nil {
		loadErrs = append(loadErrs, writeErr)
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:                     port,
		Env:                      getEnvOrDefaultMulti([]string{"GROUPIFY_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:              getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisAddr:                getEnvOrKoanf("REDIS_ADDR", k, "redis_addr"),
		RedisPassword:            getEnvOrKoanf("REDIS_PASSWORD", k, "redis_password"),
		AnalyticsCacheTTLSeconds: cacheTTL,
		ActivityMaxWindowDays:    maxWindow,
		RateLimitGlobal:          globalLimit,
		RateLimitAnalytics:       analyticsLimit,
		RateLimitWrite:           writeLimit,
		CORSAllowedOrigins:       getEnvListOrKoanf("CORS_ALLOWED_ORIGINS", k, "cors_allowed_origins"),
		TracingEnabled:           getEnvBoolOrKoanf("TRACING_ENABLED", k, "tracing_enabled"),
		TracingEndpoint:          getEnvOrKoanf("TRACING_ENDPOINT", k, "tracing_endpoint"),
		ProfilingEnabled:         getEnvBoolOrKoanf("PROFILING_ENABLED", k, "profiling_enabled"),
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvListOrKoanf returns a comma-separated environment variable as a list
// if set, otherwise the koanf value.
func getEnvListOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) []string {
	if val := os.Getenv(envKey); val != "" {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return k.Strings(koanfKey)
}

// getEnvBoolOrKoanf returns the environment variable as a bool if set,
// otherwise the koanf value.
func getEnvBoolOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) bool {
	if val := os.Getenv(envKey); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return k.Bool(koanfKey)
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
// Note: a zero value from a YAML file falls back to the default.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all configuration values are usable.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrPortOutOfRange)
	}
	if c.AnalyticsCacheTTLSeconds < 0 {
		errs = append(errs, ErrInvalidCacheTTL)
	}
	if c.ActivityMaxWindowDays < 1 {
		errs = append(errs, ErrInvalidMaxWindow)
	}
	if c.RateLimitGlobal < 1 || c.RateLimitAnalytics < 1 || c.RateLimitWrite < 1 {
		errs = append(errs, ErrInvalidRateLimit)
	}
	if c.TracingEnabled && c.TracingEndpoint == "" {
		errs = append(errs, ErrMissingTracingTarget)
	}

	return errs
}

// IsProduction reports whether the server runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                        fmt.Sprintf("%d", c.Port),
		"env":                         c.Env,
		"database_url":                maskDatabaseURL(c.DatabaseURL),
		"redis_addr":                  valueOrNotSet(c.RedisAddr),
		"redis_password":              maskSecret(c.RedisPassword),
		"analytics_cache_ttl_seconds": fmt.Sprintf("%d", c.AnalyticsCacheTTLSeconds),
		"activity_max_window_days":    fmt.Sprintf("%d", c.ActivityMaxWindowDays),
		"rate_limit_global":           fmt.Sprintf("%d", c.RateLimitGlobal),
		"rate_limit_analytics":        fmt.Sprintf("%d", c.RateLimitAnalytics),
		"rate_limit_write":            fmt.Sprintf("%d", c.RateLimitWrite),
		"cors_allowed_origins":        strings.Join(c.CORSAllowedOrigins, ","),
		"tracing_enabled":             fmt.Sprintf("%t", c.TracingEnabled),
		"tracing_endpoint":            valueOrNotSet(c.TracingEndpoint),
		"profiling_enabled":           fmt.Sprintf("%t", c.ProfilingEnabled),
	}
}

func valueOrNotSet(s string) string {
	if s == "" {
		return "<not set>"
	}
	return s
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a database URL.
// Supports both postgres:// and postgresql:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	// Look for password pattern: user:password@host
	// Simple approach: find :// and then mask between : and @
	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	// Reconstruct URL with masked password
	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
