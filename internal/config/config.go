// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Session backends.
const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Password hashing algorithms.
const (
	PasswordArgon2id = "argon2id"
	PasswordBcrypt   = "bcrypt"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL   string `env:"DATABASE_URL,required,notEmpty"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Redis backs sessions and login rate limiting.
	RedisURL string `env:"REDIS_URL"`

	// Sessions
	SessionBackend    string        `env:"SESSION_BACKEND" envDefault:"redis"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"inkpost_session"`

	// Password hashing
	PasswordAlgorithm string `env:"PASSWORD_ALGORITHM" envDefault:"argon2id"`
	Argon2Time        uint32 `env:"ARGON2_TIME" envDefault:"3"`
	Argon2MemoryKB    uint32 `env:"ARGON2_MEMORY_KB" envDefault:"65536"`
	Argon2Threads     uint8  `env:"ARGON2_THREADS" envDefault:"4"`
	BcryptCost        int    `env:"BCRYPT_COST" envDefault:"10"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Login rate limiting (per client IP, requires Redis)
	RateLimitLoginEnabled bool    `env:"RATE_LIMIT_LOGIN_ENABLED" envDefault:"true"`
	RateLimitLoginRPS     float64 `env:"RATE_LIMIT_LOGIN_RPS" envDefault:"0.2"`
	RateLimitLoginBurst   int     `env:"RATE_LIMIT_LOGIN_BURST" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// UsesRedis reports whether any enabled component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.SessionBackend == SessionBackendRedis || c.RateLimitLoginEnabled
}

// Validate rejects inconsistent settings that env tags cannot express.
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case SessionBackendRedis, SessionBackendMemory:
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q or %q, got %q", SessionBackendRedis, SessionBackendMemory, c.SessionBackend)
	}

	if c.UsesRedis() && c.RedisURL == "" {
		return errors.New("REDIS_URL is required when SESSION_BACKEND=redis or login rate limiting is enabled")
	}

	switch c.PasswordAlgorithm {
	case PasswordArgon2id, PasswordBcrypt:
	default:
		return fmt.Errorf("PASSWORD_ALGORITHM must be %q or %q, got %q", PasswordArgon2id, PasswordBcrypt, c.PasswordAlgorithm)
	}

	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.SessionCookieName == "" {
		return errors.New("SESSION_COOKIE_NAME must not be empty")
	}
	if c.RateLimitLoginEnabled && (c.RateLimitLoginRPS <= 0 || c.RateLimitLoginBurst <= 0) {
		return errors.New("RATE_LIMIT_LOGIN_RPS and RATE_LIMIT_LOGIN_BURST must be positive")
	}

	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or the result is inconsistent.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
