package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	Sandbox   SandboxConfig
	Render    RenderConfig
	RateLimit RateLimitConfig
	Fetch     FetchConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// SandboxConfig holds expression evaluation limits. Zero means unbounded.
type SandboxConfig struct {
	Timeout          time.Duration `envconfig:"SANDBOX_TIMEOUT" default:"0s"`
	MaxCallStackSize int           `envconfig:"SANDBOX_MAX_CALL_STACK" default:"0"`
}

// RenderConfig holds template rendering configuration.
type RenderConfig struct {
	MaxTemplateBytes int64 `envconfig:"RENDER_MAX_TEMPLATE_BYTES" default:"1048576"`
	Sanitize         bool  `envconfig:"RENDER_SANITIZE" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// FetchConfig holds remote template and context fetching configuration.
type FetchConfig struct {
	Retries int           `envconfig:"FETCH_RETRIES" default:"3"`
	Timeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Render: RenderConfig{
			MaxTemplateBytes: 1 << 20,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Fetch: FetchConfig{
			Retries: 3,
			Timeout: 30 * time.Second,
		},
	}
}

// Validate rejects negative limits.
func (c *Config) Validate() error {
	var errs []error
	if c.Sandbox.Timeout < 0 {
		errs = append(errs, errors.New("SANDBOX_TIMEOUT must not be negative"))
	}
	if c.Sandbox.MaxCallStackSize < 0 {
		errs = append(errs, errors.New("SANDBOX_MAX_CALL_STACK must not be negative"))
	}
	if c.Render.MaxTemplateBytes <= 0 {
		errs = append(errs, errors.New("RENDER_MAX_TEMPLATE_BYTES must be positive"))
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must be positive when rate limiting is enabled"))
	}
	if c.Fetch.Retries < 0 {
		errs = append(errs, errors.New("FETCH_RETRIES must not be negative"))
	}
	return errors.Join(errs...)
}

// Address returns the host:port the server listens on.
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}
