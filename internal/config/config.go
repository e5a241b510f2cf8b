// Package config defines the environment-driven configuration of the cashflow binaries.
package config

import (
	"fmt"
	"time"

	"github.com/rezkam/cashflow/internal/env"
)

// ServerConfig holds all configuration for the server binary.
type ServerConfig struct {
	Storage         StorageConfig
	HTTP            HTTPConfig
	GRPC            GRPCConfig
	Finance         FinanceConfig
	Observability   ObservabilityConfig
	ShutdownTimeout time.Duration `env:"CASHFLOW_SHUTDOWN_TIMEOUT" default:"10s"`
}

// HTTPConfig holds HTTP server configuration.
// Zero durations and sizes fall back to the HTTP server's own defaults.
type HTTPConfig struct {
	Host              string        `env:"CASHFLOW_HTTP_HOST"`
	Port              string        `env:"CASHFLOW_HTTP_PORT" default:"8081"`
	ReadTimeout       time.Duration `env:"CASHFLOW_HTTP_READ_TIMEOUT"`
	WriteTimeout      time.Duration `env:"CASHFLOW_HTTP_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `env:"CASHFLOW_HTTP_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `env:"CASHFLOW_HTTP_READ_HEADER_TIMEOUT"`
	MaxHeaderBytes    int           `env:"CASHFLOW_HTTP_MAX_HEADER_BYTES"`
	MaxBodyBytes      int64         `env:"CASHFLOW_HTTP_MAX_BODY_BYTES"`
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("CASHFLOW_HTTP_PORT is required")
	}
	if c.MaxBodyBytes < 0 || c.MaxHeaderBytes < 0 {
		return fmt.Errorf("CASHFLOW_HTTP_MAX_BODY_BYTES and CASHFLOW_HTTP_MAX_HEADER_BYTES must not be negative")
	}
	return nil
}

// FinanceConfig holds finance service configuration.
type FinanceConfig struct {
	DefaultPageSize int `env:"CASHFLOW_DEFAULT_PAGE_SIZE" default:"15"`
	MaxPageSize     int `env:"CASHFLOW_MAX_PAGE_SIZE" default:"100"`
	PreviewDays     int `env:"CASHFLOW_PREVIEW_DAYS" default:"90"`
	MaxWindowDays   int `env:"CASHFLOW_MAX_WINDOW_DAYS" default:"366"`
}

// Validate validates finance configuration.
func (c *FinanceConfig) Validate() error {
	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("CASHFLOW_DEFAULT_PAGE_SIZE must be positive, got %d", c.DefaultPageSize)
	}
	if c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("CASHFLOW_MAX_PAGE_SIZE (%d) must be >= CASHFLOW_DEFAULT_PAGE_SIZE (%d)", c.MaxPageSize, c.DefaultPageSize)
	}
	if c.PreviewDays < 0 {
		return fmt.Errorf("CASHFLOW_PREVIEW_DAYS must not be negative, got %d", c.PreviewDays)
	}
	if c.MaxWindowDays < c.PreviewDays {
		return fmt.Errorf("CASHFLOW_MAX_WINDOW_DAYS (%d) must be >= CASHFLOW_PREVIEW_DAYS (%d)", c.MaxWindowDays, c.PreviewDays)
	}
	return nil
}

// LoadServerConfig loads and validates server configuration from environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return cfg, nil
}
