package config

import (
	"fmt"

	"github.com/rezkam/cashflow/internal/env"
)

// TestConfig holds configuration for integration tests against external stores.
// Empty values mean the corresponding suite is skipped.
type TestConfig struct {
	DSN       string `env:"CASHFLOW_TEST_DB_DSN"`
	GCSBucket string `env:"CASHFLOW_TEST_GCS_BUCKET"`
}

// LoadTestConfig loads test configuration from environment.
func LoadTestConfig() (*TestConfig, error) {
	cfg := &TestConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load test config: %w", err)
	}

	return cfg, nil
}
