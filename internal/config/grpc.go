package config

import (
	"fmt"
	"time"
)

// GRPCConfig holds configuration for the gRPC health endpoint.
type GRPCConfig struct {
	Enabled bool   `env:"CASHFLOW_GRPC_ENABLED" default:"true"`
	Host    string `env:"CASHFLOW_GRPC_HOST"`
	Port    string `env:"CASHFLOW_GRPC_PORT" default:"8080"`

	ConnectionTimeout time.Duration `env:"CASHFLOW_GRPC_CONNECTION_TIMEOUT" default:"120s"`
	MaxConnectionIdle time.Duration `env:"CASHFLOW_GRPC_MAX_CONNECTION_IDLE" default:"15m"`
	MaxConnectionAge  time.Duration `env:"CASHFLOW_GRPC_MAX_CONNECTION_AGE" default:"30m"`
	KeepaliveTime     time.Duration `env:"CASHFLOW_GRPC_KEEPALIVE_TIME" default:"5m"`
	KeepaliveTimeout  time.Duration `env:"CASHFLOW_GRPC_KEEPALIVE_TIMEOUT" default:"20s"`
	// Clients pinging more often than this are disconnected.
	KeepaliveMinTime time.Duration `env:"CASHFLOW_GRPC_KEEPALIVE_MIN_TIME" default:"1m"`
}

// Validate validates the gRPC configuration. A disabled endpoint is always valid.
func (c *GRPCConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Port == "" {
		return fmt.Errorf("CASHFLOW_GRPC_PORT is required when CASHFLOW_GRPC_ENABLED is true")
	}
	if c.KeepaliveTimeout < 0 || c.KeepaliveTime < 0 || c.KeepaliveMinTime < 0 {
		return fmt.Errorf("gRPC keepalive durations must not be negative")
	}
	return nil
}
