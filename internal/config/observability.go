package config

// ObservabilityConfig holds observability configuration.
// Exporter endpoints and headers come from the standard OTEL_EXPORTER_OTLP_* variables.
type ObservabilityConfig struct {
	OTelEnabled bool   `env:"CASHFLOW_OTEL_ENABLED" default:"true"`
	ServiceName string `env:"OTEL_SERVICE_NAME" default:"cashflow"`
	LogLevel    string `env:"CASHFLOW_LOG_LEVEL" default:"info"`
}
