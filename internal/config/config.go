// Package config defines the process configuration for the ecorisk binaries.
// Configuration is loaded once at start-up and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File (Lowest)
//
// A missing required value or an invalid format fails start-up immediately.
package config

import (
	"time"

	"ecorisk/internal/types"
)

// SecretString is an alias for types.SecretString so that config consumers do
// not need to import types for a single field type.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the subset they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"ecorisk-web"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Prediction    PredictionConfig
	Observability ObservabilityConfig

	// Build Metadata (injected via ldflags, not env)
	Build BuildInfo
}

// ServerConfig holds HTTP server configuration for ecorisk-web.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// PredictionConfig holds the location and tuning of the external prediction
// service.
type PredictionConfig struct {
	BaseURL   string        `envconfig:"PREDICTION_API_URL" default:"http://localhost:5000" validate:"required,url"`
	APIToken  SecretString  `envconfig:"PREDICTION_API_TOKEN"`
	Timeout   time.Duration `envconfig:"PREDICTION_TIMEOUT" default:"30s" validate:"gt=0"`
	UserAgent string        `envconfig:"PREDICTION_USER_AGENT" default:"EcoRisk/1.0"`

	// BreakerFailures is the number of consecutive upstream failures after
	// which the circuit opens.
	BreakerFailures int           `envconfig:"PREDICTION_BREAKER_FAILURES" default:"5" validate:"gte=1"`
	HealthCacheTTL  time.Duration `envconfig:"HEALTH_CACHE_TTL" default:"30s"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"EcoRisk"`
	AWSRegion       string `envconfig:"AWS_REGION" default:"us-east-1"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates an environment value could not be parsed into its
	// target type.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrDotenv indicates an explicitly requested dotenv file could not be read.
	ErrDotenv ConfigErrorType = "DOTENV_FAILED"
)
