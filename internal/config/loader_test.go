package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// noDotenv simulates a working directory without a .env file.
func noDotenv() loaderDeps {
	return loaderDeps{loadDotenv: func(...string) error {
		return &fs.PathError{Op: "open", Path: ".env", Err: fs.ErrNotExist}
	}}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfigWithDeps(noDotenv())
	if err != nil {
		t.Fatalf("loadConfigWithDeps returned error: %v", err)
	}

	if cfg.Environment != "local" {
		t.Errorf("Environment = %q, want local", cfg.Environment)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Prediction.BaseURL != "http://localhost:5000" {
		t.Errorf("Prediction.BaseURL = %q", cfg.Prediction.BaseURL)
	}
	if cfg.Prediction.Timeout != 30*time.Second {
		t.Errorf("Prediction.Timeout = %v, want 30s", cfg.Prediction.Timeout)
	}
	if cfg.Prediction.HealthCacheTTL != 30*time.Second {
		t.Errorf("Prediction.HealthCacheTTL = %v, want 30s", cfg.Prediction.HealthCacheTTL)
	}
	if cfg.Prediction.BreakerFailures != 5 {
		t.Errorf("Prediction.BreakerFailures = %d, want 5", cfg.Prediction.BreakerFailures)
	}
	if len(cfg.Server.CorsAllowedOrigins) != 1 || cfg.Server.CorsAllowedOrigins[0] != "*" {
		t.Errorf("Server.CorsAllowedOrigins = %v, want [*]", cfg.Server.CorsAllowedOrigins)
	}
	if cfg.Observability.MetricsEnabled {
		t.Error("metrics should be disabled by default")
	}
	if cfg.Build.Version != "dev" {
		t.Errorf("Build.Version = %q, want dev", cfg.Build.Version)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PORT", "9090")
	t.Setenv("PREDICTION_API_URL", "https://predict.example.com")
	t.Setenv("PREDICTION_API_TOKEN", "tok_live_123")
	t.Setenv("PREDICTION_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("METRICS_ENABLED", "true")

	cfg, err := loadConfigWithDeps(noDotenv())
	if err != nil {
		t.Fatalf("loadConfigWithDeps returned error: %v", err)
	}

	if cfg.Environment != "staging" || cfg.LogLevel != "debug" || cfg.Server.Port != "9090" {
		t.Errorf("unexpected system config: %+v", cfg)
	}
	if cfg.Prediction.BaseURL != "https://predict.example.com" {
		t.Errorf("Prediction.BaseURL = %q", cfg.Prediction.BaseURL)
	}
	if cfg.Prediction.APIToken.Unmask() != "tok_live_123" {
		t.Error("Prediction.APIToken was not loaded")
	}
	if cfg.Prediction.Timeout != 5*time.Second {
		t.Errorf("Prediction.Timeout = %v, want 5s", cfg.Prediction.Timeout)
	}
	if len(cfg.Server.CorsAllowedOrigins) != 2 {
		t.Errorf("Server.CorsAllowedOrigins = %v", cfg.Server.CorsAllowedOrigins)
	}
	if !cfg.Observability.MetricsEnabled {
		t.Error("METRICS_ENABLED=true not honoured")
	}
}

func TestLoadConfigValidationFailure(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad environment", "APP_ENV", "moon"},
		{"bad log level", "LOG_LEVEL", "loud"},
		{"bad prediction url", "PREDICTION_API_URL", "not a url"},
		{"non-numeric port", "PORT", "http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := loadConfigWithDeps(noDotenv())
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T: %v", err, err)
			}
			if cfgErr.Type != ErrValidation {
				t.Errorf("Type = %s, want %s", cfgErr.Type, ErrValidation)
			}
		})
	}
}

func TestLoadConfigParsingFailure(t *testing.T) {
	t.Setenv("PREDICTION_TIMEOUT", "soon")

	_, err := loadConfigWithDeps(noDotenv())
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Type != ErrParsing {
		t.Errorf("Type = %s, want %s", cfgErr.Type, ErrParsing)
	}
}

func TestLoadConfigExplicitDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("PREDICTION_USER_AGENT=EcoRisk-Test/2.0\n"), 0o600); err != nil {
		t.Fatalf("writing dotenv: %v", err)
	}
	// godotenv does not override variables that are already set, so make sure
	// the key is absent and restored afterwards.
	t.Setenv("PREDICTION_USER_AGENT", "")
	os.Unsetenv("PREDICTION_USER_AGENT")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Prediction.UserAgent != "EcoRisk-Test/2.0" {
		t.Errorf("Prediction.UserAgent = %q", cfg.Prediction.UserAgent)
	}
}

func TestLoadConfigMissingExplicitDotenv(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Type != ErrDotenv {
		t.Errorf("Type = %s, want %s", cfgErr.Type, ErrDotenv)
	}
}

func TestConfigErrorFormat(t *testing.T) {
	inner := errors.New("boom")
	e := &ConfigError{Type: ErrParsing, Message: "bad", Err: inner}
	if e.Error() != "[PARSING_FAILED] bad: boom" {
		t.Errorf("Error() = %q", e.Error())
	}
	if !errors.Is(e, inner) {
		t.Error("errors.Is should unwrap to inner error")
	}

	bare := &ConfigError{Type: ErrValidation, Message: "bad"}
	if bare.Error() != "[VALIDATION_FAILED] bad" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestNewBuildInfoDefaults(t *testing.T) {
	info := NewBuildInfo()
	if info.Version != "dev" || info.Commit != "none" || info.BuildTime != "unknown" {
		t.Errorf("NewBuildInfo() = %+v", info)
	}
}
