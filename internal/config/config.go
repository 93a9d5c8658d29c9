// Package config loads the admin console configuration from a YAML file with
// environment variable overrides. Base URLs for the two backend realms default
// to local loopback ports for development; deployments override them via the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/paylinehq/adminctl/internal/errors"
)

// FallbackPolicy controls what listing and statistics operations substitute
// when a backend is unreachable.
type FallbackPolicy string

const (
	// FallbackZeros substitutes empty pages and zeroed statistics.
	FallbackZeros FallbackPolicy = "zeros"
	// FallbackDemo substitutes labelled sample data for demo environments.
	// The per-slot error string is still set so outages stay visible.
	FallbackDemo FallbackPolicy = "demo"
)

// Config is the full admin console configuration.
type Config struct {
	UserService   ServiceConfig   `yaml:"user_service"`
	AgenceService ServiceConfig   `yaml:"agence_service"`
	HTTP          HTTPConfig      `yaml:"http"`
	Auth          AuthConfig      `yaml:"auth"`
	Dashboard     DashboardConfig `yaml:"dashboard"`
	Log           LogConfig       `yaml:"log"`

	// SessionFile overrides the session persistence path.
	// Empty means the default location under the user config dir.
	SessionFile string `yaml:"session_file"`
}

// ServiceConfig describes one backend realm.
type ServiceConfig struct {
	BaseURL string `yaml:"base_url"`
}

// HTTPConfig tunes the shared HTTP client.
type HTTPConfig struct {
	TimeoutMs          int  `yaml:"timeout_ms"`
	MaxRetries         int  `yaml:"max_retries"`
	BackoffBaseMs      int  `yaml:"backoff_base_ms"`
	BackoffMaxMs       int  `yaml:"backoff_max_ms"`
	ExponentialBackoff bool `yaml:"exponential_backoff"`
}

// AuthConfig tunes the session lifecycle.
type AuthConfig struct {
	// RefreshLeadMinutes is how long before expiry the proactive refresh fires.
	RefreshLeadMinutes int `yaml:"refresh_lead_minutes"`
}

// DashboardConfig tunes the dashboard orchestrator.
type DashboardConfig struct {
	FallbackPolicy FallbackPolicy `yaml:"fallback_policy"`
}

// LogConfig tunes logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a configuration with development defaults.
func DefaultConfig() *Config {
	return &Config{
		UserService: ServiceConfig{
			BaseURL: "http://localhost:8081/api/users",
		},
		AgenceService: ServiceConfig{
			BaseURL: "http://localhost:8082/api/agence",
		},
		HTTP: HTTPConfig{
			TimeoutMs:          10000,
			MaxRetries:         3,
			BackoffBaseMs:      1000,
			BackoffMaxMs:       30000,
			ExponentialBackoff: true,
		},
		Auth: AuthConfig{
			RefreshLeadMinutes: 5,
		},
		Dashboard: DashboardConfig{
			FallbackPolicy: FallbackZeros,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults when the
// path is empty or the file does not exist, then applies environment overrides
// and validates.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeConfigRead, fmt.Sprintf("read config file %s", path), err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("parse config file %s", path), err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides lets deployment environments override file settings.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ADMINCTL_USER_SERVICE_URL"); v != "" {
		cfg.UserService.BaseURL = v
	}
	if v := os.Getenv("ADMINCTL_AGENCE_SERVICE_URL"); v != "" {
		cfg.AgenceService.BaseURL = v
	}
	if v := os.Getenv("ADMINCTL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ADMINCTL_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ADMINCTL_SESSION_FILE"); v != "" {
		cfg.SessionFile = v
	}
	if v := os.Getenv("ADMINCTL_HTTP_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.TimeoutMs = n
		}
	}
	if v := os.Getenv("ADMINCTL_FALLBACK_POLICY"); v != "" {
		cfg.Dashboard.FallbackPolicy = FallbackPolicy(v)
	}
}

// Validate checks a configuration for usable values.
func Validate(cfg *Config) error {
	if cfg.UserService.BaseURL == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "user_service.base_url is required")
	}
	if cfg.AgenceService.BaseURL == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "agence_service.base_url is required")
	}
	if cfg.HTTP.TimeoutMs <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "http.timeout_ms must be positive")
	}
	if cfg.HTTP.MaxRetries < 1 {
		return errors.New(errors.ErrCodeConfigInvalid, "http.max_retries must be at least 1")
	}
	if cfg.HTTP.BackoffBaseMs < 0 || cfg.HTTP.BackoffMaxMs < 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "backoff durations must be non-negative")
	}
	if cfg.Auth.RefreshLeadMinutes <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "auth.refresh_lead_minutes must be positive")
	}
	switch cfg.Dashboard.FallbackPolicy {
	case FallbackZeros, FallbackDemo:
	default:
		return errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("dashboard.fallback_policy must be %q or %q", FallbackZeros, FallbackDemo))
	}
	return nil
}
