package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at the specified path.
// It applies default values and validates the result. Environment
// variables are not consulted; use LoadWithEnvOverrides for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration and applies SWAPCHECK_*
// environment overrides.
//
// If path is empty, DefaultFileName is used when it exists and defaults
// otherwise. An explicitly named file that does not exist is an error.
//
// The loading sequence is:
// 1. Load YAML from file (or start from defaults)
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	switch {
	case path != "":
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		loaded, err := Load(DefaultFileName)
		if errors.Is(err, os.ErrNotExist) {
			cfg = Default()
		} else if err != nil {
			return nil, err
		} else {
			cfg = loaded
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format SWAPCHECK_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("SWAPCHECK_RULES"); val != "" {
		cfg.Rules = val
	}
	if val := os.Getenv("SWAPCHECK_CATALOG"); val != "" {
		cfg.Catalog = val
	}
	if val := os.Getenv("SWAPCHECK_DATABASE"); val != "" {
		cfg.Database = val
	}
	if val := os.Getenv("SWAPCHECK_LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	if val := os.Getenv("SWAPCHECK_LOG_FORMAT"); val != "" {
		cfg.Log.Format = val
	}
	if val := os.Getenv("SWAPCHECK_METRICS_ADDRESS"); val != "" {
		cfg.Metrics.ListenAddress = val
	}
	if val := os.Getenv("SWAPCHECK_WATCH_DEBOUNCE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Watch.Debounce = d
		}
	}
	if cfg.Catalog == "" {
		cfg.Catalog = cfg.Rules
	}
}
