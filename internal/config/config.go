package config

import (
	"log/slog"
	"strings"
	"time"
)

// DefaultFileName is looked up in the working directory when no --config
// flag is given.
const DefaultFileName = "swapcheck.yaml"

// Config is the root configuration.
type Config struct {
	// Rules is a rule file or directory (CUE, JSON or YAML).
	Rules string `yaml:"rules"`

	// Catalog is an engine/vehicle file or directory. May equal Rules.
	Catalog string `yaml:"catalog"`

	// Database is the SQLite path for catalog import and evaluation history.
	Database string `yaml:"database" validate:"required"`

	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Watch   WatchConfig   `yaml:"watch"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// SlogLevel maps Level to a slog.Level. Unknown values map to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MetricsConfig configures the Prometheus endpoint served by `watch`.
type MetricsConfig struct {
	Namespace     string `yaml:"namespace" validate:"required,alphanum"`
	ListenAddress string `yaml:"listen_address" validate:"omitempty,hostname_port"`
}

// WatchConfig configures rule hot reload.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" validate:"gte=0,lte=1m"`
}

// Default values.
const (
	DefaultDatabase         = "swapcheck.db"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultMetricsNamespace = "swapcheck"
	DefaultDebounce         = 100 * time.Millisecond
)

// ApplyDefaults fills zero-valued fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}
	if cfg.Catalog == "" {
		cfg.Catalog = cfg.Rules
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
