// Package config loads the NutriTrack process configuration from an optional
// YAML file with environment variable overrides.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ezoic/nutritrack/pkg/errors"
	"github.com/ezoic/nutritrack/pkg/log"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.yaml"

// Environment variables that override file values.
const (
	EnvAddr         = "NUTRITRACK_ADDR"
	EnvLogLevel     = "NUTRITRACK_LOG_LEVEL"
	EnvLogFile      = "NUTRITRACK_LOG_FILE"
	EnvChartEntries = "NUTRITRACK_CHART_ENTRIES"
)

// Config is the full process configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Cache  CacheConfig  `yaml:"cache"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig configures pkg/log.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// CacheConfig sizes the rendered chart cache.
type CacheConfig struct {
	ChartEntries int `yaml:"chart_entries"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Cache: CacheConfig{ChartEntries: 128},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrapf(err, "read %s", path)
	}

	envOverride(&cfg.Server.Addr, EnvAddr)
	envOverride(&cfg.Log.Level, EnvLogLevel)
	envOverride(&cfg.Log.File, EnvLogFile)
	if err := envOverrideInt(&cfg.Cache.ChartEntries, EnvChartEntries); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return errors.NewValueError("config", "server.addr is empty")
	case c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0:
		return errors.NewValueError("config", "server timeouts must be positive")
	case c.Server.ShutdownTimeout <= 0:
		return errors.NewValueError("config", "server.shutdown_timeout must be positive")
	case c.Log.Format != "console" && c.Log.Format != "json":
		return errors.NewValueErrorf("config", "log.format %q is not console or json", c.Log.Format)
	case c.Cache.ChartEntries <= 0:
		return errors.NewValueErrorf("config", "cache.chart_entries must be positive, got %d", c.Cache.ChartEntries)
	}
	return nil
}

// LogOptions converts the log section for log.Configure.
func (c *Config) LogOptions() log.Options {
	return log.Options{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return errors.Wrapf(err, "invalid %s %q", envKey, val)
		}
		*field = parsed
	}
	return nil
}
