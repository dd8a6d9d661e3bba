package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vburojevic/pgpeaks/internal/domain"
	"github.com/vburojevic/pgpeaks/internal/filter"
	"github.com/vburojevic/pgpeaks/internal/source"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Format    string `mapstructure:"format"`
	Quiet     bool   `mapstructure:"quiet"`
	Verbose   bool   `mapstructure:"verbose"`
	LogFormat string `mapstructure:"log_format"`

	// Default values for the aggregation commands
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// DefaultsConfig holds default values for the aggregation commands
type DefaultsConfig struct {
	Interval    string   `mapstructure:"interval" json:"interval"`
	MinSeverity string   `mapstructure:"min_severity" json:"min_severity"`
	InputFormat string   `mapstructure:"input_format" json:"input_format"`
	Timezone    string   `mapstructure:"timezone" json:"timezone"`
	Workers     int      `mapstructure:"workers" json:"workers"`
	Severities  []string `mapstructure:"severities" json:"severities"`
	MaskField   string   `mapstructure:"mask_field" json:"mask_field"`
	Top         int      `mapstructure:"top" json:"top"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format:    "ndjson",
		LogFormat: "console",
		Defaults: DefaultsConfig{
			Interval:    "1m",
			MinSeverity: "DEBUG5",
			InputFormat: "auto",
			Timezone:    "Local",
			Severities:  []string{"ERROR"},
			MaskField:   "severity",
			Top:         10,
		},
	}
}

// Load loads configuration from files and environment
// Config file search order (highest precedence first):
// 1. ./.pgpeaks.yaml or ./.pgpeaks.yml
// 2. ~/.pgpeaks.yaml or ~/.pgpeaks.yml
// 3. $XDG_CONFIG_HOME/pgpeaks/config.yaml (or ~/.config/pgpeaks/config.yaml)
// 4. /etc/pgpeaks/config.yaml
func Load() (*Config, error) {
	cfg := Default()

	configFile := findConfigFile()
	if configFile != "" {
		loaded, err := LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	names := []string{".pgpeaks.yaml", ".pgpeaks.yml", "pgpeaks.yaml", "pgpeaks.yml"}

	home, homeErr := os.UserHomeDir()
	configDir, configDirErr := os.UserConfigDir()

	var searchPaths []string
	if cwd, err := os.Getwd(); err == nil {
		searchPaths = append(searchPaths, cwd)
	}
	if homeErr == nil {
		searchPaths = append(searchPaths, home)
	}
	if configDirErr == nil {
		searchPaths = append(searchPaths, filepath.Join(configDir, "pgpeaks"))
	}
	searchPaths = append(searchPaths, "/etc/pgpeaks")

	for _, dir := range searchPaths {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		// config.yaml only counts inside a pgpeaks directory
		if filepath.Base(dir) == "pgpeaks" {
			path := filepath.Join(dir, "config.yaml")
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}

// applyEnvOverrides applies PGPEAKS_* environment variables to cfg
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PGPEAKS_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("PGPEAKS_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("PGPEAKS_QUIET"); v == "true" || v == "1" {
		cfg.Quiet = true
	}
	if v := os.Getenv("PGPEAKS_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("PGPEAKS_INTERVAL"); v != "" {
		cfg.Defaults.Interval = v
	}
	if v := os.Getenv("PGPEAKS_MIN_SEVERITY"); v != "" {
		cfg.Defaults.MinSeverity = v
	}
	if v := os.Getenv("PGPEAKS_INPUT_FORMAT"); v != "" {
		cfg.Defaults.InputFormat = v
	}
	if v := os.Getenv("PGPEAKS_TIMEZONE"); v != "" {
		cfg.Defaults.Timezone = v
	}
	if v := os.Getenv("PGPEAKS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Defaults.Workers = n
		}
	}
	if v := os.Getenv("PGPEAKS_SEVERITIES"); v != "" {
		cfg.Defaults.Severities = strings.Split(v, ",")
	}
	if v := os.Getenv("PGPEAKS_MASK_FIELD"); v != "" {
		cfg.Defaults.MaskField = v
	}
	if v := os.Getenv("PGPEAKS_TOP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Defaults.Top = n
		}
	}
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigFile returns the path to the config file that would be loaded
func ConfigFile() string {
	return findConfigFile()
}

// Validate reports every value that the commands would reject
func (c *Config) Validate() error {
	var errs []error
	switch c.Format {
	case "ndjson", "text":
	default:
		errs = append(errs, fmt.Errorf("format: must be ndjson or text, got %q", c.Format))
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format: must be console or json, got %q", c.LogFormat))
	}

	d := c.Defaults
	if d.Interval != "" {
		if iv, err := time.ParseDuration(d.Interval); err != nil || iv <= 0 {
			errs = append(errs, fmt.Errorf("defaults.interval: must be a positive duration, got %q", d.Interval))
		}
	}
	if d.MinSeverity != "" {
		if _, err := domain.ParseSeverityOrRank(d.MinSeverity); err != nil {
			errs = append(errs, fmt.Errorf("defaults.min_severity: %w", err))
		}
	}
	if _, err := source.ParseFormat(d.InputFormat); err != nil {
		errs = append(errs, fmt.Errorf("defaults.input_format: %w", err))
	}
	if _, err := d.Location(); err != nil {
		errs = append(errs, fmt.Errorf("defaults.timezone: %w", err))
	}
	if d.Workers < 0 {
		errs = append(errs, fmt.Errorf("defaults.workers: must not be negative, got %d", d.Workers))
	}
	if _, err := domain.ParseSeverities(d.Severities); err != nil {
		errs = append(errs, fmt.Errorf("defaults.severities: %w", err))
	}
	if _, err := filter.ParseMaskField(d.MaskField); err != nil {
		errs = append(errs, fmt.Errorf("defaults.mask_field: %w", err))
	}
	if d.Top < 0 {
		errs = append(errs, fmt.Errorf("defaults.top: must not be negative, got %d", d.Top))
	}
	return errors.Join(errs...)
}

// Location resolves the configured timezone; empty means Local
func (d DefaultsConfig) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(d.Timezone)
}
