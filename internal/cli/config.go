package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vburojevic/pgpeaks/internal/config"
	"github.com/vburojevic/pgpeaks/internal/output"
)

// ConfigCmd shows or manages configuration
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"withargs" help:"Show current configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show configuration file path"`
	Generate ConfigGenerateCmd `cmd:"" help:"Generate sample configuration file"`
}

// ConfigShowCmd shows current configuration
type ConfigShowCmd struct{}

// Run executes the config show command
func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}
	path := config.ConfigFile()

	valid := true
	var problems []string
	if err := cfg.Validate(); err != nil {
		valid = false
		problems = strings.Split(err.Error(), "\n")
	}

	if globals.Format == "ndjson" {
		out := map[string]interface{}{
			"type":          "config",
			"schemaVersion": output.SchemaVersion,
			"format":        cfg.Format,
			"quiet":         cfg.Quiet,
			"verbose":       cfg.Verbose,
			"log_format":    cfg.LogFormat,
			"defaults":      cfg.Defaults,
			"valid":         valid,
		}
		if path != "" {
			out["config_file"] = path
		}
		if len(problems) > 0 {
			out["problems"] = problems
		}
		return json.NewEncoder(globals.Stdout).Encode(out)
	}

	d := cfg.Defaults
	fmt.Fprintln(globals.Stdout, "Current Configuration:")
	fmt.Fprintln(globals.Stdout, "")
	fmt.Fprintf(globals.Stdout, "  format:     %s\n", cfg.Format)
	fmt.Fprintf(globals.Stdout, "  quiet:      %v\n", cfg.Quiet)
	fmt.Fprintf(globals.Stdout, "  verbose:    %v\n", cfg.Verbose)
	fmt.Fprintf(globals.Stdout, "  log_format: %s\n", cfg.LogFormat)
	fmt.Fprintln(globals.Stdout, "")
	fmt.Fprintln(globals.Stdout, "Defaults:")
	fmt.Fprintf(globals.Stdout, "  interval:     %s\n", d.Interval)
	fmt.Fprintf(globals.Stdout, "  min_severity: %s\n", d.MinSeverity)
	fmt.Fprintf(globals.Stdout, "  input_format: %s\n", d.InputFormat)
	fmt.Fprintf(globals.Stdout, "  timezone:     %s\n", d.Timezone)
	fmt.Fprintf(globals.Stdout, "  workers:      %d\n", d.Workers)
	fmt.Fprintf(globals.Stdout, "  severities:   %s\n", strings.Join(d.Severities, ", "))
	fmt.Fprintf(globals.Stdout, "  mask_field:   %s\n", d.MaskField)
	fmt.Fprintf(globals.Stdout, "  top:          %d\n", d.Top)

	if path != "" {
		fmt.Fprintln(globals.Stdout, "")
		fmt.Fprintf(globals.Stdout, "Loaded from: %s\n", path)
	}
	for _, p := range problems {
		fmt.Fprintf(globals.Stdout, "Invalid: %s\n", p)
	}

	return nil
}

// ConfigPathCmd shows config file path
type ConfigPathCmd struct{}

// Run executes the config path command
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := config.ConfigFile()

	if globals.Format == "ndjson" {
		out := map[string]interface{}{
			"type":          "config_path",
			"schemaVersion": output.SchemaVersion,
			"path":          path,
		}
		return json.NewEncoder(globals.Stdout).Encode(out)
	}

	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found")
		fmt.Fprintln(globals.Stdout, "")
		fmt.Fprintln(globals.Stdout, "Create one at:")
		fmt.Fprintln(globals.Stdout, "  ./.pgpeaks.yaml")
		fmt.Fprintln(globals.Stdout, "  ~/.pgpeaks.yaml")
		fmt.Fprintln(globals.Stdout, "  ~/.config/pgpeaks/config.yaml")
	} else {
		fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	}

	return nil
}

// ConfigGenerateCmd generates a sample configuration file
type ConfigGenerateCmd struct{}

const sampleConfig = `# pgpeaks configuration file
# Place this file at ./.pgpeaks.yaml, ~/.pgpeaks.yaml or ~/.config/pgpeaks/config.yaml
# Every value can also be set with a PGPEAKS_* environment variable,
# e.g. PGPEAKS_INTERVAL=5m, and is overridden by command line flags.

# Output format: "ndjson" (default) or "text"
format: ndjson

# Only log errors to stderr
quiet: false

# Log debug output (shards, skipped records)
verbose: false

# Diagnostic log format on stderr: "console" or "json"
log_format: console

defaults:
  # Bucket width for peaks
  interval: 1m

  # Records below this severity are dropped (name or rank 0-11)
  min_severity: DEBUG5

  # Input format: auto, csv, json or stderr
  input_format: auto

  # Timezone for zone-less times and rendered buckets
  timezone: Local

  # Files processed in parallel (0 = number of CPUs)
  workers: 0

  # Severities tracked by peaks
  severities:
    - ERROR

  # Field --mask is compared against: severity, message or log_time
  mask_field: severity

  # Number of patterns reported by patterns
  top: 10
`

// Run executes the config generate command
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	fmt.Fprint(globals.Stdout, sampleConfig)
	return nil
}
