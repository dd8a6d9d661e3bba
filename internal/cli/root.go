package cli

import (
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/vburojevic/pgpeaks/internal/config"
	"github.com/vburojevic/pgpeaks/internal/logging"
	"github.com/vburojevic/pgpeaks/internal/output"
)

// CLI is the root command structure for pgpeaks
type CLI struct {
	// Global flags
	Format    string `short:"f" default:"${config_format}" enum:"ndjson,text" help:"Output format"`
	Quiet     bool   `short:"q" help:"Only log errors to stderr"`
	Verbose   bool   `short:"v" help:"Log debug output (shards, skipped records)"`
	LogFormat string `default:"${config_log_format}" enum:"console,json" help:"Format of diagnostic logs on stderr"`

	// Commands
	Peaks    PeaksCmd    `cmd:"" help:"Count events per severity in fixed time buckets and report the busiest"`
	Totals   TotalsCmd   `cmd:"" help:"Count events per severity"`
	Patterns PatternsCmd `cmd:"" help:"Group messages into normalized patterns and report the most frequent"`

	Schema     SchemaCmd     `cmd:"" help:"Output JSON Schema for pgpeaks output types"`
	Examples   ExamplesCmd   `cmd:"" help:"Show usage examples"`
	Config     ConfigCmd     `cmd:"" help:"Show or manage configuration"`
	Completion CompletionCmd `cmd:"" help:"Generate shell completions"`
	Version    VersionCmd    `cmd:"" help:"Show version information"`
	Update     UpdateCmd     `cmd:"" help:"Show how to upgrade pgpeaks"`
}

// Vars returns the kong variables that feed config values into flag defaults
func Vars(cfg *config.Config) map[string]string {
	if cfg == nil {
		cfg = config.Default()
	}
	d := cfg.Defaults
	return map[string]string{
		"config_format":       cfg.Format,
		"config_log_format":   orDefault(cfg.LogFormat, "console"),
		"config_interval":     d.Interval,
		"config_min_severity": d.MinSeverity,
		"config_input_format": d.InputFormat,
		"config_timezone":     d.Timezone,
		"config_workers":      itoa(d.Workers),
		"config_severities":   joinComma(d.Severities),
		"config_mask_field":   d.MaskField,
		"config_top":          itoa(d.Top),
	}
}

// Globals holds shared state for all commands
type Globals struct {
	Format    string
	Quiet     bool
	Verbose   bool
	LogFormat string
	Stdout    io.Writer
	Stderr    io.Writer
	Config    *config.Config
	Logger    *zap.Logger
	// FlagsSet records flags given on the command line
	FlagsSet map[string]bool
}

// NewGlobalsWithConfig creates a new Globals instance with config fallbacks
func NewGlobalsWithConfig(cli *CLI, cfg *config.Config) *Globals {
	g := &Globals{
		Format:    cli.Format,
		Quiet:     cli.Quiet,
		Verbose:   cli.Verbose,
		LogFormat: cli.LogFormat,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Config:    cfg,
	}

	// Apply config values if CLI flags weren't explicitly set
	if cfg != nil {
		if !cli.Quiet && cfg.Quiet {
			g.Quiet = cfg.Quiet
		}
		if !cli.Verbose && cfg.Verbose {
			g.Verbose = cfg.Verbose
		}
	}

	return g
}

// FlagProvided reports whether name was set on the command line
func (g *Globals) FlagProvided(name string) bool {
	return g != nil && g.FlagsSet[name]
}

// Log returns the diagnostic logger, building it on first use
func (g *Globals) Log() *zap.Logger {
	if g.Logger == nil {
		g.Logger = logging.New(logging.Options{
			Level:  logging.LevelFor(g.Quiet, g.Verbose),
			Format: g.LogFormat,
			Output: g.Stderr,
		})
	}
	return g.Logger
}

// VersionCmd shows version information
type VersionCmd struct{}

// Run executes the version command
func (v *VersionCmd) Run(globals *Globals) error {
	return output.NewEmitter(globals.Format, globals.Stdout).Metadata(Version, Commit, BuildDate)
}

// Version information (set at build time)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = ""
)
