package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/vburojevic/pgpeaks/internal/aggregate"
	"github.com/vburojevic/pgpeaks/internal/output"
	"github.com/vburojevic/pgpeaks/internal/pipeline"
	"github.com/vburojevic/pgpeaks/internal/source"
)

// InputFlags are shared by every aggregation command
type InputFlags struct {
	Files []string `arg:"" name:"file" help:"PostgreSQL log files (csvlog, jsonlog or stderr; .gz/.zst/.xz allowed; - for stdin)"`

	MinSeverity string `default:"${config_min_severity}" help:"Drop records below this severity (name or rank 0-11)"`
	Mask        string `help:"Keep only records whose mask field starts with this prefix"`
	MaskField   string `default:"${config_mask_field}" enum:"severity,message,log_time" help:"Field the mask is compared against"`
	Begin       string `help:"Drop records logged before this time (RFC3339, inclusive)"`
	End         string `help:"Drop records logged after this time (RFC3339, inclusive)"`
	InputFormat string `default:"${config_input_format}" enum:"auto,csv,json,stderr" help:"Input log format; auto picks by file name"`
	Timezone    string `default:"${config_timezone}" help:"Timezone for zone-less times and rendered buckets"`
	Workers     int    `default:"${config_workers}" help:"Files processed in parallel (0 = number of CPUs)"`
	FailFast    bool   `help:"Stop at the first bad record instead of skipping it"`
}

// PeaksCmd buckets events per severity and reports the busiest bucket
type PeaksCmd struct {
	InputFlags `embed:""`

	Interval      string   `short:"i" default:"${config_interval}" help:"Bucket width (e.g. 30s, 1m, 1h)"`
	Severity      []string `short:"s" default:"${config_severities}" help:"Severities to track (repeatable or comma separated)"`
	AllSeverities bool     `help:"Track every severity"`
}

// Run executes the peaks command
func (c *PeaksCmd) Run(globals *Globals) error {
	width, err := time.ParseDuration(c.Interval)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_INTERVAL", fmt.Sprintf("invalid interval %q: %v", c.Interval, err), hintForInterval())
	}
	if c.AllSeverities && globals.FlagProvided("severity") {
		return outputErrorCommon(globals, "INVALID_FLAGS", "--severity and --all-severities are mutually exclusive", "Drop one of them")
	}
	sevs, err := resolveSeverities(c.AllSeverities, c.Severity)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_SEVERITY", err.Error(), hintFor(err))
	}
	return c.run(globals, aggregate.KindPeaks, aggregate.Options{Interval: width, Severities: sevs})
}

// TotalsCmd counts events per severity
type TotalsCmd struct {
	InputFlags `embed:""`

	Severity []string `short:"s" help:"Severities to count (default: all)"`
}

// Run executes the totals command
func (c *TotalsCmd) Run(globals *Globals) error {
	sevs, err := resolveSeverities(false, c.Severity)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_SEVERITY", err.Error(), hintFor(err))
	}
	return c.run(globals, aggregate.KindTotals, aggregate.Options{Severities: sevs})
}

// PatternsCmd groups messages into normalized patterns
type PatternsCmd struct {
	InputFlags `embed:""`

	Top      int      `short:"n" default:"${config_top}" help:"Number of patterns to report"`
	Severity []string `short:"s" help:"Severities to group (default: ERROR, FATAL, PANIC)"`
}

// Run executes the patterns command
func (c *PatternsCmd) Run(globals *Globals) error {
	if c.Top < 0 {
		return outputErrorCommon(globals, "INVALID_FLAGS", fmt.Sprintf("--top must not be negative, got %d", c.Top))
	}
	sevs, err := resolveSeverities(false, c.Severity)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_SEVERITY", err.Error(), hintFor(err))
	}
	return c.run(globals, aggregate.KindPatterns, aggregate.Options{Top: c.Top, Severities: sevs})
}

// run builds the pipeline for the shared flags and emits the result
func (f *InputFlags) run(globals *Globals, kind aggregate.Kind, opts aggregate.Options) error {
	maybeNoStyle(globals)

	loc, err := loadLocation(f.Timezone)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_TIMEZONE", err.Error(), "use an IANA name such as UTC or Europe/Zagreb")
	}
	opts.Location = loc

	filterOpts, err := buildFilterOptions(f.MinSeverity, f.Mask, f.MaskField, f.Begin, f.End, loc)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_FILTER", err.Error(), hintFor(err))
	}
	format, err := source.ParseFormat(f.InputFormat)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_FLAGS", err.Error())
	}

	proto, err := aggregate.New(kind, opts)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_FLAGS", err.Error(), hintFor(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := globals.Log()
	res, err := pipeline.Run(ctx, pipeline.Config{
		Paths:     f.Files,
		Format:    format,
		Filter:    filterOpts,
		Prototype: proto,
		Workers:   f.Workers,
		FailFast:  f.FailFast,
		Logger:    log,
		Location:  loc,
	})
	if err != nil {
		return outputErrorCommon(globals, errorCode(err), err.Error(), hintFor(err))
	}

	emitter := output.NewEmitter(globals.Format, globals.Stdout)
	stats := res.RunStats()
	if err := emitter.Result(res.Aggregator.Render(), &stats); err != nil {
		return err
	}
	if skipped := stats.Skipped(); skipped > 0 {
		emitWarning(globals, emitter, fmt.Sprintf("%d records skipped (malformed %d, unknown severity %d, read errors %d)",
			skipped, stats.Malformed, stats.UnknownSeverity, stats.ReadErrors))
	}
	return nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// errorCode maps run failures to stable machine-readable codes
func errorCode(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "INTERRUPTED"
	case errors.Is(err, pipeline.ErrNoInputs):
		return "NO_INPUT"
	case isOpenError(err):
		return "INPUT_ERROR"
	case isRecordError(err):
		return "RECORD_ERROR"
	default:
		return "RUN_FAILED"
	}
}
