// Package pipeline runs one aggregation over many inputs: one shard per
// file, each with its own aggregator clone, merged at the end.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vburojevic/pgpeaks/internal/aggregate"
	"github.com/vburojevic/pgpeaks/internal/domain"
	"github.com/vburojevic/pgpeaks/internal/filter"
	"github.com/vburojevic/pgpeaks/internal/logging"
	"github.com/vburojevic/pgpeaks/internal/parser"
	"github.com/vburojevic/pgpeaks/internal/source"
)

// DefaultMaxDiagnostics caps the record errors kept in a Result
const DefaultMaxDiagnostics = 20

// ErrNoInputs is returned when Run is given no paths
var ErrNoInputs = errors.New("no input files")

// Config describes one run
type Config struct {
	Paths  []string
	Format source.Format
	Filter filter.Options
	// Prototype is the zero-state aggregator cloned for every shard
	Prototype aggregate.Aggregator
	// Workers bounds concurrent shards; <= 0 means GOMAXPROCS
	Workers int
	// FailFast turns the first record error into a run error
	FailFast       bool
	MaxDiagnostics int

	Logger   *zap.Logger
	Location *time.Location
	Clock    clock.Clock
	// Open defaults to source.Open
	Open func(path string) (source.FileWithPath, error)
}

// ShardStats is what one input contributed
type ShardStats struct {
	Path  string
	Stats parser.Stats
}

// Result is the merged outcome of a run
type Result struct {
	Aggregator  aggregate.Aggregator
	Shards      []ShardStats
	Totals      parser.Stats
	Diagnostics []string
	Elapsed     time.Duration
}

// RunStats converts the result counters for output
func (r *Result) RunStats() domain.RunStats {
	s := domain.NewRunStats()
	s.Files = len(r.Shards)
	s.Read = r.Totals.Read
	s.Admitted = r.Totals.Admitted
	s.Filtered = r.Totals.Filtered
	s.Malformed = r.Totals.Malformed
	s.UnknownSeverity = r.Totals.UnknownSeverity
	s.ReadErrors = r.Totals.ReadErrors
	s.Elapsed = r.Elapsed
	s.Diagnostics = r.Diagnostics
	return s
}

type shard struct {
	agg   aggregate.Aggregator
	stats parser.Stats
	diags []string
}

// Run processes every path and merges the partial aggregates in input order
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if len(cfg.Paths) == 0 {
		return nil, ErrNoInputs
	}
	if cfg.Prototype == nil {
		return nil, errors.New("pipeline: no aggregator")
	}
	if err := cfg.Filter.Validate(); err != nil {
		return nil, err
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	maxDiags := cfg.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = DefaultMaxDiagnostics
	}
	open := cfg.Open
	if open == nil {
		open = source.Open
	}
	log := logging.Or(cfg.Logger)

	start := clk.Now()
	shards := make([]shard, len(cfg.Paths))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, path := range cfg.Paths {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := runShard(gctx, cfg, open, path, maxDiags, log)
			shards[i] = s
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Shards: make([]ShardStats, len(shards))}
	parts := make([]aggregate.Aggregator, len(shards))
	for i, s := range shards {
		parts[i] = s.agg
		res.Shards[i] = ShardStats{Path: cfg.Paths[i], Stats: s.stats}
		res.Totals.Add(s.stats)
		for _, d := range s.diags {
			if len(res.Diagnostics) < maxDiags {
				res.Diagnostics = append(res.Diagnostics, d)
			}
		}
	}
	res.Aggregator = aggregate.Fold(parts)
	res.Elapsed = clk.Since(start)

	log.Debug("run finished",
		zap.Int("files", len(cfg.Paths)),
		zap.Int64("admitted", res.Totals.Admitted),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

func runShard(ctx context.Context, cfg Config, open func(string) (source.FileWithPath, error), path string, maxDiags int, log *zap.Logger) (shard, error) {
	s := shard{agg: cfg.Prototype.Clone()}

	src, err := open(path)
	if err != nil {
		return s, fmt.Errorf("open %s: %w", path, err)
	}
	p, err := parser.New(cfg.Format, src, parser.Config{Logger: log, Location: cfg.Location})
	if err != nil {
		_ = src.Close()
		return s, err
	}
	log.Debug("shard started", zap.String("path", path))

	var runErr error
	var rejected int64
	for rec, recErr := range p.Parse(cfg.Filter) {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if recErr != nil {
			var rerr *parser.RecordReadError
			if errors.As(recErr, &rerr) && rerr.Terminal {
				runErr = recErr
				break
			}
			if cfg.FailFast {
				runErr = recErr
				break
			}
			if len(s.diags) < maxDiags {
				s.diags = append(s.diags, recErr.Error())
			}
			continue
		}
		if err := s.agg.Update(rec); err != nil {
			if cfg.FailFast {
				runErr = err
				break
			}
			rejected++
			log.Warn("record rejected by aggregator", zap.Error(err))
			if len(s.diags) < maxDiags {
				s.diags = append(s.diags, err.Error())
			}
		}
	}
	s.stats = p.Stats()
	s.stats.Admitted -= rejected
	s.stats.Malformed += rejected

	log.Debug("shard finished",
		zap.String("path", path),
		zap.Int64("read", s.stats.Read),
		zap.Int64("admitted", s.stats.Admitted),
		zap.Error(runErr))
	return s, runErr
}
