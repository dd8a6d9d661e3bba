// Package parser turns raw PostgreSQL server logs into a lazy, filtered
// stream of normalized records.
package parser

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/vburojevic/pgpeaks/internal/domain"
	"github.com/vburojevic/pgpeaks/internal/filter"
	"github.com/vburojevic/pgpeaks/internal/logging"
	"github.com/vburojevic/pgpeaks/internal/source"
)

// Parser produces one single-pass sequence of records from one input.
//
// The sequence yields either a record or an error per item. Per-record
// errors (unknown severity, framing) do not end the sequence; an I/O error
// from the input does. Malformed records are logged and skipped without
// being yielded. The input is closed when the sequence ends, including when
// the consumer stops early.
type Parser interface {
	Parse(opts filter.Options) iter.Seq2[*domain.LogRecord, error]
	// Stats is valid once the sequence has ended
	Stats() Stats
	Path() string
}

// Stats counts what happened to the input
type Stats struct {
	Read            int64 // raw records read, including bad ones
	Admitted        int64 // records yielded
	Filtered        int64 // records dropped by predicates
	Malformed       int64 // records dropped as undecodable
	UnknownSeverity int64
	ReadErrors      int64
}

// Add accumulates o into s
func (s *Stats) Add(o Stats) {
	s.Read += o.Read
	s.Admitted += o.Admitted
	s.Filtered += o.Filtered
	s.Malformed += o.Malformed
	s.UnknownSeverity += o.UnknownSeverity
	s.ReadErrors += o.ReadErrors
}

var (
	// ErrRecordRead marks failures of the input to produce the next record
	ErrRecordRead = errors.New("record read failed")
	// ErrDeserialize marks records that do not have the expected shape
	ErrDeserialize = errors.New("malformed record")
	// ErrAlreadyConsumed is yielded when Parse is called twice on one parser
	ErrAlreadyConsumed = errors.New("parser already consumed; create a new parser to read again")
)

// RecordError is a problem with one record that does not stop the stream
type RecordError struct {
	Path string
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// RecordReadError is a transport or framing failure. Terminal is set when
// the input cannot produce any more records.
type RecordReadError struct {
	Path     string
	Line     int
	Err      error
	Terminal bool
}

func (e *RecordReadError) Error() string {
	return fmt.Sprintf("%s:%d: read failed: %v", e.Path, e.Line, e.Err)
}

func (e *RecordReadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrRecordRead) hold
func (e *RecordReadError) Is(target error) bool { return target == ErrRecordRead }

// DeserializeError describes a malformed record. It is logged, never yielded.
type DeserializeError struct {
	Path string
	Line int
	Err  error
}

func (e *DeserializeError) Error() string {
	return fmt.Sprintf("%s:%d: malformed record: %v", e.Path, e.Line, e.Err)
}

func (e *DeserializeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDeserialize) hold
func (e *DeserializeError) Is(target error) bool { return target == ErrDeserialize }

// Config carries the collaborators a parser needs
type Config struct {
	Logger *zap.Logger
	// Location resolves zone abbreviations in log times. Defaults to Local.
	Location *time.Location
}

// New returns the parser for format. FormatAuto picks by file name.
func New(format source.Format, src source.FileWithPath, cfg Config) (Parser, error) {
	if format == source.FormatAuto || format == "" {
		format = source.DetectFormat(src.Path)
	}
	switch format {
	case source.FormatCSV:
		return NewCSVParser(src, cfg), nil
	case source.FormatJSON:
		return NewJSONParser(src, cfg), nil
	case source.FormatStderr:
		return NewStderrParser(src, cfg), nil
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

// base holds the state shared by the concrete parsers
type base struct {
	src      source.FileWithPath
	log      *zap.Logger
	loc      *time.Location
	consumed bool
	closed   bool
	stats    Stats
}

func newBase(src source.FileWithPath, cfg Config) base {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return base{
		src: src,
		log: logging.Or(cfg.Logger).With(zap.String("path", src.Path)),
		loc: loc,
	}
}

func (b *base) Stats() Stats { return b.stats }

func (b *base) Path() string { return b.src.Path }

// start marks the parser consumed; false means it already was
func (b *base) start() bool {
	if b.consumed {
		return false
	}
	b.consumed = true
	return true
}

func (b *base) close() {
	if b.closed {
		return
	}
	b.closed = true
	if err := b.src.Close(); err != nil {
		b.log.Debug("close failed", zap.Error(err))
	}
}

func (b *base) malformed(line int, err error) {
	b.stats.Malformed++
	derr := &DeserializeError{Path: b.src.Path, Line: line, Err: err}
	b.log.Warn("skipping malformed record", zap.Int("line", line), zap.Error(derr))
}

func (b *base) readError(line int, err error, terminal bool) *RecordReadError {
	b.stats.ReadErrors++
	return &RecordReadError{Path: b.src.Path, Line: line, Err: err, Terminal: terminal}
}

// rawRecord is what a parser knows about a record before decoding it fully
type rawRecord struct {
	line    int
	token   string
	message string
	rawTime string
	decode  func(rec *domain.LogRecord) error
}

// step runs the staged predicates over raw. It returns the record to yield,
// an error to yield, or neither when the record is dropped.
func (b *base) step(pl *filter.Pipeline, raw rawRecord) (*domain.LogRecord, error) {
	sev, err := domain.ParseSeverity(raw.token)
	if err != nil {
		b.stats.UnknownSeverity++
		return nil, &RecordError{Path: b.src.Path, Line: raw.line, Err: err}
	}

	rec := &domain.LogRecord{
		Severity:      sev,
		SeverityToken: raw.token,
		Message:       raw.message,
		RawTime:       raw.rawTime,
		Source:        b.src.Path,
		Line:          raw.line,
	}
	if !pl.MatchHead(rec) {
		b.stats.Filtered++
		return nil, nil
	}
	if err := raw.decode(rec); err != nil {
		b.malformed(raw.line, err)
		return nil, nil
	}
	if !pl.MatchBody(rec) {
		b.stats.Filtered++
		return nil, nil
	}
	b.stats.Admitted++
	return rec, nil
}

// Collect drains seq, returning the records and errors it produced.
// Useful for tests and small inputs.
func Collect(seq iter.Seq2[*domain.LogRecord, error]) ([]*domain.LogRecord, []error) {
	var recs []*domain.LogRecord
	var errs []error
	for rec, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, errs
}
