package filter

import (
	"errors"
	"fmt"
	"time"

	"github.com/vburojevic/pgpeaks/internal/domain"
)

// Options are the record predicates applied while parsing
type Options struct {
	// MinSeverity drops records ranked below it
	MinSeverity domain.Severity
	// Mask, when set, is a prefix the MaskField value must start with
	Mask      *string
	MaskField MaskField
	// Begin and End bound the log time, both inclusive
	Begin *time.Time
	End   *time.Time
}

// ErrInvalidRange is returned when Begin is after End
var ErrInvalidRange = errors.New("begin is after end")

// Validate checks the options for contradictions
func (o Options) Validate() error {
	if !o.MinSeverity.Valid() {
		return fmt.Errorf("min severity: %w", &domain.UnknownSeverityError{Token: o.MinSeverity.String()})
	}
	if _, err := ParseMaskField(string(o.MaskField)); err != nil {
		return err
	}
	if o.Begin != nil && o.End != nil && o.Begin.After(*o.End) {
		return ErrInvalidRange
	}
	return nil
}

// Pipeline splits the predicates into the stage that only needs the record
// head (severity token, raw time, message) and the stage that needs the
// fully decoded record, so parsers can reject early without decoding.
// A Pipeline is safe for concurrent use once built.
type Pipeline struct {
	head *Chain
	body *Chain
}

// NewPipeline compiles opts into a reusable matcher
func NewPipeline(opts Options) *Pipeline {
	head := NewChain(NewLevelFilter(opts.MinSeverity))
	if opts.Mask != nil {
		head.Add(NewMaskFilter(*opts.Mask, opts.MaskField))
	}
	body := NewChain()
	if opts.Begin != nil || opts.End != nil {
		body.Add(NewTimeRangeFilter(opts.Begin, opts.End))
	}
	return &Pipeline{head: head, body: body}
}

// MatchHead applies the severity and mask predicates
func (p *Pipeline) MatchHead(rec *domain.LogRecord) bool {
	if p == nil || rec == nil {
		return true
	}
	return p.head.Match(rec)
}

// MatchBody applies the time range predicate
func (p *Pipeline) MatchBody(rec *domain.LogRecord) bool {
	if p == nil || rec == nil {
		return true
	}
	return p.body.Match(rec)
}

// Match returns true when the record passes all predicates
func (p *Pipeline) Match(rec *domain.LogRecord) bool {
	return p.MatchHead(rec) && p.MatchBody(rec)
}
