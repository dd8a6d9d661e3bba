// Package aggregate holds the mergeable aggregation strategies.
//
// The set of strategies is closed: Aggregator carries an unexported method, so
// only the types in this package implement it, and Merge is a match over
// same-variant pairs.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vburojevic/pgpeaks/internal/domain"
)

// Kind names an aggregation strategy
type Kind string

const (
	KindPeaks    Kind = "peaks"
	KindTotals   Kind = "totals"
	KindPatterns Kind = "patterns"
)

// Aggregator consumes records one at a time and can be combined with
// siblings of the same kind.
type Aggregator interface {
	Kind() Kind
	// Update folds one record into the state. It performs no I/O.
	Update(rec *domain.LogRecord) error
	// Merge adds other's state into the receiver. other must be the same
	// concrete kind (and configuration); anything else panics with a
	// *TypeMismatchError.
	Merge(other Aggregator)
	// Render returns the report; it does not modify state.
	Render() *domain.Report
	// Clone returns an independent deep copy.
	Clone() Aggregator

	sealed()
}

// Mergeable is implemented by the concrete aggregators with a typed merge
type Mergeable[T any] interface {
	Clone() Aggregator
	MergeFrom(other T)
}

// ErrTypeMismatch marks a merge between incompatible aggregators
var ErrTypeMismatch = errors.New("aggregator type mismatch")

// TypeMismatchError is the panic value of a merge between incompatible
// aggregators. It indicates a wiring bug, not bad input.
type TypeMismatchError struct {
	Want   string
	Got    string
	Reason string
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("aggregator type mismatch: cannot merge %s into %s", e.Got, e.Want)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

func mismatch(want Aggregator, got Aggregator) *TypeMismatchError {
	g := "<nil>"
	if got != nil {
		g = fmt.Sprintf("%T", got)
	}
	return &TypeMismatchError{Want: fmt.Sprintf("%T", want), Got: g}
}

// Count is a saturating event counter
type Count uint32

// MaxCount is the value at which counters stop increasing
const MaxCount Count = math.MaxUint32

// Add returns c+n, capped at MaxCount
func (c Count) Add(n Count) Count {
	if n > MaxCount-c {
		return MaxCount
	}
	return c + n
}

func addTotal(a, b uint64) uint64 {
	if b > math.MaxUint64-a {
		return math.MaxUint64
	}
	return a + b
}

// Options configures New
type Options struct {
	// Interval is the bucket width for peaks
	Interval time.Duration
	// Severities restricts which severities are tracked. Empty means the
	// kind's default (ERROR for peaks, ERROR and above for patterns, all
	// for totals).
	Severities []domain.Severity
	// Location is used when rendering bucket starts
	Location *time.Location
	// Top limits the number of rendered patterns
	Top int
}

// New builds a zero-state aggregator of the given kind
func New(kind Kind, opts Options) (Aggregator, error) {
	switch kind {
	case KindPeaks:
		p, err := NewPeaks(opts.Interval, PeaksOptions{Severities: opts.Severities, Location: opts.Location})
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindTotals:
		return NewTotals(opts.Severities...), nil
	case KindPatterns:
		return NewPatterns(opts.Top, opts.Severities...), nil
	default:
		return nil, fmt.Errorf("unknown aggregator %q", kind)
	}
}

// Kinds lists the available strategies
func Kinds() []Kind {
	return []Kind{KindPeaks, KindTotals, KindPatterns}
}

// Fold merges parts left to right into a clone of the first and returns it.
// It returns nil for an empty slice.
func Fold(parts []Aggregator) Aggregator {
	if len(parts) == 0 {
		return nil
	}
	acc := parts[0].Clone()
	for _, p := range parts[1:] {
		acc.Merge(p)
	}
	return acc
}

// Reduce is Fold for a statically known concrete type
func Reduce[T Mergeable[T]](parts []T) T {
	var zero T
	if len(parts) == 0 {
		return zero
	}
	acc := parts[0].Clone().(T)
	for _, p := range parts[1:] {
		acc.MergeFrom(p)
	}
	return acc
}

// severitySet is a membership table indexed by severity rank
type severitySet [domain.NumSeverities]bool

func newSeveritySet(sevs []domain.Severity, defaults ...domain.Severity) severitySet {
	var set severitySet
	if len(sevs) == 0 {
		sevs = defaults
	}
	for _, s := range sevs {
		if s.Valid() {
			set[s] = true
		}
	}
	return set
}

func (s *severitySet) has(sev domain.Severity) bool {
	return sev.Valid() && s[sev]
}

func (s *severitySet) list() []domain.Severity {
	var out []domain.Severity
	for i, ok := range s {
		if ok {
			out = append(out, domain.Severity(i))
		}
	}
	return out
}
