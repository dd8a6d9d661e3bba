package filter

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/vburojevic/pgpeaks/internal/domain"
)

// LevelFilter filters records by minimum severity
type LevelFilter struct {
	min domain.Severity
}

// NewLevelFilter creates a level filter
func NewLevelFilter(min domain.Severity) *LevelFilter {
	return &LevelFilter{min: min}
}

// Match returns true if the record severity rank is >= the minimum
func (f *LevelFilter) Match(rec *domain.LogRecord) bool {
	return rec.Severity.AtLeast(f.min)
}

// MaskField selects the record field a mask is compared against
type MaskField string

const (
	MaskSeverity MaskField = "severity"
	MaskMessage  MaskField = "message"
	MaskLogTime  MaskField = "log_time"
)

// MaskFields lists the supported mask fields
func MaskFields() []MaskField {
	return []MaskField{MaskSeverity, MaskMessage, MaskLogTime}
}

// ParseMaskField validates s; empty means MaskSeverity
func ParseMaskField(s string) (MaskField, error) {
	if s == "" {
		return MaskSeverity, nil
	}
	if slices.Contains(MaskFields(), MaskField(s)) {
		return MaskField(s), nil
	}
	names := make([]string, 0, len(MaskFields()))
	for _, f := range MaskFields() {
		names = append(names, string(f))
	}
	return "", fmt.Errorf("unknown mask field %q (want one of %s)", s, strings.Join(names, ", "))
}

// MaskFilter keeps records whose field starts with the mask. It is a plain
// prefix comparison; an empty mask keeps everything.
type MaskFilter struct {
	mask  string
	field MaskField
}

// NewMaskFilter creates a prefix filter on field
func NewMaskFilter(mask string, field MaskField) *MaskFilter {
	if field == "" {
		field = MaskSeverity
	}
	return &MaskFilter{mask: mask, field: field}
}

// Match returns true if the selected field starts with the mask
func (f *MaskFilter) Match(rec *domain.LogRecord) bool {
	var v string
	switch f.field {
	case MaskMessage:
		v = rec.Message
	case MaskLogTime:
		v = rec.RawTime
	default:
		v = rec.SeverityToken
	}
	return strings.HasPrefix(v, f.mask)
}

// TimeRangeFilter keeps records inside [begin, end]. Either bound may be
// nil. Records without a timestamp always pass.
type TimeRangeFilter struct {
	begin *time.Time
	end   *time.Time
}

// NewTimeRangeFilter creates an inclusive time window filter
func NewTimeRangeFilter(begin, end *time.Time) *TimeRangeFilter {
	return &TimeRangeFilter{begin: begin, end: end}
}

// Match returns true unless the record time lies outside the window
func (f *TimeRangeFilter) Match(rec *domain.LogRecord) bool {
	ts, ok := rec.Time()
	if !ok {
		return true
	}
	if f.begin != nil && ts.Before(*f.begin) {
		return false
	}
	if f.end != nil && ts.After(*f.end) {
		return false
	}
	return true
}
