package domain

import "time"

// Report is the rendered, sink-independent result of an aggregator
type Report struct {
	Type          string `json:"type"`          // Always "report"
	SchemaVersion int    `json:"schemaVersion"` // Schema version for compatibility

	Aggregator string `json:"aggregator"`
	Interval   string `json:"interval,omitempty"`

	Buckets  []BucketCount   `json:"buckets,omitempty"`
	Peaks    []BucketCount   `json:"peaks,omitempty"`
	Totals   []SeverityCount `json:"totals,omitempty"`
	Patterns []PatternCount  `json:"patterns,omitempty"`

	// Records that matched but could not be bucketed (no timestamp)
	Untimed uint64 `json:"untimed,omitempty"`
}

// NewReport creates an empty report for the named aggregator
func NewReport(aggregator string) *Report {
	return &Report{
		Type:       "report",
		Aggregator: aggregator,
	}
}

// BucketCount is the number of events of one severity in one time bucket
type BucketCount struct {
	Severity Severity  `json:"severity"`
	Start    time.Time `json:"start"`
	Count    uint32    `json:"count"`
}

// SeverityCount is a per-severity total
type SeverityCount struct {
	Severity Severity `json:"severity"`
	Count    uint64   `json:"count"`
}

// PatternCount is a recurring normalized message
type PatternCount struct {
	Pattern string `json:"pattern"`
	Count   uint32 `json:"count"`
	Sample  string `json:"sample"`
}

// RunStats summarizes what happened to the input during a run
type RunStats struct {
	Type          string `json:"type"` // Always "run_stats"
	SchemaVersion int    `json:"schemaVersion"`

	Files           int           `json:"files"`
	Read            int64         `json:"read"`
	Admitted        int64         `json:"admitted"`
	Filtered        int64         `json:"filtered"`
	Malformed       int64         `json:"malformed"`
	UnknownSeverity int64         `json:"unknown_severity"`
	ReadErrors      int64         `json:"read_errors"`
	Elapsed         time.Duration `json:"elapsed_ns"`
	Diagnostics     []string      `json:"diagnostics,omitempty"`
}

// NewRunStats creates empty run stats
func NewRunStats() RunStats {
	return RunStats{Type: "run_stats"}
}

// Skipped is the number of records dropped because they could not be used
func (s *RunStats) Skipped() int64 {
	return s.Malformed + s.UnknownSeverity + s.ReadErrors
}

// ErrorOutput represents a structured error for NDJSON output
type ErrorOutput struct {
	Type          string `json:"type"`          // Always "error"
	SchemaVersion int    `json:"schemaVersion"` // Schema version for compatibility
	Code          string `json:"code"`          // Machine-readable error code
	Message       string `json:"message"`       // Human-readable message
	Hint          string `json:"hint,omitempty"`
}

// NewErrorOutput creates a new error output
// Note: SchemaVersion should be set by the caller (output package)
func NewErrorOutput(code, message string) *ErrorOutput {
	return &ErrorOutput{
		Type:    "error",
		Code:    code,
		Message: message,
	}
}
