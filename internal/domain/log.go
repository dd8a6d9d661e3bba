package domain

import (
	"math"
	"time"
)

// Instants a timeline can hold: the range of Unix nanoseconds in an int64
var (
	MinTime = time.Unix(0, math.MinInt64).UTC()
	MaxTime = time.Unix(0, math.MaxInt64).UTC()
)

// OnTimeline reports whether t lies within [MinTime, MaxTime]
func OnTimeline(t time.Time) bool {
	return !t.Before(MinTime) && !t.After(MaxTime)
}

// LogRecord is one normalized server log event
type LogRecord struct {
	// Timestamp is nil when the record carries no log time
	Timestamp     *time.Time
	Severity      Severity
	SeverityToken string
	Message       string
	RawTime       string // log time exactly as written in the input
	Fields        *PostgresLog

	// Diagnostics only
	Source string
	Line   int
}

// Time returns the record timestamp and whether one is present
func (r *LogRecord) Time() (time.Time, bool) {
	if r == nil || r.Timestamp == nil {
		return time.Time{}, false
	}
	return *r.Timestamp, true
}

// PostgresLog matches the csvlog / jsonlog column set.
// Columns added by newer server versions are left zero when absent.
type PostgresLog struct {
	LogTime              *time.Time `json:"log_time,omitempty"`
	UserName             string     `json:"user_name,omitempty"`
	DatabaseName         string     `json:"database_name,omitempty"`
	ProcessID            int        `json:"process_id,omitempty"`
	ConnectionFrom       string     `json:"connection_from,omitempty"`
	SessionID            string     `json:"session_id,omitempty"`
	SessionLineNum       int64      `json:"session_line_num,omitempty"`
	CommandTag           string     `json:"command_tag,omitempty"`
	SessionStartTime     *time.Time `json:"session_start_time,omitempty"`
	VirtualTransactionID string     `json:"virtual_transaction_id,omitempty"`
	TransactionID        int64      `json:"transaction_id,omitempty"`
	ErrorSeverity        string     `json:"error_severity"`
	SQLStateCode         string     `json:"sql_state_code,omitempty"`
	Message              string     `json:"message"`
	Detail               string     `json:"detail,omitempty"`
	Hint                 string     `json:"hint,omitempty"`
	InternalQuery        string     `json:"internal_query,omitempty"`
	InternalQueryPos     int        `json:"internal_query_pos,omitempty"`
	Context              string     `json:"context,omitempty"`
	Query                string     `json:"query,omitempty"`
	QueryPos             int        `json:"query_pos,omitempty"`
	Location             string     `json:"location,omitempty"`
	ApplicationName      string     `json:"application_name,omitempty"`
	BackendType          string     `json:"backend_type,omitempty"`
	LeaderPID            int        `json:"leader_pid,omitempty"`
	QueryID              int64      `json:"query_id,omitempty"`
}
