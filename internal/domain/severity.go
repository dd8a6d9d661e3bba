package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Severity is a PostgreSQL message severity level, ordered by criticality
type Severity int

const (
	SeverityDebug5 Severity = iota
	SeverityDebug4
	SeverityDebug3
	SeverityDebug2
	SeverityDebug1
	SeverityLog
	SeverityInfo
	SeverityNotice
	SeverityWarning
	SeverityError
	SeverityFatal
	SeverityPanic
)

// NumSeverities is the number of members in the enumeration
const NumSeverities = int(SeverityPanic) + 1

var severityNames = [NumSeverities]string{
	SeverityDebug5:  "DEBUG5",
	SeverityDebug4:  "DEBUG4",
	SeverityDebug3:  "DEBUG3",
	SeverityDebug2:  "DEBUG2",
	SeverityDebug1:  "DEBUG1",
	SeverityLog:     "LOG",
	SeverityInfo:    "INFO",
	SeverityNotice:  "NOTICE",
	SeverityWarning: "WARNING",
	SeverityError:   "ERROR",
	SeverityFatal:   "FATAL",
	SeverityPanic:   "PANIC",
}

// ErrUnknownSeverity is returned for tokens that are not a known severity
var ErrUnknownSeverity = errors.New("unknown severity")

// UnknownSeverityError carries the offending token
type UnknownSeverityError struct {
	Token string
}

func (e *UnknownSeverityError) Error() string {
	return fmt.Sprintf("unknown severity %q", e.Token)
}

func (e *UnknownSeverityError) Unwrap() error { return ErrUnknownSeverity }

// AllSeverities returns every severity in increasing rank order
func AllSeverities() []Severity {
	out := make([]Severity, len(severityNames))
	for i := range severityNames {
		out[i] = Severity(i)
	}
	return out
}

// Rank returns the integer rank of the severity (higher = more severe)
func (s Severity) Rank() int { return int(s) }

// Valid reports whether s is a member of the enumeration
func (s Severity) Valid() bool {
	return s >= SeverityDebug5 && s <= SeverityPanic
}

// String returns the canonical token as written by the server
func (s Severity) String() string {
	if !s.Valid() {
		return "Severity(" + strconv.Itoa(int(s)) + ")"
	}
	return severityNames[s]
}

// Less reports whether s is strictly less severe than o
func (s Severity) Less(o Severity) bool { return s.Rank() < o.Rank() }

// AtLeast reports whether s passes a minimum severity threshold
func (s Severity) AtLeast(min Severity) bool { return s.Rank() >= min.Rank() }

// MarshalText implements encoding.TextMarshaler
func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid severity rank %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Severity) UnmarshalText(b []byte) error {
	parsed, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity converts a severity token to a Severity.
// Matching is case-insensitive; unknown tokens are an error, never a default.
func ParseSeverity(token string) (Severity, error) {
	t := strings.ToUpper(strings.TrimSpace(token))
	for i, name := range severityNames {
		if name == t {
			return Severity(i), nil
		}
	}
	return 0, &UnknownSeverityError{Token: token}
}

// SeverityFromRank maps an integer rank back to a Severity
func SeverityFromRank(rank int) (Severity, error) {
	s := Severity(rank)
	if !s.Valid() {
		return 0, &UnknownSeverityError{Token: strconv.Itoa(rank)}
	}
	return s, nil
}

// ParseSeverityOrRank accepts either a token ("warning") or a rank ("8").
// Used for user-facing flags and config values.
func ParseSeverityOrRank(s string) (Severity, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return SeverityFromRank(n)
	}
	return ParseSeverity(s)
}

// ParseSeverities parses a list of tokens, failing on the first unknown one
func ParseSeverities(tokens []string) ([]Severity, error) {
	out := make([]Severity, 0, len(tokens))
	for _, t := range tokens {
		s, err := ParseSeverityOrRank(t)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
