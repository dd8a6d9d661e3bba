package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/vburojevic/pgpeaks/internal/aggregate"
	"github.com/vburojevic/pgpeaks/internal/domain"
	"github.com/vburojevic/pgpeaks/internal/filter"
	"github.com/vburojevic/pgpeaks/internal/parser"
)

func hintForInterval() string {
	return "Use a positive Go duration such as 30s, 1m or 1h"
}

func hintFor(err error) string {
	if err == nil {
		return ""
	}

	var sevErr *domain.UnknownSeverityError
	if errors.As(err, &sevErr) && !isRecordError(err) {
		return "Valid severities: " + strings.Join(severityNames(), ", ") + " (or rank 0-11)"
	}

	switch {
	case errors.Is(err, aggregate.ErrInvalidWidth):
		return hintForInterval()
	case errors.Is(err, filter.ErrInvalidRange):
		return "--begin must not be after --end"
	case errors.Is(err, os.ErrNotExist):
		return "Check the path; pass - to read standard input"
	case errors.Is(err, os.ErrPermission):
		return "The log file is not readable by this user"
	case isRecordError(err):
		return "Drop --fail-fast to skip bad records and see them in run_stats diagnostics"
	}

	msg := err.Error()
	if strings.Contains(msg, "gzip: invalid header") || strings.Contains(msg, "magic number mismatch") || strings.Contains(msg, "xz: invalid header") {
		return "The file suffix says compressed but the content is not; rename the file"
	}
	return ""
}

func severityNames() []string {
	all := domain.AllSeverities()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.String()
	}
	return names
}

func isOpenError(err error) bool {
	var pe *os.PathError
	return errors.As(err, &pe)
}

func isRecordError(err error) bool {
	var recErr *parser.RecordError
	var readErr *parser.RecordReadError
	return errors.As(err, &recErr) || errors.As(err, &readErr)
}
