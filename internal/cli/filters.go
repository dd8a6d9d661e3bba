package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vburojevic/pgpeaks/internal/domain"
	"github.com/vburojevic/pgpeaks/internal/filter"
)

// timeFlagLayouts are accepted by --begin and --end; zone-less layouts are
// read in the configured timezone
var timeFlagLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimeFlag(name, s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range timeFlagLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid --%s %q: expected RFC3339 such as 2024-01-15T10:00:00Z", name, s)
}

// buildFilterOptions compiles the record predicate flags
func buildFilterOptions(minSeverity, mask, maskField, begin, end string, loc *time.Location) (filter.Options, error) {
	var opts filter.Options

	if minSeverity != "" {
		sev, err := domain.ParseSeverityOrRank(minSeverity)
		if err != nil {
			return opts, err
		}
		opts.MinSeverity = sev
	}
	if mask != "" {
		opts.Mask = &mask
	}
	var err error
	if opts.MaskField, err = filter.ParseMaskField(maskField); err != nil {
		return opts, err
	}
	if opts.Begin, err = parseTimeFlag("begin", begin, loc); err != nil {
		return opts, err
	}
	if opts.End, err = parseTimeFlag("end", end, loc); err != nil {
		return opts, err
	}
	return opts, opts.Validate()
}

// resolveSeverities picks the tracked set: all, the flag values, or the
// aggregator default when both are empty
func resolveSeverities(all bool, tokens []string) ([]domain.Severity, error) {
	if all {
		return domain.AllSeverities(), nil
	}
	var cleaned []string
	for _, t := range tokens {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				cleaned = append(cleaned, part)
			}
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}
	return domain.ParseSeverities(cleaned)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func joinComma(ss []string) string {
	return strings.Join(ss, ",")
}
