package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vburojevic/pgpeaks/internal/domain"
)

const abbrevLayout = "2006-01-02 15:04:05 MST"

// Layouts of %m / log_time as the server writes them, e.g.
// "2025-05-21 13:00:03.127 UTC" or "2025-05-21 13:00:03.127 +03".
// Fractional seconds are accepted by time.Parse without being spelled out.
// Numeric offsets come first: the MST layout also accepts "+03" but
// discards the offset.
var timestampLayouts = []string{
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07",
	abbrevLayout,
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// parseTimestamp parses a server log time. Zone abbreviations must be
// known to loc (or be UTC/GMT); anything else would be read as a zero offset
// and shift the record on the timeline. Times outside domain.MinTime..MaxTime
// are rejected.
func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		if layout == abbrevLayout {
			if err := checkAbbreviation(t, loc); err != nil {
				return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
			}
		}
		if !domain.OnTimeline(t) {
			return time.Time{}, fmt.Errorf("timestamp %q is outside %d-%d", s, domain.MinTime.Year(), domain.MaxTime.Year())
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// ErrUnknownZone marks a zone abbreviation the configured location does not use
var ErrUnknownZone = errors.New("unknown time zone abbreviation")

// checkAbbreviation rejects the zero-offset zone time.ParseInLocation makes
// up for abbreviations loc does not know. Known ones come back in loc itself.
func checkAbbreviation(t time.Time, loc *time.Location) error {
	name, offset := t.Zone()
	if t.Location() == loc || offset != 0 || name == "UTC" || name == "GMT" {
		return nil
	}
	return fmt.Errorf("%w %q for location %s; set --timezone to the server's log_timezone", ErrUnknownZone, name, loc)
}

// optionalTime parses s, returning nil for an empty column
func optionalTime(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTimestamp(s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optionalInt(name, s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}
