package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vburojevic/pgpeaks/internal/domain"
	"github.com/vburojevic/pgpeaks/internal/filter"
	"github.com/vburojevic/pgpeaks/internal/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// trackingCloser counts Close calls on an in-memory input
type trackingCloser struct {
	io.Reader
	closed int
}

func (c *trackingCloser) Close() error {
	c.closed++
	return nil
}

func input(path, data string) (source.FileWithPath, *trackingCloser) {
	tc := &trackingCloser{Reader: strings.NewReader(data)}
	return source.FileWithPath{File: tc, Path: path}, tc
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	return zap.New(core), logs
}

// csvRow builds a 23-column csvlog row
func csvRow(ts, sev, msg string) string {
	return fmt.Sprintf(`%s,"postgres","app",1234,"127.0.0.1:5432",65a5f0e1.4d2,1,"SELECT",2024-01-15 09:00:00 UTC,3/1,0,%s,42P01,"%s",,,,,,,,,"psql"`, ts, sev, msg)
}

func ptr[T any](v T) *T { return &v }

func TestNew_SelectsByFormat(t *testing.T) {
	src, _ := input("postgresql.csv", "")
	p, err := New(source.FormatAuto, src, Config{})
	require.NoError(t, err)
	assert.IsType(t, &CSVParser{}, p)

	src, _ = input("postgresql.json.gz", "")
	p, err = New(source.FormatAuto, src, Config{})
	require.NoError(t, err)
	assert.IsType(t, &JSONParser{}, p)

	src, _ = input("postgresql.csv", "")
	p, err = New(source.FormatStderr, src, Config{})
	require.NoError(t, err)
	assert.IsType(t, &StderrParser{}, p)
	assert.Equal(t, "postgresql.csv", p.Path())

	_, err = New(source.Format("xml"), src, Config{})
	require.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-15 10:00:03.127 UTC", time.Date(2024, 1, 15, 10, 0, 3, 127e6, time.UTC)},
		{"2024-01-15 10:00:03 UTC", time.Date(2024, 1, 15, 10, 0, 3, 0, time.UTC)},
		{"2024-01-15 10:00:00 +03", time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC)},
		{"2024-01-15 10:00:00 -0130", time.Date(2024, 1, 15, 11, 30, 0, 0, time.UTC)},
		{"2024-01-15 10:00:00 +05:30", time.Date(2024, 1, 15, 4, 30, 0, 0, time.UTC)},
		{"2024-01-15 10:00:00", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{"2024-01-15T10:00:00.5Z", time.Date(2024, 1, 15, 10, 0, 0, 5e8, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimestamp(tt.in, time.UTC)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := parseTimestamp("yesterday", time.UTC)
	require.Error(t, err)
}

func TestParseTimestamp_ZoneAbbreviation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("no tzdata: %v", err)
	}

	got, err := parseTimestamp("2024-07-15 10:00:00.000 CEST", berlin)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 7, 15, 8, 0, 0, 0, time.UTC).Equal(got), "got %s", got)

	got, err = parseTimestamp("2024-01-15 10:00:00 CET", berlin)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC).Equal(got), "got %s", got)

	// UTC and GMT are zero offsets in any location
	got, err = parseTimestamp("2024-07-15 10:00:00 GMT", berlin)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC).Equal(got), "got %s", got)

	_, err = parseTimestamp("2024-07-15 10:00:00.000 CEST", time.UTC)
	require.ErrorIs(t, err, ErrUnknownZone)
	assert.Contains(t, err.Error(), "--timezone")
}

func TestParseTimestamp_OutsideTimeline(t *testing.T) {
	for _, in := range []string{"3000-01-01 00:00:30 UTC", "1500-06-01 12:00:00 +00"} {
		_, err := parseTimestamp(in, time.UTC)
		assert.Error(t, err, in)
	}
	_, err := parseTimestamp("2262-01-01 00:00:00 UTC", time.UTC)
	assert.NoError(t, err)
}

func TestCSVParser_UnknownZoneIsMalformed(t *testing.T) {
	data := csvRow("2024-07-15 10:00:00.000 CEST", "ERROR", "shifted") + "\n" +
		csvRow("3000-01-01 00:00:00 UTC", "ERROR", "far future") + "\n" +
		csvRow("2024-07-15 10:00:01 UTC", "ERROR", "fine") + "\n"

	log, logs := observed()
	src, _ := input("postgresql.csv", data)
	p := NewCSVParser(src, Config{Logger: log, Location: time.UTC})
	recs, errs := Collect(p.Parse(filter.Options{}))

	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, "fine", recs[0].Message)
	assert.Equal(t, int64(2), p.Stats().Malformed)
	require.Equal(t, 2, logs.FilterMessage("skipping malformed record").Len())
	assert.Contains(t, logs.All()[0].ContextMap()["error"], "CEST")
}

func TestOptionalInt(t *testing.T) {
	n, err := optionalInt("pid", "")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = optionalInt("pid", "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = optionalInt("pid", "x")
	require.ErrorContains(t, err, "pid")
}

func TestErrorTypes(t *testing.T) {
	rerr := &RecordReadError{Path: "a.csv", Line: 3, Err: io.ErrUnexpectedEOF}
	assert.ErrorIs(t, rerr, ErrRecordRead)
	assert.ErrorIs(t, rerr, io.ErrUnexpectedEOF)
	assert.Contains(t, rerr.Error(), "a.csv:3")

	derr := &DeserializeError{Path: "a.csv", Line: 4, Err: errors.New("bad pid")}
	assert.ErrorIs(t, derr, ErrDeserialize)
	assert.NotErrorIs(t, derr, ErrRecordRead)

	sevErr := &RecordError{Path: "a.csv", Line: 5, Err: &domain.UnknownSeverityError{Token: "BOGUS"}}
	assert.ErrorIs(t, sevErr, domain.ErrUnknownSeverity)
}

func TestStats_Add(t *testing.T) {
	s := Stats{Read: 1, Admitted: 1}
	s.Add(Stats{Read: 2, Filtered: 1, Malformed: 1, UnknownSeverity: 1, ReadErrors: 1})
	assert.Equal(t, Stats{Read: 3, Admitted: 1, Filtered: 1, Malformed: 1, UnknownSeverity: 1, ReadErrors: 1}, s)
}

func TestCollect(t *testing.T) {
	src, _ := input("a.csv", csvRow("2024-01-15 10:00:00 UTC", "ERROR", "x")+"\n"+
		csvRow("2024-01-15 10:00:00 UTC", "NOPE", "y")+"\n")
	recs, errs := Collect(NewCSVParser(src, Config{}).Parse(filter.Options{}))
	assert.Len(t, recs, 1)
	assert.Len(t, errs, 1)
}
