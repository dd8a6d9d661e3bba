package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vburojevic/pgpeaks/internal/domain"
	"github.com/vburojevic/pgpeaks/internal/filter"
)

const stderrLog = `2024-01-15 10:00:01.123 UTC [4242] ERROR:  relation "users" does not exist at character 15
2024-01-15 10:00:01.123 UTC [4242] STATEMENT:  select *
	  from users
2024-01-15 10:00:02.000 UTC [4243] LOG:  checkpoint starting: time
this line is not part of any event format

2024-01-15 10:00:03.000 +03 [4244] FATAL:  password authentication failed for user "bob"
2024-01-15 10:00:03.000 +03 [4244] DETAIL:  Connection matched pg_hba.conf line 95: "host all all 0.0.0.0/0 md5"
2024-01-15 10:00:03.000 +03 [4244] HINT:  Check the password.
2024-01-15 10:00:04.000 UTC [4245] SCREAM:  unknown token
2024-01-15 10:00:05.000 UTC [4246] WARNING:  there is no transaction in progress
`

func TestStderrParser_Events(t *testing.T) {
	log, logs := observed()
	src, tc := input("postgresql.log", stderrLog)
	p := NewStderrParser(src, Config{Logger: log, Location: time.UTC})

	recs, errs := Collect(p.Parse(filter.Options{}))
	require.Len(t, recs, 4)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], domain.ErrUnknownSeverity)

	first := recs[0]
	assert.Equal(t, domain.SeverityError, first.Severity)
	assert.Equal(t, `relation "users" does not exist at character 15`, first.Message)
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, 4242, first.Fields.ProcessID)
	assert.Equal(t, "select *\nfrom users", first.Fields.Query)
	assert.True(t, time.Date(2024, 1, 15, 10, 0, 1, 123e6, time.UTC).Equal(*first.Timestamp))

	assert.Equal(t, domain.SeverityLog, recs[1].Severity)
	assert.Equal(t, "checkpoint starting: time", recs[1].Message)

	fatal := recs[2]
	assert.Equal(t, domain.SeverityFatal, fatal.Severity)
	assert.Contains(t, fatal.Fields.Detail, "pg_hba.conf line 95")
	assert.Equal(t, "Check the password.", fatal.Fields.Hint)
	assert.True(t, time.Date(2024, 1, 15, 7, 0, 3, 0, time.UTC).Equal(*fatal.Timestamp))

	assert.Equal(t, domain.SeverityWarning, recs[3].Severity)

	s := p.Stats()
	assert.Equal(t, int64(6), s.Read)
	assert.Equal(t, int64(1), s.Malformed)
	assert.Equal(t, int64(4), s.Admitted)
	assert.Equal(t, 1, logs.FilterMessage("skipping malformed record").Len())
	assert.Equal(t, 1, tc.closed)
}

func TestStderrParser_LastEventIsFlushed(t *testing.T) {
	src, _ := input("postgresql.log", "2024-01-15 10:00:01 UTC [1] PANIC:  could not write to file\n2024-01-15 10:00:01 UTC [1] CONTEXT:  writing block 0")
	recs, errs := Collect(NewStderrParser(src, Config{}).Parse(filter.Options{}))
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, "writing block 0", recs[0].Fields.Context)
}

func TestStderrParser_SectionFromOtherProcessIsSeparate(t *testing.T) {
	data := "2024-01-15 10:00:01 UTC [1] ERROR:  a\n2024-01-15 10:00:01 UTC [2] DETAIL:  b\n"
	src, _ := input("postgresql.log", data)
	recs, errs := Collect(NewStderrParser(src, Config{}).Parse(filter.Options{}))
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].Fields.Detail)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], domain.ErrUnknownSeverity)
}

func TestStderrParser_HeadFilterSeesWholeMessage(t *testing.T) {
	src, _ := input("postgresql.log", stderrLog)
	recs, _ := Collect(NewStderrParser(src, Config{}).Parse(filter.Options{
		MinSeverity: domain.SeverityWarning,
		Mask:        ptr("2024-01-15 10:00:03"),
		MaskField:   filter.MaskLogTime,
	}))
	require.Len(t, recs, 1)
	assert.Equal(t, domain.SeverityFatal, recs[0].Severity)
}

func TestStderrParser_EarlyStopClosesInput(t *testing.T) {
	src, tc := input("postgresql.log", stderrLog)
	p := NewStderrParser(src, Config{})
	for range p.Parse(filter.Options{}) {
		break
	}
	assert.Equal(t, 1, tc.closed)

	_, errs := Collect(p.Parse(filter.Options{}))
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrAlreadyConsumed)
}

func TestStderrParser_LongLineIsSkipped(t *testing.T) {
	data := "2024-01-15 10:00:01 UTC [1] ERROR:  first\n" +
		"2024-01-15 10:00:02 UTC [1] STATEMENT:  " + strings.Repeat("x", maxLineBytes+1) + "\n" +
		"2024-01-15 10:00:03 UTC [2] ERROR:  second\n"

	src, _ := input("postgresql.log", data)
	p := NewStderrParser(src, Config{Location: time.UTC})
	recs, errs := Collect(p.Parse(filter.Options{}))

	require.Empty(t, errs)
	require.Len(t, recs, 2)
	assert.Equal(t, "first", recs[0].Message)
	assert.Empty(t, recs[0].Fields.Query)
	assert.Equal(t, "second", recs[1].Message)
	assert.Equal(t, int64(1), p.Stats().Malformed)
}

func FuzzStderrParser(f *testing.F) {
	f.Add(stderrLog)
	f.Add("\t\n \n")
	f.Fuzz(func(t *testing.T, data string) {
		src, _ := input("fuzz.log", data)
		p := NewStderrParser(src, Config{})
		recs, _ := Collect(p.Parse(filter.Options{}))
		if int64(len(recs)) != p.Stats().Admitted {
			t.Fatalf("yielded %d records, admitted %d", len(recs), p.Stats().Admitted)
		}
	})
}
