package parser

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vburojevic/pgpeaks/internal/domain"
	"github.com/vburojevic/pgpeaks/internal/filter"
	"github.com/vburojevic/pgpeaks/internal/source"
)

const tenRows = `2024-01-15 10:00:01.000 UTC,"postgres","app",1234,"127.0.0.1:5432",65a5f0e1.4d2,1,"SELECT",2024-01-15 09:00:00 UTC,3/1,0,ERROR,42P01,"relation ""users"" does not exist",,,,,,"select * from users",15,,"psql"
2024-01-15 10:00:02.000 UTC,"postgres","app",1234,"127.0.0.1:5432",65a5f0e1.4d2,2,"SELECT",2024-01-15 09:00:00 UTC,3/2,0,LOG,00000,"statement: select 1",,,,,,,,,"psql"
2024-01-15 10:00:03.000 UTC,"postgres","app",1234,"127.0.0.1:5432",65a5f0e1.4d2,3,"SELECT",2024-01-15 09:00:00 UTC,3/3,0,WARNING,01000,"there is no transaction in progress",,,,,,,,,"psql"
2024-01-15 10:00:04.000 UTC,"postgres","app",1234,"127.0.0.1:5432",65a5f0e1.4d2,4,"SELECT",2024-01-15 09:00:00 UTC,3/4,0,ERROR,22P02,"invalid input syntax for type integer: ""abc""",,,,,,,,,"psql"
2024-01-15 10:00:05.000 UTC,"postgres","app",1234,"127.0.0.1:5432",65a5f0e1.4d2,5,"SELECT",2024-01-15 09:00:00 UTC,3/5,0,INFO,00000,"info",,,,,,,,,"psql"
2024-01-15 10:00:06.000 UTC,"postgres","app",1234,"127.0.0.1:5432",65a5f0e1.4d2,6,"SELECT",2024-01-15 09:00:00 UTC,3/6,0,NOTICE,00000,"notice",,,,,,,,,"psql"
2024-01-15 10:00:07.000 UTC,"postgres","app",1234,"127.0.0.1:5432",65a5f0e1.4d2,7,"SELECT",2024-01-15 09:00:00 UTC,3/7,0,FATAL,28P01,"password authentication failed for user ""bob""",,,,,,,,,"psql"
2024-01-15 10:00:08.000 UTC,"postgres","app",1234,"127.0.0.1:5432",65a5f0e1.4d2,8,"SELECT",2024-01-15 09:00:00 UTC,3/8,0,DEBUG1,00000,"debug",,,,,,,,,"psql"
2024-01-15 10:00:09.000 UTC,"postgres","app",1234,"127.0.0.1:5432",65a5f0e1.4d2,9,"SELECT",2024-01-15 09:00:00 UTC,3/9,0,SHOUTING,00000,"who knows",,,,,,,,,"psql"
2024-01-15 10:00:10.000 UTC,"postgres","app",1234,"127.0.0.1:5432",65a5f0e1.4d2,10,"SELECT",2024-01-15 09:00:00 UTC,3/10,0,PANIC,XX000,"could not write to file",,,,,,,,,"psql","client backend",0,-4292328401985190396
`

func TestCSVParser_TenRowsOneUnknown(t *testing.T) {
	src, tc := input("postgresql.csv", tenRows)
	p := NewCSVParser(src, Config{Location: time.UTC})

	recs, errs := Collect(p.Parse(filter.Options{}))
	require.Len(t, recs, 9)
	require.Len(t, errs, 1)

	var recErr *RecordError
	require.ErrorAs(t, errs[0], &recErr)
	assert.Equal(t, 9, recErr.Line)
	assert.ErrorIs(t, errs[0], domain.ErrUnknownSeverity)

	first := recs[0]
	assert.Equal(t, domain.SeverityError, first.Severity)
	assert.Equal(t, `relation "users" does not exist`, first.Message)
	require.NotNil(t, first.Timestamp)
	assert.True(t, time.Date(2024, 1, 15, 10, 0, 1, 0, time.UTC).Equal(*first.Timestamp))
	require.NotNil(t, first.Fields)
	assert.Equal(t, 1234, first.Fields.ProcessID)
	assert.Equal(t, "select * from users", first.Fields.Query)
	assert.Equal(t, 15, first.Fields.QueryPos)
	assert.Equal(t, "psql", first.Fields.ApplicationName)
	assert.Equal(t, "postgresql.csv", first.Source)

	last := recs[8]
	assert.Equal(t, domain.SeverityPanic, last.Severity)
	assert.Equal(t, "client backend", last.Fields.BackendType)
	assert.Equal(t, int64(-4292328401985190396), last.Fields.QueryID)

	stats := p.Stats()
	assert.Equal(t, int64(10), stats.Read)
	assert.Equal(t, int64(9), stats.Admitted)
	assert.Equal(t, int64(1), stats.UnknownSeverity)
	assert.Equal(t, 1, tc.closed)
}

func TestCSVParser_MalformedIsLoggedAndSkipped(t *testing.T) {
	data := csvRow("2024-01-15 10:00:01 UTC", "ERROR", "a") + "\n" +
		"too,few,columns\n" +
		strings.Replace(csvRow("2024-01-15 10:00:02 UTC", "ERROR", "b"), ",1234,", ",notapid,", 1) + "\n" +
		csvRow("not a time", "ERROR", "c") + "\n" +
		csvRow("2024-01-15 10:00:03 UTC", "ERROR", "d") + "\n"

	log, logs := observed()
	src, _ := input("bad.csv", data)
	p := NewCSVParser(src, Config{Logger: log, Location: time.UTC})

	recs, errs := Collect(p.Parse(filter.Options{}))
	assert.Empty(t, errs)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].Message)
	assert.Equal(t, "d", recs[1].Message)

	assert.Equal(t, int64(3), p.Stats().Malformed)
	entries := logs.FilterMessage("skipping malformed record").All()
	require.Len(t, entries, 3)
	assert.Equal(t, "bad.csv", entries[0].ContextMap()["path"])
	assert.Equal(t, int64(2), entries[0].ContextMap()["line"])
}

func TestCSVParser_FilteredRowsAreNotDecoded(t *testing.T) {
	// the bad pid would be malformed, but LOG is below the threshold
	data := strings.Replace(csvRow("2024-01-15 10:00:02 UTC", "LOG", "b"), ",1234,", ",notapid,", 1) + "\n"
	src, _ := input("a.csv", data)
	p := NewCSVParser(src, Config{})

	recs, errs := Collect(p.Parse(filter.Options{MinSeverity: domain.SeverityWarning}))
	assert.Empty(t, recs)
	assert.Empty(t, errs)
	assert.Equal(t, int64(1), p.Stats().Filtered)
	assert.Zero(t, p.Stats().Malformed)
}

func TestCSVParser_EarlyStopClosesInput(t *testing.T) {
	src, tc := input("a.csv", tenRows)
	p := NewCSVParser(src, Config{})

	n := 0
	for range p.Parse(filter.Options{}) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, tc.closed)
}

func TestCSVParser_SecondParseIsAlreadyConsumed(t *testing.T) {
	src, tc := input("a.csv", tenRows)
	p := NewCSVParser(src, Config{})

	_, _ = Collect(p.Parse(filter.Options{}))
	recs, errs := Collect(p.Parse(filter.Options{}))
	assert.Empty(t, recs)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrAlreadyConsumed)
	assert.Equal(t, 1, tc.closed)
}

func TestCSVParser_FramingErrorContinues(t *testing.T) {
	data := csvRow("2024-01-15 10:00:01 UTC", "ERROR", "a") + "\n" +
		`2024-01-15 10:00:02 UTC,pos"tgres,app` + "\n" +
		csvRow("2024-01-15 10:00:03 UTC", "ERROR", "c") + "\n"

	src, _ := input("a.csv", data)
	p := NewCSVParser(src, Config{})
	recs, errs := Collect(p.Parse(filter.Options{}))

	require.Len(t, recs, 2)
	require.Len(t, errs, 1)
	var rerr *RecordReadError
	require.ErrorAs(t, errs[0], &rerr)
	assert.False(t, rerr.Terminal)
	assert.Equal(t, 2, rerr.Line)
	assert.ErrorIs(t, errs[0], ErrRecordRead)
	assert.Equal(t, int64(1), p.Stats().ReadErrors)
}

func TestCSVParser_IOErrorTerminates(t *testing.T) {
	boom := errors.New("disk on fire")
	tc := &trackingCloser{Reader: io.MultiReader(
		strings.NewReader(csvRow("2024-01-15 10:00:01 UTC", "ERROR", "a")+"\n"),
		iotest.ErrReader(boom),
	)}
	p := NewCSVParser(source.FileWithPath{File: tc, Path: "a.csv"}, Config{})

	recs, errs := Collect(p.Parse(filter.Options{}))
	require.Len(t, recs, 1)
	require.Len(t, errs, 1)
	var rerr *RecordReadError
	require.ErrorAs(t, errs[0], &rerr)
	assert.True(t, rerr.Terminal)
	assert.ErrorIs(t, errs[0], boom)
	assert.Equal(t, 1, tc.closed)
}

func TestCSVParser_TimeRange(t *testing.T) {
	data := csvRow("2024-01-15 10:00:00 UTC", "ERROR", "before") + "\n" +
		csvRow("2024-01-15 10:00:05 UTC", "ERROR", "begin") + "\n" +
		csvRow("2024-01-15 10:00:07 UTC", "ERROR", "inside") + "\n" +
		csvRow("2024-01-15 10:00:09 UTC", "ERROR", "end") + "\n" +
		csvRow("2024-01-15 10:00:10 UTC", "ERROR", "after") + "\n" +
		csvRow("", "ERROR", "untimed") + "\n"

	src, _ := input("a.csv", data)
	p := NewCSVParser(src, Config{})
	recs, errs := Collect(p.Parse(filter.Options{
		Begin: ptr(time.Date(2024, 1, 15, 10, 0, 5, 0, time.UTC)),
		End:   ptr(time.Date(2024, 1, 15, 10, 0, 9, 0, time.UTC)),
	}))
	require.Empty(t, errs)

	var msgs []string
	for _, r := range recs {
		msgs = append(msgs, r.Message)
	}
	assert.Equal(t, []string{"begin", "inside", "end", "untimed"}, msgs)
	assert.Nil(t, recs[3].Timestamp)
	assert.Equal(t, int64(2), p.Stats().Filtered)
}

func TestCSVParser_Mask(t *testing.T) {
	tests := []struct {
		name  string
		mask  string
		field filter.MaskField
		want  int
	}{
		{"severity prefix", "ERR", filter.MaskSeverity, 2},
		{"default field", "FATAL", "", 1},
		{"message prefix", "invalid input", filter.MaskMessage, 1},
		{"log time prefix", "2024-01-15 10:00:0", filter.MaskLogTime, 8},
		{"log time exact second", "2024-01-15 10:00:10", filter.MaskLogTime, 1},
		{"no match", "OOPS", filter.MaskSeverity, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, _ := input("a.csv", tenRows)
			p := NewCSVParser(src, Config{})
			recs, _ := Collect(p.Parse(filter.Options{Mask: ptr(tt.mask), MaskField: tt.field}))
			assert.Len(t, recs, tt.want)
		})
	}
}

func TestCSVParser_ZoneOffset(t *testing.T) {
	src, _ := input("a.csv", csvRow("2024-01-15 10:00:00.250 +03", "ERROR", "x")+"\n")
	recs, errs := Collect(NewCSVParser(src, Config{}).Parse(filter.Options{}))
	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.True(t, time.Date(2024, 1, 15, 7, 0, 0, 250e6, time.UTC).Equal(*recs[0].Timestamp))
}

func FuzzCSVParser(f *testing.F) {
	f.Add(tenRows)
	f.Add(`"unterminated`)
	f.Add("a,b\n\n,,,")
	f.Fuzz(func(t *testing.T, data string) {
		src, tc := input("fuzz.csv", data)
		p := NewCSVParser(src, Config{})
		recs, _ := Collect(p.Parse(filter.Options{}))
		s := p.Stats()
		if int64(len(recs)) != s.Admitted {
			t.Fatalf("yielded %d records, admitted %d", len(recs), s.Admitted)
		}
		if s.Admitted+s.Filtered+s.Malformed+s.UnknownSeverity+s.ReadErrors > s.Read+1 {
			t.Fatalf("counted more outcomes than reads: %+v", s)
		}
		if tc.closed != 1 {
			t.Fatalf("closed %d times", tc.closed)
		}
	})
}

func BenchmarkCSVParse(b *testing.B) {
	data := strings.Repeat(tenRows, 100)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		src, _ := input("bench.csv", data)
		for range NewCSVParser(src, Config{}).Parse(filter.Options{MinSeverity: domain.SeverityWarning}) {
		}
	}
}
