package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vburojevic/pgpeaks/internal/domain"
)

func decodeAll(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	dec := json.NewDecoder(bytes.NewReader(buf.Bytes()))
	var out []map[string]interface{}
	for {
		var m map[string]interface{}
		err := dec.Decode(&m)
		if err == nil {
			out = append(out, m)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}
	return out
}

func sampleReport() *domain.Report {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	r := domain.NewReport("peaks")
	r.Interval = "1m0s"
	r.Buckets = []domain.BucketCount{
		{Severity: domain.SeverityError, Start: start, Count: 2},
		{Severity: domain.SeverityError, Start: start.Add(time.Minute), Count: 1},
	}
	r.Peaks = []domain.BucketCount{{Severity: domain.SeverityError, Start: start, Count: 2}}
	r.Totals = []domain.SeverityCount{{Severity: domain.SeverityError, Count: 3}}
	return r
}

func sampleStats() *domain.RunStats {
	s := domain.NewRunStats()
	s.Files = 2
	s.Read = 10
	s.Admitted = 9
	s.UnknownSeverity = 1
	s.Elapsed = 1500 * time.Millisecond
	s.Diagnostics = []string{"a.csv:9: unknown severity \"SHOUTING\""}
	return &s
}

func TestNDJSONWriter_WriteReport(t *testing.T) {
	t.Run("writes type, schemaVersion and severity names", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewNDJSONWriter(&buf)
		require.NoError(t, w.WriteReport(sampleReport()))

		var out domain.Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		assert.Equal(t, "report", out.Type)
		assert.Equal(t, SchemaVersion, out.SchemaVersion)
		assert.Equal(t, "peaks", out.Aggregator)
		require.Len(t, out.Buckets, 2)
		assert.Equal(t, domain.SeverityError, out.Buckets[0].Severity)
		assert.Contains(t, buf.String(), `"severity":"ERROR"`)
		assert.Contains(t, buf.String(), `"start":"2024-01-15T10:00:00Z"`)
	})

	t.Run("does not modify the report", func(t *testing.T) {
		r := sampleReport()
		require.NoError(t, NewNDJSONWriter(io.Discard).WriteReport(r))
		assert.Zero(t, r.SchemaVersion)
	})

	t.Run("omits empty sections", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewNDJSONWriter(&buf).WriteReport(domain.NewReport("totals")))
		assert.NotContains(t, buf.String(), "buckets")
		assert.NotContains(t, buf.String(), "patterns")
		assert.NotContains(t, buf.String(), "untimed")
	})

	t.Run("keeps html characters in patterns", func(t *testing.T) {
		var buf bytes.Buffer
		r := domain.NewReport("patterns")
		r.Patterns = []domain.PatternCount{{Pattern: "value <n> > limit", Count: 1, Sample: "value 3 > limit"}}
		require.NoError(t, NewNDJSONWriter(&buf).WriteReport(r))
		assert.Contains(t, buf.String(), "value <n> > limit")
	})
}

func TestNDJSONWriter_WriteRunStats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewNDJSONWriter(&buf).WriteRunStats(sampleStats()))

	items := decodeAll(t, &buf)
	require.Len(t, items, 1)
	assert.Equal(t, "run_stats", items[0]["type"])
	assert.EqualValues(t, 10, items[0]["read"])
	assert.EqualValues(t, 1, items[0]["unknown_severity"])
	assert.EqualValues(t, 1500*time.Millisecond, items[0]["elapsed_ns"])
	assert.Len(t, items[0]["diagnostics"], 1)
}

func TestNDJSONWriter_WriteError(t *testing.T) {
	var buf bytes.Buffer
	w := NewNDJSONWriter(&buf)
	require.NoError(t, w.WriteError("INVALID_INTERVAL", "interval must be positive", "use --interval 1m"))
	require.NoError(t, w.WriteError("NO_INPUT", "no input files"))

	items := decodeAll(t, &buf)
	require.Len(t, items, 2)
	assert.Equal(t, "error", items[0]["type"])
	assert.Equal(t, "INVALID_INTERVAL", items[0]["code"])
	assert.Equal(t, "use --interval 1m", items[0]["hint"])
	assert.NotContains(t, items[1], "hint")
}

func TestNDJSONWriterContract_AllTypesHaveSchemaVersion(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	require.NoError(t, w.WriteReport(sampleReport()))
	require.NoError(t, w.WriteRunStats(sampleStats()))
	require.NoError(t, w.WriteError("E_CODE", "something went wrong"))
	require.NoError(t, w.WriteWarning("warn"))
	require.NoError(t, w.WriteMetadata("0.1.0", "deadbeef", "2024-01-15"))

	items := decodeAll(t, buf)
	require.Len(t, items, 5)
	var types []string
	for _, it := range items {
		require.Contains(t, it, "type")
		require.Contains(t, it, "schemaVersion")
		require.EqualValues(t, SchemaVersion, it["schemaVersion"])
		types = append(types, it["type"].(string))
	}
	assert.Equal(t, []string{"report", "run_stats", "error", "warning", "metadata"}, types)
}

func TestNDJSONWriter_WriteRaw(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewNDJSONWriter(&buf).WriteRaw(map[string]int{"a": 1}))
	assert.Equal(t, "{\"a\":1}\n", buf.String())
}
