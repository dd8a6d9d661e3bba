package filter

import (
	"testing"
	"time"

	"github.com/vburojevic/pgpeaks/internal/domain"
)

func BenchmarkPipelineMatchHead(b *testing.B) {
	p := NewPipeline(Options{MinSeverity: domain.SeverityWarning, Mask: ptr("ERR")})
	rec := &domain.LogRecord{Severity: domain.SeverityError, SeverityToken: "ERROR"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.MatchHead(rec)
	}
}

func BenchmarkPipelineMatch(b *testing.B) {
	begin := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	end := begin.Add(time.Hour)
	ts := begin.Add(time.Minute)
	p := NewPipeline(Options{MinSeverity: domain.SeverityLog, Mask: ptr("2024-01-15 10"), MaskField: MaskLogTime, Begin: &begin, End: &end})
	rec := &domain.LogRecord{Severity: domain.SeverityError, RawTime: "2024-01-15 10:01:00 UTC", Timestamp: &ts}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Match(rec)
	}
}
