package output

import (
	"io"

	"github.com/vburojevic/pgpeaks/internal/domain"
)

// Sink is what commands write their results to
type Sink interface {
	WriteReport(r *domain.Report) error
	WriteRunStats(s *domain.RunStats) error
	WriteError(code, message string, hint ...string) error
	WriteWarning(message string) error
	WriteMetadata(version, commit, buildDate string) error
}

var (
	_ Sink = (*NDJSONWriter)(nil)
	_ Sink = (*TextWriter)(nil)
)

// Emitter pairs a report with its run stats on one sink
type Emitter struct {
	sink Sink
}

// NewEmitter picks the sink for format; anything but "text" is NDJSON
func NewEmitter(format string, w io.Writer) *Emitter {
	if format == "text" {
		return &Emitter{sink: NewTextWriter(w)}
	}
	return &Emitter{sink: NewNDJSONWriter(w)}
}

// Sink returns the underlying writer
func (e *Emitter) Sink() Sink { return e.sink }

// Result writes the report followed by the run stats
func (e *Emitter) Result(r *domain.Report, s *domain.RunStats) error {
	if err := e.sink.WriteReport(r); err != nil {
		return err
	}
	return e.sink.WriteRunStats(s)
}

func (e *Emitter) Error(code, msg string, hint ...string) error {
	return e.sink.WriteError(code, msg, hint...)
}
func (e *Emitter) Warning(msg string) error { return e.sink.WriteWarning(msg) }
func (e *Emitter) Metadata(version, commit, buildDate string) error {
	return e.sink.WriteMetadata(version, commit, buildDate)
}
