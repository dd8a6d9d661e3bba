package output

import (
	"encoding/json"
	"io"

	"github.com/vburojevic/pgpeaks/internal/domain"
)

// SchemaVersion is stamped on every NDJSON line as schemaVersion. It changes
// only when an existing field changes meaning or shape; added fields keep it.
const SchemaVersion = 1

// NDJSONWriter writes reports and run stats as NDJSON
type NDJSONWriter struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewNDJSONWriter creates a new NDJSON writer
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false) // messages and samples stay readable
	return &NDJSONWriter{
		w:       w,
		encoder: enc,
	}
}

// WarningOutput represents a warning message
type WarningOutput struct {
	Type          string `json:"type"` // Always "warning"
	SchemaVersion int    `json:"schemaVersion"`
	Message       string `json:"message"`
}

// MetadataOutput describes the tool build
type MetadataOutput struct {
	Type          string `json:"type"` // Always "metadata"
	SchemaVersion int    `json:"schemaVersion"`
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	BuildDate     string `json:"build_date,omitempty"`
}

// WriteReport writes a rendered aggregator
func (w *NDJSONWriter) WriteReport(r *domain.Report) error {
	out := *r
	out.SchemaVersion = SchemaVersion
	return w.encoder.Encode(&out)
}

// WriteRunStats writes the counters of a run
func (w *NDJSONWriter) WriteRunStats(s *domain.RunStats) error {
	out := *s
	out.SchemaVersion = SchemaVersion
	return w.encoder.Encode(&out)
}

// WriteError writes an error object
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	err := domain.NewErrorOutput(code, message)
	if len(hint) > 0 {
		err.Hint = hint[0]
	}
	err.SchemaVersion = SchemaVersion
	return w.encoder.Encode(err)
}

// WriteWarning writes a warning object
func (w *NDJSONWriter) WriteWarning(message string) error {
	return w.encoder.Encode(&WarningOutput{
		Type:          "warning",
		SchemaVersion: SchemaVersion,
		Message:       message,
	})
}

// WriteMetadata writes build information
func (w *NDJSONWriter) WriteMetadata(version, commit, buildDate string) error {
	return w.encoder.Encode(&MetadataOutput{
		Type:          "metadata",
		SchemaVersion: SchemaVersion,
		Version:       version,
		Commit:        commit,
		BuildDate:     buildDate,
	})
}

// WriteRaw writes any value as one JSON line
func (w *NDJSONWriter) WriteRaw(v interface{}) error {
	return w.encoder.Encode(v)
}
