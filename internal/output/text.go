package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/vburojevic/pgpeaks/internal/domain"
)

// TextWriter writes reports as tables for humans
type TextWriter struct {
	w io.Writer
}

// NewTextWriter creates a new text writer
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

const bucketLayout = "2006-01-02 15:04:05 MST"

// WriteReport renders the sections present in r
func (w *TextWriter) WriteReport(r *domain.Report) error {
	title := "Report: " + r.Aggregator
	if r.Interval != "" {
		title += " (interval " + r.Interval + ")"
	}
	if _, err := io.WriteString(w.w, Styles.Header.Render(title)+"\n"); err != nil {
		return err
	}

	if len(r.Buckets) > 0 {
		rows := make([][]string, 0, len(r.Buckets))
		for _, b := range r.Buckets {
			rows = append(rows, []string{SeverityIndicator(b.Severity), b.Start.Format(bucketLayout), strconv.FormatUint(uint64(b.Count), 10)})
		}
		if err := w.table([]string{"Severity", "Bucket", "Count"}, rows); err != nil {
			return err
		}
	}

	if len(r.Peaks) > 0 {
		if _, err := io.WriteString(w.w, "\n"+Styles.Label.Render("Peaks")+"\n"); err != nil {
			return err
		}
		rows := make([][]string, 0, len(r.Peaks))
		for _, p := range r.Peaks {
			rows = append(rows, []string{SeverityIndicator(p.Severity), p.Start.Format(bucketLayout), strconv.FormatUint(uint64(p.Count), 10)})
		}
		if err := w.table([]string{"Severity", "Busiest bucket", "Count"}, rows); err != nil {
			return err
		}
	}

	if len(r.Totals) > 0 {
		if len(r.Buckets) > 0 {
			if _, err := io.WriteString(w.w, "\n"+Styles.Label.Render("Totals")+"\n"); err != nil {
				return err
			}
		}
		rows := make([][]string, 0, len(r.Totals))
		for _, t := range r.Totals {
			rows = append(rows, []string{SeverityIndicator(t.Severity), strconv.FormatUint(t.Count, 10)})
		}
		if err := w.table([]string{"Severity", "Count"}, rows); err != nil {
			return err
		}
	}

	if len(r.Patterns) > 0 {
		rows := make([][]string, 0, len(r.Patterns))
		for _, p := range r.Patterns {
			rows = append(rows, []string{strconv.FormatUint(uint64(p.Count), 10), p.Pattern, p.Sample})
		}
		if err := w.table([]string{"Count", "Pattern", "Sample"}, rows); err != nil {
			return err
		}
	}

	if len(r.Buckets) == 0 && len(r.Totals) == 0 && len(r.Patterns) == 0 {
		if _, err := io.WriteString(w.w, Styles.Label.Render("No matching records")+"\n"); err != nil {
			return err
		}
	}

	if r.Untimed > 0 {
		line := Styles.Warning.Render(fmt.Sprintf("%d records had no timestamp and were not bucketed", r.Untimed))
		if _, err := io.WriteString(w.w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func (w *TextWriter) table(header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w.w)
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	table.Header(hdr...)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteRunStats outputs a one-line styled summary of the run
func (w *TextWriter) WriteRunStats(s *domain.RunStats) error {
	field := func(label string, n int64) string {
		return Styles.Label.Render(label+": ") + Styles.Value.Render(strconv.FormatInt(n, 10))
	}

	line := "\n" + field("Files", int64(s.Files)) + " | " +
		field("Read", s.Read) + " | " +
		field("Admitted", s.Admitted) + " | " +
		field("Filtered", s.Filtered) + " | "
	if skipped := s.Skipped(); skipped > 0 {
		line += Styles.Warning.Render(fmt.Sprintf("Skipped: %d (malformed %d, unknown severity %d, read errors %d)",
			skipped, s.Malformed, s.UnknownSeverity, s.ReadErrors))
	} else {
		line += field("Skipped", 0)
	}
	line += " | " + Styles.Label.Render("Elapsed: ") + Styles.Value.Render(s.Elapsed.Round(time.Millisecond).String()) + "\n"

	for _, d := range s.Diagnostics {
		line += Styles.Label.Render("  "+d) + "\n"
	}

	_, err := io.WriteString(w.w, line)
	return err
}

// WriteError outputs a styled error
func (w *TextWriter) WriteError(code, message string, hint ...string) error {
	errorLabel := Styles.Danger.Render("Error")
	codeStr := Styles.Warning.Render("[" + code + "]")
	line := errorLabel + " " + codeStr + ": " + message + "\n"
	if len(hint) > 0 && hint[0] != "" {
		line += Styles.Label.Render("Hint: "+hint[0]) + "\n"
	}
	_, err := io.WriteString(w.w, line)
	return err
}

// WriteWarning outputs a styled warning
func (w *TextWriter) WriteWarning(message string) error {
	_, err := io.WriteString(w.w, Styles.Warning.Render("Warning: ")+message+"\n")
	return err
}

// WriteMetadata outputs build information
func (w *TextWriter) WriteMetadata(version, commit, buildDate string) error {
	line := "pgpeaks " + version
	if commit != "" {
		line += " (" + commit + ")"
	}
	if buildDate != "" {
		line += " built " + buildDate
	}
	_, err := io.WriteString(w.w, line+"\n")
	return err
}
