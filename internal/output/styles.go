package output

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vburojevic/pgpeaks/internal/domain"
)

// Styles holds all lipgloss styles for text output
var Styles = struct {
	// Severity styles
	Debug   lipgloss.Style
	Info    lipgloss.Style
	Log     lipgloss.Style
	Warn    lipgloss.Style
	Error   lipgloss.Style
	Fatal   lipgloss.Style
	Unknown lipgloss.Style

	// Summary styles
	Header  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Danger  lipgloss.Style
}{
	Debug:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),                            // Gray
	Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),                             // Cyan
	Log:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),                            // White
	Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),                            // Orange
	Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),                 // Red bold
	Fatal:   lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true).Underline(true), // Magenta bold underline
	Unknown: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),

	Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("239")),
	Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	Value:   lipgloss.NewStyle().Bold(true),
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),  // Green
	Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true), // Orange
	Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true), // Red
}

// SeverityStyle returns the style for a severity
func SeverityStyle(sev domain.Severity) lipgloss.Style {
	switch {
	case !sev.Valid():
		return Styles.Unknown
	case sev <= domain.SeverityDebug1:
		return Styles.Debug
	case sev == domain.SeverityLog:
		return Styles.Log
	case sev <= domain.SeverityNotice:
		return Styles.Info
	case sev == domain.SeverityWarning:
		return Styles.Warn
	case sev == domain.SeverityError:
		return Styles.Error
	default:
		return Styles.Fatal
	}
}

// SeverityIndicator returns the styled severity name
func SeverityIndicator(sev domain.Severity) string {
	return SeverityStyle(sev).Render(sev.String())
}

// StatusText returns styled status text for a run
func StatusText(skipped int64) string {
	if skipped > 0 {
		return Styles.Warning.Render("RECORDS SKIPPED")
	}
	return Styles.Success.Render("OK")
}

// DisableStyles strips colors and decorations, for output that is not a terminal
func DisableStyles() {
	plain := lipgloss.NewStyle()
	Styles.Debug, Styles.Info, Styles.Log, Styles.Warn = plain, plain, plain, plain
	Styles.Error, Styles.Fatal, Styles.Unknown = plain, plain, plain
	Styles.Header = plain
	Styles.Label, Styles.Value = plain, plain
	Styles.Success, Styles.Warning, Styles.Danger = plain, plain, plain
}
