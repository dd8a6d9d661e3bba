package cli

import (
	"github.com/vburojevic/pgpeaks/internal/output"
)

// outputErrorCommon normalizes error emission across commands, respecting
// ndjson vs text formats so scripts always get machine-readable failures.
// NDJSON errors go to stdout, text errors to stderr.
func outputErrorCommon(globals *Globals, code, message string, hint ...string) error {
	h := ""
	if len(hint) > 0 {
		h = hint[0]
	}
	if globals != nil && globals.Format == "ndjson" {
		_ = output.NewNDJSONWriter(globals.Stdout).WriteError(code, message, h)
	} else if globals != nil {
		_ = output.NewTextWriter(globals.Stderr).WriteError(code, message, h)
	}
	return &CLIError{Code: code, Message: message, Hint: h}
}
