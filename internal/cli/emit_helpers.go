package cli

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/vburojevic/pgpeaks/internal/output"
)

// emitWarning respects format/quiet.
func emitWarning(globals *Globals, emitter *output.Emitter, msg string) {
	if globals.Quiet {
		return
	}
	if globals.Format == "ndjson" && emitter != nil {
		_ = emitter.Warning(msg)
		return
	}
	_ = output.NewTextWriter(globals.Stderr).WriteWarning(msg)
}

// maybeNoStyle drops colors when text output is not going to a terminal
func maybeNoStyle(globals *Globals) {
	if globals == nil || globals.Format != "text" {
		return
	}
	f, ok := globals.Stdout.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		output.DisableStyles()
	}
}
