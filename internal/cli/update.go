package cli

import (
	"encoding/json"
	"fmt"

	"github.com/vburojevic/pgpeaks/internal/output"
)

// UpdateCmd shows how to upgrade pgpeaks
type UpdateCmd struct{}

// UpdateOutput represents the NDJSON output for update instructions
type UpdateOutput struct {
	Type          string `json:"type"`
	SchemaVersion int    `json:"schemaVersion"`
	Version       string `json:"current_version"`
	Commit        string `json:"commit"`
	GoInstall     string `json:"go_install"`
	ReleasesURL   string `json:"releases_url"`
}

const (
	goInstallCmd = "go install github.com/vburojevic/pgpeaks/cmd/pgpeaks@latest"
	releasesURL  = "https://github.com/vburojevic/pgpeaks/releases"
)

// Run executes the update command
func (c *UpdateCmd) Run(globals *Globals) error {
	if globals.Format == "ndjson" {
		out := UpdateOutput{
			Type:          "update",
			SchemaVersion: output.SchemaVersion,
			Version:       Version,
			Commit:        Commit,
			GoInstall:     goInstallCmd,
			ReleasesURL:   releasesURL,
		}
		return json.NewEncoder(globals.Stdout).Encode(out)
	}

	fmt.Fprintf(globals.Stdout, "Current version: %s (%s)\n", Version, Commit)
	fmt.Fprintln(globals.Stdout, "")
	fmt.Fprintln(globals.Stdout, "To upgrade:")
	fmt.Fprintf(globals.Stdout, "  %s\n", goInstallCmd)
	fmt.Fprintln(globals.Stdout, "")
	fmt.Fprintf(globals.Stdout, "Releases: %s\n", releasesURL)
	return nil
}
