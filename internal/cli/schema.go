package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vburojevic/pgpeaks/internal/domain"
	"github.com/vburojevic/pgpeaks/internal/output"
)

// SchemaCmd outputs JSON Schema for pgpeaks output types
type SchemaCmd struct {
	Type []string `short:"t" help:"Output types to include (report,run_stats,error,warning,metadata). Default: all"`
}

var schemaTypes = []string{"report", "run_stats", "error", "warning", "metadata"}

// Run executes the schema command
func (c *SchemaCmd) Run(globals *Globals) error {
	if globals.Format == "text" {
		c.outputTextHelp(globals)
		return nil
	}

	schemas := map[string]interface{}{
		"report":    reportSchema(),
		"run_stats": runStatsSchema(),
		"error":     errorSchema(),
		"warning":   warningSchema(),
		"metadata":  metadataSchema(),
	}

	typesToOutput := c.Type
	if len(typesToOutput) == 0 {
		typesToOutput = schemaTypes
	}

	schemaOutput := map[string]interface{}{
		"$schema":       "http://json-schema.org/draft-07/schema#",
		"title":         "pgpeaks Output Schemas",
		"description":   "JSON Schema definitions for all pgpeaks NDJSON output types",
		"schemaVersion": output.SchemaVersion,
		"definitions":   map[string]interface{}{},
	}

	defs := schemaOutput["definitions"].(map[string]interface{})
	for _, entry := range typesToOutput {
		for _, t := range strings.Split(entry, ",") {
			t = strings.ToLower(strings.TrimSpace(t))
			if schema, ok := schemas[t]; ok {
				defs[t] = schema
			}
		}
	}

	encoder := json.NewEncoder(globals.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(schemaOutput)
}

// schemaVersionProperty returns the schemaVersion property definition
func schemaVersionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"const":       output.SchemaVersion,
		"description": "Schema version for compatibility detection",
	}
}

func constType(name string) map[string]interface{} {
	return map[string]interface{}{
		"type":  "string",
		"const": name,
	}
}

func severityProperty() map[string]interface{} {
	names := make([]string, 0, 12)
	for _, s := range domain.AllSeverities() {
		names = append(names, s.String())
	}
	return map[string]interface{}{
		"type":        "string",
		"enum":        names,
		"description": "Server severity, ordered DEBUG5 (rank 0) to PANIC (rank 11)",
	}
}

func bucketCountSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"severity": severityProperty(),
			"start": map[string]interface{}{
				"type":        "string",
				"format":      "date-time",
				"description": "Inclusive start of the bucket",
			},
			"count": map[string]interface{}{
				"type":        "integer",
				"minimum":     0,
				"maximum":     4294967295,
				"description": "Events in the bucket (saturates at the maximum)",
			},
		},
		"required": []string{"severity", "start", "count"},
	}
}

func reportSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Report",
		"description": "Aggregated result of one run",
		"properties": map[string]interface{}{
			"type":          constType("report"),
			"schemaVersion": schemaVersionProperty(),
			"aggregator": map[string]interface{}{
				"type": "string",
				"enum": []string{"peaks", "totals", "patterns"},
			},
			"interval": map[string]interface{}{
				"type":        "string",
				"description": "Bucket width (peaks only), e.g. 1m0s",
			},
			"buckets": map[string]interface{}{
				"type":        "array",
				"items":       bucketCountSchema(),
				"description": "Every non-empty bucket, ordered by severity then start",
			},
			"peaks": map[string]interface{}{
				"type":        "array",
				"items":       bucketCountSchema(),
				"description": "Busiest bucket per severity; ties go to the earliest",
			},
			"totals": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"severity": severityProperty(),
						"count":    map[string]interface{}{"type": "integer", "minimum": 0},
					},
					"required": []string{"severity", "count"},
				},
			},
			"patterns": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"pattern": map[string]interface{}{
							"type":        "string",
							"description": "Message with variable parts replaced by placeholders",
						},
						"count":  map[string]interface{}{"type": "integer", "minimum": 0},
						"sample": map[string]interface{}{"type": "string"},
					},
					"required": []string{"pattern", "count", "sample"},
				},
			},
			"untimed": map[string]interface{}{
				"type":        "integer",
				"description": "Matching records without a timestamp",
			},
		},
		"required": []string{"type", "schemaVersion", "aggregator"},
	}
}

func runStatsSchema() map[string]interface{} {
	counter := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "integer", "minimum": 0, "description": desc}
	}
	return map[string]interface{}{
		"type":        "object",
		"title":       "Run Stats",
		"description": "What happened to the input during a run",
		"properties": map[string]interface{}{
			"type":             constType("run_stats"),
			"schemaVersion":    schemaVersionProperty(),
			"files":            counter("Input files processed"),
			"read":             counter("Raw records read, including bad ones"),
			"admitted":         counter("Records that reached the aggregator"),
			"filtered":         counter("Records dropped by filters"),
			"malformed":        counter("Records dropped as undecodable"),
			"unknown_severity": counter("Records with an unrecognized severity"),
			"read_errors":      counter("Framing or I/O failures"),
			"elapsed_ns":       counter("Wall time of the run in nanoseconds"),
			"diagnostics": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "First skipped-record errors, capped",
			},
		},
		"required": []string{"type", "schemaVersion", "files", "read", "admitted", "filtered", "malformed", "unknown_severity", "read_errors", "elapsed_ns"},
	}
}

func errorSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Error",
		"description": "Error message from pgpeaks",
		"properties": map[string]interface{}{
			"type":          constType("error"),
			"schemaVersion": schemaVersionProperty(),
			"code": map[string]interface{}{
				"type":        "string",
				"description": "Machine-readable error code for programmatic handling",
				"enum": []string{
					"INVALID_FLAGS",
					"INVALID_INTERVAL",
					"INVALID_SEVERITY",
					"INVALID_TIMEZONE",
					"INVALID_FILTER",
					"NO_INPUT",
					"INPUT_ERROR",
					"RECORD_ERROR",
					"INTERRUPTED",
					"RUN_FAILED",
				},
			},
			"message": map[string]interface{}{
				"type":        "string",
				"description": "Human-readable error description",
			},
			"hint": map[string]interface{}{
				"type":        "string",
				"description": "Suggested fix",
			},
		},
		"required": []string{"type", "schemaVersion", "code", "message"},
	}
}

func warningSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Warning",
		"description": "Non-fatal problem, e.g. skipped records",
		"properties": map[string]interface{}{
			"type":          constType("warning"),
			"schemaVersion": schemaVersionProperty(),
			"message":       map[string]interface{}{"type": "string"},
		},
		"required": []string{"type", "schemaVersion", "message"},
	}
}

func metadataSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Metadata",
		"description": "Build information from pgpeaks version",
		"properties": map[string]interface{}{
			"type":          constType("metadata"),
			"schemaVersion": schemaVersionProperty(),
			"version":       map[string]interface{}{"type": "string"},
			"commit":        map[string]interface{}{"type": "string"},
			"build_date":    map[string]interface{}{"type": "string"},
		},
		"required": []string{"type", "schemaVersion", "version", "commit"},
	}
}

func (c *SchemaCmd) outputTextHelp(globals *Globals) {
	fmt.Fprintln(globals.Stdout, "pgpeaks Output Types:")
	fmt.Fprintln(globals.Stdout, "")
	fmt.Fprintln(globals.Stdout, "  report    - Aggregated buckets, totals or patterns")
	fmt.Fprintln(globals.Stdout, "  run_stats - Records read, admitted and skipped")
	fmt.Fprintln(globals.Stdout, "  error     - Error from pgpeaks")
	fmt.Fprintln(globals.Stdout, "  warning   - Warning message")
	fmt.Fprintln(globals.Stdout, "  metadata  - Version information")
	fmt.Fprintln(globals.Stdout, "")
	fmt.Fprintln(globals.Stdout, "Use --type to filter: pgpeaks schema --type report,error")
}
