package cli

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExamplesCmd shows usage examples for pgpeaks commands
type ExamplesCmd struct {
	Command string `arg:"" optional:"" help:"Show examples for specific command (peaks, totals, patterns, config)"`
	JSON    bool   `help:"Output as JSON for programmatic access"`
}

// Example represents a single usage example
type Example struct {
	Command     string `json:"command"`
	Description string `json:"description"`
	Output      string `json:"output,omitempty"`
	When        string `json:"when,omitempty"`
}

// CommandExamples holds examples for a single command
type CommandExamples struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Examples    []Example `json:"examples"`
}

// AllExamples contains examples for all commands
type AllExamples struct {
	Type      string            `json:"type"`
	Version   string            `json:"version"`
	Commands  []CommandExamples `json:"commands"`
	Workflows []WorkflowExample `json:"workflows"`
}

// WorkflowExample shows a multi-step workflow
type WorkflowExample struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	When        string   `json:"when"`
	Steps       []string `json:"steps"`
}

var commandOrder = []string{"peaks", "totals", "patterns", "config", "schema"}

var commandExamples = map[string]CommandExamples{
	"peaks": {
		Name:        "peaks",
		Description: "Count events per severity in fixed time buckets and report the busiest bucket",
		Examples: []Example{
			{
				Command:     `pgpeaks peaks postgresql.csv`,
				Description: "Busiest minute for ERROR events",
				Output:      `{"type":"report","aggregator":"peaks","interval":"1m0s","peaks":[{"severity":"ERROR","start":"2025-05-21T13:00:00Z","count":42}],...}`,
				When:        "Find when an incident started",
			},
			{
				Command:     `pgpeaks peaks -i 5m -s ERROR,FATAL /var/log/postgresql/*.csv.gz`,
				Description: "Five minute buckets over rotated, compressed logs",
				When:        "Look at a day of logs at once",
			},
			{
				Command:     `pgpeaks peaks --all-severities --begin 2025-05-21T12:00:00Z --end 2025-05-21T14:00:00Z postgresql.json`,
				Description: "Every severity within a time window of a jsonlog file",
				When:        "Compare error and warning activity around a deploy",
			},
			{
				Command:     `pgpeaks peaks -f text --timezone Europe/Zagreb postgresql.log`,
				Description: "Human readable tables, buckets rendered in local time",
				When:        "Reading results in a terminal",
			},
		},
	},
	"totals": {
		Name:        "totals",
		Description: "Count events per severity",
		Examples: []Example{
			{
				Command:     `pgpeaks totals postgresql.csv`,
				Description: "Totals for every severity",
				Output:      `{"type":"report","aggregator":"totals","totals":[{"severity":"LOG","count":1200},{"severity":"ERROR","count":17}]}`,
			},
			{
				Command:     `pgpeaks totals --min-severity WARNING --mask 42P01 --mask-field message postgresql.csv`,
				Description: "Only records at WARNING or above whose message starts with a prefix",
				When:        "Quickly size one class of failure",
			},
			{
				Command:     `zcat postgresql.csv.gz | pgpeaks totals --input-format csv -`,
				Description: "Read from stdin",
			},
		},
	},
	"patterns": {
		Name:        "patterns",
		Description: "Group messages into normalized patterns and report the most frequent",
		Examples: []Example{
			{
				Command:     `pgpeaks patterns -n 5 postgresql.csv`,
				Description: "Top five error patterns",
				Output:      `{"type":"report","aggregator":"patterns","patterns":[{"pattern":"relation \"<s>\" does not exist","count":9,"sample":"relation \"users\" does not exist"}]}`,
				When:        "Find the errors worth fixing first",
			},
			{
				Command:     `pgpeaks patterns -s WARNING postgresql.log`,
				Description: "Group warnings instead of errors",
			},
		},
	},
	"config": {
		Name:        "config",
		Description: "Show or manage configuration",
		Examples: []Example{
			{
				Command:     `pgpeaks config`,
				Description: "Show the effective configuration",
			},
			{
				Command:     `pgpeaks config generate > .pgpeaks.yaml`,
				Description: "Write a sample configuration file",
			},
			{
				Command:     `PGPEAKS_INTERVAL=5m pgpeaks peaks postgresql.csv`,
				Description: "Override a default from the environment",
			},
		},
	},
	"schema": {
		Name:        "schema",
		Description: "Output JSON Schema for pgpeaks output types",
		Examples: []Example{
			{
				Command:     `pgpeaks schema --type report,run_stats`,
				Description: "Schemas for the records a run emits",
				When:        "Writing a consumer for the NDJSON output",
			},
		},
	},
}

var workflows = []WorkflowExample{
	{
		Name:        "Incident triage",
		Description: "Find when errors peaked and what they were",
		When:        "Something went wrong and the logs are large",
		Steps: []string{
			"1. pgpeaks peaks -i 1m -s ERROR,FATAL postgresql-*.csv.gz",
			"2. Take the peak start from the report",
			"3. pgpeaks patterns --begin <start> --end <start+1m> postgresql-*.csv.gz",
		},
	},
	{
		Name:        "Strict CI check",
		Description: "Fail a pipeline on unreadable logs",
		When:        "Logs are produced by a test run and must be well formed",
		Steps: []string{
			"1. pgpeaks totals --fail-fast --min-severity ERROR test.csv",
			"2. A non-zero exit status means a bad record or an I/O failure",
		},
	},
}

// Run executes the examples command
func (c *ExamplesCmd) Run(globals *Globals) error {
	if c.JSON {
		return c.outputJSON(globals)
	}
	return c.outputText(globals)
}

func (c *ExamplesCmd) outputJSON(globals *Globals) error {
	all := AllExamples{
		Type:      "examples",
		Version:   Version,
		Workflows: workflows,
	}

	if c.Command != "" {
		examples, ok := commandExamples[c.Command]
		if !ok {
			return fmt.Errorf("unknown command: %s", c.Command)
		}
		all.Commands = []CommandExamples{examples}
	} else {
		for _, cmd := range commandOrder {
			all.Commands = append(all.Commands, commandExamples[cmd])
		}
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(globals.Stdout, string(data))
	return err
}

func (c *ExamplesCmd) outputText(globals *Globals) error {
	var sb strings.Builder

	if c.Command != "" {
		examples, ok := commandExamples[c.Command]
		if !ok {
			return fmt.Errorf("unknown command: %s\nAvailable: %s", c.Command, strings.Join(commandOrder, ", "))
		}
		c.formatCommandExamples(&sb, examples)
	} else {
		sb.WriteString("PGPEAKS USAGE EXAMPLES\n")
		sb.WriteString("======================\n\n")

		for _, cmd := range commandOrder {
			c.formatCommandExamples(&sb, commandExamples[cmd])
			sb.WriteString("\n")
		}

		sb.WriteString("WORKFLOWS\n")
		sb.WriteString("---------\n\n")
		for _, wf := range workflows {
			fmt.Fprintf(&sb, "## %s\n", wf.Name)
			fmt.Fprintf(&sb, "%s\n", wf.Description)
			fmt.Fprintf(&sb, "When: %s\n\n", wf.When)
			for _, step := range wf.Steps {
				fmt.Fprintf(&sb, "  %s\n", step)
			}
			sb.WriteString("\n")
		}
	}

	_, err := fmt.Fprint(globals.Stdout, sb.String())
	return err
}

func (c *ExamplesCmd) formatCommandExamples(sb *strings.Builder, cmd CommandExamples) {
	fmt.Fprintf(sb, "## %s\n", strings.ToUpper(cmd.Name))
	fmt.Fprintf(sb, "%s\n\n", cmd.Description)

	for _, ex := range cmd.Examples {
		fmt.Fprintf(sb, "  %s\n", ex.Command)
		fmt.Fprintf(sb, "    %s\n", ex.Description)
		if ex.Output != "" {
			fmt.Fprintf(sb, "    Output: %s\n", ex.Output)
		}
		if ex.When != "" {
			fmt.Fprintf(sb, "    When: %s\n", ex.When)
		}
		sb.WriteString("\n")
	}
}
