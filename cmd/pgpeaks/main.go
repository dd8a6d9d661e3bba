package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/vburojevic/pgpeaks/internal/cli"
	"github.com/vburojevic/pgpeaks/internal/config"
)

const quickStart = `pgpeaks - find when PostgreSQL errors peaked

START HERE:
  pgpeaks peaks postgresql.csv

Flags:
  -i    Bucket width (default 1m)
  -s    Severities to track (default ERROR)

Other useful commands:
  pgpeaks totals postgresql.csv         Count events per severity
  pgpeaks patterns postgresql.csv       Most frequent error messages
  pgpeaks examples                      More examples
`

func main() {
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	// Config values become flag defaults; explicit flags still win
	ctx := kong.Parse(&c,
		kong.Name("pgpeaks"),
		kong.Description("pgpeaks: Aggregate PostgreSQL server logs into peaks, totals and patterns\n\nReads csvlog, jsonlog and stderr logs, plain or compressed (.gz, .zst, .xz)"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars(cli.Vars(cfg)),
	)

	globals := cli.NewGlobalsWithConfig(&c, cfg)
	flagsSet := map[string]bool{}
	for _, p := range ctx.Path {
		if p.Flag != nil {
			flagsSet[p.Flag.Name] = true
		}
	}
	globals.FlagsSet = flagsSet

	err = ctx.Run(globals)
	if globals.Logger != nil {
		_ = globals.Logger.Sync()
	}
	if err != nil {
		// CLIErrors have already been written in the selected format
		var cliErr *cli.CLIError
		if !errors.As(err, &cliErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
