package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/lifegrid/utils"
)

// ExitError is an error that carries the process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// parseArgs builds the configuration from an optional config file and the
// command-line flags, with flags taking precedence. It returns true when the
// program should exit cleanly, e.g. after printing help.
func parseArgs(args []string, output io.Writer) (utils.Config, bool, error) {
	defaults := utils.DefaultConfig()

	flagSet := flag.NewFlagSet("lifegrid", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
lifegrid - Conway's Game of Life in the browser or the terminal.

Usage:
  lifegrid [options]

Options:
`)
		flagSet.PrintDefaults()
	}

	var (
		configPath = flagSet.String("config", "", "Path to a .json or .hcl configuration file.")
		mode       = flagSet.String("mode", defaults.Mode, "Run mode. Options: 'web' or 'terminal'.")
		addr       = flagSet.String("addr", defaults.Addr, "Listen address of the web UI.")
		rows       = flagSet.Int("rows", defaults.Rows, "Number of grid rows.")
		cols       = flagSet.Int("cols", defaults.Cols, "Number of grid columns.")
		delay      = flagSet.Duration("delay", defaults.Delay, "Pause between generations while running.")
		threshold  = flagSet.Float64("threshold", defaults.Threshold, "Random grids make a cell alive when a uniform draw exceeds this value.")
		seed       = flagSet.Int64("seed", defaults.Seed, "Seed for random grids. 0 seeds from the clock.")
		maxGens    = flagSet.Int("max-generations", defaults.MaxGenerations, "Stop the terminal mode after this many generations. 0 is unlimited.")
		logLevel   = flagSet.String("log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
		logFormat  = flagSet.String("log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return utils.Config{}, true, nil
		}
		return utils.Config{}, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() > 0 {
		return utils.Config{}, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected argument: %s", flagSet.Arg(0))}
	}

	config := defaults
	if *configPath != "" {
		loaded, err := utils.LoadConfig(*configPath)
		if err != nil {
			return utils.Config{}, false, err
		}
		config = loaded
	}

	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			config.Mode = *mode
		case "addr":
			config.Addr = *addr
		case "rows":
			config.Rows = *rows
		case "cols":
			config.Cols = *cols
		case "delay":
			config.Delay = *delay
		case "threshold":
			config.Threshold = *threshold
		case "seed":
			config.Seed = *seed
		case "max-generations":
			config.MaxGenerations = *maxGens
		case "log-level":
			config.LogLevel = strings.ToLower(*logLevel)
		case "log-format":
			config.LogFormat = strings.ToLower(*logFormat)
		}
	})

	if err := config.Validate(); err != nil {
		return utils.Config{}, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, false, nil
}
