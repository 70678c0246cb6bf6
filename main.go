package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/lifegrid/utils"
)

func main() {
	// Use a minimal logger until the configured one exists.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// Handle Ctrl+C gracefully
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses args and runs the selected mode until ctx is done. Frames go to
// outW, logs and usage text to errW.
func run(ctx context.Context, outW, errW io.Writer, args []string) error {
	config, shouldExit, err := parseArgs(args, errW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := utils.NewLogger(config.LogLevel, config.LogFormat, errW)
	logger.Debug("Logger configured successfully.")

	switch config.Mode {
	case utils.ModeTerminal:
		return runTerminal(ctx, config, outW, logger)
	default:
		return runWeb(ctx, config, logger)
	}
}
