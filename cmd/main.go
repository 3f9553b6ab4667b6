package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/scsync/internal/shared"
	"github.com/desertthunder/scsync/internal/tasks"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})
	app := runner.app()

	err := app.Run(ctx, os.Args)
	stop()
	os.Exit(reportError(logger, err))
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "scsync",
		Usage:   "Reconcile a remote playlist against a local music library",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.before,
		Commands: r.register(),
	}
}

// reportError logs err and returns the process exit code.
func reportError(logger *log.Logger, err error) int {
	if err == nil {
		return 0
	}

	var stageErr *tasks.StageError
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("interrupted")
		return 130
	case errors.As(err, &stageErr):
		logger.Error("sync failed", "stage", stageErr.Stage, "error", stageErr.Err)
	case errors.Is(err, shared.ErrLocked):
		logger.Error("sync already running", "error", err)
	default:
		logger.Error("application error", "error", err)
	}
	return 1
}
