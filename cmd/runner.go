package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/scsync/internal/library"
	"github.com/desertthunder/scsync/internal/repositories"
	"github.com/desertthunder/scsync/internal/services"
	"github.com/desertthunder/scsync/internal/shared"
	"github.com/desertthunder/scsync/internal/tasks"
)

// SourceFactory builds the remote source for a command.
type SourceFactory func(ctx context.Context, cfg *shared.Config, logger *log.Logger) (services.Source, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	configPath string
	config     *shared.Config
	logger     *log.Logger
	output     io.Writer
	palette    *Palette
	newSource  SourceFactory
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	ConfigPath string
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	NewSource  SourceFactory
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.NewSource == nil {
		opts.NewSource = services.NewSource
	}

	return &Runner{
		configPath: opts.ConfigPath,
		config:     opts.Config,
		logger:     opts.Logger,
		output:     opts.Output,
		palette:    NewPalette(isTerminal(opts.Output)),
		newSource:  opts.NewSource,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, exportCommand, scanCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the configuration named by --config and applies the log level.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.configPath = cmd.String("config")

	config, err := shared.LoadOrDefault(r.configPath)
	if err != nil {
		return ctx, err
	}
	applyEnv(config)
	r.config = config

	if err := shared.SetLogLevelName(r.logger, config.Log.Level); err != nil {
		r.logger.Warn("unknown log level, keeping default", "level", config.Log.Level)
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

// applyEnv fills Spotify credentials from SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET when the
// config leaves them empty.
func applyEnv(config *shared.Config) {
	if config.Credentials.Spotify.ClientID == "" {
		config.Credentials.Spotify.ClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	}
	if config.Credentials.Spotify.ClientSecret == "" {
		config.Credentials.Spotify.ClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	}
}

// commandConfig copies the loaded config and applies the overrides shared by several commands.
func (r *Runner) commandConfig(cmd *cli.Command) (*shared.Config, error) {
	config := *r.config
	if kind := cmd.String("source"); kind != "" {
		config.Source.Kind = kind
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// openDatabase opens the configured database with migrations applied. Persistence is optional
// for every command but history, so callers log and continue on error.
func (r *Runner) openDatabase(config *shared.Config) (*sql.DB, error) {
	return shared.OpenMigrated(config.Database)
}

// newScanner builds a library scanner, backed by the scan cache when db is set.
func (r *Runner) newScanner(config *shared.Config, db *sql.DB) *library.Scanner {
	opts := library.Options{
		Extensions: config.Sync.Extensions,
		Workers:    config.Sync.ScanWorkers,
		Logger:     shared.WithLogger(r.logger, "component", "scanner"),
	}
	if db != nil {
		opts.Cache = repositories.NewScanCacheRepository(db)
	}
	return library.NewScanner(opts)
}

// watch prints progress updates until the returned stop function is called.
func (r *Runner) watch() (chan<- tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s %s\n", r.palette.Help(update.Phase.String()), update.Message)
		}
	}()

	return progress, func() {
		close(progress)
		<-done
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
