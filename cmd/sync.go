package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/scsync/internal/formatter"
	"github.com/desertthunder/scsync/internal/models"
	"github.com/desertthunder/scsync/internal/repositories"
	"github.com/desertthunder/scsync/internal/shared"
	"github.com/desertthunder/scsync/internal/tasks"
)

// syncReport is the --json form of a finished sync.
type syncReport struct {
	RunID       string               `json:"run_id,omitempty"`
	Playlist    string               `json:"playlist"`
	LocalRoot   string               `json:"local_root"`
	Remote      int                  `json:"remote"`
	Local       int                  `json:"local"`
	Joined      int                  `json:"joined"`
	URLFallback int                  `json:"url_fallback"`
	Missing     []models.RemoteTrack `json:"missing"`
	Suggestions []suggestionReport   `json:"suggestions,omitempty"`
	Outputs     []formatter.Output   `json:"outputs"`
}

type suggestionReport struct {
	Remote models.RemoteTrack `json:"remote"`
	Local  models.LocalTrack  `json:"local"`
	Score  float64            `json:"score"`
}

// Sync runs fetch → scan → reconcile → export for one playlist.
//
// The exit status reflects pipeline failures only; missing tracks are a normal outcome.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	config, err := r.commandConfig(cmd)
	if err != nil {
		return err
	}

	playlist := cmd.StringArg("playlist")
	if playlist == "" {
		return fmt.Errorf("%w: playlist", shared.ErrMissingArgument)
	}
	root := cmd.StringArg("local_root")
	if root == "" {
		root = config.Sync.LocalRoot
	}
	if root == "" {
		return fmt.Errorf("%w: local_root", shared.ErrMissingArgument)
	}
	root = shared.ExpandPath(root)

	workers := config.Sync.Workers
	if cmd.IsSet("workers") {
		workers = cmd.Int("workers")
	}

	source, err := r.newSource(ctx, config, shared.WithLogger(r.logger, "component", "source"))
	if err != nil {
		return err
	}

	db := r.tryDatabase(config)
	if db != nil {
		defer db.Close()
	}

	var cacheDB *sql.DB
	if config.Sync.UseCache && !cmd.Bool("no-cache") {
		cacheDB = db
	}

	var runs tasks.RunRecorder
	if db != nil {
		runs = repositories.NewSyncRunRepository(db)
	}

	engine := tasks.NewSyncEngine(source, r.newScanner(config, cacheDB), runs, r.logger)
	opts := tasks.SyncOpts{
		Playlist:  playlist,
		LocalRoot: root,
		Paths:     exportPaths(cmd, config),
		Workers:   workers,
		Suggest:   cmd.Bool("suggest"),
	}

	r.logger.Info("starting sync", "playlist", playlist, "root", root, "source", source.Name())

	asJSON := cmd.Bool("json")
	var res *tasks.SyncResult
	if asJSON {
		res, err = engine.Run(ctx, opts, nil)
	} else {
		progress, stop := r.watch()
		res, err = engine.Run(ctx, opts, progress)
		stop()
	}
	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(newSyncReport(res), true)
	}
	return r.printSync(res)
}

func (r *Runner) printSync(res *tasks.SyncResult) error {
	missing := res.Reconciliation.Missing
	heading := formatter.ExportToText(missing)
	if len(missing) == 0 {
		r.writePlainln("%s", r.palette.OK(string(heading[:len(heading)-1])))
	} else {
		r.writePlainln("%s", r.palette.Warn(string(heading[:len(heading)-1])))
	}

	if len(res.Suggestions) > 0 {
		r.writePlainln("%s", r.palette.Title("Possible matches"))
		r.writePlain("%s\n", formatter.RenderSuggestions(res.Suggestions))
	}

	r.writePlainln("%s", r.palette.Title("Summary"))
	return r.writePlain("%s\n", formatter.RenderSummary(formatter.Summary{
		Remote:  len(res.Remote),
		Local:   len(res.Scan.Tracks),
		Stats:   res.Stats,
		Outputs: res.Outputs,
	}))
}

func newSyncReport(res *tasks.SyncResult) syncReport {
	report := syncReport{
		Playlist:    res.Run.Playlist,
		LocalRoot:   res.Run.LocalRoot,
		RunID:       res.Run.ID(),
		Remote:      len(res.Remote),
		Local:       len(res.Scan.Tracks),
		Joined:      res.Stats.Joined,
		URLFallback: res.Stats.URLFallback,
		Missing:     res.Reconciliation.Missing,
		Outputs:     res.Outputs,
	}
	if report.Missing == nil {
		report.Missing = []models.RemoteTrack{}
	}
	for _, s := range res.Suggestions {
		report.Suggestions = append(report.Suggestions, suggestionReport{Remote: s.Remote, Local: s.Local, Score: s.Score})
	}
	return report
}

// exportPaths resolves each table's destination from its flag, then the config.
func exportPaths(cmd *cli.Command, config *shared.Config) tasks.ExportPaths {
	return tasks.ExportPaths{
		Remote:  flagOr(cmd, "csv", config.Export.RemotePath),
		Local:   flagOr(cmd, "local-csv", config.Export.LocalPath),
		Joined:  flagOr(cmd, "joined-csv", config.Export.JoinedPath),
		Missing: flagOr(cmd, "missing-csv", config.Export.MissingPath),
		History: flagOr(cmd, "history-csv", config.Export.HistoryPath),
	}
}

func flagOr(cmd *cli.Command, name, fallback string) string {
	if v := cmd.String(name); v != "" {
		return v
	}
	return fallback
}

// tryDatabase opens the database or logs why persistence is unavailable.
func (r *Runner) tryDatabase(config *shared.Config) *sql.DB {
	db, err := r.openDatabase(config)
	if err != nil {
		r.logger.Warn("database unavailable, continuing without scan cache or run history", "error", err)
		return nil
	}
	return db
}
