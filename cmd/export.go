package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/scsync/internal/shared"
	"github.com/desertthunder/scsync/internal/tasks"
)

// Export writes the remote catalog of each playlist argument.
//
// A single playlist goes to --output; several go to one file each under --dir with a manifest.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	config, err := r.commandConfig(cmd)
	if err != nil {
		return err
	}

	playlists := cmd.Args().Slice()
	if len(playlists) == 0 {
		return fmt.Errorf("%w: playlist", shared.ErrMissingArgument)
	}

	source, err := r.newSource(ctx, config, shared.WithLogger(r.logger, "component", "source"))
	if err != nil {
		return err
	}
	engine := tasks.NewSyncEngine(source, nil, nil, r.logger)

	progress, stop := r.watch()

	if len(playlists) == 1 {
		output := flagOr(cmd, "output", config.Export.RemotePath)
		tracks, err := engine.FetchRemote(ctx, playlists[0], output, progress)
		stop()
		if err != nil {
			return err
		}
		return r.writePlainln("%s %d track(s) → %s", r.palette.OK("✓"), len(tracks), output)
	}

	res, err := engine.ExportMany(ctx, progress, playlists, tasks.BulkExportOpts{
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate-limit"),
	})
	stop()
	if err != nil {
		return err
	}

	for _, pr := range res.Results {
		if pr.Err != nil {
			r.logger.Warn("playlist export failed", "playlist", pr.Playlist, "error", pr.Err)
		}
	}
	r.writePlainln("%s %d exported, %d failed", r.palette.Title("Bulk export:"), res.Succeeded, res.Failed)
	return r.writePlain("Manifest: %s\n", res.ManifestPath)
}

// Scan writes the local catalog of a directory.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	config, err := r.commandConfig(cmd)
	if err != nil {
		return err
	}

	root := cmd.StringArg("local_root")
	if root == "" {
		root = config.Sync.LocalRoot
	}
	if root == "" {
		return fmt.Errorf("%w: local_root", shared.ErrMissingArgument)
	}
	root = shared.ExpandPath(root)

	var scanner tasks.LocalScanner
	if config.Sync.UseCache && !cmd.Bool("no-cache") {
		db := r.tryDatabase(config)
		if db != nil {
			defer db.Close()
		}
		scanner = r.newScanner(config, db)
	} else {
		scanner = r.newScanner(config, nil)
	}

	engine := tasks.NewSyncEngine(nil, scanner, nil, r.logger)
	output := flagOr(cmd, "output", config.Export.LocalPath)

	progress, stop := r.watch()
	res, err := engine.ScanLocal(ctx, root, output, progress)
	stop()
	if err != nil {
		return err
	}

	r.writePlainln("%s %d track(s) → %s", r.palette.OK("✓"), len(res.Tracks), output)
	if len(res.Skipped) > 0 {
		r.writePlain("%s\n", r.palette.Warn(fmt.Sprintf("%d file(s) could not be read", len(res.Skipped))))
	}
	return nil
}
