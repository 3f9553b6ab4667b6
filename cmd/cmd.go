// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "csv",
			Usage: "Remote catalog output path (default: export.remote_path)",
		},
		&cli.StringFlag{
			Name:  "local-csv",
			Usage: "Local catalog output path (default: export.local_path)",
		},
		&cli.StringFlag{
			Name:  "joined-csv",
			Usage: "Joined table output path (default: export.joined_path)",
		},
		&cli.StringFlag{
			Name:  "missing-csv",
			Usage: "Missing table output path (default: export.missing_path)",
		},
		&cli.StringFlag{
			Name:  "history-csv",
			Usage: "History log appended after each run (default: export.history_path)",
		},
	}
}

func sourceFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "source",
		Aliases: []string{"s"},
		Usage:   "Remote source: ytdlp, spotify or youtube (default: source.kind)",
	}
}

// syncCommand reconciles a playlist against a local directory.
func syncCommand(r *Runner) *cli.Command {
	flags := append(exportFlags(),
		sourceFlag(),
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Reconciler workers; 1 matches sequentially (default: sync.workers)",
		},
		&cli.BoolFlag{
			Name:  "suggest",
			Usage: "List near misses for missing tracks",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Read every file's tags instead of using the scan cache",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the run summary as JSON",
		},
	)

	return &cli.Command{
		Name:      "sync",
		Usage:     "Fetch a playlist, scan the local library and export joined and missing tracks",
		ArgsUsage: "<playlist> [local_root]",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist"},
			&cli.StringArg{Name: "local_root"},
		},
		Flags:  flags,
		Action: r.Sync,
	}
}

// exportCommand writes the remote catalog of one or more playlists.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export remote playlist catalogs to CSV",
		ArgsUsage: "<playlist>...",
		Flags: []cli.Flag{
			sourceFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path for a single playlist (default: export.remote_path)",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Output directory when several playlists are given",
				Value: "exports",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent fetches for several playlists",
				Value: 4,
			},
			&cli.FloatFlag{
				Name:  "rate-limit",
				Usage: "Playlist fetches started per second; 0 is unlimited",
			},
		},
		Action: r.Export,
	}
}

// scanCommand writes the local catalog.
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Scan a local directory and export its catalog to CSV",
		ArgsUsage: "[local_root]",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "local_root"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path (default: export.local_path)",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Read every file's tags instead of using the scan cache",
			},
		},
		Action: r.Scan,
	}
}

// historyCommand lists recorded sync runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded sync runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Only show runs for this playlist",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// setupCommand writes the config template and initializes the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml from the template and run database migrations",
		Action: r.Setup,
	}
}
