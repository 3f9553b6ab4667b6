package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/scsync/internal/formatter"
	"github.com/desertthunder/scsync/internal/models"
	"github.com/desertthunder/scsync/internal/repositories"
)

type historyEntry struct {
	ID          string           `json:"id"`
	Sequence    int              `json:"sequence"`
	Playlist    string           `json:"playlist"`
	LocalRoot   string           `json:"local_root"`
	Source      string           `json:"source"`
	Status      models.RunStatus `json:"status"`
	FailedStage string           `json:"failed_stage,omitempty"`
	Error       string           `json:"error,omitempty"`
	Counts      models.RunCounts `json:"counts"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  *time.Time       `json:"finished_at,omitempty"`
}

// History lists recorded sync runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(r.config)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repositories.NewSyncRunRepository(db).List(map[string]any{
		"playlist": cmd.String("playlist"),
		"limit":    cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		entries := make([]historyEntry, 0, len(runs))
		for _, run := range runs {
			entries = append(entries, historyEntry{
				ID:          run.ID(),
				Sequence:    run.Sequence(),
				Playlist:    run.Playlist,
				LocalRoot:   run.LocalRoot,
				Source:      run.Source,
				Status:      run.Status,
				FailedStage: run.FailedStage,
				Error:       run.Error,
				Counts:      run.Counts,
				StartedAt:   run.StartedAt(),
				FinishedAt:  run.FinishedAt,
			})
		}
		return r.writeJSON(entries, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No sync runs recorded.\n")
	}
	return r.writePlain("%s\n", formatter.RenderHistory(runs))
}
