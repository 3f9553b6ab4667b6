package formatter

import (
	"strconv"
	"time"

	"github.com/desertthunder/scsync/internal/models"
)

// Column orders of the exported tables. Changing them breaks downstream consumers.
var (
	RemoteColumns  = []string{"title", "artist", "url"}
	LocalColumns   = []string{"title", "artist", "comment", "file_path"}
	JoinedColumns  = []string{"remote_title", "remote_artist", "remote_url", "match_kind", "local_title", "local_artist", "local_file_path"}
	MissingColumns = []string{"title", "artist", "url"}
	HistoryColumns = []string{
		"run_id", "started_at", "finished_at", "playlist", "local_root", "source",
		"remote_count", "local_count", "joined_count", "missing_count", "url_fallback_count",
		"status", "failed_stage", "error",
	}
)

// Table is a named set of rows projected onto a fixed column order.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// RemoteTable projects a playlist snapshot.
func RemoteTable(tracks []models.RemoteTrack) Table {
	rows := make([][]string, 0, len(tracks))
	for _, tr := range tracks {
		rows = append(rows, []string{tr.Title, tr.Artist, tr.URL})
	}
	return Table{Name: "remote", Columns: RemoteColumns, Rows: rows}
}

// LocalTable projects a local catalog.
func LocalTable(tracks []models.LocalTrack) Table {
	rows := make([][]string, 0, len(tracks))
	for _, tr := range tracks {
		rows = append(rows, []string{tr.Title, tr.Artist, tr.Comment, tr.FilePath})
	}
	return Table{Name: "local", Columns: LocalColumns, Rows: rows}
}

// JoinedTable projects match results side by side. A result without a local entry
// renders empty local columns.
func JoinedTable(results []models.MatchResult) Table {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		row := []string{res.Remote.Title, res.Remote.Artist, res.Remote.URL, res.Kind.String(), "", "", ""}
		if res.Local != nil {
			row[4], row[5], row[6] = res.Local.Title, res.Local.Artist, res.Local.FilePath
		}
		rows = append(rows, row)
	}
	return Table{Name: "joined", Columns: JoinedColumns, Rows: rows}
}

// MissingTable projects remote tracks without a local counterpart.
func MissingTable(tracks []models.RemoteTrack) Table {
	t := RemoteTable(tracks)
	t.Name = "missing"
	t.Columns = MissingColumns
	return t
}

// HistoryTable projects sync runs for the append-only run log.
func HistoryTable(runs ...*models.SyncRun) Table {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		finished := ""
		if run.FinishedAt != nil {
			finished = run.FinishedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{
			run.ID(),
			run.StartedAt().UTC().Format(time.RFC3339),
			finished,
			run.Playlist,
			run.LocalRoot,
			run.Source,
			strconv.Itoa(run.Counts.Remote),
			strconv.Itoa(run.Counts.Local),
			strconv.Itoa(run.Counts.Joined),
			strconv.Itoa(run.Counts.Missing),
			strconv.Itoa(run.Counts.URLFallback),
			string(run.Status),
			run.FailedStage,
			run.Error,
		})
	}
	return Table{Name: "history", Columns: HistoryColumns, Rows: rows}
}
