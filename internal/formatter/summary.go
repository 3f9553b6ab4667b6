package formatter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/desertthunder/scsync/internal/matcher"
	"github.com/desertthunder/scsync/internal/models"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// Output is one file written by a sync.
type Output struct {
	Table string `json:"table"`
	Path  string `json:"path"`
	Rows  int    `json:"rows"`
}

// Summary describes a finished sync for terminal display.
type Summary struct {
	Remote  int
	Local   int
	Stats   matcher.Stats
	Outputs []Output
}

// RenderSummary renders match counts followed by the files written.
func RenderSummary(s Summary) string {
	counts := renderTable(
		[]string{"Remote", "Local", "Joined", "Tokens", "URL", "Missing"},
		[][]string{{
			strconv.Itoa(s.Remote),
			strconv.Itoa(s.Local),
			strconv.Itoa(s.Stats.Joined),
			strconv.Itoa(s.Stats.TokenOverlap),
			strconv.Itoa(s.Stats.URLFallback),
			strconv.Itoa(s.Stats.Missing),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
	if len(s.Outputs) == 0 {
		return counts
	}

	rows := make([][]string, 0, len(s.Outputs))
	for _, o := range s.Outputs {
		rows = append(rows, []string{o.Table, strconv.Itoa(o.Rows), o.Path})
	}
	files := renderTable([]string{"Table", "Rows", "Path"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft})
	return counts + "\n" + files
}

// RenderSuggestions renders near misses for missing tracks.
func RenderSuggestions(suggestions []matcher.Suggestion) string {
	rows := make([][]string, 0, len(suggestions))
	for _, s := range suggestions {
		rows = append(rows, []string{s.Remote.Display(), s.Local.Display(), fmt.Sprintf("%.2f", s.Score)})
	}
	return renderTable([]string{"Missing", "Closest local", "Score"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
}

// RenderHistory renders recorded sync runs, newest first as given.
func RenderHistory(runs []*models.SyncRun) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := string(run.Status)
		if run.FailedStage != "" {
			status += " (" + run.FailedStage + ")"
		}
		rows = append(rows, []string{
			strconv.Itoa(run.Sequence()),
			run.StartedAt().Local().Format(time.DateTime),
			run.Playlist,
			status,
			strconv.Itoa(run.Counts.Joined),
			strconv.Itoa(run.Counts.Missing),
		})
	}
	return renderTable(
		[]string{"#", "Started", "Playlist", "Status", "Joined", "Missing"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
