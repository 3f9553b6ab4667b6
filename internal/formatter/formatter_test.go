package formatter

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/desertthunder/scsync/internal/matcher"
	"github.com/desertthunder/scsync/internal/models"
	"github.com/desertthunder/scsync/internal/shared"
	th "github.com/desertthunder/scsync/internal/testing"
)

func parseCSV(t *testing.T, data string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV output: %v\n%s", err, data)
	}
	return records
}

func TestTables(t *testing.T) {
	remote := []models.RemoteTrack{
		{Title: "One More Time", Artist: "Daft Punk", URL: "https://soundcloud.com/dp/omt"},
		{Title: "Title, with comma", Artist: "", URL: "https://soundcloud.com/x/1"},
	}
	local := []models.LocalTrack{
		{Title: "One More Time", Artist: "Daft Punk", Comment: "ripped", FilePath: "/m/omt.mp3"},
	}

	t.Run("RemoteTable", func(t *testing.T) {
		data, err := ExportToCSV(RemoteTable(remote))
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records := parseCSV(t, string(data))
		want := [][]string{
			{"title", "artist", "url"},
			{"One More Time", "Daft Punk", "https://soundcloud.com/dp/omt"},
			{"Title, with comma", "", "https://soundcloud.com/x/1"},
		}
		if !reflect.DeepEqual(records, want) {
			t.Errorf("got %v, want %v", records, want)
		}
	})

	t.Run("LocalTable", func(t *testing.T) {
		data, err := ExportToCSV(LocalTable(local))
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records := parseCSV(t, string(data))
		if !reflect.DeepEqual(records[0], []string{"title", "artist", "comment", "file_path"}) {
			t.Errorf("unexpected header %v", records[0])
		}
		if !reflect.DeepEqual(records[1], []string{"One More Time", "Daft Punk", "ripped", "/m/omt.mp3"}) {
			t.Errorf("unexpected row %v", records[1])
		}
	})

	t.Run("JoinedTable", func(t *testing.T) {
		results := []models.MatchResult{
			{Remote: remote[0], Local: &local[0], Kind: models.MatchTokenOverlap},
			models.NoMatch(remote[1]),
		}

		data, err := ExportToCSV(JoinedTable(results))
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records := parseCSV(t, string(data))
		want := [][]string{
			{"remote_title", "remote_artist", "remote_url", "match_kind", "local_title", "local_artist", "local_file_path"},
			{"One More Time", "Daft Punk", "https://soundcloud.com/dp/omt", "TOKEN_OVERLAP", "One More Time", "Daft Punk", "/m/omt.mp3"},
			{"Title, with comma", "", "https://soundcloud.com/x/1", "NONE", "", "", ""},
		}
		if !reflect.DeepEqual(records, want) {
			t.Errorf("got %v, want %v", records, want)
		}
	})

	t.Run("MissingTable", func(t *testing.T) {
		table := MissingTable(remote[:1])
		if table.Name != "missing" || table.Len() != 1 {
			t.Errorf("unexpected table %+v", table)
		}
		if !reflect.DeepEqual(table.Columns, []string{"title", "artist", "url"}) {
			t.Errorf("unexpected columns %v", table.Columns)
		}
	})

	t.Run("HistoryTable", func(t *testing.T) {
		run := models.NewSyncRun("https://soundcloud.com/x/sets/y", "/m", shared.SourceYTDLP)
		run.SetID("run-1")
		run.Succeed(models.RunCounts{Remote: 5, Local: 9, Joined: 3, Missing: 2, URLFallback: 1})

		table := HistoryTable(run)
		if len(table.Rows) != 1 || len(table.Rows[0]) != len(HistoryColumns) {
			t.Fatalf("unexpected shape %+v", table)
		}
		row := table.Rows[0]
		if row[0] != "run-1" || row[2] == "" || row[6] != "5" || row[10] != "1" || row[11] != "succeeded" || row[12] != "" {
			t.Errorf("unexpected history row %v", row)
		}
	})

	t.Run("empty table writes header only", func(t *testing.T) {
		data, err := ExportToCSV(MissingTable(nil))
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if string(data) != "title,artist,url\n" {
			t.Errorf("unexpected output %q", data)
		}
	})

	t.Run("ragged row is rejected", func(t *testing.T) {
		table := Table{Name: "bad", Columns: []string{"a", "b"}, Rows: [][]string{{"1"}}}
		if _, err := ExportToCSV(table); !errors.Is(err, shared.ErrMalformedInput) {
			t.Errorf("expected ErrMalformedInput, got %v", err)
		}
	})
}

func TestExportToText(t *testing.T) {
	t.Run("missing tracks", func(t *testing.T) {
		out := string(ExportToText([]models.RemoteTrack{
			{Artist: "Daft Punk", Title: "Aerodynamic", URL: "u1"},
			{URL: "https://soundcloud.com/x/2"},
		}))
		want := "Missing 2 track(s):\n- Daft Punk - Aerodynamic\n- https://soundcloud.com/x/2\n"
		if out != want {
			t.Errorf("got %q, want %q", out, want)
		}
	})

	t.Run("nothing missing", func(t *testing.T) {
		out := string(ExportToText(nil))
		if !strings.Contains(out, "present locally") {
			t.Errorf("unexpected output %q", out)
		}
	})
}

func TestWriteCSV(t *testing.T) {
	tracks := []models.RemoteTrack{{Title: "A", Artist: "B", URL: "u1"}}

	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "out", "tracks.csv")
		if err := WriteCSV(path, RemoteTable(tracks)); err != nil {
			t.Fatalf("WriteCSV failed: %v", err)
		}
		th.AssertFileExists(t, path)

		if got := th.MustReadFile(t, path); got != "title,artist,url\nA,B,u1\n" {
			t.Errorf("unexpected content %q", got)
		}
	})

	t.Run("overwrites previous snapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.csv")
		if err := WriteCSV(path, MissingTable(append(tracks, models.RemoteTrack{Title: "C", URL: "u2"}))); err != nil {
			t.Fatalf("first write failed: %v", err)
		}
		if err := WriteCSV(path, MissingTable(tracks)); err != nil {
			t.Fatalf("second write failed: %v", err)
		}

		if got := th.MustReadFile(t, path); got != "title,artist,url\nA,B,u1\n" {
			t.Errorf("expected full overwrite, got %q", got)
		}
	})

	t.Run("encoding failure leaves old file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "joined.csv")
		if err := os.WriteFile(path, []byte("previous\n"), 0644); err != nil {
			t.Fatal(err)
		}

		bad := Table{Name: "joined", Columns: JoinedColumns, Rows: [][]string{{"short"}}}
		if err := WriteCSV(path, bad); err == nil {
			t.Fatal("expected error")
		}

		if got := th.MustReadFile(t, path); got != "previous\n" {
			t.Errorf("previous file changed: %q", got)
		}
	})

	t.Run("rename failure reports ErrIO and cleans up", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tracks.csv")
		if err := os.MkdirAll(filepath.Join(path, "occupied"), 0755); err != nil {
			t.Fatal(err)
		}

		err := WriteCSV(path, RemoteTable(tracks))
		if !errors.Is(err, shared.ErrIO) {
			t.Fatalf("expected ErrIO, got %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".tmp") {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
		th.AssertDirExists(t, path)
	})
}

func TestBatch(t *testing.T) {
	tracks := []models.RemoteTrack{{Title: "A", Artist: "B", URL: "u1"}}

	noTempFiles := func(t *testing.T, dir string) {
		t.Helper()
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".tmp") {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
	}

	t.Run("nothing changes until commit", func(t *testing.T) {
		dir := t.TempDir()
		first, second := filepath.Join(dir, "tracks.csv"), filepath.Join(dir, "missing.csv")
		th.MustWriteFile(t, first, "previous\n")
		th.MustWriteFile(t, second, "previous\n")

		var b Batch
		if err := b.Stage(first, RemoteTable(tracks)); err != nil {
			t.Fatalf("Stage failed: %v", err)
		}
		if err := b.Stage(second, MissingTable(tracks)); err != nil {
			t.Fatalf("Stage failed: %v", err)
		}
		if b.Len() != 2 {
			t.Errorf("expected 2 staged files, got %d", b.Len())
		}
		for _, p := range []string{first, second} {
			if got := th.MustReadFile(t, p); got != "previous\n" {
				t.Errorf("%s replaced before commit: %q", p, got)
			}
		}

		if err := b.Commit(); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		for _, p := range []string{first, second} {
			if got := th.MustReadFile(t, p); got != "title,artist,url\nA,B,u1\n" {
				t.Errorf("%s not replaced: %q", p, got)
			}
		}
		noTempFiles(t, dir)
	})

	t.Run("failed stage discards earlier tables", func(t *testing.T) {
		dir := t.TempDir()
		first := filepath.Join(dir, "tracks.csv")
		th.MustWriteFile(t, first, "previous\n")
		blocker := filepath.Join(dir, "blocker")
		th.MustWriteFile(t, blocker, "")

		var b Batch
		if err := b.Stage(first, RemoteTable(tracks)); err != nil {
			t.Fatalf("Stage failed: %v", err)
		}
		err := b.Stage(filepath.Join(blocker, "missing.csv"), MissingTable(tracks))
		if !errors.Is(err, shared.ErrIO) {
			t.Fatalf("expected ErrIO, got %v", err)
		}
		if b.Len() != 0 {
			t.Errorf("expected staged files discarded, got %d", b.Len())
		}
		if err := b.Commit(); err != nil {
			t.Fatalf("empty commit failed: %v", err)
		}

		if got := th.MustReadFile(t, first); got != "previous\n" {
			t.Errorf("first table replaced: %q", got)
		}
		noTempFiles(t, dir)
	})

	t.Run("discard keeps destinations", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "joined.csv")

		var b Batch
		if err := b.Stage(path, RemoteTable(tracks)); err != nil {
			t.Fatalf("Stage failed: %v", err)
		}
		b.Discard()

		th.AssertFileNotExists(t, path)
		noTempFiles(t, dir)
	})
}

func TestAppendCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "history.csv")

	first := models.NewSyncRun("p1", "/m", shared.SourceYTDLP)
	first.SetID("run-1")
	first.Succeed(models.RunCounts{Remote: 1})

	second := models.NewSyncRun("p2", "/m", shared.SourceYTDLP)
	second.SetID("run-2")
	second.Fail("fetch", errors.New("offline"))

	if err := AppendCSV(path, HistoryTable(first)); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := AppendCSV(path, HistoryTable(second)); err != nil {
		t.Fatalf("second append failed: %v", err)
	}

	records := parseCSV(t, th.MustReadFile(t, path))
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if !reflect.DeepEqual(records[0], HistoryColumns) {
		t.Errorf("unexpected header %v", records[0])
	}
	if records[1][0] != "run-1" || records[2][0] != "run-2" {
		t.Errorf("rows out of order: %v / %v", records[1][0], records[2][0])
	}
	if records[2][11] != "failed" || records[2][12] != "fetch" || records[2][13] != "offline" {
		t.Errorf("unexpected failed row %v", records[2])
	}

	t.Run("empty existing file gets a header", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "empty.csv")
		if err := os.WriteFile(empty, nil, 0644); err != nil {
			t.Fatal(err)
		}
		if err := AppendCSV(empty, HistoryTable(first)); err != nil {
			t.Fatalf("append failed: %v", err)
		}
		if got := th.MustReadFile(t, empty); !strings.HasPrefix(got, "run_id,started_at,") {
			t.Errorf("expected header, got %q", got)
		}
	})

	t.Run("unopenable destination", func(t *testing.T) {
		dir := t.TempDir()
		if err := AppendCSV(dir, HistoryTable(first)); !errors.Is(err, shared.ErrIO) {
			t.Errorf("expected ErrIO when appending to a directory, got %v", err)
		}
	})
}

func TestRender(t *testing.T) {
	t.Run("RenderSummary", func(t *testing.T) {
		out := RenderSummary(Summary{
			Remote:  4,
			Local:   10,
			Stats:   matcher.Stats{Total: 4, Joined: 3, Missing: 1, TokenOverlap: 2, URLFallback: 1},
			Outputs: []Output{{Table: "joined", Path: "joined.csv", Rows: 3}},
		})

		for _, want := range []string{"10", "joined.csv"} {
			if !strings.Contains(out, want) {
				t.Errorf("summary missing %q:\n%s", want, out)
			}
		}
		if !strings.Contains(strings.ToUpper(out), "MISSING") {
			t.Errorf("summary missing header:\n%s", out)
		}
	})

	t.Run("RenderSuggestions", func(t *testing.T) {
		out := RenderSuggestions([]matcher.Suggestion{{
			Remote: models.RemoteTrack{Artist: "Metalica", Title: "One", URL: "u"},
			Local:  models.LocalTrack{Artist: "Metallica", Title: "One", FilePath: "/m/one.mp3"},
			Score:  0.971,
		}})
		if !strings.Contains(out, "Metallica - One") || !strings.Contains(out, "0.97") {
			t.Errorf("unexpected suggestions table:\n%s", out)
		}
	})

	t.Run("RenderHistory", func(t *testing.T) {
		run := models.NewSyncRun("https://soundcloud.com/x/sets/y", "/m", shared.SourceYTDLP)
		run.SetSequence(7)
		run.Fail("scan", errors.New("boom"))

		out := RenderHistory([]*models.SyncRun{run})
		if !strings.Contains(out, "failed (scan)") || !strings.Contains(out, "7") {
			t.Errorf("unexpected history table:\n%s", out)
		}
	})

	t.Run("no headers", func(t *testing.T) {
		if out := renderTable(nil, nil, nil); out != "" {
			t.Errorf("expected empty output, got %q", out)
		}
	})
}
