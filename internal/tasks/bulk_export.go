package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/time/rate"

	"github.com/desertthunder/scsync/internal/formatter"
	"github.com/desertthunder/scsync/internal/shared"
)

// ManifestColumns is the column order of the bulk export manifest.
var ManifestColumns = []string{"playlist", "file", "tracks", "error"}

// BulkExportOpts contains configuration for bulk remote catalog exports.
type BulkExportOpts struct {
	OutputDir  string  // Destination directory, created when missing
	NumWorkers int     // Concurrent fetches (default: 4, max: 8)
	RateLimit  float64 // Fetches started per second (default: unlimited)
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	Playlist string
	File     string
	Tracks   int
	Err      error
}

// BulkExportResult summarizes a bulk export. Results are in input order.
type BulkExportResult struct {
	Results      []PlaylistExportResult
	Succeeded    int
	Failed       int
	ManifestPath string
}

// ExportMany writes the remote catalog of each playlist to its own CSV under opts.OutputDir.
//
// Fetches run on a worker pool spaced by a rate limiter. A failed playlist does not stop the
// others; every outcome is listed in manifest.csv.
func (e *SyncEngine) ExportMany(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	playlists []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: no remote source configured", shared.ErrSourceUnavailable)
	}
	if len(playlists) == 0 {
		return nil, fmt.Errorf("%w: playlist", shared.ErrMissingArgument)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	opts.NumWorkers = min(opts.NumWorkers, 8, len(playlists))

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	limiter := rate.NewLimiter(limit, 1)

	jobs := make(chan int)
	results := make(chan int, len(playlists))
	out := make([]PlaylistExportResult, len(playlists))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = e.exportOne(ctx, i, playlists[i], opts.OutputDir)
				results <- i
			}
		}()
	}

	go func() {
	feed:
		for i := range playlists {
			if err := limiter.Wait(ctx); err != nil {
				break feed
			}
			select {
			case <-ctx.Done():
				break feed
			case jobs <- i:
			}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	res := &BulkExportResult{}
	completed := 0
	for i := range results {
		completed++
		r := out[i]
		if r.Err != nil {
			sendProgress(progress, playlistFailedUpdate(completed, len(playlists), r.Playlist, r.Err))
		} else {
			sendProgress(progress, playlistExportedUpdate(completed, len(playlists), r.Playlist, r.Tracks))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: FetchRemote, Err: err}
	}

	res.Results = out
	for _, r := range out {
		if r.Err != nil {
			res.Failed++
		} else {
			res.Succeeded++
		}
	}

	manifest := filepath.Join(opts.OutputDir, "manifest.csv")
	if err := formatter.WriteCSV(manifest, manifestTable(out)); err != nil {
		return res, &StageError{Stage: Export, Err: err}
	}
	res.ManifestPath = manifest
	return res, nil
}

func (e *SyncEngine) exportOne(ctx context.Context, i int, playlist, dir string) PlaylistExportResult {
	r := PlaylistExportResult{Playlist: playlist}

	remote, err := e.source.FetchPlaylist(ctx, playlist)
	if err != nil {
		r.Err = err
		return r
	}

	path := filepath.Join(dir, exportFileName(i, playlist))
	if err := formatter.WriteCSV(path, formatter.RemoteTable(remote)); err != nil {
		r.Err = err
		return r
	}
	r.File = path
	r.Tracks = len(remote)
	return r
}

func manifestTable(results []PlaylistExportResult) formatter.Table {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		msg := ""
		if r.Err != nil {
			msg = r.Err.Error()
		}
		rows = append(rows, []string{r.Playlist, r.File, strconv.Itoa(r.Tracks), msg})
	}
	return formatter.Table{Name: "manifest", Columns: ManifestColumns, Rows: rows}
}

// exportFileName derives "NN-slug.csv" from a playlist identifier. The index prefix keeps
// names unique when two identifiers slug to the same string.
func exportFileName(i int, playlist string) string {
	if u := strings.LastIndex(playlist, "://"); u >= 0 {
		playlist = playlist[u+3:]
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(playlist) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := []rune(strings.TrimSuffix(b.String(), "-"))
	if len(slug) > 64 {
		slug = slug[:64]
	}
	name := strings.TrimSuffix(string(slug), "-")
	if name == "" {
		name = "playlist"
	}
	return fmt.Sprintf("%02d-%s.csv", i+1, name)
}
