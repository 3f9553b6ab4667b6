// Package library builds the local catalog by walking a music directory and reading tags.
package library

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/scsync/internal/models"
	"github.com/desertthunder/scsync/internal/shared"
)

// DefaultExtensions are scanned when [Options.Extensions] is empty.
var DefaultExtensions = []string{".mp3", ".m4a", ".flac", ".ogg", ".oga"}

// Cache persists tag reads between scans. Implementations must be safe to call from the
// scanning goroutine only; the scanner does not call them concurrently.
type Cache interface {
	// ListUnder returns cached entries whose path is under root, keyed by path.
	ListUnder(ctx context.Context, root string) (map[string]*models.ScannedFile, error)
	// UpsertMany stores fresh tag reads.
	UpsertMany(ctx context.Context, files []*models.ScannedFile) error
	// Prune removes entries under root whose path is not in keep.
	Prune(ctx context.Context, root string, keep []string) (int, error)
}

// Options configures a [Scanner].
type Options struct {
	Extensions []string
	Workers    int // <= 0 uses runtime.NumCPU
	Cache      Cache
	Logger     *log.Logger
	ReadTags   TagReader
}

// Scanner walks a directory tree and produces a local catalog.
type Scanner struct {
	exts    map[string]struct{}
	workers int
	cache   Cache
	logger  *log.Logger
	read    TagReader
}

// SkippedFile is a file left out of the catalog because it could not be read.
type SkippedFile struct {
	Path string
	Err  error
}

// Result is the outcome of one scan.
type Result struct {
	Tracks    []models.LocalTrack
	Skipped   []SkippedFile
	CacheHits int
	Elapsed   time.Duration
}

// NewScanner creates a scanner. Extensions are matched case-insensitively.
func NewScanner(opts Options) *Scanner {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	read := opts.ReadTags
	if read == nil {
		read = ReadTags
	}

	return &Scanner{exts: set, workers: workers, cache: opts.Cache, logger: logger, read: read}
}

type candidate struct {
	path    string
	size    int64
	modTime time.Time
}

type scanned struct {
	track  models.LocalTrack
	fresh  *models.ScannedFile
	cached bool
	err    error
}

// Scan walks root and reads the tags of every audio file under it.
//
// Tracks are returned in lexical path order. Files that cannot be opened or parsed are
// logged and listed in [Result.Skipped]; an unreadable root fails with [shared.ErrScanFailed].
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrScanFailed, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", shared.ErrScanFailed, root)
	}

	candidates, err := s.discover(ctx, root)
	if err != nil {
		return nil, err
	}

	cached := s.loadCache(ctx, root)
	results := s.readAll(ctx, candidates, cached)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrScanFailed, err)
	}

	res := &Result{Tracks: make([]models.LocalTrack, 0, len(results))}
	var fresh []*models.ScannedFile
	keep := make([]string, 0, len(results))

	for i, r := range results {
		if r.err != nil {
			s.logger.Warn("skipping unreadable file", "path", candidates[i].path, "error", r.err)
			res.Skipped = append(res.Skipped, SkippedFile{Path: candidates[i].path, Err: r.err})
			continue
		}
		res.Tracks = append(res.Tracks, r.track)
		keep = append(keep, r.track.FilePath)
		if r.cached {
			res.CacheHits++
		} else if r.fresh != nil {
			fresh = append(fresh, r.fresh)
		}
	}

	s.storeCache(ctx, root, fresh, keep)

	res.Elapsed = time.Since(start)
	s.logger.Debug("scan complete", "root", root, "tracks", len(res.Tracks), "skipped", len(res.Skipped), "cache_hits", res.CacheHits, "elapsed", res.Elapsed)
	return res, nil
}

// discover lists audio files under root. Unreadable subdirectories are logged and skipped.
func (s *Scanner) discover(ctx context.Context, root string) ([]candidate, error) {
	var out []candidate

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			s.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := s.exts[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.logger.Warn("skipping unreadable file", "path", path, "error", err)
			return nil
		}
		out = append(out, candidate{path: path, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrScanFailed, err)
	}
	return out, nil
}

// readAll reads candidates on a worker pool, writing each result at its candidate index.
func (s *Scanner) readAll(ctx context.Context, candidates []candidate, cached map[string]*models.ScannedFile) []scanned {
	results := make([]scanned, len(candidates))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := min(s.workers, max(len(candidates), 1))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.readOne(candidates[i], cached)
			}
		}()
	}

feed:
	for i := range candidates {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

func (s *Scanner) readOne(c candidate, cached map[string]*models.ScannedFile) scanned {
	if entry, ok := cached[c.path]; ok && entry.Fresh(c.size, c.modTime) {
		return scanned{track: entry.Track(), cached: true}
	}

	tags, err := s.read(c.path)
	if err != nil {
		return scanned{err: err}
	}

	track := models.LocalTrack{
		Title:    tags.Title,
		Artist:   tags.Artist,
		Comment:  tags.Comment,
		FilePath: c.path,
	}
	return scanned{
		track: track,
		fresh: &models.ScannedFile{
			Path:      c.path,
			Size:      c.size,
			ModTime:   c.modTime,
			Title:     tags.Title,
			Artist:    tags.Artist,
			Comment:   tags.Comment,
			ScannedAt: time.Now().UTC(),
		},
	}
}

func (s *Scanner) loadCache(ctx context.Context, root string) map[string]*models.ScannedFile {
	if s.cache == nil {
		return nil
	}
	entries, err := s.cache.ListUnder(ctx, root)
	if err != nil {
		s.logger.Warn("scan cache unavailable, reading all files", "error", err)
		return nil
	}
	return entries
}

func (s *Scanner) storeCache(ctx context.Context, root string, fresh []*models.ScannedFile, keep []string) {
	if s.cache == nil {
		return
	}
	if len(fresh) > 0 {
		if err := s.cache.UpsertMany(ctx, fresh); err != nil {
			s.logger.Warn("failed to update scan cache", "error", err)
			return
		}
	}
	if n, err := s.cache.Prune(ctx, root, keep); err != nil {
		s.logger.Warn("failed to prune scan cache", "error", err)
	} else if n > 0 {
		s.logger.Debug("pruned scan cache", "removed", n)
	}
}
