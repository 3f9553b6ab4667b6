package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"github.com/desertthunder/scsync/internal/formatter"
	"github.com/desertthunder/scsync/internal/library"
	"github.com/desertthunder/scsync/internal/matcher"
	"github.com/desertthunder/scsync/internal/models"
	"github.com/desertthunder/scsync/internal/services"
	"github.com/desertthunder/scsync/internal/shared"
)

// StageError reports the pipeline stage that failed. It unwraps to the stage's cause.
type StageError struct {
	Stage Phase
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// LocalScanner produces the local catalog. Implemented by [library.Scanner].
type LocalScanner interface {
	Scan(ctx context.Context, root string) (*library.Result, error)
}

// RunRecorder persists sync runs. Implemented by repositories.SyncRunRepository.
type RunRecorder interface {
	Create(run *models.SyncRun) error
	Update(run *models.SyncRun) error
}

// ExportPaths are the destinations of the sync tables. Empty paths are skipped.
type ExportPaths struct {
	Remote  string
	Local   string
	Joined  string
	Missing string
	History string // appended to, never overwritten
}

// SyncOpts configures a single sync run.
type SyncOpts struct {
	Playlist     string
	LocalRoot    string
	Paths        ExportPaths
	Workers      int     // reconciler workers
	Suggest      bool    // compute near misses for missing tracks
	SuggestScore float64 // <= 0 uses matcher.DefaultSuggestScore
}

// SyncResult is everything a successful run produced.
type SyncResult struct {
	Run            *models.SyncRun
	Remote         []models.RemoteTrack
	Scan           *library.Result
	Reconciliation *matcher.Reconciliation
	Stats          matcher.Stats
	Suggestions    []matcher.Suggestion
	Outputs        []formatter.Output
}

// SyncEngine wires a remote source, a local scanner and an optional run recorder.
type SyncEngine struct {
	source  services.Source
	scanner LocalScanner
	runs    RunRecorder
	logger  *log.Logger
}

// NewSyncEngine creates a SyncEngine. source is only required by operations that fetch, scanner
// only by those that scan; runs may be nil to skip persistence.
func NewSyncEngine(source services.Source, scanner LocalScanner, runs RunRecorder, logger *log.Logger) *SyncEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SyncEngine{source: source, scanner: scanner, runs: runs, logger: logger}
}

// Run performs fetch → scan → reconcile → export and appends the run to the history log.
//
// Exports are taken under an exclusive lock on "<joined>.lock"; a held lock fails with
// [shared.ErrLocked]. Stage failures are returned as *[StageError] and recorded on the run.
func (e *SyncEngine) Run(ctx context.Context, opts SyncOpts, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if opts.Playlist == "" {
		return nil, fmt.Errorf("%w: playlist", shared.ErrMissingArgument)
	}
	if opts.LocalRoot == "" {
		return nil, fmt.Errorf("%w: local root", shared.ErrMissingArgument)
	}
	if e.source == nil {
		return nil, fmt.Errorf("%w: no remote source configured", shared.ErrSourceUnavailable)
	}
	if e.scanner == nil {
		return nil, fmt.Errorf("%w: no local scanner configured", shared.ErrScanFailed)
	}

	unlock, err := acquireLock(opts.Paths.Joined)
	if err != nil {
		return nil, err
	}
	defer unlock()

	run := models.NewSyncRun(opts.Playlist, opts.LocalRoot, e.source.Name())
	run.SetID(shared.GenerateID())
	e.record(run, true)

	result, err := e.run(ctx, opts, run, progress)
	if err != nil {
		var stageErr *StageError
		stage := ""
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage.String()
		}
		run.Fail(stage, err)
		e.appendHistory(opts.Paths.History, run)
		e.record(run, false)
		return nil, err
	}

	run.Succeed(models.RunCounts{
		Remote:      len(result.Remote),
		Local:       len(result.Scan.Tracks),
		Joined:      result.Stats.Joined,
		Missing:     result.Stats.Missing,
		URLFallback: result.Stats.URLFallback,
	})
	if err := e.appendHistory(opts.Paths.History, run); err != nil {
		run.Fail(RecordHistory.String(), err)
		e.record(run, false)
		return nil, &StageError{Stage: RecordHistory, Err: err}
	}
	if opts.Paths.History != "" {
		result.Outputs = append(result.Outputs, formatter.Output{Table: "history", Path: opts.Paths.History, Rows: 1})
		sendProgress(progress, exportUpdate(len(result.Outputs), len(result.Outputs), opts.Paths.History))
	}
	e.record(run, false)

	result.Run = run
	return result, nil
}

func (e *SyncEngine) run(ctx context.Context, opts SyncOpts, run *models.SyncRun, progress chan<- ProgressUpdate) (*SyncResult, error) {
	sendProgress(progress, fetchingUpdate(opts.Playlist))
	remote, err := e.source.FetchPlaylist(ctx, opts.Playlist)
	if err != nil {
		return nil, &StageError{Stage: FetchRemote, Err: err}
	}
	run.Counts.Remote = len(remote)
	sendProgress(progress, fetchedUpdate(len(remote)))

	sendProgress(progress, scanningUpdate(opts.LocalRoot))
	scan, err := e.scanner.Scan(ctx, opts.LocalRoot)
	if err != nil {
		return nil, &StageError{Stage: ScanLocal, Err: err}
	}
	run.Counts.Local = len(scan.Tracks)
	sendProgress(progress, scannedUpdate(len(scan.Tracks), len(scan.Skipped), scan.CacheHits))

	rec, err := matcher.Reconcile(remote, scan.Tracks, matcher.ReconcileOpts{Workers: opts.Workers})
	if err != nil {
		return nil, &StageError{Stage: Reconcile, Err: err}
	}
	stats := rec.Stats()
	sendProgress(progress, reconciledUpdate(stats))

	for _, s := range rec.SharedLocals() {
		e.logger.Warn("local file joined to several remote tracks", "path", s.FilePath, "remotes", len(s.Remotes))
	}

	result := &SyncResult{
		Remote:         remote,
		Scan:           scan,
		Reconciliation: rec,
		Stats:          stats,
	}

	if opts.Suggest && len(rec.Missing) > 0 {
		score := opts.SuggestScore
		if score <= 0 {
			score = matcher.DefaultSuggestScore
		}
		result.Suggestions = matcher.SuggestMissing(rec.Missing, scan.Tracks, score)
	}

	tables := []struct {
		path  string
		table formatter.Table
	}{
		{opts.Paths.Remote, formatter.RemoteTable(remote)},
		{opts.Paths.Local, formatter.LocalTable(scan.Tracks)},
		{opts.Paths.Joined, formatter.JoinedTable(rec.Joined)},
		{opts.Paths.Missing, formatter.MissingTable(rec.Missing)},
	}

	// Nothing is replaced until every table is staged.
	var batch formatter.Batch
	var outputs []formatter.Output
	for _, t := range tables {
		if t.path == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			batch.Discard()
			return nil, &StageError{Stage: Export, Err: err}
		}
		if err := batch.Stage(t.path, t.table); err != nil {
			return nil, &StageError{Stage: Export, Err: err}
		}
		outputs = append(outputs, formatter.Output{Table: t.table.Name, Path: t.path, Rows: t.table.Len()})
	}
	if err := batch.Commit(); err != nil {
		return nil, &StageError{Stage: Export, Err: err}
	}

	for i, out := range outputs {
		sendProgress(progress, exportUpdate(i+1, len(outputs), out.Path))
	}
	result.Outputs = outputs

	return result, nil
}

// FetchRemote fetches a playlist and, when path is set, writes the remote table to it.
func (e *SyncEngine) FetchRemote(ctx context.Context, playlist, path string, progress chan<- ProgressUpdate) ([]models.RemoteTrack, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: no remote source configured", shared.ErrSourceUnavailable)
	}

	sendProgress(progress, fetchingUpdate(playlist))
	remote, err := e.source.FetchPlaylist(ctx, playlist)
	if err != nil {
		return nil, &StageError{Stage: FetchRemote, Err: err}
	}
	sendProgress(progress, fetchedUpdate(len(remote)))

	if path != "" {
		if err := formatter.WriteCSV(path, formatter.RemoteTable(remote)); err != nil {
			return nil, &StageError{Stage: Export, Err: err}
		}
		sendProgress(progress, exportUpdate(1, 1, path))
	}
	return remote, nil
}

// ScanLocal scans root and, when path is set, writes the local table to it.
func (e *SyncEngine) ScanLocal(ctx context.Context, root, path string, progress chan<- ProgressUpdate) (*library.Result, error) {
	if e.scanner == nil {
		return nil, fmt.Errorf("%w: no local scanner configured", shared.ErrScanFailed)
	}

	sendProgress(progress, scanningUpdate(root))
	scan, err := e.scanner.Scan(ctx, root)
	if err != nil {
		return nil, &StageError{Stage: ScanLocal, Err: err}
	}
	sendProgress(progress, scannedUpdate(len(scan.Tracks), len(scan.Skipped), scan.CacheHits))

	if path != "" {
		if err := formatter.WriteCSV(path, formatter.LocalTable(scan.Tracks)); err != nil {
			return nil, &StageError{Stage: Export, Err: err}
		}
		sendProgress(progress, exportUpdate(1, 1, path))
	}
	return scan, nil
}

// record persists run. Failures are logged and never fail the sync.
func (e *SyncEngine) record(run *models.SyncRun, create bool) {
	if e.runs == nil {
		return
	}
	var err error
	if create {
		err = e.runs.Create(run)
	} else {
		err = e.runs.Update(run)
	}
	if err != nil {
		e.logger.Warn("failed to record sync run", "playlist", run.Playlist, "error", err)
	}
}

// appendHistory appends run to the history log at path. A failure on a run that already failed
// is only logged.
func (e *SyncEngine) appendHistory(path string, run *models.SyncRun) error {
	if path == "" {
		return nil
	}
	err := formatter.AppendCSV(path, formatter.HistoryTable(run))
	if err != nil && run.Status == models.RunFailed {
		e.logger.Warn("failed to append sync history", "path", path, "error", err)
		return nil
	}
	return err
}

// acquireLock takes the export lock next to the joined table. Without a joined path there is
// nothing to protect and the returned release is a no-op.
func acquireLock(joined string) (func(), error) {
	if joined == "" {
		return func() {}, nil
	}
	if err := formatter.EnsureDir(joined); err != nil {
		return nil, err
	}

	lock := flock.New(joined + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrIO, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", shared.ErrLocked, lock.Path())
	}
	return func() { _ = lock.Unlock() }, nil
}
