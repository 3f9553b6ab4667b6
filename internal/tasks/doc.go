// Package tasks runs the reconciliation pipeline with real-time progress reporting.
//
// # Sync
//
// [SyncEngine.Run] executes the stages in order:
//
//  1. [FetchRemote] : the [services.Source] returns the playlist snapshot
//  2. [ScanLocal] : the [LocalScanner] builds the local catalog
//  3. [Reconcile] : [matcher.Reconcile] partitions remote tracks into joined and missing
//  4. [Export] : remote, local, joined and missing tables are written atomically
//  5. [RecordHistory] : one row is appended to the history log
//
// A failing stage aborts the run with a *[StageError] naming it. Tables written by earlier
// runs stay intact because every export is a rename over the destination. Two runs sharing a
// joined path are serialized by an exclusive file lock (gofrs/flock).
//
// Each run is recorded through the optional [RunRecorder] as running, then succeeded or
// failed. Recorder errors are logged and never fail the sync.
//
// # Single Catalogs
//
// [SyncEngine.FetchRemote] and [SyncEngine.ScanLocal] run one side of the pipeline for the
// export and scan commands. [SyncEngine.ExportMany] exports several playlists on a rate
// limited worker pool and writes a manifest.
//
// # Progress Reporting
//
// Operations accept a nil-able chan<- [ProgressUpdate]. Updates use select with default so a
// slow consumer never blocks the pipeline.
package tasks
