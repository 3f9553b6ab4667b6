package tasks

import (
	"fmt"

	"github.com/desertthunder/scsync/internal/matcher"
)

// ProgressUpdate represents a progress event during a sync.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Phase is a stage of the sync pipeline. Its String form is recorded as the failed stage of a run.
type Phase int

const (
	FetchRemote Phase = iota
	ScanLocal
	Reconcile
	Export
	RecordHistory
)

func (p Phase) String() string {
	switch p {
	case FetchRemote:
		return "fetch"
	case ScanLocal:
		return "scan"
	case Reconcile:
		return "reconcile"
	case Export:
		return "export"
	case RecordHistory:
		return "history"
	default:
		return ""
	}
}

func fetchingUpdate(playlist string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRemote,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist %s...", playlist),
	}
}

func fetchedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRemote,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetched %d remote track(s)", count),
	}
}

func scanningUpdate(root string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanLocal,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Scanning %s...", root),
	}
}

func scannedUpdate(tracks, skipped, hits int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanLocal,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d local track(s), %d skipped, %d from cache", tracks, skipped, hits),
	}
}

func reconciledUpdate(stats matcher.Stats) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Joined %d of %d, %d missing", stats.Joined, stats.Total, stats.Missing),
		Data:    stats,
	}
}

func exportUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Export,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Wrote %s", step, total, path),
	}
}

func playlistExportedUpdate(step, total int, playlist string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Export,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d tracks)", step, total, playlist, count),
	}
}

func playlistFailedUpdate(step, total int, playlist string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Export,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, playlist, err),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
