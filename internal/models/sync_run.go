package models

import (
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of a [SyncRun].
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunCounts summarizes the tables a sync run produced.
type RunCounts struct {
	Remote      int
	Local       int
	Joined      int
	Missing     int
	URLFallback int
}

// SyncRun records one invocation of the sync pipeline.
type SyncRun struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time

	Playlist    string
	LocalRoot   string
	Source      string
	Counts      RunCounts
	Status      RunStatus
	FailedStage string
	Error       string
	FinishedAt  *time.Time
}

// NewSyncRun creates a running [SyncRun] started now.
func NewSyncRun(playlist, localRoot, source string) *SyncRun {
	now := time.Now().UTC()
	return &SyncRun{
		createdAt: now,
		updatedAt: now,
		Playlist:  playlist,
		LocalRoot: localRoot,
		Source:    source,
		Status:    RunRunning,
	}
}

func (r *SyncRun) ID() string { return r.id }
func (r *SyncRun) Sequence() int { return r.sequence }
func (r *SyncRun) CreatedAt() time.Time { return r.createdAt }
func (r *SyncRun) UpdatedAt() time.Time { return r.updatedAt }

// StartedAt is an alias of CreatedAt for display.
func (r *SyncRun) StartedAt() time.Time { return r.createdAt }

func (r *SyncRun) SetID(id string) { r.id = id }
func (r *SyncRun) SetSequence(seq int) { r.sequence = seq }
func (r *SyncRun) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *SyncRun) SetUpdatedAt(t time.Time) { r.updatedAt = t }

// Succeed marks the run finished with counts.
func (r *SyncRun) Succeed(counts RunCounts) {
	r.Counts = counts
	r.Status = RunSucceeded
	r.finish()
}

// Fail marks the run finished at stage with err.
func (r *SyncRun) Fail(stage string, err error) {
	r.Status = RunFailed
	r.FailedStage = stage
	if err != nil {
		r.Error = err.Error()
	}
	r.finish()
}

func (r *SyncRun) finish() {
	now := time.Now().UTC()
	r.FinishedAt = &now
	r.updatedAt = now
}

// Validate checks the run has the fields the history table requires.
func (r *SyncRun) Validate() error {
	if r.id == "" {
		return fmt.Errorf("sync run ID is required")
	}
	if r.Playlist == "" {
		return fmt.Errorf("sync run playlist is required")
	}
	switch r.Status {
	case RunRunning, RunSucceeded, RunFailed:
	default:
		return fmt.Errorf("invalid sync run status %q", r.Status)
	}
	return nil
}
