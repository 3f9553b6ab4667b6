package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/scsync/internal/models"
	"github.com/desertthunder/scsync/internal/shared"
)

var _ models.Repository[*models.SyncRun] = (*SyncRunRepository)(nil)

// SyncRunRepository implements models.Repository[*models.SyncRun] for the sync history.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

const syncRunColumns = `
	id, sequence, playlist, local_root, source,
	remote_count, local_count, joined_count, missing_count, url_fallback_count,
	status, failed_stage, error, created_at, updated_at, finished_at
`

// Create inserts a new sync run with the next sequence. A run without an ID gets a generated
// one; an ID assigned by the caller is kept.
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if run.ID() == "" {
		run.SetID(shared.GenerateID())
	}
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO sync_runs (` + syncRunColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		run.ID(),
		sequence,
		run.Playlist,
		run.LocalRoot,
		run.Source,
		run.Counts.Remote,
		run.Counts.Local,
		run.Counts.Joined,
		run.Counts.Missing,
		run.Counts.URLFallback,
		string(run.Status),
		run.FailedStage,
		run.Error,
		run.CreatedAt(),
		run.UpdatedAt(),
		finishedAt(run),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	return nil
}

// Get retrieves a sync run by ID
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE id = ?`

	run, err := scanSyncRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sync run not found: %s", id)
	}
	return run, err
}

// Update writes the counts, status and finish time of an existing run
func (r *SyncRunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	run.SetUpdatedAt(now)

	query := `
		UPDATE sync_runs
		SET remote_count = ?, local_count = ?, joined_count = ?, missing_count = ?,
			url_fallback_count = ?, status = ?, failed_stage = ?, error = ?,
			updated_at = ?, finished_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.Counts.Remote,
		run.Counts.Local,
		run.Counts.Joined,
		run.Counts.Missing,
		run.Counts.URLFallback,
		string(run.Status),
		run.FailedStage,
		run.Error,
		now,
		finishedAt(run),
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found: %s", run.ID())
	}

	return nil
}

// Delete removes a sync run by ID. History rows are not soft-deleted.
func (r *SyncRunRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sync_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found: %s", id)
	}

	return nil
}

// List retrieves sync runs newest first.
//
// Supported criteria: "playlist" (string), "status" (string or [models.RunStatus]) and
// "limit" (int, ignored when <= 0).
func (r *SyncRunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE 1 = 1`
	args := []any{}

	if playlist, ok := criteria["playlist"].(string); ok && playlist != "" {
		query += " AND playlist = ?"
		args = append(args, playlist)
	}

	switch status := criteria["status"].(type) {
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	case models.RunStatus:
		if status != "" {
			query += " AND status = ?"
			args = append(args, string(status))
		}
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// rowScanner is satisfied by both [sql.Row] and [sql.Rows].
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSyncRun(row rowScanner) (*models.SyncRun, error) {
	var (
		id, playlist, localRoot, source string
		status, failedStage, errMsg     string
		sequence                        int
		counts                          models.RunCounts
		createdAt, updatedAt            time.Time
		finished                        sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &playlist, &localRoot, &source,
		&counts.Remote, &counts.Local, &counts.Joined, &counts.Missing, &counts.URLFallback,
		&status, &failedStage, &errMsg, &createdAt, &updatedAt, &finished,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}

	run := models.NewSyncRun(playlist, localRoot, source)
	run.SetID(id)
	run.SetSequence(sequence)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	run.Counts = counts
	run.Status = models.RunStatus(status)
	run.FailedStage = failedStage
	run.Error = errMsg
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}

	return run, nil
}

func finishedAt(run *models.SyncRun) any {
	if run.FinishedAt == nil {
		return nil
	}
	return *run.FinishedAt
}
