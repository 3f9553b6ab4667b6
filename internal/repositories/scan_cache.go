package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/desertthunder/scsync/internal/library"
	"github.com/desertthunder/scsync/internal/models"
)

var _ library.Cache = (*ScanCacheRepository)(nil)

// ScanCacheRepository stores tag reads in the scanned_files table.
//
// Modification times are stored as Unix nanoseconds so a cached entry compares equal to the
// os.FileInfo it was read from.
type ScanCacheRepository struct {
	db *sql.DB
}

// NewScanCacheRepository creates a new ScanCacheRepository with the given database connection
func NewScanCacheRepository(db *sql.DB) *ScanCacheRepository {
	return &ScanCacheRepository{db: db}
}

const scannedFileColumns = `path, size, mod_time_ns, title, artist, comment, duration, scanned_at`

// Get retrieves a single entry by path
func (r *ScanCacheRepository) Get(ctx context.Context, path string) (*models.ScannedFile, error) {
	query := `SELECT ` + scannedFileColumns + ` FROM scanned_files WHERE path = ?`

	f, err := scanScannedFile(r.db.QueryRowContext(ctx, query, path))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scanned file not found: %s", path)
	}
	return f, err
}

// Count returns the number of cached entries
func (r *ScanCacheRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scanned_files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count scanned files: %w", err)
	}
	return n, nil
}

// ListUnder returns every entry at or below root, keyed by path
func (r *ScanCacheRepository) ListUnder(ctx context.Context, root string) (map[string]*models.ScannedFile, error) {
	root, prefix := rootPrefix(root)
	query := `SELECT ` + scannedFileColumns + ` FROM scanned_files
		WHERE path = ? OR substr(path, 1, length(?)) = ?`

	rows, err := r.db.QueryContext(ctx, query, root, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query scanned files: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*models.ScannedFile)
	for rows.Next() {
		f, err := scanScannedFile(rows)
		if err != nil {
			return nil, err
		}
		out[f.Path] = f
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

// UpsertMany inserts or replaces entries in one transaction
func (r *ScanCacheRepository) UpsertMany(ctx context.Context, files []*models.ScannedFile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scanned_files (`+scannedFileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mod_time_ns = excluded.mod_time_ns,
			title = excluded.title,
			artist = excluded.artist,
			comment = excluded.comment,
			duration = excluded.duration,
			scanned_at = excluded.scanned_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, f := range files {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		scannedAt := f.ScannedAt
		if scannedAt.IsZero() {
			scannedAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			f.Path, f.Size, f.ModTime.UnixNano(), f.Title, f.Artist, f.Comment, f.Duration, scannedAt,
		); err != nil {
			return fmt.Errorf("failed to upsert scanned file %s: %w", f.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	return nil
}

// Prune deletes entries under root whose path is not in keep and returns how many were removed
func (r *ScanCacheRepository) Prune(ctx context.Context, root string, keep []string) (int, error) {
	root, prefix := rootPrefix(root)
	keepSet := make(map[string]struct{}, len(keep))
	for _, p := range keep {
		keepSet[p] = struct{}{}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT path FROM scanned_files WHERE path = ? OR substr(path, 1, length(?)) = ?`,
		root, prefix, prefix,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to query scanned files: %w", err)
	}

	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan path: %w", err)
		}
		if _, ok := keepSet[p]; !ok {
			stale = append(stale, p)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	for _, p := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM scanned_files WHERE path = ?`, p); err != nil {
			return 0, fmt.Errorf("failed to delete scanned file %s: %w", p, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}
	return len(stale), nil
}

// rootPrefix returns the cleaned root and the prefix its descendants share.
func rootPrefix(root string) (string, string) {
	root = filepath.Clean(root)
	prefix := root
	if len(prefix) == 0 || prefix[len(prefix)-1] != filepath.Separator {
		prefix += string(filepath.Separator)
	}
	return root, prefix
}

func scanScannedFile(row rowScanner) (*models.ScannedFile, error) {
	var (
		f         models.ScannedFile
		modTimeNS int64
	)

	err := row.Scan(&f.Path, &f.Size, &modTimeNS, &f.Title, &f.Artist, &f.Comment, &f.Duration, &f.ScannedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scanned file: %w", err)
	}

	f.ModTime = time.Unix(0, modTimeNS)
	return &f, nil
}
