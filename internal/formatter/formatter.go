// package formatter serializes reconciliation tables to CSV files, plain text and terminal tables
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/scsync/internal/models"
	"github.com/desertthunder/scsync/internal/shared"
)

// ExportToCSV converts a Table to CSV with a header row followed by its rows
func ExportToCSV(table Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeCSV(&buf, table, true); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeCSV(buf *bytes.Buffer, table Table, header bool) error {
	writer := csv.NewWriter(buf)

	if header {
		if err := writer.Write(table.Columns); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return fmt.Errorf("%w: %s row %d has %d fields, want %d", shared.ErrMalformedInput, table.Name, i, len(row), len(table.Columns))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// ExportToText renders the missing-track listing printed after a sync
func ExportToText(missing []models.RemoteTrack) []byte {
	var buf bytes.Buffer

	if len(missing) == 0 {
		buf.WriteString("All playlist tracks appear to be present locally.\n")
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "Missing %d track(s):\n", len(missing))
	for _, track := range missing {
		fmt.Fprintf(&buf, "- %s\n", track.Display())
	}
	return buf.Bytes()
}

// WriteCSV replaces the file at path with table.
//
// The data goes to a temporary file in the same directory which is then renamed over
// path, so a failed write leaves any previous file untouched.
func WriteCSV(path string, table Table) error {
	var b Batch
	if err := b.Stage(path, table); err != nil {
		return err
	}
	return b.Commit()
}

// Batch replaces several files together. Tables are staged as temporary files next to their
// destinations, and no destination changes until [Batch.Commit].
type Batch struct {
	staged []stagedFile
}

type stagedFile struct {
	tmp  string
	path string
}

// Stage encodes table and writes it to a temporary file beside path. On error every file
// staged so far is discarded.
func (b *Batch) Stage(path string, table Table) error {
	data, err := ExportToCSV(table)
	if err != nil {
		b.Discard()
		return fmt.Errorf("failed to generate %s CSV: %w", table.Name, err)
	}

	if err := EnsureDir(path); err != nil {
		b.Discard()
		return err
	}

	tmp, err := writeTemp(path, data, 0644)
	if err != nil {
		b.Discard()
		return fmt.Errorf("%w: %s: %v", shared.ErrIO, path, err)
	}
	b.staged = append(b.staged, stagedFile{tmp: tmp, path: path})
	return nil
}

// Len returns the number of staged files.
func (b *Batch) Len() int { return len(b.staged) }

// Commit renames every staged file over its destination in staging order.
//
// A rename only fails when the destination itself is unusable (a directory, a vanished
// parent); files not yet renamed are then discarded and keep their previous content.
func (b *Batch) Commit() error {
	for i, f := range b.staged {
		if err := os.Rename(f.tmp, f.path); err != nil {
			b.staged = b.staged[i:]
			b.Discard()
			return fmt.Errorf("%w: %s: rename temp file: %v", shared.ErrIO, f.path, err)
		}
	}
	b.staged = nil
	return nil
}

// Discard removes every staged file without touching the destinations.
func (b *Batch) Discard() {
	for _, f := range b.staged {
		os.Remove(f.tmp)
	}
	b.staged = nil
}

// AppendCSV appends table rows to path, writing the header only when the file is new or empty.
//
// Rows are encoded up front and written with a single call.
func AppendCSV(path string, table Table) (err error) {
	if err := EnsureDir(path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", shared.ErrIO, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %v", shared.ErrIO, path, cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", shared.ErrIO, path, err)
	}

	var buf bytes.Buffer
	if err := encodeCSV(&buf, table, info.Size() == 0); err != nil {
		return fmt.Errorf("failed to generate %s CSV: %w", table.Name, err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: write %s: %v", shared.ErrIO, path, err)
	}
	return nil
}

// EnsureDir creates the parent directory of path when it does not exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create directory %s: %v", shared.ErrIO, dir, err)
	}
	return nil
}

// writeTemp writes data to a new hidden temporary file in path's directory and returns its name.
func writeTemp(path string, data []byte, perm os.FileMode) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return name, nil
}
