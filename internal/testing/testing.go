// Package testing provides fakes and file assertions shared by the scsync test suites.
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/scsync/internal/models"
)

// FakeSource is an in-memory playlist source keyed by playlist identifier.
//
// Unknown playlists fail with an error naming the playlist. Safe for concurrent use.
type FakeSource struct {
	Playlists map[string][]models.RemoteTrack
	Errs      map[string]error // per-playlist failures, checked before Playlists
	Err       error            // fails every call when set

	mu    sync.Mutex
	calls []string
}

func (f *FakeSource) Name() string { return "fake" }

func (f *FakeSource) FetchPlaylist(ctx context.Context, playlist string) ([]models.RemoteTrack, error) {
	f.mu.Lock()
	f.calls = append(f.calls, playlist)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if err, ok := f.Errs[playlist]; ok {
		return nil, err
	}
	tracks, ok := f.Playlists[playlist]
	if !ok {
		return nil, fmt.Errorf("playlist %q not found", playlist)
	}
	return append([]models.RemoteTrack(nil), tracks...), nil
}

// Calls returns the playlists requested so far, in call order.
func (f *FakeSource) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// FWriter fails every write, for exercising output error paths.
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter forwards maxWrites writes to target, then fails.
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// AssertFileExists reports an error unless path exists.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// MustWriteFile writes content to path, creating parent directories.
func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
