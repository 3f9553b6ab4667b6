// Package shared holds the configuration, errors, logging and database setup used by every
// scsync package.
package shared

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger returns a logger writing to w (stderr when nil) with timestamps and caller
// reporting.
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger derives a logger that prefixes every entry with kv.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// SetLogLevelName parses a level name ("debug", "info", ...) and applies it.
//
// Unknown names leave the logger untouched and return the parse error.
func SetLogLevelName(l *log.Logger, name string) error {
	if name == "" {
		return nil
	}
	ll, err := log.ParseLevel(name)
	if err != nil {
		return err
	}
	l.SetLevel(ll)
	return nil
}

// GenerateID returns a random v4 UUID used as a sync run ID.
func GenerateID() string {
	return uuid.New().String()
}

// ExpandPath resolves a leading "~" to the user's home directory and returns an absolute path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
