package models

import (
	"fmt"
	"time"
)

// ScannedFile is a cached tag read of one local file.
//
// The cache entry is valid while the file's size and modification time are unchanged.
type ScannedFile struct {
	Path      string
	Size      int64
	ModTime   time.Time
	Title     string
	Artist    string
	Comment   string
	Duration  float64
	ScannedAt time.Time
}

// Fresh reports whether the entry still describes a file with the given size and mtime.
func (f *ScannedFile) Fresh(size int64, modTime time.Time) bool {
	return f.Size == size && f.ModTime.Equal(modTime)
}

// Track converts the cache entry into a [LocalTrack].
func (f *ScannedFile) Track() LocalTrack {
	return LocalTrack{
		Title:    f.Title,
		Artist:   f.Artist,
		Comment:  f.Comment,
		FilePath: f.Path,
		Duration: f.Duration,
	}
}

// Validate requires a path, which is the cache key.
func (f *ScannedFile) Validate() error {
	if f.Path == "" {
		return fmt.Errorf("scanned file path is required")
	}
	return nil
}
