package models

import (
	"fmt"

	"github.com/desertthunder/scsync/internal/shared"
)

// MatchKind records which rule joined a remote entry to a local file.
type MatchKind string

const (
	MatchTokenOverlap MatchKind = "TOKEN_OVERLAP" // artist and title token sets both intersect
	MatchURLFallback  MatchKind = "URL_FALLBACK"  // local comment embeds the remote URL
	MatchNone         MatchKind = "NONE"          // no local entry satisfied either rule
)

func (k MatchKind) String() string { return string(k) }

// Matched reports whether k joins a local entry.
func (k MatchKind) Matched() bool {
	return k == MatchTokenOverlap || k == MatchURLFallback
}

// RemoteTrack is one entry of a remote playlist snapshot.
type RemoteTrack struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	URL      string  `json:"url"`                // join key, unique per snapshot
	ID       string  `json:"id,omitempty"`       // source-specific identifier, informational
	Duration float64 `json:"duration,omitempty"` // seconds, zero when unknown
}

// Validate checks the identity field required by the reconciler.
func (t RemoteTrack) Validate() error {
	if t.URL == "" {
		return fmt.Errorf("%w: remote track %q has no url", shared.ErrMalformedInput, t.Display())
	}
	return nil
}

// Display renders a human-readable label, falling back from "artist - title" to the URL.
func (t RemoteTrack) Display() string {
	return displayName(t.Artist, t.Title, t.URL)
}

// LocalTrack is the tag metadata of one audio file under the local root.
type LocalTrack struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Comment  string  `json:"comment"`
	FilePath string  `json:"file_path"` // unique per catalog
	Duration float64 `json:"duration,omitempty"`
}

// Validate checks the identity field required by the reconciler.
func (t LocalTrack) Validate() error {
	if t.FilePath == "" {
		return fmt.Errorf("%w: local track %q has no file path", shared.ErrMalformedInput, t.Display())
	}
	return nil
}

// Display renders a human-readable label, falling back from "artist - title" to the path.
func (t LocalTrack) Display() string {
	return displayName(t.Artist, t.Title, t.FilePath)
}

// MatchResult pairs a remote entry with the local entry it was joined to.
//
// Local is nil exactly when Kind is [MatchNone].
type MatchResult struct {
	Remote RemoteTrack `json:"remote"`
	Local  *LocalTrack `json:"local,omitempty"`
	Kind   MatchKind   `json:"match_kind"`
}

// NoMatch builds the result for a remote entry without a local counterpart.
func NoMatch(remote RemoteTrack) MatchResult {
	return MatchResult{Remote: remote, Kind: MatchNone}
}

// Matched reports whether the result joins a local entry.
func (r MatchResult) Matched() bool {
	return r.Kind.Matched() && r.Local != nil
}

func displayName(artist, title, fallback string) string {
	switch {
	case artist != "" && title != "":
		return artist + " - " + title
	case title != "":
		return title
	case fallback != "":
		return fallback
	default:
		return "<unknown track>"
	}
}
