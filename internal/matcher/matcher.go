package matcher

import (
	"strings"

	"github.com/desertthunder/scsync/internal/models"
)

type indexEntry struct {
	track  models.LocalTrack
	artist TokenSet
	title  TokenSet
}

// Index is a catalog with its artist and title tokens computed once.
//
// An Index is read-only after construction and safe for concurrent FindMatch calls.
type Index struct {
	entries []indexEntry
}

// NewIndex tokenizes every catalog entry, keeping catalog order.
func NewIndex(catalog []models.LocalTrack) *Index {
	entries := make([]indexEntry, len(catalog))
	for i, local := range catalog {
		entries[i] = indexEntry{
			track:  local,
			artist: Tokenize(local.Artist),
			title:  Tokenize(local.Title),
		}
	}
	return &Index{entries: entries}
}

// Len returns the number of catalog entries.
func (ix *Index) Len() int { return len(ix.entries) }

// FindMatch applies the URL fallback rule over the whole catalog, then the token overlap rule.
// The first qualifying entry in catalog order wins.
func (ix *Index) FindMatch(remote models.RemoteTrack) models.MatchResult {
	if remote.URL != "" {
		for i := range ix.entries {
			if strings.Contains(ix.entries[i].track.Comment, remote.URL) {
				return joined(remote, ix.entries[i].track, models.MatchURLFallback)
			}
		}
	}

	artist := Tokenize(remote.Artist)
	title := Tokenize(remote.Title)
	if len(artist) == 0 || len(title) == 0 {
		return models.NoMatch(remote)
	}

	for i := range ix.entries {
		e := &ix.entries[i]
		if artist.Intersects(e.artist) && title.Intersects(e.title) {
			return joined(remote, e.track, models.MatchTokenOverlap)
		}
	}

	return models.NoMatch(remote)
}

// FindMatch matches a single remote track against catalog.
// Use [NewIndex] when matching many tracks against the same catalog.
func FindMatch(remote models.RemoteTrack, catalog []models.LocalTrack) models.MatchResult {
	return NewIndex(catalog).FindMatch(remote)
}

func joined(remote models.RemoteTrack, local models.LocalTrack, kind models.MatchKind) models.MatchResult {
	return models.MatchResult{Remote: remote, Local: &local, Kind: kind}
}
