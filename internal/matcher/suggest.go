package matcher

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/desertthunder/scsync/internal/models"
)

// DefaultSuggestScore is the lowest similarity reported as a suggestion.
const DefaultSuggestScore = 0.85

// Suggestion is the closest local entry to a missing remote track.
type Suggestion struct {
	Remote models.RemoteTrack
	Local  models.LocalTrack
	Score  float64
}

// Suggest returns the catalog entry whose "artist title" string is most similar to
// remote's by Jaro-Winkler, provided the score reaches minScore.
//
// Suggestions never join tracks; they only hint at near misses such as spelling
// variants that the token rule rejects.
func Suggest(remote models.RemoteTrack, catalog []models.LocalTrack, minScore float64) (Suggestion, bool) {
	needle := similarityKey(remote.Artist, remote.Title)
	if needle == "" {
		return Suggestion{}, false
	}

	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false

	var best Suggestion
	found := false
	for _, local := range catalog {
		candidate := similarityKey(local.Artist, local.Title)
		if candidate == "" {
			continue
		}

		score := strutil.Similarity(needle, candidate, jw)
		if score >= minScore && (!found || score > best.Score) {
			best = Suggestion{Remote: remote, Local: local, Score: score}
			found = true
		}
	}
	return best, found
}

// SuggestMissing runs [Suggest] for each missing track, keeping input order and
// skipping tracks without a candidate.
func SuggestMissing(missing []models.RemoteTrack, catalog []models.LocalTrack, minScore float64) []Suggestion {
	var out []Suggestion
	for _, remote := range missing {
		if s, ok := Suggest(remote, catalog, minScore); ok {
			out = append(out, s)
		}
	}
	return out
}

// similarityKey folds and re-joins the words of artist and title with single spaces.
func similarityKey(artist, title string) string {
	fields := strings.FieldsFunc(fold(artist+" "+title), isSeparator)
	return strings.Join(fields, " ")
}
