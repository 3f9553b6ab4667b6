// package services defines interface Source for fetching remote playlist snapshots
//
// yt-dlp (SoundCloud and friends), Spotify, YouTube
package services

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/scsync/internal/models"
	"github.com/desertthunder/scsync/internal/shared"
)

// Source fetches the track list of a remote playlist.
type Source interface {
	// FetchPlaylist returns the playlist's tracks in playlist order, deduplicated by URL.
	FetchPlaylist(ctx context.Context, playlist string) ([]models.RemoteTrack, error)

	// Name returns the source kind (e.g., "ytdlp", "spotify")
	Name() string
}

// NewSource builds the [Source] selected by cfg.Source.Kind.
func NewSource(ctx context.Context, cfg *shared.Config, logger *log.Logger) (Source, error) {
	switch cfg.Source.Kind {
	case shared.SourceYTDLP:
		return NewYTDLPSource(cfg.Source, logger), nil
	case shared.SourceSpotify:
		return NewSpotifySource(ctx, cfg.Credentials.Spotify)
	case shared.SourceYouTube:
		return NewYouTubeSource(nil), nil
	default:
		return nil, fmt.Errorf("%w: unknown source %q", shared.ErrInvalidConfig, cfg.Source.Kind)
	}
}

// Dedupe drops tracks whose URL was already seen, keeping the first occurrence.
// Tracks without a URL are dropped as well since they cannot be joined or exported by key.
func Dedupe(tracks []models.RemoteTrack) (kept []models.RemoteTrack, dropped int) {
	seen := make(map[string]struct{}, len(tracks))
	kept = make([]models.RemoteTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.URL == "" {
			dropped++
			continue
		}
		if _, ok := seen[t.URL]; ok {
			dropped++
			continue
		}
		seen[t.URL] = struct{}{}
		kept = append(kept, t)
	}
	return kept, dropped
}

func requirePlaylist(playlist string) error {
	if playlist == "" {
		return fmt.Errorf("%w: playlist", shared.ErrMissingArgument)
	}
	return nil
}
