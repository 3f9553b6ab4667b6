// YouTube implementation of [Source]
//
// Reads public playlists directly through kkdai/youtube without yt-dlp or an API key.
package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/desertthunder/scsync/internal/models"
	"github.com/desertthunder/scsync/internal/shared"
)

const youtubeWatchURL = "https://www.youtube.com/watch?v="

var (
	noiseRegex = regexp.MustCompile(`(?i)\s*[\(\[](official (music )?video|official audio|audio|video|lyrics?|hd|visualizer)[\)\]]`)
	splitRegex = regexp.MustCompile(`\s+[-–—]\s+`)
)

// YouTubeSource implements [Source] for YouTube playlists.
type YouTubeSource struct {
	client *youtube.Client
}

// NewYouTubeSource creates a YouTube source. A nil client uses the library defaults.
func NewYouTubeSource(client *youtube.Client) *YouTubeSource {
	if client == nil {
		client = &youtube.Client{}
	}
	return &YouTubeSource{client: client}
}

// Name returns the source kind.
func (y *YouTubeSource) Name() string { return shared.SourceYouTube }

// FetchPlaylist returns the playlist's videos as tracks.
func (y *YouTubeSource) FetchPlaylist(ctx context.Context, playlist string) ([]models.RemoteTrack, error) {
	if err := requirePlaylist(playlist); err != nil {
		return nil, err
	}

	pl, err := y.client.GetPlaylistContext(ctx, playlist)
	if err != nil {
		return nil, fmt.Errorf("%w: youtube playlist: %v", shared.ErrFetchFailed, err)
	}

	tracks := make([]models.RemoteTrack, 0, len(pl.Videos))
	for _, entry := range pl.Videos {
		if entry == nil || entry.ID == "" {
			continue
		}
		tracks = append(tracks, YouTubeTrack(entry))
	}

	kept, _ := Dedupe(tracks)
	return kept, nil
}

// YouTubeTrack converts a playlist entry.
func YouTubeTrack(entry *youtube.PlaylistEntry) models.RemoteTrack {
	artist, title := SplitVideoTitle(entry.Title, entry.Author)
	return models.RemoteTrack{
		Title:    title,
		Artist:   artist,
		URL:      youtubeWatchURL + entry.ID,
		ID:       entry.ID,
		Duration: entry.Duration.Seconds(),
	}
}

// SplitVideoTitle derives artist and title from a video title like "Artist - Title (Official Video)".
//
// Without a separator the channel name is the artist; " - Topic" channels are trimmed.
func SplitVideoTitle(raw, channel string) (artist, title string) {
	t := strings.TrimSpace(noiseRegex.ReplaceAllString(raw, ""))

	if parts := splitRegex.Split(t, 2); len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}

	return strings.TrimSpace(strings.TrimSuffix(channel, " - Topic")), t
}
