// Spotify Web API implementation of [Source]
//
// Uses the client credentials flow, which can read public playlists without a user login.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/desertthunder/scsync/internal/models"
	"github.com/desertthunder/scsync/internal/shared"
)

const spotifyTrackURL = "https://open.spotify.com/track/"

// SpotifySource implements [Source] for Spotify playlists.
type SpotifySource struct {
	client *spotify.Client
}

// NewSpotifySource creates a Spotify source authenticated with client credentials.
func NewSpotifySource(ctx context.Context, creds shared.SpotifyConfig) (*SpotifySource, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	config := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return &SpotifySource{client: spotify.New(config.Client(ctx))}, nil
}

// NewSpotifySourceWithClient wraps an existing client.
func NewSpotifySourceWithClient(client *spotify.Client) *SpotifySource {
	return &SpotifySource{client: client}
}

// Name returns the source kind.
func (s *SpotifySource) Name() string { return shared.SourceSpotify }

// FetchPlaylist pages through the playlist, skipping local files and unavailable tracks.
func (s *SpotifySource) FetchPlaylist(ctx context.Context, playlist string) ([]models.RemoteTrack, error) {
	if err := requirePlaylist(playlist); err != nil {
		return nil, err
	}

	id, err := ParseSpotifyPlaylistID(playlist)
	if err != nil {
		return nil, err
	}

	res, err := s.client.GetPlaylist(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: get playlist %s: %v", shared.ErrFetchFailed, id, err)
	}

	var tracks []models.RemoteTrack
	page := res.Tracks
	for {
		for _, item := range page.Tracks {
			if item.IsLocal || item.Track.ID == "" {
				continue
			}
			tracks = append(tracks, SpotifyTrack(item.Track))
		}

		err = s.client.NextPage(ctx, &page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: playlist pagination: %v", shared.ErrFetchFailed, err)
		}
	}

	kept, _ := Dedupe(tracks)
	return kept, nil
}

// SpotifyTrack converts a full track, joining artist names with ", ".
func SpotifyTrack(ft spotify.FullTrack) models.RemoteTrack {
	artists := make([]string, len(ft.Artists))
	for i, a := range ft.Artists {
		artists[i] = a.Name
	}

	link := ft.ExternalURLs["spotify"]
	if link == "" && ft.ID != "" {
		link = spotifyTrackURL + string(ft.ID)
	}

	return models.RemoteTrack{
		Title:    ft.Name,
		Artist:   strings.Join(artists, ", "),
		URL:      link,
		ID:       string(ft.ID),
		Duration: float64(ft.Duration) / 1000,
	}
}

// ParseSpotifyPlaylistID accepts an open.spotify.com URL, a spotify:playlist: URI or a bare ID.
func ParseSpotifyPlaylistID(playlist string) (spotify.ID, error) {
	playlist = strings.TrimSpace(playlist)

	if rest, ok := strings.CutPrefix(playlist, "spotify:playlist:"); ok {
		if rest == "" {
			return "", fmt.Errorf("%w: empty spotify URI", shared.ErrInvalidArgument)
		}
		return spotify.ID(rest), nil
	}

	if strings.Contains(playlist, "/") {
		u, err := url.Parse(playlist)
		if err != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i < len(parts)-1; i++ {
			if parts[i] == "playlist" && parts[i+1] != "" {
				return spotify.ID(parts[i+1]), nil
			}
		}
		return "", fmt.Errorf("%w: %q is not a spotify playlist URL", shared.ErrInvalidArgument, playlist)
	}

	if strings.Contains(playlist, ":") || playlist == "" {
		return "", fmt.Errorf("%w: %q is not a spotify playlist", shared.ErrInvalidArgument, playlist)
	}
	return spotify.ID(playlist), nil
}
