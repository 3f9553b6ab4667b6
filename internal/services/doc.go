// Package services defines the [Source] interface for remote playlist providers and implements it for
// yt-dlp, Spotify and YouTube.
//
// # Source Interface
//
// A source turns a playlist identifier into an ordered []models.RemoteTrack snapshot. Every
// implementation passes its result through [Dedupe] so the reconciler receives each URL once.
//
// # yt-dlp Implementation
//
// [YTDLPSource] runs "yt-dlp -J" through lrstanley/go-ytdlp and decodes the playlist document.
// Artist comes from uploader, then artist, then creator; the join URL from webpage_url, then
// original_url, then url. Invocations are spaced by a [rate.Limiter] configured with
// source.rate_limit.
//
// # Spotify Implementation
//
// [SpotifySource] uses zmb3/spotify with the OAuth2 client credentials flow. Local files and
// unavailable tracks are skipped. URLs are open.spotify.com track links.
//
// # YouTube Implementation
//
// [YouTubeSource] reads playlists with kkdai/youtube. "Artist - Title" video titles are split;
// otherwise the channel name is used as the artist.
//
// # Error Handling
//
// Sources use typed errors from shared package:
//   - [shared.ErrMissingArgument] : empty playlist identifier
//   - [shared.ErrInvalidArgument] : identifier the source cannot parse
//   - [shared.ErrMissingCredentials] : Spotify client credentials absent
//   - [shared.ErrSourceUnavailable] : yt-dlp binary not installed
//   - [shared.ErrFetchFailed] : the remote call or its decoding failed
package services
