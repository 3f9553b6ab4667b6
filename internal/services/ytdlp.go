// yt-dlp backed [Source] implementation
//
// Works for any playlist yt-dlp can extract; SoundCloud sets are the main target.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lrstanley/go-ytdlp"
	"golang.org/x/time/rate"

	"github.com/desertthunder/scsync/internal/models"
	"github.com/desertthunder/scsync/internal/shared"
)

// flexString accepts both JSON strings and numbers; yt-dlp ids vary by extractor.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(string(data))
	return nil
}

// YTDLPEntry is one playlist entry as printed by "yt-dlp -J".
type YTDLPEntry struct {
	ID          flexString `json:"id"`
	Title       string     `json:"title"`
	Uploader    string     `json:"uploader"`
	Artist      string     `json:"artist"`
	Creator     string     `json:"creator"`
	WebpageURL  string     `json:"webpage_url"`
	OriginalURL string     `json:"original_url"`
	URL         string     `json:"url"`
	Duration    float64    `json:"duration"`
}

// YTDLPPlaylist is the top-level document printed by "yt-dlp -J".
//
// For a single track the embedded entry holds the track itself; for a playlist it
// holds the playlist's own id and title.
type YTDLPPlaylist struct {
	Type    string        `json:"_type"`
	Entries []*YTDLPEntry `json:"entries"`
	YTDLPEntry
}

// Track converts an entry, preferring uploader over artist and creator for the artist
// and webpage_url over original_url and url for the join key.
func (e *YTDLPEntry) Track() models.RemoteTrack {
	return models.RemoteTrack{
		Title:    strings.TrimSpace(e.Title),
		Artist:   firstNonEmpty(e.Uploader, e.Artist, e.Creator),
		URL:      firstNonEmpty(e.WebpageURL, e.OriginalURL, e.URL),
		ID:       string(e.ID),
		Duration: e.Duration,
	}
}

// ParseYTDLPPlaylist decodes yt-dlp JSON output into tracks in playlist order.
//
// A document without entries that describes a single track yields that track.
func ParseYTDLPPlaylist(data []byte) ([]models.RemoteTrack, error) {
	var doc YTDLPPlaylist
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse yt-dlp JSON: %v", shared.ErrFetchFailed, err)
	}

	if doc.Type != "playlist" && len(doc.Entries) == 0 {
		if doc.YTDLPEntry.ID == "" && doc.WebpageURL == "" {
			return []models.RemoteTrack{}, nil
		}
		return []models.RemoteTrack{doc.YTDLPEntry.Track()}, nil
	}

	tracks := make([]models.RemoteTrack, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		if entry == nil {
			continue
		}
		tracks = append(tracks, entry.Track())
	}
	return tracks, nil
}

type ytdlpRunner func(ctx context.Context, executable, url string) (string, error)

// YTDLPSource implements [Source] by shelling out to yt-dlp.
type YTDLPSource struct {
	executable string
	limiter    *rate.Limiter
	logger     *log.Logger
	run        ytdlpRunner
}

// NewYTDLPSource creates a yt-dlp source. A positive cfg.RateLimit caps invocations per second.
func NewYTDLPSource(cfg shared.SourceConfig, logger *log.Logger) *YTDLPSource {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &YTDLPSource{
		executable: cfg.YTDLPPath,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
		run:        runYTDLP,
	}
}

// Name returns the source kind.
func (s *YTDLPSource) Name() string { return shared.SourceYTDLP }

// FetchPlaylist runs yt-dlp against playlist and returns its tracks.
func (s *YTDLPSource) FetchPlaylist(ctx context.Context, playlist string) ([]models.RemoteTrack, error) {
	if err := requirePlaylist(playlist); err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)
	}

	s.logger.Debug("running yt-dlp", "playlist", playlist)
	out, err := s.run(ctx, s.executable, playlist)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: yt-dlp not found: %v", shared.ErrSourceUnavailable, err)
		}
		return nil, fmt.Errorf("%w: yt-dlp: %v", shared.ErrFetchFailed, err)
	}

	tracks, err := ParseYTDLPPlaylist([]byte(out))
	if err != nil {
		return nil, err
	}

	kept, dropped := Dedupe(tracks)
	if dropped > 0 {
		s.logger.Warn("dropped playlist entries without a unique url", "count", dropped)
	}
	return kept, nil
}

func runYTDLP(ctx context.Context, executable, url string) (string, error) {
	cmd := ytdlp.New().DumpSingleJSON()
	if executable != "" {
		cmd.SetExecutable(executable)
	}

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
