package library

import (
	"errors"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// Tags are the fields the matcher reads from an audio file.
type Tags struct {
	Title   string
	Artist  string
	Comment string
}

// TagReader extracts [Tags] from the file at path.
type TagReader func(path string) (Tags, error)

// ReadTags reads ID3, MP4, FLAC and Ogg tags with dhowden/tag.
//
// A file without any tag block yields empty [Tags] and no error. The album artist is
// used when the artist field is empty. The comment joins the text of every ID3 comment frame.
func ReadTags(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return Tags{}, nil
	}
	if err != nil {
		return Tags{}, err
	}

	artist := strings.TrimSpace(m.Artist())
	if artist == "" {
		artist = strings.TrimSpace(m.AlbumArtist())
	}

	return Tags{
		Title:   strings.TrimSpace(m.Title()),
		Artist:  artist,
		Comment: commentText(m),
	}, nil
}

// commentText joins the text of every ID3 comment frame, one per line, in frame order.
//
// dhowden/tag's Comment reports only the first frame, and its description rather than its
// text when the description is set, which hides URLs stored in the text. Formats without
// COMM frames, and frames that carry no text, fall back to Comment.
func commentText(m tag.Metadata) string {
	type frame struct {
		order int
		text  string
	}

	var frames []frame
	for key, v := range m.Raw() {
		order, ok := commFrameOrder(key)
		if !ok {
			continue
		}
		c, ok := v.(*tag.Comm)
		if !ok {
			continue
		}
		if text := strings.TrimSpace(c.Text); text != "" {
			frames = append(frames, frame{order: order, text: text})
		}
	}

	if len(frames) == 0 {
		return strings.TrimSpace(m.Comment())
	}

	sort.Slice(frames, func(i, j int) bool { return frames[i].order < frames[j].order })
	texts := make([]string, len(frames))
	for i, f := range frames {
		texts[i] = f.text
	}
	return strings.Join(texts, "\n")
}

// commFrameOrder recognises the raw keys dhowden/tag gives comment frames: "COMM" (or "COM"
// in ID3v2.2) for the first, then "COMM_0", "COMM_1" and so on for repeats.
func commFrameOrder(key string) (int, bool) {
	name, suffix, repeated := strings.Cut(key, "_")
	if name != "COMM" && name != "COM" {
		return 0, false
	}
	if !repeated {
		return 0, true
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n + 1, true
}
