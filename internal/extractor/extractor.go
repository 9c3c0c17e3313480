// Package extractor resolves video metadata, captions and media files.
// The production implementation shells out to yt-dlp through go-ytdlp.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"vidbrief/internal/progress"
)

// ErrInvalidURL is returned when no video ID can be extracted from a URL.
var ErrInvalidURL = errors.New("could not extract video id from url")

// VideoInfo is the metadata returned by a probe.
type VideoInfo struct {
	ID          string  `json:"video_id"`
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	Thumbnail   string  `json:"thumbnail"`
	Description string  `json:"description"`
}

// DurationValue returns Duration as a time.Duration.
func (v VideoInfo) DurationValue() time.Duration {
	return time.Duration(v.Duration * float64(time.Second))
}

// ProgressFunc receives sub-stage progress while a fetch runs. It may be
// called from a goroutine other than the caller's.
type ProgressFunc func(phase progress.Phase, fraction float64)

// Extractor is the media extraction capability used by the service.
type Extractor interface {
	// Probe resolves metadata without downloading.
	Probe(ctx context.Context, url string) (*VideoInfo, error)

	// Fetch downloads url into outputDir as <baseName>.mp4.
	Fetch(ctx context.Context, url, outputDir, baseName string, onProgress ProgressFunc) error

	// Captions returns raw WebVTT caption text keyed by language code. Only
	// the requested languages are fetched.
	Captions(ctx context.Context, url string, langs []string) (map[string]string, error)
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/v/|youtu\.be/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:embed/|shorts/|live/|v%3D|vi%2F)([0-9A-Za-z_-]{11})`),
}

// ParseVideoID extracts the 11-character video ID from the common watch,
// short-link, embed and shorts URL forms.
func ParseVideoID(url string) (string, error) {
	url = strings.TrimSpace(url)
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidURL, url)
}

// CanonicalURL returns the watch URL for a video ID.
func CanonicalURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// Canonicalize strips playlist and tracking parameters by rebuilding the
// watch URL from the video ID.
func Canonicalize(url string) (string, string, error) {
	id, err := ParseVideoID(url)
	if err != nil {
		return "", "", err
	}
	return CanonicalURL(id), id, nil
}
