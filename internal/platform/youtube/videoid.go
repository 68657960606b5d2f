package youtube

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrNotYouTube     = errors.New("URL must be a youtube.com or youtu.be link")
	ErrNoVideoID      = errors.New("could not extract video id from URL")
	videoIDPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	pathVideoPatterns = []*regexp.Regexp{
		regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/live/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]{11})`),
	}
)

func IsYouTubeURL(raw string) bool {
	s := strings.ToLower(raw)
	return strings.Contains(s, "youtube.com") || strings.Contains(s, "youtu.be")
}

// ExtractVideoID returns the 11-character video id from watch, short-link, live, shorts and
// embed URLs.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !IsYouTubeURL(raw) {
		return "", ErrNotYouTube
	}
	if u, err := url.Parse(raw); err == nil {
		if v := u.Query().Get("v"); videoIDPattern.MatchString(v) {
			return v, nil
		}
	}
	for _, re := range pathVideoPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1], nil
		}
	}
	return "", ErrNoVideoID
}

func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
