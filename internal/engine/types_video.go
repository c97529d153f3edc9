package engine

import (
	"regexp"
	"strconv"
	"time"
)

// VideoMetadata is what the metadata source knows about one video.
// Owned by a single analysis and never mutated after receipt.
type VideoMetadata struct {
	VideoID         string    `json:"video_id"`
	Title           string    `json:"title"`
	ChannelTitle    string    `json:"channel_title"`
	ChannelID       string    `json:"channel_id,omitempty"`
	Description     string    `json:"description"`
	Tags            []string  `json:"tags"`
	Duration        string    `json:"duration"` // ISO-8601 as returned by the API, e.g. PT12M3S
	DurationSeconds int64     `json:"duration_seconds"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count,omitempty"`
	CommentCount    int64     `json:"comment_count,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	CategoryID      string    `json:"category_id,omitempty"`
	DefaultLanguage string    `json:"default_language,omitempty"`
}

// WatchURL returns the canonical watch page URL.
func (m VideoMetadata) WatchURL() string {
	return WatchURL(m.VideoID)
}

// WatchURL builds the canonical watch page URL for a video ID.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISODuration converts a YouTube ISO-8601 duration (PT1H2M3S, P1DT2H)
// to a time.Duration. Returns 0 for anything it does not recognise.
func ParseISODuration(s string) time.Duration {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, u := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0
		}
		d += time.Duration(n) * u
	}
	return d
}

// FormatClock renders a duration as H:MM:SS or M:SS.
func FormatClock(d time.Duration) string {
	total := int64(d / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return strconv.FormatInt(h, 10) + ":" + pad2(m) + ":" + pad2(s)
	}
	return strconv.FormatInt(m, 10) + ":" + pad2(s)
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
