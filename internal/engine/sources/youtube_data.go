package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_hoover/internal/engine"
)

// YouTube Data API v3 metadata client (videos.list).

const (
	ytDataAPIBase = "https://www.googleapis.com/youtube/v3"
	ytVideoParts  = "snippet,statistics,contentDetails"
)

// quotaReasons are the Data API error reasons that mean the key is out of budget.
var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

type ytVideosResp struct {
	Items []ytVideoItem `json:"items"`
}

type ytVideoItem struct {
	ID      string `json:"id"`
	Snippet struct {
		PublishedAt     string   `json:"publishedAt"`
		ChannelID       string   `json:"channelId"`
		Title           string   `json:"title"`
		Description     string   `json:"description"`
		ChannelTitle    string   `json:"channelTitle"`
		Tags            []string `json:"tags"`
		CategoryID      string   `json:"categoryId"`
		DefaultLanguage string   `json:"defaultLanguage"`
		Thumbnails      map[string]struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
	} `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics struct {
		ViewCount    string `json:"viewCount"`
		LikeCount    string `json:"likeCount"`
		CommentCount string `json:"commentCount"`
	} `json:"statistics"`
}

type ytErrorResp struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// YouTubeClient fetches video metadata from the Data API. A secondary key is
// tried when the primary one is rejected or out of quota.
type YouTubeClient struct {
	base   string
	keys   []string
	client *http.Client
}

// NewYouTubeClient builds a client from engine.Cfg.
func NewYouTubeClient() *YouTubeClient {
	keys := []string{engine.Cfg.YouTubeAPIKey}
	if engine.Cfg.YouTubeAPIKeyFallback != "" {
		keys = append(keys, engine.Cfg.YouTubeAPIKeyFallback)
	}
	return NewYouTubeClientWith(engine.Cfg.YouTubeAPIBase, engine.Cfg.HTTPClient, keys...)
}

// NewYouTubeClientWith builds a client against an explicit base URL.
func NewYouTubeClientWith(base string, client *http.Client, keys ...string) *YouTubeClient {
	if base == "" {
		base = ytDataAPIBase
	}
	if client == nil {
		client = http.DefaultClient
	}
	var ks []string
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			ks = append(ks, k)
		}
	}
	return &YouTubeClient{base: strings.TrimRight(base, "/"), keys: ks, client: client}
}

// FetchMetadata returns metadata for one video. Errors wrap ErrNotFound,
// ErrQuotaExceeded or ErrTransient.
func (c *YouTubeClient) FetchMetadata(ctx context.Context, videoID string) (engine.VideoMetadata, error) {
	engine.IncrMetadataRequests()
	m, err := c.fetch(ctx, videoID)
	if err != nil {
		engine.IncrMetadataErrors()
	}
	return m, err
}

func (c *YouTubeClient) fetch(ctx context.Context, videoID string) (engine.VideoMetadata, error) {
	if len(c.keys) == 0 {
		return engine.VideoMetadata{}, fmt.Errorf("%w: no YouTube API key configured", engine.ErrTransient)
	}
	var lastErr error
	for i, key := range c.keys {
		m, err := c.fetchWithKey(ctx, videoID, key)
		if err == nil {
			return m, nil
		}
		lastErr = err
		if errors.Is(err, engine.ErrNotFound) || ctx.Err() != nil {
			return engine.VideoMetadata{}, err
		}
		if i < len(c.keys)-1 {
			slog.Debug("youtube data API key failed, trying fallback", slog.Any("error", err))
		}
	}
	return engine.VideoMetadata{}, lastErr
}

func (c *YouTubeClient) fetchWithKey(ctx context.Context, videoID, key string) (engine.VideoMetadata, error) {
	params := url.Values{}
	params.Set("part", ytVideoParts)
	params.Set("id", videoID)
	params.Set("key", key)
	apiURL := c.base + "/videos?" + params.Encode()

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		req.Header.Set("Accept", "application/json")
		return c.client.Do(req)
	})
	if err != nil {
		return engine.VideoMetadata{}, fmt.Errorf("%w: youtube data API: %w", engine.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return engine.VideoMetadata{}, classifyAPIError(videoID, resp.StatusCode, body)
	}

	var out ytVideosResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, 2*1024*1024)).Decode(&out); err != nil {
		return engine.VideoMetadata{}, fmt.Errorf("%w: decode youtube data API: %w", engine.ErrTransient, err)
	}
	if len(out.Items) == 0 {
		return engine.VideoMetadata{}, fmt.Errorf("%w: %s", engine.ErrNotFound, videoID)
	}
	return out.Items[0].toMetadata(videoID), nil
}

// classifyAPIError maps a non-200 Data API response to the error taxonomy.
func classifyAPIError(videoID string, status int, body []byte) error {
	var e ytErrorResp
	_ = json.Unmarshal(body, &e)
	msg := e.Error.Message
	if msg == "" {
		msg = engine.Truncate(strings.TrimSpace(string(body)), 200)
	}

	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", engine.ErrNotFound, videoID)
	}
	for _, r := range e.Error.Errors {
		if quotaReasons[r.Reason] {
			return fmt.Errorf("%w: youtube data API %d %s: %s", engine.ErrQuotaExceeded, status, r.Reason, msg)
		}
	}
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: youtube data API %d: %s", engine.ErrQuotaExceeded, status, msg)
	}
	return fmt.Errorf("%w: youtube data API %d: %s", engine.ErrTransient, status, msg)
}

func (it ytVideoItem) toMetadata(videoID string) engine.VideoMetadata {
	m := engine.VideoMetadata{
		VideoID:         it.ID,
		Title:           it.Snippet.Title,
		ChannelTitle:    it.Snippet.ChannelTitle,
		ChannelID:       it.Snippet.ChannelID,
		Description:     it.Snippet.Description,
		Tags:            it.Snippet.Tags,
		Duration:        it.ContentDetails.Duration,
		DurationSeconds: int64(engine.ParseISODuration(it.ContentDetails.Duration) / time.Second),
		ViewCount:       parseCount(it.Statistics.ViewCount),
		LikeCount:       parseCount(it.Statistics.LikeCount),
		CommentCount:    parseCount(it.Statistics.CommentCount),
		CategoryID:      it.Snippet.CategoryID,
		DefaultLanguage: it.Snippet.DefaultLanguage,
	}
	if m.VideoID == "" {
		m.VideoID = videoID
	}
	if t, err := time.Parse(time.RFC3339, it.Snippet.PublishedAt); err == nil {
		m.PublishedAt = t.UTC()
	}
	for _, size := range []string{"maxres", "high", "medium", "default"} {
		if th, ok := it.Snippet.Thumbnails[size]; ok && th.URL != "" {
			m.ThumbnailURL = th.URL
			break
		}
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return m
}

// parseCount reads the Data API's stringified counters; absent → 0.
func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
