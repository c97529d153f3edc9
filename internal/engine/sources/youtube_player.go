package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/anatolykoptev/go_hoover/internal/engine"
)

// Innertube /player client. Serves two roles: metadata when no Data API key
// is configured, and page content for the description fallback.

const (
	ytWatchBase      = "https://www.youtube.com"
	ytPlayerPath     = "/youtubei/v1/player"
	ytAndroidVersion = "20.10.38"
	ytAndroidUA      = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"
)

type playerReq struct {
	VideoID        string    `json:"videoId"`
	Context        playerCtx `json:"context"`
	RacyCheckOk    bool      `json:"racyCheckOk"`
	ContentCheckOk bool      `json:"contentCheckOk"`
}

type playerCtx struct {
	Client playerClientInfo `json:"client"`
}

type playerClientInfo struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type playerResp struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails *struct {
		VideoID          string   `json:"videoId"`
		Title            string   `json:"title"`
		LengthSeconds    string   `json:"lengthSeconds"`
		Keywords         []string `json:"keywords"`
		ChannelID        string   `json:"channelId"`
		ShortDescription string   `json:"shortDescription"`
		ViewCount        string   `json:"viewCount"`
		Author           string   `json:"author"`
		Thumbnail        struct {
			Thumbnails []struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"thumbnail"`
	} `json:"videoDetails"`
	Microformat *struct {
		PlayerMicroformatRenderer struct {
			PublishDate string `json:"publishDate"`
			Category    string `json:"category"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
}

// PlayerClient reads public video details through the Innertube player
// endpoint, falling back to the watch page for content. Calls go through a
// circuit breaker so a blocked client stops hammering YouTube.
type PlayerClient struct {
	base    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewPlayerClient builds a client from engine.Cfg.
func NewPlayerClient() *PlayerClient {
	return NewPlayerClientWith(engine.Cfg.InnertubeBase, engine.Cfg.HTTPClient)
}

// NewPlayerClientWith builds a client against an explicit base URL.
func NewPlayerClientWith(base string, client *http.Client) *PlayerClient {
	if base == "" {
		base = ytWatchBase
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &PlayerClient{
		base:    strings.TrimRight(base, "/"),
		client:  client,
		breaker: newBreaker("innertube"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// missing videos and caller cancellation are not upstream failures
			return err == nil || errors.Is(err, engine.ErrNotFound) ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
}

// FetchMetadata returns what the player endpoint knows about a video.
// Errors wrap ErrNotFound or ErrTransient.
func (p *PlayerClient) FetchMetadata(ctx context.Context, videoID string) (engine.VideoMetadata, error) {
	engine.IncrMetadataRequests()
	pr, err := p.player(ctx, videoID)
	if err != nil {
		engine.IncrMetadataErrors()
		if !errors.Is(err, engine.ErrNotFound) {
			err = fmt.Errorf("%w: %w", engine.ErrTransient, err)
		}
		return engine.VideoMetadata{}, err
	}
	return pr.toMetadata(videoID), nil
}

// FetchPageText returns readable text for a video: the player's full
// description and keywords, or the watch page's main text when the player
// has nothing. Errors wrap ErrFetch.
func (p *PlayerClient) FetchPageText(ctx context.Context, videoID string) (string, error) {
	engine.IncrFallbackFetches()
	text, err := p.pageText(ctx, videoID)
	if err != nil {
		engine.IncrFallbackErrors()
		if !errors.Is(err, engine.ErrFetch) {
			err = fmt.Errorf("%w: %s: %w", engine.ErrFetch, videoID, err)
		}
	}
	return text, err
}

func (p *PlayerClient) pageText(ctx context.Context, videoID string) (string, error) {
	pr, err := p.player(ctx, videoID)
	if err == nil {
		if text := pr.contentText(); text != "" {
			return text, nil
		}
	} else if ctx.Err() != nil {
		return "", err
	} else {
		slog.Debug("innertube player failed, trying watch page", slog.String("video_id", videoID), slog.Any("error", err))
	}

	title, content, err := engine.FetchURLContent(ctx, p.base+"/watch?v="+videoID)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(title + "\n\n" + content), nil
}

func (p *PlayerClient) player(ctx context.Context, videoID string) (*playerResp, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.doPlayer(ctx, videoID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("innertube player: %w", err)
		}
		return nil, err
	}
	return out.(*playerResp), nil
}

func (p *PlayerClient) doPlayer(ctx context.Context, videoID string) (*playerResp, error) {
	payload, err := json.Marshal(playerReq{
		VideoID: videoID,
		Context: playerCtx{Client: playerClientInfo{
			ClientName:        "ANDROID",
			ClientVersion:     ytAndroidVersion,
			AndroidSdkVersion: 30,
			Hl:                "en",
			Gl:                "US",
		}},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	endpoint := p.base + ytPlayerPath + "?prettyPrint=false"
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", ytAndroidUA)
		req.Header.Set("X-Youtube-Client-Name", "3")
		req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)
		return p.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("innertube player: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("innertube player HTTP %d: %s", resp.StatusCode, snippet)
	}

	var pr playerResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, 3*1024*1024)).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode innertube player: %w", err)
	}
	if pr.VideoDetails == nil {
		reason := "no video details"
		if pr.PlayabilityStatus != nil {
			reason = pr.PlayabilityStatus.Status + " " + pr.PlayabilityStatus.Reason
		}
		return nil, fmt.Errorf("%w: %s: %s", engine.ErrNotFound, videoID, strings.TrimSpace(reason))
	}
	return &pr, nil
}

func (pr *playerResp) contentText() string {
	d := pr.VideoDetails
	var sb strings.Builder
	if s := strings.TrimSpace(d.ShortDescription); s != "" {
		sb.WriteString(s)
	}
	if len(d.Keywords) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.Join(d.Keywords, ", "))
	}
	return sb.String()
}

func (pr *playerResp) toMetadata(videoID string) engine.VideoMetadata {
	d := pr.VideoDetails
	secs, _ := strconv.ParseInt(d.LengthSeconds, 10, 64)
	m := engine.VideoMetadata{
		VideoID:         d.VideoID,
		Title:           d.Title,
		ChannelTitle:    d.Author,
		ChannelID:       d.ChannelID,
		Description:     d.ShortDescription,
		Tags:            d.Keywords,
		DurationSeconds: secs,
		ViewCount:       parseCount(d.ViewCount),
	}
	if secs > 0 {
		m.Duration = "PT" + strconv.FormatInt(secs, 10) + "S"
	}
	if m.VideoID == "" {
		m.VideoID = videoID
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if n := len(d.Thumbnail.Thumbnails); n > 0 {
		m.ThumbnailURL = d.Thumbnail.Thumbnails[n-1].URL
	}
	if pr.Microformat != nil {
		if t, err := time.Parse("2006-01-02", pr.Microformat.PlayerMicroformatRenderer.PublishDate); err == nil {
			m.PublishedAt = t
		}
	}
	return m
}
