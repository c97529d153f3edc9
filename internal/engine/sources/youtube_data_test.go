package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_hoover/internal/engine"
)

const testVideoID = "dQw4w9WgXcQ"

const videosOK = `{"items":[{"id":"dQw4w9WgXcQ","snippet":{
  "publishedAt":"2024-05-01T12:30:00Z","channelId":"UC123","title":"Go in 12 minutes",
  "description":"Learn Go with Docker.","channelTitle":"Gopher TV","tags":["golang","docker"],
  "categoryId":"28","thumbnails":{"default":{"url":"https://i.ytimg.com/d.jpg"},"high":{"url":"https://i.ytimg.com/h.jpg"}}},
 "contentDetails":{"duration":"PT12M3S"},
 "statistics":{"viewCount":"1234","likeCount":"56"}}]}`

func quotaBody(reason string) string {
	return fmt.Sprintf(`{"error":{"code":403,"message":"The request cannot be completed.","errors":[{"reason":%q,"domain":"youtube.quota"}]}}`, reason)
}

func init() {
	engine.Init(engine.Config{})
}

func TestYouTubeFetchMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "snippet,statistics,contentDetails", r.URL.Query().Get("part"))
		assert.Equal(t, testVideoID, r.URL.Query().Get("id"))
		assert.Equal(t, "k1", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(videosOK))
	}))
	defer srv.Close()

	c := NewYouTubeClientWith(srv.URL, srv.Client(), "k1")
	m, err := c.FetchMetadata(context.Background(), testVideoID)
	require.NoError(t, err)

	assert.Equal(t, testVideoID, m.VideoID)
	assert.Equal(t, "Go in 12 minutes", m.Title)
	assert.Equal(t, "Gopher TV", m.ChannelTitle)
	assert.Equal(t, []string{"golang", "docker"}, m.Tags)
	assert.Equal(t, "PT12M3S", m.Duration)
	assert.Equal(t, int64(723), m.DurationSeconds)
	assert.Equal(t, int64(1234), m.ViewCount)
	assert.Equal(t, int64(56), m.LikeCount)
	assert.Zero(t, m.CommentCount)
	assert.Equal(t, "https://i.ytimg.com/h.jpg", m.ThumbnailURL)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), m.PublishedAt)
}

func TestYouTubeNotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"empty items", http.StatusOK, `{"items":[]}`},
		{"404", http.StatusNotFound, `{"error":{"code":404,"message":"not found"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewYouTubeClientWith(srv.URL, srv.Client(), "k1", "k2")
			_, err := c.FetchMetadata(context.Background(), testVideoID)
			assert.ErrorIs(t, err, engine.ErrNotFound)
			// not found is final; the fallback key is not tried
			assert.Equal(t, int32(1), hits.Load())
		})
	}
}

func TestYouTubeQuotaFallsBackToSecondKey(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		mu.Lock()
		keys = append(keys, key)
		mu.Unlock()
		if key == "primary" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(quotaBody("quotaExceeded")))
			return
		}
		_, _ = w.Write([]byte(videosOK))
	}))
	defer srv.Close()

	c := NewYouTubeClientWith(srv.URL, srv.Client(), "primary", "secondary")
	m, err := c.FetchMetadata(context.Background(), testVideoID)
	require.NoError(t, err)
	assert.Equal(t, "Go in 12 minutes", m.Title)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"primary", "secondary"}, keys)
}

func TestYouTubeQuotaExhaustedOnAllKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(quotaBody("dailyLimitExceeded")))
	}))
	defer srv.Close()

	c := NewYouTubeClientWith(srv.URL, srv.Client(), "a", "b")
	_, err := c.FetchMetadata(context.Background(), testVideoID)
	assert.ErrorIs(t, err, engine.ErrQuotaExceeded)
	assert.Equal(t, engine.KindQuotaExceeded, engine.KindOf(err))
}

func TestYouTubeOtherErrorsAreTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid.","errors":[{"reason":"keyInvalid"}]}}`))
	}))
	defer srv.Close()

	c := NewYouTubeClientWith(srv.URL, srv.Client(), "bad")
	_, err := c.FetchMetadata(context.Background(), testVideoID)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrTransient)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestYouTubeNoKeys(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := NewYouTubeClientWith(srv.URL, srv.Client(), "", "  ")
	_, err := c.FetchMetadata(context.Background(), testVideoID)
	assert.ErrorIs(t, err, engine.ErrTransient)
	assert.Zero(t, hits.Load())
}

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusNotFound, ``, engine.ErrNotFound},
		{http.StatusForbidden, quotaBody("quotaExceeded"), engine.ErrQuotaExceeded},
		{http.StatusForbidden, quotaBody("rateLimitExceeded"), engine.ErrQuotaExceeded},
		{http.StatusTooManyRequests, `slow down`, engine.ErrQuotaExceeded},
		{http.StatusForbidden, `{"error":{"code":403,"errors":[{"reason":"forbidden"}]}}`, engine.ErrTransient},
		{http.StatusBadGateway, `<html>bad gateway</html>`, engine.ErrTransient},
	}
	for _, tt := range tests {
		err := classifyAPIError(testVideoID, tt.status, []byte(tt.body))
		assert.ErrorIs(t, err, tt.want, "status %d body %s", tt.status, tt.body)
	}
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, int64(42), parseCount("42"))
	assert.Zero(t, parseCount(""))
	assert.Zero(t, parseCount("n/a"))
}
