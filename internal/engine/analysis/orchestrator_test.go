package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_hoover/internal/engine"
	"github.com/anatolykoptev/go_hoover/internal/engine/extract"
)

const (
	idA = "aaaaaaaaaaa"
	idB = "bbbbbbbbbbb"
	idC = "ccccccccccc"
)

var longDescription = "In this tutorial we build a REST API in Go with PostgreSQL and Redis, " +
	"containerize it with Docker and deploy it to Kubernetes. " + strings.Repeat("More details below. ", 12)

// fakeMeta serves canned metadata and counts calls per video.
type fakeMeta struct {
	mu     sync.Mutex
	calls  map[string]int
	videos map[string]engine.VideoMetadata
	errs   map[string]error
	delay  map[string]time.Duration
}

func newFakeMeta() *fakeMeta {
	return &fakeMeta{
		calls:  map[string]int{},
		videos: map[string]engine.VideoMetadata{},
		errs:   map[string]error{},
		delay:  map[string]time.Duration{},
	}
}

func (f *fakeMeta) FetchMetadata(ctx context.Context, id string) (engine.VideoMetadata, error) {
	f.mu.Lock()
	f.calls[id]++
	d := f.delay[id]
	err := f.errs[id]
	m, ok := f.videos[id]
	f.mu.Unlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return engine.VideoMetadata{}, ctx.Err()
		}
	}
	if err != nil {
		return engine.VideoMetadata{}, err
	}
	if !ok {
		return engine.VideoMetadata{}, fmt.Errorf("%w: %s", engine.ErrNotFound, id)
	}
	return m, nil
}

func (f *fakeMeta) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakeContent struct {
	calls atomic.Int32
	text  string
	err   error
}

func (f *fakeContent) FetchPageText(_ context.Context, _ string) (string, error) {
	f.calls.Add(1)
	return f.text, f.err
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]engine.VideoMetadata
}

func (c *mapCache) Load(_ context.Context, id string) (engine.VideoMetadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.m[id]
	return m, ok
}

func (c *mapCache) Store(_ context.Context, m engine.VideoMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[m.VideoID] = m
}

// missCache also remembers not-found answers.
type missCache struct {
	mapCache
	missing map[string]bool
}

func (c *missCache) LoadMissing(_ context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.missing[id]
}

func (c *missCache) StoreMissing(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.missing[id] = true
}

func testOptions() Options {
	return Options{
		Concurrency:            4,
		ItemTimeout:            2 * time.Second,
		FallbackEnabled:        true,
		FallbackMinDescription: 200,
	}
}

func newTestOrchestrator(meta MetadataSource, content ContentSource, opts Options) *Orchestrator {
	ex := extract.NewExtractor(extract.MustLoadCatalog(), extract.DefaultScoring())
	return New(meta, content, ex, opts)
}

func names(r *AnalysisResult, c extract.Category) []string {
	var out []string
	for _, e := range r.Entities[c] {
		out = append(out, e.Name)
	}
	return out
}

func TestAnalyzeLongDescriptionSkipsFallback(t *testing.T) {
	meta := newFakeMeta()
	meta.videos[idA] = engine.VideoMetadata{Title: "Go microservices", Description: longDescription, Tags: []string{"docker"}}
	content := &fakeContent{text: "terraform everywhere"}

	o := newTestOrchestrator(meta, content, testOptions())
	res, err := o.Analyze(context.Background(), "https://www.youtube.com/watch?v="+idA)
	require.NoError(t, err)

	assert.Equal(t, int32(0), content.calls.Load())
	assert.False(t, res.UsedFallbackContent)
	assert.Equal(t, MethodDescription, res.ExtractionMethod)
	assert.Equal(t, idA, res.Metadata.VideoID)
	assert.Contains(t, names(res, extract.CategoryPlatform), "Kubernetes")
	assert.Contains(t, names(res, extract.CategoryTool), "Docker")
	assert.NotContains(t, names(res, extract.CategoryTool), "Terraform")
	assert.Equal(t, res.Summary.TotalEntities, countEntities(res))
	assert.False(t, res.AnalyzedAt.IsZero())
}

func countEntities(r *AnalysisResult) int {
	n := 0
	for _, es := range r.Entities {
		n += len(es)
	}
	return n
}

func TestAnalyzeShortDescriptionUsesFallback(t *testing.T) {
	meta := newFakeMeta()
	meta.videos[idA] = engine.VideoMetadata{Title: "Weekend stream", Description: "link below"}
	content := &fakeContent{text: "Today we write Terraform modules for infrastructure on AWS."}

	o := newTestOrchestrator(meta, content, testOptions())
	res, err := o.Analyze(context.Background(), idA)
	require.NoError(t, err)

	assert.Equal(t, int32(1), content.calls.Load())
	assert.True(t, res.UsedFallbackContent)
	assert.Equal(t, MethodPlusCrawling, res.ExtractionMethod)

	var found bool
	for _, e := range res.Entities[extract.CategoryTool] {
		if e.Name == "Terraform" {
			found = true
			assert.Equal(t, extract.SourceCrawl, e.Source)
			assert.Equal(t, []extract.Field{extract.FieldFallback}, e.Fields)
		}
	}
	assert.True(t, found, "Terraform from fallback content")
}

func TestAnalyzeFallbackFailureIsNotFatal(t *testing.T) {
	meta := newFakeMeta()
	meta.videos[idA] = engine.VideoMetadata{Title: "Docker in five minutes", Description: ""}
	content := &fakeContent{err: fmt.Errorf("%w: status 503", engine.ErrFetch)}

	o := newTestOrchestrator(meta, content, testOptions())
	res, err := o.Analyze(context.Background(), idA)
	require.NoError(t, err)

	assert.Equal(t, int32(1), content.calls.Load())
	assert.False(t, res.UsedFallbackContent)
	assert.Equal(t, MethodDescription, res.ExtractionMethod)
	assert.Contains(t, names(res, extract.CategoryTool), "Docker")
}

func TestAnalyzeEmptyFallbackTextIgnored(t *testing.T) {
	meta := newFakeMeta()
	meta.videos[idA] = engine.VideoMetadata{Title: "Short one"}
	content := &fakeContent{text: "   \n"}

	o := newTestOrchestrator(meta, content, testOptions())
	res, err := o.Analyze(context.Background(), idA)
	require.NoError(t, err)
	assert.False(t, res.UsedFallbackContent)
}

func TestAnalyzeFallbackDisabled(t *testing.T) {
	meta := newFakeMeta()
	meta.videos[idA] = engine.VideoMetadata{Title: "Short one"}
	content := &fakeContent{text: "terraform"}

	opts := testOptions()
	opts.FallbackEnabled = false
	o := newTestOrchestrator(meta, content, opts)
	_, err := o.Analyze(context.Background(), idA)
	require.NoError(t, err)
	assert.Equal(t, int32(0), content.calls.Load())

	// nil content source behaves the same.
	o = newTestOrchestrator(meta, nil, testOptions())
	res, err := o.Analyze(context.Background(), idA)
	require.NoError(t, err)
	assert.False(t, res.UsedFallbackContent)
}

func TestAnalyzeInvalidIdentifierDoesNoIO(t *testing.T) {
	meta := newFakeMeta()
	content := &fakeContent{}
	o := newTestOrchestrator(meta, content, testOptions())

	for _, in := range []string{"", "not a video", "https://vimeo.com/12345", "https://www.youtube.com/watch?v=short"} {
		_, err := o.Analyze(context.Background(), in)
		require.Error(t, err, in)
		assert.ErrorIs(t, err, engine.ErrInvalidIdentifier, in)
	}
	assert.Equal(t, 0, meta.total())
	assert.Equal(t, int32(0), content.calls.Load())
}

func TestAnalyzeNotFound(t *testing.T) {
	meta := newFakeMeta()
	o := newTestOrchestrator(meta, nil, testOptions())

	_, err := o.Analyze(context.Background(), idB)
	require.Error(t, err)
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))
}

func TestAnalyzeItemTimeout(t *testing.T) {
	meta := newFakeMeta()
	meta.videos[idA] = engine.VideoMetadata{Title: "slow"}
	meta.delay[idA] = 5 * time.Second

	opts := testOptions()
	opts.ItemTimeout = 30 * time.Millisecond
	o := newTestOrchestrator(meta, nil, opts)

	start := time.Now()
	_, err := o.Analyze(context.Background(), idA)
	require.Error(t, err)
	assert.Equal(t, engine.KindTimeout, engine.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAnalyzeQuotaExhausted(t *testing.T) {
	meta := newFakeMeta()
	meta.videos[idA] = engine.VideoMetadata{Title: "one"}
	meta.videos[idB] = engine.VideoMetadata{Title: "two"}

	opts := testOptions()
	opts.Quota = NewQuota(0, 1, 1, time.Hour, 0)
	o := newTestOrchestrator(meta, nil, opts)

	_, err := o.Analyze(context.Background(), idA)
	require.NoError(t, err)
	_, err = o.Analyze(context.Background(), idB)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrQuotaExceeded)
	assert.Equal(t, engine.KindQuotaExceeded, engine.KindOf(err))
	assert.Equal(t, 1, meta.total())
}

func TestAnalyzeCacheSkipsSourceAndQuota(t *testing.T) {
	meta := newFakeMeta()
	meta.videos[idA] = engine.VideoMetadata{Title: "cached", Description: longDescription}

	opts := testOptions()
	opts.Cache = &mapCache{m: map[string]engine.VideoMetadata{}}
	opts.Quota = NewQuota(0, 1, 1, time.Hour, 0)
	o := newTestOrchestrator(meta, nil, opts)

	first, err := o.Analyze(context.Background(), idA)
	require.NoError(t, err)
	second, err := o.Analyze(context.Background(), "https://youtu.be/"+idA)
	require.NoError(t, err)

	assert.Equal(t, 1, meta.total())
	assert.Equal(t, first.Entities, second.Entities)
	assert.Equal(t, 0, opts.Quota.Remaining())
}

func TestAnalyzeRemembersNotFound(t *testing.T) {
	meta := newFakeMeta()
	opts := testOptions()
	opts.Cache = &missCache{mapCache: mapCache{m: map[string]engine.VideoMetadata{}}, missing: map[string]bool{}}
	o := newTestOrchestrator(meta, nil, opts)

	_, err := o.Analyze(context.Background(), idB)
	require.ErrorIs(t, err, engine.ErrNotFound)
	_, err = o.Analyze(context.Background(), idB)
	require.ErrorIs(t, err, engine.ErrNotFound)
	assert.Equal(t, 1, meta.total())
}

func TestAnalyzeDeterministic(t *testing.T) {
	meta := newFakeMeta()
	meta.videos[idA] = engine.VideoMetadata{Title: "Go and Docker", Description: longDescription, Tags: []string{"golang", "kubernetes"}}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	opts := testOptions()
	opts.Now = func() time.Time { return fixed }
	o := newTestOrchestrator(meta, nil, opts)

	a, err := o.Analyze(context.Background(), idA)
	require.NoError(t, err)
	b, err := o.Analyze(context.Background(), idA)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, fixed, a.AnalyzedAt)
}

func TestWithContextErr(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	plain := errors.New("connection reset")
	assert.Same(t, plain, withContextErr(ctx, plain))

	cancel()
	err := withContextErr(ctx, plain)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestScoringFromConfig(t *testing.T) {
	c := engine.DefaultConfig()
	assert.Equal(t, extract.DefaultScoring(), ScoringFromConfig(&c))

	o := OptionsFromConfig(&c)
	assert.True(t, o.FallbackEnabled)
	assert.Equal(t, 200, o.FallbackMinDescription)
}
