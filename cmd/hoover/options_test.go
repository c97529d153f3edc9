package main

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_hoover/internal/engine"
)

func TestParseOptionsDefaults(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "")
	t.Setenv("CATALOG_FILE", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("LOG_FILE", "")
	for _, k := range []string{"ITEM_TIMEOUT", "BATCH_CONCURRENCY", "MIN_CONFIDENCE", "BATCH_TIMEOUT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	opts, err := parseOptions([]string{"dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", opts.Args.Video)
	assert.Equal(t, "markdown", opts.Format)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.Equal(t, 4, opts.Concurrency)
	assert.InDelta(t, 0.3, opts.MinConfidence, 1e-9)
	assert.False(t, opts.NoFallback)
	assert.Zero(t, opts.BatchTimeout)
	require.NoError(t, opts.validate())
}

func TestParseOptionsBatch(t *testing.T) {
	opts, err := parseOptions([]string{"--batch", "videos.txt", "-f", "json", "--csv", "out.csv", "-c", "8", "--no-fallback"})
	require.NoError(t, err)
	assert.Equal(t, "videos.txt", opts.Batch)
	assert.Equal(t, "json", opts.Format)
	assert.Equal(t, "out.csv", opts.CSV)
	assert.Equal(t, 8, opts.Concurrency)
	assert.True(t, opts.NoFallback)
	require.NoError(t, opts.validate())
}

func TestParseOptionsEnvKey(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "from-env")
	opts, err := parseOptions([]string{"abc"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", opts.APIKey)
}

func TestParseOptionsRejectsUnknownFormat(t *testing.T) {
	_, err := parseOptions([]string{"--format", "pdf", "abc"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *options {
		o := &options{Concurrency: 4, MinConfidence: 0.3}
		o.Args.Video = "abc"
		return o
	}

	tests := []struct {
		name    string
		mutate  func(*options)
		wantErr bool
	}{
		{"video only", func(*options) {}, false},
		{"nothing", func(o *options) { o.Args.Video = "" }, true},
		{"both", func(o *options) { o.Batch = "f.txt" }, true},
		{"zero concurrency", func(o *options) { o.Concurrency = 0 }, true},
		{"confidence above one", func(o *options) { o.MinConfidence = 1.5 }, true},
		{"negative confidence", func(o *options) { o.MinConfidence = -0.1 }, true},
		{"zero confidence", func(o *options) { o.MinConfidence = 0 }, false},
		{"negative batch timeout", func(o *options) { o.BatchTimeout = -time.Second }, true},
		{"setup needs no video", func(o *options) { o.Args.Video = ""; o.Setup = true }, false},
		{"version needs no video", func(o *options) { o.Args.Video = ""; o.Version = true }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base()
			tt.mutate(o)
			err := o.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEngineConfigReadsEnv(t *testing.T) {
	t.Setenv("MIN_CONFIDENCE", "0")
	t.Setenv("BATCH_CONCURRENCY", "2")
	t.Setenv("QUOTA_RATE", "0")
	t.Setenv("WEIGHT_TAG", "0.7")
	t.Setenv("OCCURRENCE_BOOST", "0")
	t.Setenv("FALLBACK_MIN_DESCRIPTION", "50")

	opts, err := parseOptions([]string{"dQw4w9WgXcQ"})
	require.NoError(t, err)
	require.NoError(t, opts.validate())

	c := engineConfig(opts, "key-1", "")
	assert.Equal(t, "key-1", c.YouTubeAPIKey)
	assert.Zero(t, c.MinConfidence)
	assert.Equal(t, 2, c.BatchConcurrency)
	assert.Zero(t, c.QuotaRate)
	assert.InDelta(t, 0.7, c.WeightTag, 1e-9)
	assert.Zero(t, c.OccurrenceBoost)
	assert.Equal(t, 50, c.FallbackMinDescription)
	assert.True(t, c.FallbackEnabled)

	defer engine.Init(engine.Config{})
	engine.Init(c)
	assert.Zero(t, engine.Cfg.MinConfidence)
	assert.Zero(t, engine.Cfg.QuotaRate)
}

func TestEngineConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("MIN_CONFIDENCE", "0")
	t.Setenv("FALLBACK_ENABLED", "true")

	opts, err := parseOptions([]string{"--min-confidence", "0.5", "--no-fallback", "dQw4w9WgXcQ"})
	require.NoError(t, err)

	c := engineConfig(opts, "", "")
	assert.InDelta(t, 0.5, c.MinConfidence, 1e-9)
	assert.False(t, c.FallbackEnabled)
}
