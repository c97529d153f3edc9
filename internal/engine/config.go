package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	YouTubeAPIKey         string
	YouTubeAPIKeyFallback string
	YouTubeAPIBase        string // overridable for tests; default ytDataAPIBase
	InnertubeBase         string // overridable for tests; default https://www.youtube.com
	FetchTimeout          time.Duration
	MaxContentChars       int
	CatalogFile           string // empty = embedded catalog

	// Scoring knobs, see extract.Scoring.
	MinConfidence      float64
	WeightTitle        float64
	WeightDescription  float64
	WeightTag          float64
	WeightFallback     float64
	OccurrenceBoost    float64
	MaxOccurrenceBoost float64
	ContextBoost       float64
	AmbiguityPenalty   float64
	ContextWindow      int

	// Orchestrator knobs.
	FallbackEnabled        bool
	FallbackMinDescription int
	BatchConcurrency       int
	ItemTimeout            time.Duration

	// Metadata API budget shared by all concurrent analyses.
	QuotaRate    float64 // calls per second
	QuotaBurst   int
	QuotaLimit   int // calls per QuotaWindow (0 = unlimited)
	QuotaWindow  time.Duration
	QuotaMaxWait time.Duration

	CacheMaxEntries      int
	CacheTTL             time.Duration
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client

	fromDefaults bool // built by DefaultConfig; tunables are final
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, analysis).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
//
// A Config built from DefaultConfig keeps every tunable as given, zero
// included: MIN_CONFIDENCE=0 keeps everything, QUOTA_RATE=0 disables rate
// limiting. A hand-built Config gets defaults for its zero tunables. Either
// way, settings that cannot work at zero (timeouts, window sizes, the HTTP
// client) are filled in.
func Init(c Config) {
	if !c.fromDefaults {
		fillTunables(&c)
	}
	fillRequired(&c)
	cfg = c
	Cfg = &cfg
}

// DefaultConfig returns the documented defaults. Start from it and override
// fields; see Init.
func DefaultConfig() Config {
	c := Config{
		FallbackEnabled:      true,
		QuotaLimit:           10000,
		CacheMaxEntries:      1000,
		CacheTTL:             6 * time.Hour,
		CacheCleanupInterval: 5 * time.Minute,
		fromDefaults:         true,
	}
	fillTunables(&c)
	fillRequired(&c)
	return c
}

// fillTunables sets defaults for knobs where zero is a legitimate choice.
func fillTunables(c *Config) {
	setFloat(&c.MinConfidence, 0.3)
	setFloat(&c.WeightTitle, 0.9)
	setFloat(&c.WeightDescription, 0.8)
	setFloat(&c.WeightTag, 0.95)
	setFloat(&c.WeightFallback, 0.5)
	setFloat(&c.OccurrenceBoost, 0.02)
	setFloat(&c.MaxOccurrenceBoost, 0.1)
	setFloat(&c.ContextBoost, 0.05)
	setFloat(&c.AmbiguityPenalty, 0.35)
	setFloat(&c.QuotaRate, 5)
	if c.FallbackMinDescription <= 0 {
		c.FallbackMinDescription = 200
	}
	if c.QuotaMaxWait <= 0 {
		c.QuotaMaxWait = 10 * time.Second
	}
}

func setFloat(f *float64, def float64) {
	if *f <= 0 {
		*f = def
	}
}

// fillRequired sets defaults for settings that are meaningless at zero.
func fillRequired(c *Config) {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.MaxContentChars <= 0 {
		c.MaxContentChars = 20000
	}
	if c.ContextWindow <= 0 {
		c.ContextWindow = 48
	}
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = 4
	}
	if c.ItemTimeout <= 0 {
		c.ItemTimeout = 30 * time.Second
	}
	if c.QuotaBurst <= 0 {
		c.QuotaBurst = 5
	}
	if c.QuotaWindow <= 0 {
		c.QuotaWindow = 24 * time.Hour
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 6 * time.Hour
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
}
