package engine

import "github.com/anatolykoptev/go-kit/env"

// ConfigFromEnv reads every engine setting from the environment on top of
// DefaultConfig. The MCP server and the CLI share it so the same keys mean
// the same thing in both.
func ConfigFromEnv() Config {
	c := DefaultConfig()
	c.YouTubeAPIKey = env.Str("YOUTUBE_API_KEY", "")
	c.YouTubeAPIKeyFallback = env.Str("YOUTUBE_API_KEY_FALLBACK", "")
	c.YouTubeAPIBase = env.Str("YOUTUBE_API_BASE", "")
	c.InnertubeBase = env.Str("INNERTUBE_BASE", "")
	c.FetchTimeout = env.Duration("FETCH_TIMEOUT", c.FetchTimeout)
	c.MaxContentChars = env.Int("MAX_CONTENT_CHARS", c.MaxContentChars)
	c.CatalogFile = env.Str("CATALOG_FILE", "")

	c.MinConfidence = env.Float("MIN_CONFIDENCE", c.MinConfidence)
	c.WeightTitle = env.Float("WEIGHT_TITLE", c.WeightTitle)
	c.WeightDescription = env.Float("WEIGHT_DESCRIPTION", c.WeightDescription)
	c.WeightTag = env.Float("WEIGHT_TAG", c.WeightTag)
	c.WeightFallback = env.Float("WEIGHT_FALLBACK", c.WeightFallback)
	c.OccurrenceBoost = env.Float("OCCURRENCE_BOOST", c.OccurrenceBoost)
	c.MaxOccurrenceBoost = env.Float("MAX_OCCURRENCE_BOOST", c.MaxOccurrenceBoost)
	c.ContextBoost = env.Float("CONTEXT_BOOST", c.ContextBoost)
	c.AmbiguityPenalty = env.Float("AMBIGUITY_PENALTY", c.AmbiguityPenalty)
	c.ContextWindow = env.Int("CONTEXT_WINDOW", c.ContextWindow)

	c.FallbackEnabled = env.Str("FALLBACK_ENABLED", "true") != "false"
	c.FallbackMinDescription = env.Int("FALLBACK_MIN_DESCRIPTION", c.FallbackMinDescription)
	c.BatchConcurrency = env.Int("BATCH_CONCURRENCY", c.BatchConcurrency)
	c.ItemTimeout = env.Duration("ITEM_TIMEOUT", c.ItemTimeout)

	c.QuotaRate = env.Float("QUOTA_RATE", c.QuotaRate)
	c.QuotaBurst = env.Int("QUOTA_BURST", c.QuotaBurst)
	c.QuotaLimit = env.Int("QUOTA_LIMIT", c.QuotaLimit)
	c.QuotaWindow = env.Duration("QUOTA_WINDOW", c.QuotaWindow)
	c.QuotaMaxWait = env.Duration("QUOTA_MAX_WAIT", c.QuotaMaxWait)

	c.CacheMaxEntries = env.Int("CACHE_MAX_ENTRIES", c.CacheMaxEntries)
	c.CacheTTL = env.Duration("CACHE_TTL", c.CacheTTL)
	c.CacheCleanupInterval = env.Duration("CACHE_CLEANUP_INTERVAL", c.CacheCleanupInterval)
	return c
}
