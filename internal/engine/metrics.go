package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	Analyses         atomic.Int64
	AnalysisFailures atomic.Int64
	BatchRuns        atomic.Int64
	BatchItems       atomic.Int64
	MetadataRequests atomic.Int64
	MetadataErrors   atomic.Int64
	FallbackFetches  atomic.Int64
	FallbackErrors   atomic.Int64
	FetchRequests    atomic.Int64
	FetchErrors      atomic.Int64
	QuotaRejections  atomic.Int64
	Extractions      atomic.Int64
}

// metricKeys fixes the output order of FormatMetrics.
var metricKeys = []string{
	"analyses", "analysis_failures",
	"batch_runs", "batch_items",
	"metadata_requests", "metadata_errors",
	"fallback_fetches", "fallback_errors",
	"fetch_requests", "fetch_errors",
	"quota_rejections", "extractions",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"analyses":          metrics.Analyses.Load(),
		"analysis_failures": metrics.AnalysisFailures.Load(),
		"batch_runs":        metrics.BatchRuns.Load(),
		"batch_items":       metrics.BatchItems.Load(),
		"metadata_requests": metrics.MetadataRequests.Load(),
		"metadata_errors":   metrics.MetadataErrors.Load(),
		"fallback_fetches":  metrics.FallbackFetches.Load(),
		"fallback_errors":   metrics.FallbackErrors.Load(),
		"fetch_requests":    metrics.FetchRequests.Load(),
		"fetch_errors":      metrics.FetchErrors.Load(),
		"quota_rejections":  metrics.QuotaRejections.Load(),
		"extractions":       metrics.Extractions.Load(),
		"cache_hits":        hits,
		"cache_misses":      misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for analysis/ sub-package.
func IncrAnalyses()        { metrics.Analyses.Add(1) }
func IncrAnalysisFailure() { metrics.AnalysisFailures.Add(1) }
func IncrQuotaRejection()  { metrics.QuotaRejections.Add(1) }
func IncrExtractions()     { metrics.Extractions.Add(1) }

// IncrBatch records one batch run of n items.
func IncrBatch(n int) {
	metrics.BatchRuns.Add(1)
	metrics.BatchItems.Add(int64(n))
}

// Incrementors for sources/ sub-package.
func IncrMetadataRequests() { metrics.MetadataRequests.Add(1) }
func IncrMetadataErrors()   { metrics.MetadataErrors.Add(1) }
func IncrFallbackFetches()  { metrics.FallbackFetches.Add(1) }
func IncrFallbackErrors()   { metrics.FallbackErrors.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
