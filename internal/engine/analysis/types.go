package analysis

import (
	"math"
	"time"

	"github.com/anatolykoptev/go_hoover/internal/engine"
	"github.com/anatolykoptev/go_hoover/internal/engine/extract"
)

// Extraction methods recorded on results.
const (
	MethodDescription  = "youtube_api_description"
	MethodPlusCrawling = "youtube_api_plus_crawling"
)

// AnalysisResult is one analysed video. Never mutated after Analyze returns.
type AnalysisResult struct {
	Metadata            engine.VideoMetadata                           `json:"metadata"`
	Entities            map[extract.Category][]extract.ExtractedEntity `json:"entities"`
	URLs                []string                                       `json:"urls"`
	Emails              []string                                       `json:"emails"`
	Hashtags            []string                                       `json:"hashtags"`
	Timestamps          []extract.Timestamp                            `json:"timestamps"`
	Repositories        []string                                       `json:"repositories"`
	Commands            []string                                       `json:"commands"`
	CodeSnippets        []extract.CodeSnippet                          `json:"code_snippets"`
	UsedFallbackContent bool                                           `json:"used_fallback_content"`
	ExtractionMethod    string                                         `json:"extraction_method"`
	AnalyzedAt          time.Time                                      `json:"analyzed_at"`
	Summary             Summary                                        `json:"summary"`
}

// Summary holds counts for quick display and CSV export.
type Summary struct {
	TotalEntities int                      `json:"total_entities"`
	ByCategory    map[extract.Category]int `json:"by_category"`
	URLs          int                      `json:"urls"`
	Repositories  int                      `json:"repositories"`
	Commands      int                      `json:"commands"`
	Timestamps    int                      `json:"timestamps"`
	CodeSnippets  int                      `json:"code_snippets"`
	Confidence    ConfidenceSummary        `json:"confidence"`
}

// ConfidenceSummary aggregates confidences. Means are 0 when there is
// nothing to average.
type ConfidenceSummary struct {
	EntityMean float64                      `json:"entity_mean"`
	EntityMin  float64                      `json:"entity_min"`
	EntityMax  float64                      `json:"entity_max"`
	ByCategory map[extract.Category]float64 `json:"by_category"` // non-empty categories only
	CodeMean   float64                      `json:"code_mean"`
}

// BatchItem is one input's outcome: exactly one of Result and Error is set.
type BatchItem struct {
	Input  string                `json:"input"`
	Result *AnalysisResult       `json:"result,omitempty"`
	Error  *engine.AnalysisError `json:"error,omitempty"`
}

// OK reports whether the item succeeded.
func (b BatchItem) OK() bool { return b.Error == nil && b.Result != nil }

// BatchResult preserves input order.
type BatchResult struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// State is a step of one analysis.
type State string

const (
	StateFetching    State = "fetching"
	StateExtracting  State = "extracting"
	StateFallingBack State = "falling_back"
	StateResolved    State = "resolved"
	StateFailed      State = "failed"
)

func newResult(meta engine.VideoMetadata, x extract.Extraction, usedFallback bool, now time.Time) *AnalysisResult {
	r := &AnalysisResult{
		Metadata:            meta,
		Entities:            x.Entities,
		URLs:                x.URLs,
		Emails:              x.Emails,
		Hashtags:            x.Hashtags,
		Timestamps:          x.Timestamps,
		Repositories:        x.Repositories,
		Commands:            x.Commands,
		CodeSnippets:        x.CodeSnippets,
		UsedFallbackContent: usedFallback,
		ExtractionMethod:    MethodDescription,
		AnalyzedAt:          now.UTC(),
	}
	if usedFallback {
		r.ExtractionMethod = MethodPlusCrawling
	}
	r.Summary = summarize(x)
	return r
}

func summarize(x extract.Extraction) Summary {
	s := Summary{
		ByCategory:   make(map[extract.Category]int, len(extract.AllCategories)),
		URLs:         len(x.URLs),
		Repositories: len(x.Repositories),
		Commands:     len(x.Commands),
		Timestamps:   len(x.Timestamps),
		CodeSnippets: len(x.CodeSnippets),
	}
	for _, c := range extract.AllCategories {
		n := len(x.Entities[c])
		s.ByCategory[c] = n
		s.TotalEntities += n
	}
	s.Confidence = confidenceSummary(x)
	return s
}

func confidenceSummary(x extract.Extraction) ConfidenceSummary {
	cs := ConfidenceSummary{ByCategory: make(map[extract.Category]float64)}
	var total float64
	n := 0
	for _, c := range extract.AllCategories {
		es := x.Entities[c]
		if len(es) == 0 {
			continue
		}
		var sum float64
		for _, e := range es {
			sum += e.Confidence
			if n == 0 || e.Confidence < cs.EntityMin {
				cs.EntityMin = e.Confidence
			}
			if e.Confidence > cs.EntityMax {
				cs.EntityMax = e.Confidence
			}
			n++
		}
		total += sum
		cs.ByCategory[c] = round3(sum / float64(len(es)))
	}
	if n > 0 {
		cs.EntityMean = round3(total / float64(n))
	}
	if len(x.CodeSnippets) > 0 {
		var sum float64
		for _, sn := range x.CodeSnippets {
			sum += sn.Confidence
		}
		cs.CodeMean = round3(sum / float64(len(x.CodeSnippets)))
	}
	return cs
}

func round3(f float64) float64 { return math.Round(f*1000) / 1000 }
