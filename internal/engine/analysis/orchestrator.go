package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anatolykoptev/go_hoover/internal/engine"
	"github.com/anatolykoptev/go_hoover/internal/engine/extract"
)

// MetadataSource fetches video metadata from the provider API.
type MetadataSource interface {
	FetchMetadata(ctx context.Context, videoID string) (engine.VideoMetadata, error)
}

// ContentSource fetches readable text for a video's public page. Used only
// when the description is too thin to extract from.
type ContentSource interface {
	FetchPageText(ctx context.Context, videoID string) (string, error)
}

// MetadataCache is consulted before the quota is charged.
type MetadataCache interface {
	Load(ctx context.Context, videoID string) (engine.VideoMetadata, bool)
	Store(ctx context.Context, m engine.VideoMetadata)
}

// MissingCache is an optional extension of MetadataCache that remembers
// not-found answers.
type MissingCache interface {
	LoadMissing(ctx context.Context, videoID string) bool
	StoreMissing(ctx context.Context, videoID string)
}

// Options tune an Orchestrator.
type Options struct {
	Concurrency            int
	ItemTimeout            time.Duration // 0 = no per-item deadline
	FallbackEnabled        bool
	FallbackMinDescription int // description runes below which the page is fetched
	Quota                  *Quota
	Cache                  MetadataCache
	Now                    func() time.Time
}

// OptionsFromConfig maps engine configuration to orchestrator options.
// Quota and Cache are left for the caller to wire.
func OptionsFromConfig(c *engine.Config) Options {
	return Options{
		Concurrency:            c.BatchConcurrency,
		ItemTimeout:            c.ItemTimeout,
		FallbackEnabled:        c.FallbackEnabled,
		FallbackMinDescription: c.FallbackMinDescription,
	}
}

// ScoringFromConfig maps engine configuration to extraction scoring.
func ScoringFromConfig(c *engine.Config) extract.Scoring {
	return extract.Scoring{
		MinConfidence:      c.MinConfidence,
		WeightTitle:        c.WeightTitle,
		WeightDescription:  c.WeightDescription,
		WeightTag:          c.WeightTag,
		WeightFallback:     c.WeightFallback,
		OccurrenceBoost:    c.OccurrenceBoost,
		MaxOccurrenceBoost: c.MaxOccurrenceBoost,
		ContextBoost:       c.ContextBoost,
		AmbiguityPenalty:   c.AmbiguityPenalty,
		ContextWindow:      c.ContextWindow,
	}
}

// Orchestrator runs analyses. Safe for concurrent use; holds no per-analysis
// state.
type Orchestrator struct {
	meta    MetadataSource
	content ContentSource
	ex      *extract.Extractor
	opts    Options
}

// New builds an orchestrator. content may be nil to disable fallback.
func New(meta MetadataSource, content ContentSource, ex *extract.Extractor, opts Options) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{meta: meta, content: content, ex: ex, opts: opts}
}

// Extractor returns the extractor used for every analysis.
func (o *Orchestrator) Extractor() *extract.Extractor { return o.ex }

// Analyze analyses one video given its URL or bare ID.
func (o *Orchestrator) Analyze(ctx context.Context, input string) (*AnalysisResult, error) {
	engine.IncrAnalyses()
	res, err := o.analyze(ctx, input)
	if err != nil {
		engine.IncrAnalysisFailure()
	}
	return res, err
}

func (o *Orchestrator) analyze(ctx context.Context, input string) (*AnalysisResult, error) {
	id, err := engine.ParseVideoID(input)
	if err != nil {
		o.transition(input, StateFailed, slog.Any("error", err))
		return nil, err
	}

	if o.opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.ItemTimeout)
		defer cancel()
	}

	o.transition(id, StateFetching)
	meta, err := o.fetchMetadata(ctx, id)
	if err != nil {
		err = withContextErr(ctx, err)
		o.transition(id, StateFailed, slog.Any("error", err))
		return nil, fmt.Errorf("metadata %s: %w", id, err)
	}

	o.transition(id, StateExtracting)
	segs := corpus(meta)
	x := o.ex.Extract(segs)

	usedFallback := false
	if o.needsFallback(meta) {
		o.transition(id, StateFallingBack, slog.Int("description_runes", utf8.RuneCountInString(strings.TrimSpace(meta.Description))))
		text, ferr := o.content.FetchPageText(ctx, id)
		switch {
		case ctx.Err() != nil:
			o.transition(id, StateFailed, slog.Any("error", ctx.Err()))
			return nil, fmt.Errorf("fallback %s: %w", id, ctx.Err())
		case ferr != nil:
			slog.Warn("analysis: fallback content unavailable", slog.String("video_id", id), slog.Any("error", ferr))
		case strings.TrimSpace(text) != "":
			segs = append(segs, extract.Segment{Field: extract.FieldFallback, Text: text})
			x = o.ex.Extract(segs)
			usedFallback = true
		}
	}
	engine.IncrExtractions()

	res := newResult(meta, x, usedFallback, o.opts.Now())
	o.transition(id, StateResolved,
		slog.Int("entities", res.Summary.TotalEntities),
		slog.Bool("fallback", usedFallback))
	return res, nil
}

func (o *Orchestrator) fetchMetadata(ctx context.Context, id string) (engine.VideoMetadata, error) {
	missing, _ := o.opts.Cache.(MissingCache)
	if o.opts.Cache != nil {
		if m, ok := o.opts.Cache.Load(ctx, id); ok {
			return m, nil
		}
		if missing != nil && missing.LoadMissing(ctx, id) {
			return engine.VideoMetadata{}, fmt.Errorf("%w: %s (cached)", engine.ErrNotFound, id)
		}
	}
	if o.opts.Quota != nil {
		if err := o.opts.Quota.Acquire(ctx); err != nil {
			if errors.Is(err, engine.ErrQuotaExceeded) {
				engine.IncrQuotaRejection()
			}
			return engine.VideoMetadata{}, err
		}
	}
	var m engine.VideoMetadata
	err := engine.TrackOperation(ctx, "metadata", func(ctx context.Context) error {
		var err error
		m, err = o.meta.FetchMetadata(ctx, id)
		return err
	})
	if err != nil {
		if missing != nil && errors.Is(err, engine.ErrNotFound) {
			missing.StoreMissing(ctx, id)
		}
		return engine.VideoMetadata{}, err
	}
	if m.VideoID == "" {
		m.VideoID = id
	}
	if o.opts.Cache != nil {
		o.opts.Cache.Store(ctx, m)
	}
	return m, nil
}

func (o *Orchestrator) needsFallback(m engine.VideoMetadata) bool {
	if !o.opts.FallbackEnabled || o.content == nil {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(m.Description)) < o.opts.FallbackMinDescription
}

// corpus splits metadata into scored segments: title, description and one
// segment per tag.
func corpus(m engine.VideoMetadata) []extract.Segment {
	segs := make([]extract.Segment, 0, len(m.Tags)+2)
	if strings.TrimSpace(m.Title) != "" {
		segs = append(segs, extract.Segment{Field: extract.FieldTitle, Text: m.Title})
	}
	if strings.TrimSpace(m.Description) != "" {
		segs = append(segs, extract.Segment{Field: extract.FieldDescription, Text: m.Description})
	}
	for _, t := range m.Tags {
		if strings.TrimSpace(t) != "" {
			segs = append(segs, extract.Segment{Field: extract.FieldTag, Text: t})
		}
	}
	return segs
}

// withContextErr makes a deadline or cancellation visible to errors.Is even
// when the source reported it as a plain transport error.
func withContextErr(ctx context.Context, err error) error {
	cerr := ctx.Err()
	if cerr == nil || errors.Is(err, cerr) {
		return err
	}
	return fmt.Errorf("%w: %v", cerr, err)
}

func (o *Orchestrator) transition(id string, s State, attrs ...slog.Attr) {
	args := make([]any, 0, len(attrs)+2)
	args = append(args, slog.String("video_id", id), slog.String("state", string(s)))
	for _, a := range attrs {
		args = append(args, a)
	}
	slog.Debug("analysis: state", args...)
}

// WithItemTimeout returns a copy of o using d as the per-item deadline.
func (o *Orchestrator) WithItemTimeout(d time.Duration) *Orchestrator {
	c := *o
	c.opts.ItemTimeout = d
	return &c
}
