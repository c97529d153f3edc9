package analysis

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anatolykoptev/go_hoover/internal/engine"
)

// AnalyzeBatch analyses inputs with bounded concurrency. One item's failure
// never aborts the others; the result keeps input order.
func (o *Orchestrator) AnalyzeBatch(ctx context.Context, inputs []string) BatchResult {
	start := time.Now()
	engine.IncrBatch(len(inputs))

	items := make([]BatchItem, len(inputs))
	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			items[i] = o.analyzeItem(ctx, in)
			return nil
		})
	}
	_ = g.Wait()

	out := BatchResult{Items: items}
	for _, it := range items {
		if it.OK() {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	slog.Info("analysis: batch done",
		slog.Int("items", len(items)),
		slog.Int("succeeded", out.Succeeded),
		slog.Int("failed", out.Failed),
		slog.Duration("elapsed", time.Since(start)))
	return out
}

func (o *Orchestrator) analyzeItem(ctx context.Context, input string) BatchItem {
	res, err := o.Analyze(ctx, input)
	if err != nil {
		return BatchItem{Input: input, Error: engine.NewAnalysisError(input, err)}
	}
	return BatchItem{Input: input, Result: res}
}
