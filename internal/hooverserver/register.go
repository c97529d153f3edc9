// Package hooverserver registers go_hoover's MCP tools.
package hooverserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_hoover/internal/engine"
	"github.com/anatolykoptev/go_hoover/internal/engine/analysis"
	"github.com/anatolykoptev/go_hoover/internal/engine/report"
	"github.com/anatolykoptev/go_hoover/internal/toolutil"
)

const (
	maxBatchVideos = 50
	maxTextBytes   = 200_000
	maxItemTimeout = 5 * time.Minute
)

// ToolCount is the number of tools RegisterTools adds.
const ToolCount = 4

// RegisterTools registers analyze_video, analyze_batch, extract_entities and
// list_categories on the given MCP server.
func RegisterTools(server *mcp.Server, o *analysis.Orchestrator) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_video",
		Description: "Analyse one YouTube video: fetch its metadata and extract technical entities (tools, languages, frameworks, platforms, companies, file formats, APIs/protocols, concepts) with confidence scores, plus URLs, repositories, install commands, hashtags and chapter markers. Falls back to page content when the description is thin. Optionally renders a markdown/json/html report.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, analyzeVideoHandler(o))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_batch",
		Description: "Analyse up to 50 YouTube videos concurrently. One failing video never aborts the rest; each item carries either a result or an error kind (invalid_identifier, not_found, quota_exceeded, transient, timeout). Results keep input order.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, analyzeBatchHandler(o))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "extract_entities",
		Description: "Extract technical entities, URLs, repositories, commands, hashtags and chapter markers from arbitrary text without calling YouTube. Useful for transcripts or pasted descriptions.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, extractEntitiesHandler(o))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_categories",
		Description: "List the entity categories and how many catalog entries each has.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, listCategoriesHandler(o))
}

func analyzeVideoHandler(o *analysis.Orchestrator) func(context.Context, *mcp.CallToolRequest, engine.AnalyzeVideoInput) (*mcp.CallToolResult, engine.VideoOut, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input engine.AnalyzeVideoInput) (*mcp.CallToolResult, engine.VideoOut, error) {
		if strings.TrimSpace(input.Video) == "" {
			return nil, engine.VideoOut{}, errors.New("video is required")
		}
		var format report.Format
		if input.Format != "" {
			f, err := report.ParseFormat(input.Format)
			if err != nil {
				return nil, engine.VideoOut{}, err
			}
			format = f
		}

		res, err := o.Analyze(ctx, input.Video)
		if err != nil {
			slog.Warn("analyze_video failed", slog.String("video", input.Video), slog.Any("error", err))
			return nil, engine.VideoOut{}, toolError(err)
		}

		out := videoOut(res)
		if format != "" {
			var buf bytes.Buffer
			if err := report.Render(&buf, res, format); err != nil {
				return nil, engine.VideoOut{}, fmt.Errorf("render report: %w", err)
			}
			out.Report = buf.String()
		}
		return nil, out, nil
	}
}

func analyzeBatchHandler(o *analysis.Orchestrator) func(context.Context, *mcp.CallToolRequest, engine.AnalyzeBatchInput) (*mcp.CallToolResult, engine.BatchOut, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input engine.AnalyzeBatchInput) (*mcp.CallToolResult, engine.BatchOut, error) {
		videos := toolutil.CleanInputs(input.Videos)
		if len(videos) == 0 {
			return nil, engine.BatchOut{}, errors.New("videos is required")
		}
		if len(videos) > maxBatchVideos {
			return nil, engine.BatchOut{}, fmt.Errorf("too many videos: %d (max %d)", len(videos), maxBatchVideos)
		}

		runner := o
		if input.TimeoutSeconds > 0 {
			runner = o.WithItemTimeout(toolutil.ClampSeconds(input.TimeoutSeconds, engine.Cfg.ItemTimeout, maxItemTimeout))
		}
		b := runner.AnalyzeBatch(ctx, videos)
		slog.Info("analyze_batch", slog.Int("videos", len(videos)), slog.Int("failed", b.Failed))
		return nil, batchOut(b), nil
	}
}

func extractEntitiesHandler(o *analysis.Orchestrator) func(context.Context, *mcp.CallToolRequest, engine.ExtractEntitiesInput) (*mcp.CallToolResult, engine.ExtractionOut, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, input engine.ExtractEntitiesInput) (*mcp.CallToolResult, engine.ExtractionOut, error) {
		if strings.TrimSpace(input.Text) == "" && strings.TrimSpace(input.Title) == "" && len(input.Tags) == 0 {
			return nil, engine.ExtractionOut{}, errors.New("text is required")
		}
		if len(input.Text) > maxTextBytes {
			return nil, engine.ExtractionOut{}, fmt.Errorf("text too long: %d bytes (max %d)", len(input.Text), maxTextBytes)
		}
		engine.IncrExtractions()
		x := o.Extractor().Extract(segments(input))
		return nil, extractionOut(x), nil
	}
}

func listCategoriesHandler(o *analysis.Orchestrator) func(context.Context, *mcp.CallToolRequest, engine.ListCategoriesInput) (*mcp.CallToolResult, engine.CategoriesOut, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ engine.ListCategoriesInput) (*mcp.CallToolResult, engine.CategoriesOut, error) {
		return nil, categoriesOut(o.Extractor().Catalog()), nil
	}
}

// toolError prefixes err with its kind so MCP clients can branch on it.
func toolError(err error) error {
	return fmt.Errorf("%s: %w", engine.KindOf(err), err)
}
