// Package report renders analysis results as Markdown, JSON, HTML and CSV.
package report

import (
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_hoover/internal/engine/analysis"
)

// Format is an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

// Formats lists the supported formats.
var Formats = []Format{FormatMarkdown, FormatJSON, FormatHTML}

// ParseFormat accepts a format name or its usual alias. Empty means markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want markdown, json or html)", s)
	}
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatHTML:
		return ".html"
	default:
		return ".md"
	}
}

// FileName is the per-video export name used for batch output:
// <video_id>_<analysis date><ext>.
func FileName(r *analysis.AnalysisResult, f Format) string {
	return r.Metadata.VideoID + "_" + r.AnalyzedAt.Format("2006-01-02") + f.Ext()
}
