package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_hoover/internal/engine"
	"github.com/anatolykoptev/go_hoover/internal/engine/analysis"
	"github.com/anatolykoptev/go_hoover/internal/engine/extract"
)

const maxDescriptionRunes = 1000

// Markdown renders one result as a Markdown report.
func Markdown(r *analysis.AnalysisResult) string {
	var sb strings.Builder
	writeResult(&sb, r, "#")
	fmt.Fprintf(&sb, "\n---\n*Report generated by go_hoover on %s*\n", r.AnalyzedAt.Format(time.RFC3339))
	return sb.String()
}

// BatchMarkdown renders a batch: a summary, failures, then each report.
func BatchMarkdown(b analysis.BatchResult) string {
	var sb strings.Builder
	sb.WriteString("# Batch Analysis Report\n\n")
	fmt.Fprintf(&sb, "- **Videos:** %d\n- **Succeeded:** %d\n- **Failed:** %d\n\n",
		len(b.Items), b.Succeeded, b.Failed)

	if b.Failed > 0 {
		sb.WriteString("## Failures\n\n| Input | Kind | Message |\n|---|---|---|\n")
		for _, it := range b.Items {
			if it.Error == nil {
				continue
			}
			fmt.Fprintf(&sb, "| %s | %s | %s |\n",
				escapeCell(it.Input), it.Error.Kind, escapeCell(it.Error.Message))
		}
		sb.WriteString("\n")
	}

	for _, it := range b.Items {
		if it.Result == nil {
			continue
		}
		sb.WriteString("---\n\n")
		writeResult(&sb, it.Result, "##")
	}
	return sb.String()
}

func writeResult(sb *strings.Builder, r *analysis.AnalysisResult, h string) {
	m := r.Metadata
	fmt.Fprintf(sb, "%s %s\n\n", h, orDash(m.Title))

	fmt.Fprintf(sb, "%s# Video Information\n\n", h)
	fmt.Fprintf(sb, "- **Video ID:** %s\n", m.VideoID)
	fmt.Fprintf(sb, "- **Channel:** %s\n", orDash(m.ChannelTitle))
	if !m.PublishedAt.IsZero() {
		fmt.Fprintf(sb, "- **Published:** %s\n", m.PublishedAt.Format("2006-01-02"))
	}
	if m.DurationSeconds > 0 {
		fmt.Fprintf(sb, "- **Duration:** %s\n", engine.FormatClock(time.Duration(m.DurationSeconds)*time.Second))
	}
	fmt.Fprintf(sb, "- **Views:** %s\n", groupDigits(m.ViewCount))
	if m.LikeCount > 0 {
		fmt.Fprintf(sb, "- **Likes:** %s\n", groupDigits(m.LikeCount))
	}
	fmt.Fprintf(sb, "- **URL:** %s\n\n", m.WatchURL())

	fmt.Fprintf(sb, "%s# Analysis\n\n", h)
	fmt.Fprintf(sb, "- **Extraction method:** %s\n", r.ExtractionMethod)
	fmt.Fprintf(sb, "- **Analysed at:** %s\n", r.AnalyzedAt.Format(time.RFC3339))
	fmt.Fprintf(sb, "- **Entities:** %d\n", r.Summary.TotalEntities)
	if r.Summary.TotalEntities > 0 {
		cs := r.Summary.Confidence
		fmt.Fprintf(sb, "- **Entity confidence:** mean %.2f (min %.2f, max %.2f)\n", cs.EntityMean, cs.EntityMin, cs.EntityMax)
	}
	if n := len(r.CodeSnippets); n > 0 {
		fmt.Fprintf(sb, "- **Code snippets:** %d (mean confidence %.2f)\n", n, r.Summary.Confidence.CodeMean)
	}
	fmt.Fprintf(sb, "- **URLs:** %d\n\n", r.Summary.URLs)

	for _, c := range extract.AllCategories {
		es := r.Entities[c]
		if len(es) == 0 {
			continue
		}
		fmt.Fprintf(sb, "%s# %s (%d)\n\n", h, c.Label(), len(es))
		for i, e := range es {
			fmt.Fprintf(sb, "%d. **%s** (confidence %.2f, %s", i+1, e.Name, e.Confidence, e.Source)
			if e.OccurrenceCount > 1 {
				fmt.Fprintf(sb, ", seen %d times", e.OccurrenceCount)
			}
			sb.WriteString(")\n")
		}
		sb.WriteString("\n")
	}

	writeList(sb, h, "URLs", r.URLs)
	writeList(sb, h, "Repositories", r.Repositories)
	writeCodeList(sb, h, "Commands", r.Commands)
	writeSnippets(sb, h, r.CodeSnippets)
	writeList(sb, h, "Emails", r.Emails)
	if len(r.Hashtags) > 0 {
		fmt.Fprintf(sb, "%s# Hashtags\n\n%s\n\n", h, strings.Join(r.Hashtags, " "))
	}
	if len(r.Timestamps) > 0 {
		fmt.Fprintf(sb, "%s# Chapters\n\n", h)
		for _, ts := range r.Timestamps {
			fmt.Fprintf(sb, "- `%s` %s\n", ts.Offset, ts.Label)
		}
		sb.WriteString("\n")
	}

	if d := strings.TrimSpace(m.Description); d != "" {
		fmt.Fprintf(sb, "%s# Description\n\n", h)
		sb.WriteString(engine.TruncateRunes(d, maxDescriptionRunes, "..."))
		if len([]rune(d)) > maxDescriptionRunes {
			sb.WriteString("\n\n*(description truncated)*")
		}
		sb.WriteString("\n")
	}
}

func writeList(sb *strings.Builder, h, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s# %s (%d)\n\n", h, title, len(items))
	for i, it := range items {
		fmt.Fprintf(sb, "%d. %s\n", i+1, it)
	}
	sb.WriteString("\n")
}

func writeCodeList(sb *strings.Builder, h, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s# %s (%d)\n\n", h, title, len(items))
	for _, it := range items {
		fmt.Fprintf(sb, "- `%s`\n", it)
	}
	sb.WriteString("\n")
}

func writeSnippets(sb *strings.Builder, h string, snippets []extract.CodeSnippet) {
	if len(snippets) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s# Code Snippets (%d)\n\n", h, len(snippets))
	for i, sn := range snippets {
		if sn.Type == extract.SnippetInline {
			fmt.Fprintf(sb, "%d. `%s` (inline, confidence %.2f)\n", i+1, sn.Code, sn.Confidence)
			continue
		}
		fmt.Fprintf(sb, "%d. %s block (confidence %.2f)\n\n", i+1, sn.Language, sn.Confidence)
		lang := sn.Language
		if lang == "unknown" {
			lang = ""
		}
		fmt.Fprintf(sb, "```%s\n%s\n```\n\n", lang, sn.Code)
	}
	if snippets[len(snippets)-1].Type == extract.SnippetInline {
		sb.WriteString("\n")
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

// groupDigits formats n with thousands separators.
func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var out []byte
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
