package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/anatolykoptev/go_hoover/internal/engine/analysis"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;max-width:860px;margin:2rem auto;padding:0 1rem;line-height:1.5;color:#222}
code{background:#f3f3f3;padding:0 .25rem;border-radius:3px}
table{border-collapse:collapse}td,th{border:1px solid #ddd;padding:.25rem .5rem}
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// Render writes one result in format f.
func Render(w io.Writer, r *analysis.AnalysisResult, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatHTML:
		return writeHTML(w, "Video Analysis: "+r.Metadata.Title, Markdown(r))
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(r))
		return err
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

// RenderBatch writes a whole batch in format f.
func RenderBatch(w io.Writer, b analysis.BatchResult, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, b)
	case FormatHTML:
		return writeHTML(w, "Batch Analysis Report", BatchMarkdown(b))
	case FormatMarkdown:
		_, err := io.WriteString(w, BatchMarkdown(b))
		return err
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

func writeHTML(w io.Writer, title, markdown string) error {
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}
	return pageTmpl.Execute(w, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(body.String()), //nolint:gosec // goldmark escapes raw HTML by default
	})
}
