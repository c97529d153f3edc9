package hooverserver

import (
	"time"

	"github.com/anatolykoptev/go_hoover/internal/engine"
	"github.com/anatolykoptev/go_hoover/internal/engine/analysis"
	"github.com/anatolykoptev/go_hoover/internal/engine/extract"
)

func segments(in engine.ExtractEntitiesInput) []extract.Segment {
	var segs []extract.Segment
	if in.Title != "" {
		segs = append(segs, extract.Segment{Field: extract.FieldTitle, Text: in.Title})
	}
	if in.Text != "" {
		segs = append(segs, extract.Segment{Field: extract.FieldDescription, Text: in.Text})
	}
	for _, t := range in.Tags {
		if t != "" {
			segs = append(segs, extract.Segment{Field: extract.FieldTag, Text: t})
		}
	}
	return segs
}

func videoOut(r *analysis.AnalysisResult) engine.VideoOut {
	m := r.Metadata
	out := engine.VideoOut{
		VideoID:          m.VideoID,
		Title:            m.Title,
		Channel:          m.ChannelTitle,
		URL:              m.WatchURL(),
		Views:            m.ViewCount,
		DurationSeconds:  m.DurationSeconds,
		Tags:             m.Tags,
		ExtractionMethod: r.ExtractionMethod,
		UsedFallback:     r.UsedFallbackContent,
		AnalyzedAt:       r.AnalyzedAt.Format(time.RFC3339),
		Extraction: extractionOut(extract.Extraction{
			Entities:     r.Entities,
			URLs:         r.URLs,
			Emails:       r.Emails,
			Hashtags:     r.Hashtags,
			Timestamps:   r.Timestamps,
			Repositories: r.Repositories,
			Commands:     r.Commands,
			CodeSnippets: r.CodeSnippets,
		}),
	}
	if !m.PublishedAt.IsZero() {
		out.PublishedAt = m.PublishedAt.Format(time.RFC3339)
	}
	return out
}

func extractionOut(x extract.Extraction) engine.ExtractionOut {
	out := engine.ExtractionOut{
		Entities:     make(map[string][]engine.EntityOut, len(extract.AllCategories)),
		URLs:         x.URLs,
		Emails:       x.Emails,
		Hashtags:     x.Hashtags,
		Repositories: x.Repositories,
		Commands:     x.Commands,
		EntityCount:  x.EntityCount(),
	}
	if out.URLs == nil {
		out.URLs = []string{}
	}
	for _, c := range extract.AllCategories {
		es := x.Entities[c]
		list := make([]engine.EntityOut, 0, len(es))
		for _, e := range es {
			fields := make([]string, len(e.Fields))
			for i, f := range e.Fields {
				fields[i] = string(f)
			}
			list = append(list, engine.EntityOut{
				Name:        e.Name,
				Confidence:  e.Confidence,
				Source:      string(e.Source),
				Occurrences: e.OccurrenceCount,
				Fields:      fields,
			})
		}
		out.Entities[string(c)] = list
	}
	for _, sn := range x.CodeSnippets {
		out.CodeSnippets = append(out.CodeSnippets, engine.SnippetOut{
			Type: string(sn.Type), Language: sn.Language, Code: sn.Code, Confidence: sn.Confidence,
		})
	}
	for _, ts := range x.Timestamps {
		out.Chapters = append(out.Chapters, engine.ChapterOut{Offset: ts.Offset, Seconds: ts.Seconds, Label: ts.Label})
	}
	return out
}

func batchOut(b analysis.BatchResult) engine.BatchOut {
	out := engine.BatchOut{
		Items:     make([]engine.BatchItemOut, len(b.Items)),
		Succeeded: b.Succeeded,
		Failed:    b.Failed,
	}
	for i, it := range b.Items {
		item := engine.BatchItemOut{Input: it.Input}
		if it.Result != nil {
			v := videoOut(it.Result)
			item.Result = &v
		}
		if it.Error != nil {
			item.Error = &engine.ErrorOut{Kind: string(it.Error.Kind), Message: it.Error.Message}
		}
		out.Items[i] = item
	}
	return out
}

func categoriesOut(cat *extract.Catalog) engine.CategoriesOut {
	counts := cat.CountByCategory()
	out := engine.CategoriesOut{Total: cat.Len()}
	for _, c := range cat.Categories() {
		out.Categories = append(out.Categories, engine.CategoryOut{
			ID:      string(c),
			Label:   c.Label(),
			Entries: counts[c],
		})
	}
	return out
}
