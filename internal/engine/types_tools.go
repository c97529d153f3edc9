package engine

// MCP tool inputs and outputs. Outputs carry plain strings for times so the
// inferred JSON schema stays simple.

type AnalyzeVideoInput struct {
	Video  string `json:"video" jsonschema:"YouTube video URL or 11-character video ID"`
	Format string `json:"format,omitempty" jsonschema:"Also render a report: markdown, json or html (default: none)"`
}

type AnalyzeBatchInput struct {
	Videos         []string `json:"videos" jsonschema:"YouTube video URLs or IDs, analysed concurrently; results keep input order"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty" jsonschema:"Per-video timeout in seconds (default from server config)"`
}

type ExtractEntitiesInput struct {
	Text  string   `json:"text" jsonschema:"Free text to extract from, treated as a video description"`
	Title string   `json:"title,omitempty" jsonschema:"Optional title, weighted higher than the text"`
	Tags  []string `json:"tags,omitempty" jsonschema:"Optional tags, each weighted as a tag"`
}

type ListCategoriesInput struct{}

// EntityOut is one extracted entity.
type EntityOut struct {
	Name        string   `json:"name"`
	Confidence  float64  `json:"confidence"`
	Source      string   `json:"source"`
	Occurrences int      `json:"occurrences"`
	Fields      []string `json:"fields,omitempty"`
}

// ChapterOut is one chapter marker from the description.
type ChapterOut struct {
	Offset  string `json:"offset"`
	Seconds int    `json:"seconds"`
	Label   string `json:"label"`
}

// SnippetOut is code quoted in backticks.
type SnippetOut struct {
	Type       string  `json:"type"`
	Language   string  `json:"language"`
	Code       string  `json:"code"`
	Confidence float64 `json:"confidence"`
}

// ExtractionOut holds everything found in a corpus.
type ExtractionOut struct {
	Entities     map[string][]EntityOut `json:"entities"`
	URLs         []string               `json:"urls"`
	Emails       []string               `json:"emails,omitempty"`
	Hashtags     []string               `json:"hashtags,omitempty"`
	Chapters     []ChapterOut           `json:"chapters,omitempty"`
	Repositories []string               `json:"repositories,omitempty"`
	Commands     []string               `json:"commands,omitempty"`
	CodeSnippets []SnippetOut           `json:"code_snippets,omitempty"`
	EntityCount  int                    `json:"entity_count"`
}

type VideoOut struct {
	VideoID          string        `json:"video_id"`
	Title            string        `json:"title"`
	Channel          string        `json:"channel"`
	URL              string        `json:"url"`
	Views            int64         `json:"views"`
	DurationSeconds  int64         `json:"duration_seconds"`
	PublishedAt      string        `json:"published_at,omitempty"`
	Tags             []string      `json:"tags,omitempty"`
	ExtractionMethod string        `json:"extraction_method"`
	UsedFallback     bool          `json:"used_fallback_content"`
	AnalyzedAt       string        `json:"analyzed_at"`
	Extraction       ExtractionOut `json:"extraction"`
	Report           string        `json:"report,omitempty"`
}

type ErrorOut struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type BatchItemOut struct {
	Input  string    `json:"input"`
	Result *VideoOut `json:"result,omitempty"`
	Error  *ErrorOut `json:"error,omitempty"`
}

type BatchOut struct {
	Items     []BatchItemOut `json:"items"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}

type CategoryOut struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Entries int    `json:"entries"`
}

type CategoriesOut struct {
	Categories []CategoryOut `json:"categories"`
	Total      int           `json:"total_entries"`
}
