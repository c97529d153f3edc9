package extract

// Category is one entity type.
type Category string

const (
	CategoryTool        Category = "tool"
	CategoryLanguage    Category = "language"
	CategoryFramework   Category = "framework"
	CategoryPlatform    Category = "platform"
	CategoryCompany     Category = "company"
	CategoryFileFormat  Category = "file_format"
	CategoryAPIProtocol Category = "api_protocol"
	CategoryConcept     Category = "concept"
)

// AllCategories fixes the order categories appear in results and reports.
var AllCategories = []Category{
	CategoryTool,
	CategoryLanguage,
	CategoryFramework,
	CategoryPlatform,
	CategoryCompany,
	CategoryFileFormat,
	CategoryAPIProtocol,
	CategoryConcept,
}

var categoryLabels = map[Category]string{
	CategoryTool:        "Tools & Software",
	CategoryLanguage:    "Programming Languages",
	CategoryFramework:   "Frameworks & Libraries",
	CategoryPlatform:    "Platforms & Services",
	CategoryCompany:     "Companies & Brands",
	CategoryFileFormat:  "File Formats",
	CategoryAPIProtocol: "APIs & Protocols",
	CategoryConcept:     "Technical Concepts",
}

// Label is the human-readable heading for c.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Field identifies which part of the corpus a hit came from.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldTag         Field = "tag"
	FieldFallback    Field = "fallback"
)

// Source is the provenance of an extracted entity.
type Source string

const (
	SourceAPI   Source = "api"   // seen in metadata from the API
	SourceCrawl Source = "crawl" // seen only in fallback page content
)

// RawHit is a single catalog match before scoring.
type RawHit struct {
	Category      Category `json:"category"`
	CanonicalName string   `json:"canonical_name"`
	MatchedText   string   `json:"matched_text"`
	SourceField   Field    `json:"source_field"`
	StartOffset   int      `json:"start_offset"` // byte offset in the normalised field text
	Entry         int      `json:"entry"`        // index into Catalog.Entries()
	Ambiguous     bool     `json:"ambiguous,omitempty"`
	ContextHint   bool     `json:"context_hint,omitempty"`
}

// ExtractedEntity is one deduplicated, scored entity.
type ExtractedEntity struct {
	Category        Category `json:"category"`
	Name            string   `json:"name"`
	Confidence      float64  `json:"confidence"`
	Source          Source   `json:"source"`
	OccurrenceCount int      `json:"occurrence_count"`
	Fields          []Field  `json:"fields"`
}

// Timestamp is a chapter marker found in a description.
type Timestamp struct {
	Offset  string `json:"offset"` // as written, e.g. "1:02:03"
	Seconds int    `json:"seconds"`
	Label   string `json:"label"`
}

// SnippetKind tells fenced blocks from inline spans.
type SnippetKind string

const (
	SnippetBlock  SnippetKind = "code_block"
	SnippetInline SnippetKind = "inline_code"
)

// Snippet confidences. A fence is an explicit marker; single backticks are
// also used for emphasis.
const (
	BlockSnippetConfidence  = 0.9
	InlineSnippetConfidence = 0.6
)

// CodeSnippet is code quoted in Markdown backticks.
type CodeSnippet struct {
	Type       SnippetKind `json:"type"`
	Language   string      `json:"language"` // fence info string, "unknown" when absent
	Code       string      `json:"code"`
	Confidence float64     `json:"confidence"`
}
