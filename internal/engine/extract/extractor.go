package extract

// Segment is one field of the corpus.
type Segment struct {
	Field Field
	Text  string
}

// Extraction is everything found in a corpus.
type Extraction struct {
	Entities     map[Category][]ExtractedEntity `json:"entities"`
	URLs         []string                       `json:"urls"`
	Emails       []string                       `json:"emails"`
	Hashtags     []string                       `json:"hashtags"`
	Timestamps   []Timestamp                    `json:"timestamps"`
	Repositories []string                       `json:"repositories"`
	Commands     []string                       `json:"commands"`
	CodeSnippets []CodeSnippet                  `json:"code_snippets"`
	HitCount     int                            `json:"hit_count"`
}

// EntityCount is the number of entities across all categories.
func (x Extraction) EntityCount() int {
	n := 0
	for _, list := range x.Entities {
		n += len(list)
	}
	return n
}

// Extractor runs the matcher, resolver and structural extractors over a
// corpus. Immutable after construction and safe for concurrent use.
type Extractor struct {
	cat      *Catalog
	matcher  *Matcher
	resolver *Resolver
	scoring  Scoring
}

func NewExtractor(cat *Catalog, s Scoring) *Extractor {
	return &Extractor{
		cat:      cat,
		matcher:  NewMatcher(cat, WithContextWindow(s.ContextWindow)),
		resolver: NewResolver(s),
		scoring:  s,
	}
}

// Catalog returns the catalog the extractor was built from.
func (e *Extractor) Catalog() *Catalog { return e.cat }

// Scoring returns the scoring knobs in use.
func (e *Extractor) Scoring() Scoring { return e.scoring }

// Extract processes segments in order. Entity matching runs on normalised
// text; structural items are taken from the raw text.
func (e *Extractor) Extract(segs []Segment) Extraction {
	var hits []RawHit
	x := Extraction{
		URLs:         []string{},
		Emails:       []string{},
		Hashtags:     []string{},
		Timestamps:   []Timestamp{},
		Repositories: []string{},
		Commands:     []string{},
		CodeSnippets: []CodeSnippet{},
	}
	seen := make(map[string]bool)
	for _, seg := range segs {
		hits = append(hits, e.matcher.Match(seg.Text, seg.Field)...)

		x.URLs = mergeUnique(x.URLs, ExtractURLs(seg.Text), seen, "u")
		x.Emails = mergeUnique(x.Emails, ExtractEmails(seg.Text), seen, "e")
		x.Hashtags = mergeUnique(x.Hashtags, ExtractHashtags(seg.Text), seen, "h")
		x.Repositories = mergeUnique(x.Repositories, ExtractRepositories(seg.Text), seen, "r")
		x.Commands = mergeUnique(x.Commands, ExtractCommands(seg.Text), seen, "c")
		for _, sn := range ExtractCodeSnippets(seg.Text) {
			key := "s\x00" + string(sn.Type) + "\x00" + sn.Code
			if !seen[key] {
				seen[key] = true
				x.CodeSnippets = append(x.CodeSnippets, sn)
			}
		}
		if seg.Field == FieldDescription || seg.Field == FieldFallback {
			for _, ts := range ExtractTimestamps(seg.Text) {
				key := "t\x00" + ts.Offset + "\x00" + ts.Label
				if !seen[key] {
					seen[key] = true
					x.Timestamps = append(x.Timestamps, ts)
				}
			}
		}
	}
	x.HitCount = len(hits)
	x.Entities = e.resolver.Resolve(hits)
	return x
}

// ExtractText treats text as a single description segment.
func (e *Extractor) ExtractText(text string) Extraction {
	return e.Extract([]Segment{{Field: FieldDescription, Text: text}})
}

// mergeUnique appends items not yet seen under the given namespace.
// Hashtags, emails and repositories compare case-insensitively.
func mergeUnique(dst, items []string, seen map[string]bool, ns string) []string {
	for _, it := range items {
		k := it
		if ns == "h" || ns == "e" || ns == "r" {
			k = Normalize(it)
		}
		key := ns + "\x00" + k
		if seen[key] {
			continue
		}
		seen[key] = true
		dst = append(dst, it)
	}
	return dst
}
