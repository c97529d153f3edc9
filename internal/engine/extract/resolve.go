package extract

import "math"

// Scoring holds the confidence knobs. Zero values are not defaulted here;
// start from DefaultScoring.
type Scoring struct {
	MinConfidence      float64
	WeightTitle        float64
	WeightDescription  float64
	WeightTag          float64
	WeightFallback     float64
	OccurrenceBoost    float64 // per occurrence beyond the first
	MaxOccurrenceBoost float64
	ContextBoost       float64 // added when a hint was seen near any hit
	AmbiguityPenalty   float64 // multiplier for unsupported ambiguous-form hits
	ContextWindow      int
}

// DefaultScoring returns the documented defaults.
func DefaultScoring() Scoring {
	return Scoring{
		MinConfidence:      0.3,
		WeightTitle:        0.9,
		WeightDescription:  0.8,
		WeightTag:          0.95,
		WeightFallback:     0.5,
		OccurrenceBoost:    0.02,
		MaxOccurrenceBoost: 0.1,
		ContextBoost:       0.05,
		AmbiguityPenalty:   0.35,
		ContextWindow:      DefaultContextWindow,
	}
}

// Weight is the base confidence of a hit from field f.
func (s Scoring) Weight(f Field) float64 {
	switch f {
	case FieldTitle:
		return s.WeightTitle
	case FieldDescription:
		return s.WeightDescription
	case FieldTag:
		return s.WeightTag
	case FieldFallback:
		return s.WeightFallback
	}
	return 0
}

// Resolver merges raw hits into scored entities.
type Resolver struct {
	s Scoring
}

func NewResolver(s Scoring) *Resolver {
	return &Resolver{s: s}
}

type group struct {
	entity    ExtractedEntity
	base      float64
	hint      bool
	ambiguous bool // every hit was an untagged ambiguous form
	peer      bool // a supported entity of the same category exists
	api       bool
}

// supported reports whether g stands on its own: some hit was an
// unambiguous form, a tag, or had a hint nearby.
func (g *group) supported() bool { return !g.ambiguous || g.hint }

// Resolve groups hits by (category, normalised canonical name), scores each
// group and drops those under the floor. Every category of AllCategories is
// present in the result; order within a category is first-seen.
func (r *Resolver) Resolve(hits []RawHit) map[Category][]ExtractedEntity {
	var order []string
	groups := make(map[string]*group)

	for _, h := range hits {
		key := string(h.Category) + "\x00" + NormalizeName(h.CanonicalName)
		g, ok := groups[key]
		if !ok {
			g = &group{
				entity:    ExtractedEntity{Category: h.Category, Name: h.CanonicalName},
				ambiguous: true,
			}
			groups[key] = g
			order = append(order, key)
		}
		g.entity.OccurrenceCount++
		g.base = math.Max(g.base, r.s.Weight(h.SourceField))
		g.hint = g.hint || h.ContextHint
		g.ambiguous = g.ambiguous && h.Ambiguous && h.SourceField != FieldTag
		g.api = g.api || h.SourceField != FieldFallback
		if !containsField(g.entity.Fields, h.SourceField) {
			g.entity.Fields = append(g.entity.Fields, h.SourceField)
		}
	}

	// An ambiguous form next to a real entity of its category ("Python to
	// Go") is read as that category.
	anchored := make(map[Category]bool)
	for _, g := range groups {
		if g.supported() {
			anchored[g.entity.Category] = true
		}
	}
	for _, g := range groups {
		g.peer = anchored[g.entity.Category]
	}

	out := make(map[Category][]ExtractedEntity, len(AllCategories))
	for _, c := range AllCategories {
		out[c] = []ExtractedEntity{}
	}
	for _, key := range order {
		g := groups[key]
		conf := r.score(g)
		if conf < r.s.MinConfidence {
			continue
		}
		e := g.entity
		e.Confidence = conf
		e.Source = SourceCrawl
		if g.api {
			e.Source = SourceAPI
		}
		out[e.Category] = append(out[e.Category], e)
	}
	return out
}

func (r *Resolver) score(g *group) float64 {
	conf := g.base
	if n := g.entity.OccurrenceCount; n > 1 {
		conf += math.Min(float64(n-1)*r.s.OccurrenceBoost, r.s.MaxOccurrenceBoost)
	}
	switch {
	case g.hint:
		conf += r.s.ContextBoost
	case g.ambiguous && !g.peer:
		conf *= r.s.AmbiguityPenalty
	}
	conf = math.Max(0, math.Min(conf, 1))
	return math.Round(conf*1000) / 1000
}

func containsField(fs []Field, f Field) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}
