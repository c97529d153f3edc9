package extract

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// PatternEntry is one recognisable entity.
type PatternEntry struct {
	Category      Category `yaml:"-" json:"category"`
	CanonicalName string   `yaml:"name" json:"canonical_name"`
	SurfaceForms  []string `yaml:"forms" json:"surface_forms"`
	Patterns      []string `yaml:"patterns" json:"patterns,omitempty"`
	ContextHints  []string `yaml:"hints" json:"context_hints,omitempty"`

	// Ambiguity is read from the `ambiguous` key: true flags every literal
	// form, a list flags only the forms named.
	Ambiguity ambiguity `yaml:"ambiguous" json:"-"`

	// Derived from Ambiguity at load time.
	Ambiguous      bool     `yaml:"-" json:"ambiguous,omitempty"`
	AmbiguousForms []string `yaml:"-" json:"ambiguous_forms,omitempty"`
}

// ambiguity accepts `ambiguous: true` or `ambiguous: [go, rest]`.
type ambiguity struct {
	all   bool
	forms []string
}

func (a *ambiguity) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Decode(&a.all)
	case yaml.SequenceNode:
		return n.Decode(&a.forms)
	default:
		return fmt.Errorf("line %d: ambiguous must be a bool or a list of forms", n.Line)
	}
}

type catalogFile struct {
	Categories []struct {
		ID      Category       `yaml:"id"`
		Hints   []string       `yaml:"hints"`
		Entries []PatternEntry `yaml:"entries"`
	} `yaml:"categories"`
}

// Catalog is the immutable registry of known entities. Safe for concurrent
// use; nothing mutates it after load.
type Catalog struct {
	entries    []PatternEntry
	byCategory map[Category][]int
	categories []Category

	// Derived matching data, parallel to entries.
	forms     [][]string        // normalised literal forms
	ambiguous []map[string]bool // normalised forms that are also plain words
	regexes   [][]*regexp.Regexp
	hints     [][]string // normalised entry + category hints
}

// LoadCatalog parses the catalog embedded in the binary.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(embeddedCatalog)
}

// LoadCatalogFile parses an operator-supplied catalog replacing the embedded one.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// MustLoadCatalog is LoadCatalog for package initialisation and tests.
func MustLoadCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCatalog parses and validates catalog YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse yaml: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, errors.New("catalog: no categories")
	}

	c := &Catalog{byCategory: make(map[Category][]int)}
	seen := make(map[Category]bool)
	for _, cat := range f.Categories {
		if !cat.ID.Valid() {
			return nil, fmt.Errorf("catalog: unknown category %q", cat.ID)
		}
		if seen[cat.ID] {
			return nil, fmt.Errorf("catalog: duplicate category %q", cat.ID)
		}
		seen[cat.ID] = true
		c.categories = append(c.categories, cat.ID)

		for i, e := range cat.Entries {
			e.Category = cat.ID
			if err := c.addEntry(e, cat.Hints); err != nil {
				return nil, fmt.Errorf("catalog: %s entry %d: %w", cat.ID, i, err)
			}
		}
	}
	return c, nil
}

func (c *Catalog) addEntry(e PatternEntry, categoryHints []string) error {
	if Normalize(e.CanonicalName) == "" {
		return errors.New("empty canonical name")
	}
	if len(e.SurfaceForms) == 0 && len(e.Patterns) == 0 {
		return fmt.Errorf("%s: no surface forms or patterns", e.CanonicalName)
	}

	var forms []string
	for _, f := range e.SurfaceForms {
		nf := Normalize(f)
		if nf == "" {
			return fmt.Errorf("%s: empty surface form", e.CanonicalName)
		}
		forms = appendUnique(forms, nf)
	}

	amb := make(map[string]bool)
	if e.Ambiguity.all {
		for _, f := range forms {
			amb[f] = true
		}
	}
	for _, f := range e.Ambiguity.forms {
		nf := Normalize(f)
		if !containsString(forms, nf) {
			return fmt.Errorf("%s: ambiguous form %q is not one of its forms", e.CanonicalName, f)
		}
		amb[nf] = true
	}
	e.AmbiguousForms = nil
	for _, f := range forms {
		if amb[f] {
			e.AmbiguousForms = append(e.AmbiguousForms, f)
		}
	}
	e.Ambiguous = len(e.AmbiguousForms) > 0

	var res []*regexp.Regexp
	for _, p := range e.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return fmt.Errorf("%s: pattern %q: %w", e.CanonicalName, p, err)
		}
		res = append(res, re)
	}

	var hints []string
	for _, h := range append(append([]string(nil), e.ContextHints...), categoryHints...) {
		if nh := Normalize(h); nh != "" {
			hints = appendUnique(hints, nh)
		}
	}

	idx := len(c.entries)
	c.entries = append(c.entries, e)
	c.byCategory[e.Category] = append(c.byCategory[e.Category], idx)
	c.forms = append(c.forms, forms)
	c.ambiguous = append(c.ambiguous, amb)
	c.regexes = append(c.regexes, res)
	c.hints = append(c.hints, hints)
	return nil
}

func appendUnique(list []string, s string) []string {
	if containsString(list, s) {
		return list
	}
	return append(list, s)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// LookupAll returns every entry grouped by category, in catalog order.
// The returned map and slices are copies.
func (c *Catalog) LookupAll() map[Category][]PatternEntry {
	out := make(map[Category][]PatternEntry, len(c.categories))
	for _, cat := range c.categories {
		idxs := c.byCategory[cat]
		list := make([]PatternEntry, 0, len(idxs))
		for _, i := range idxs {
			list = append(list, c.entries[i])
		}
		out[cat] = list
	}
	return out
}

// Entries returns all entries in catalog order. Index i matches RawHit.Entry.
func (c *Catalog) Entries() []PatternEntry {
	return append([]PatternEntry(nil), c.entries...)
}

// Entry returns entry i.
func (c *Catalog) Entry(i int) PatternEntry {
	return c.entries[i]
}

// Len is the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Categories lists the categories present, in catalog order.
func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// CountByCategory returns the number of entries per category.
func (c *Catalog) CountByCategory() map[Category]int {
	out := make(map[Category]int, len(c.byCategory))
	for cat, idxs := range c.byCategory {
		out[cat] = len(idxs)
	}
	return out
}
