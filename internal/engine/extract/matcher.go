package extract

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultContextWindow is how many bytes either side of a match are searched
// for context hints.
const DefaultContextWindow = 48

// Matcher scans text for catalog entries. It holds no per-call state and is
// safe for concurrent use.
type Matcher struct {
	cat    *Catalog
	ac     *automaton
	forms  []formRef // automaton pattern ID → entry
	window int
}

type formRef struct {
	entry     int
	form      string
	ambiguous bool
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithContextWindow sets the hint search window in bytes.
func WithContextWindow(n int) MatcherOption {
	return func(m *Matcher) {
		if n > 0 {
			m.window = n
		}
	}
}

// NewMatcher indexes every literal form of cat into one automaton.
func NewMatcher(cat *Catalog, opts ...MatcherOption) *Matcher {
	m := &Matcher{cat: cat, ac: newAutomaton(), window: DefaultContextWindow}
	for _, o := range opts {
		o(m)
	}
	for i, forms := range cat.forms {
		for _, f := range forms {
			m.ac.add(f, len(m.forms))
			m.forms = append(m.forms, formRef{entry: i, form: f, ambiguous: cat.ambiguous[i][f]})
		}
	}
	m.ac.build()
	return m
}

type span struct {
	entry, start, end int
	ambiguous         bool
}

// Match returns every boundary-respecting catalog hit in text, ordered by
// start offset then catalog order. Hits for different entries may overlap;
// overlapping hits of the same entry collapse to the longest.
func (m *Matcher) Match(text string, field Field) []RawHit {
	s := Normalize(text)
	if s == "" {
		return nil
	}

	var spans []span
	m.ac.findAll(s, func(end, id int) {
		ref := m.forms[id]
		start := end - len(ref.form)
		if boundaryOK(s, start, end) {
			spans = append(spans, span{entry: ref.entry, start: start, end: end, ambiguous: ref.ambiguous})
		}
	})
	for i, res := range m.cat.regexes {
		for _, re := range res {
			for _, loc := range re.FindAllStringIndex(s, -1) {
				if boundaryOK(s, loc[0], loc[1]) {
					spans = append(spans, span{entry: i, start: loc[0], end: loc[1]})
				}
			}
		}
	}
	if len(spans) == 0 {
		return nil
	}

	sort.Slice(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.entry != b.entry {
			return a.entry < b.entry
		}
		return a.end > b.end
	})

	lastEnd := make(map[int]int)
	hits := make([]RawHit, 0, len(spans))
	for _, sp := range spans {
		if end, ok := lastEnd[sp.entry]; ok && sp.start < end {
			continue
		}
		lastEnd[sp.entry] = sp.end
		e := m.cat.entries[sp.entry]
		hits = append(hits, RawHit{
			Category:      e.Category,
			CanonicalName: e.CanonicalName,
			MatchedText:   s[sp.start:sp.end],
			SourceField:   field,
			StartOffset:   sp.start,
			Entry:         sp.entry,
			Ambiguous:     sp.ambiguous,
			ContextHint:   m.hasHint(s, sp),
		})
	}
	return hits
}

// hasHint reports whether any of the entry's hints appears as a word within
// the window around sp. A hint may sit inside a multi-word match ("api" in
// "rest api") but never is the match.
func (m *Matcher) hasHint(s string, sp span) bool {
	hints := m.cat.hints[sp.entry]
	if len(hints) == 0 {
		return false
	}
	lo := max(sp.start-m.window, 0)
	hi := min(sp.end+m.window, len(s))
	for _, h := range hints {
		if containsWord(s, lo, hi, h, sp) {
			return true
		}
	}
	return false
}

// containsWord reports whether w occurs inside s[lo:hi] with no word rune
// directly on either side, skipping the occurrence that is exactly skip.
// Unlike boundaryOK, '.' and '-' separate here, so "node" is found in
// "node.js" and "test" in "e2e-test".
func containsWord(s string, lo, hi int, w string, skip span) bool {
	for i := lo; i+len(w) <= hi; {
		j := strings.Index(s[i:hi], w)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(w)
		if !(start == skip.start && end == skip.end) && wordEdges(s, start, end) {
			return true
		}
		i = start + 1
	}
	return false
}

func wordEdges(s string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); isWord(r) {
			return false
		}
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWord(r) {
			return false
		}
	}
	return true
}
