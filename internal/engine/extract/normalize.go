package extract

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalisation pipeline, applied identically to catalog forms and input text:
//  1. drop invalid UTF-8
//  2. NFKC
//  3. Unicode case fold
//  4. strip combining marks and format runes (ZWJ, ZWNJ, BOM)
//  5. width fold (fullwidth to ASCII)
//  6. collapse whitespace runs to one space and trim
//
// Offsets in RawHit refer to the normalised text.

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

// Normalize returns the matching form of s.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		ns = strings.ToLower(s)
	}
	return collapseSpaces(ns)
}

// NormalizeName is the dedup key for entity names: case-insensitive and
// whitespace-collapsed.
func NormalizeName(s string) string {
	return Normalize(s)
}

func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWS := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWS = true
			continue
		}
		if inWS && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inWS = false
		b.WriteRune(r)
	}
	return b.String()
}
