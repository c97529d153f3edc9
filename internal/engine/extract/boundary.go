package extract

import (
	"unicode"
	"unicode/utf8"
)

// isWord reports whether r counts as part of a word: letters, numbers,
// combining marks and connector punctuation (underscore).
func isWord(r rune) bool {
	if r == utf8.RuneError || r == 0 {
		return false
	}
	return unicode.IsLetter(r) ||
		unicode.IsNumber(r) ||
		unicode.In(r, unicode.Mn, unicode.Pc)
}

// isJoiner reports runes that glue two words into one token when they sit
// between word runes: "node.js", "go-inc".
func isJoiner(r rune) bool {
	return r == '.' || r == '-'
}

// boundaryOK reports whether s[start:end] stands as its own token.
//
// The check only applies on a side where the match itself ends in a word
// rune, so "c++" and ".net" may touch their neighbours. A word-final match
// is rejected when followed by '+' or '#' ("c" in "c++", "c#"), and on either
// side when a joiner connects it to another word rune.
func boundaryOK(s string, start, end int) bool {
	if start < 0 || end > len(s) || start >= end {
		return false
	}
	first, _ := utf8.DecodeRuneInString(s[start:end])
	last, _ := utf8.DecodeLastRuneInString(s[start:end])

	if isWord(first) && start > 0 {
		r, sz := utf8.DecodeLastRuneInString(s[:start])
		if isWord(r) {
			return false
		}
		if isJoiner(r) && start-sz > 0 {
			if r2, _ := utf8.DecodeLastRuneInString(s[:start-sz]); isWord(r2) {
				return false
			}
		}
	}
	if isWord(last) && end < len(s) {
		r, sz := utf8.DecodeRuneInString(s[end:])
		if isWord(r) || r == '+' || r == '#' {
			return false
		}
		if isJoiner(r) && end+sz < len(s) {
			if r2, _ := utf8.DecodeRuneInString(s[end+sz:]); isWord(r2) {
				return false
			}
		}
	}
	return true
}
