// Package columns folds free text and spreadsheet headers so that accented,
// unaccented, upper- and lower-case spellings compare equal, and resolves
// header rows against a static synonym table.
package columns

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s, strips diacritics and collapses inner whitespace.
// "  Ausência   PARCIAL " becomes "ausencia parcial".
func Fold(s string) string {
	// transform.Chain keeps state, so a fresh chain is built per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// Key folds s and drops every separator, so "Data_Admissao", "data admissão"
// and "DATA-ADMISSAO" all map to "dataadmissao". Connectors such as "de" are
// kept; the synonym table lists those spellings separately.
func Key(s string) string {
	folded := Fold(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Contains reports whether needle occurs in haystack after folding both
func Contains(haystack, needle string) bool {
	n := Fold(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Fold(haystack), n)
}
