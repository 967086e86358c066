// Package prepare implements the deterministic name-preparation pipeline:
// normalization, SDN-style name reordering, language detection, stop-word
// removal, company-title stripping, and particle word combinations. Matching
// semantics depend on its exact output, so every stage is byte-for-byte
// reproducible.
package prepare

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransform decomposes compatibility equivalents and strips combining
// marks so accented letters compare equal to their base forms
// ("José" -> "Jose").
var foldTransform = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// apostrophes are removed outright, not replaced by a space, so "O'Brien"
// normalizes to "obrien" rather than "o brien". They go before general
// punctuation stripping.
var apostrophes = strings.NewReplacer("'", "", "’", "", "‘", "", "ʼ", "")

// foldUnicode applies the compatibility fold. Malformed input is returned
// unchanged; preparation never fails.
func foldUnicode(s string) string {
	folded, _, err := transform.String(foldTransform, s)
	if err != nil {
		return s
	}
	return folded
}

// stripApostrophes removes ASCII and typographic apostrophes.
func stripApostrophes(s string) string {
	return apostrophes.Replace(s)
}

// Normalize case-folds to lowercase, strips apostrophes, replaces all other
// punctuation with spaces, collapses whitespace runs, and trims. It is
// idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = foldUnicode(s)
	s = strings.ToLower(s)
	s = stripApostrophes(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ReorderSDNName rewrites the "LAST, First Middle" convention used by SDN
// records into natural order: "SMITH, John Michael" -> "John Michael SMITH".
// Names with zero or multiple commas are returned unchanged.
func ReorderSDNName(name string) string {
	if strings.Count(name, ",") != 1 {
		return name
	}
	last, rest, _ := strings.Cut(name, ",")
	return strings.TrimSpace(strings.TrimSpace(rest) + " " + strings.TrimSpace(last))
}

// NormalizeID strips every character that is not a letter or digit. It is
// used to compare government identifiers and phone numbers, where separators
// and formatting vary by source.
func NormalizeID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeAddressField lowercases an address field and drops commas and
// periods only, leaving other characters and internal whitespace intact.
func NormalizeAddressField(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, ".", "")
	return s
}
