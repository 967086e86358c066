package prepare

import "strings"

// stopwords holds per-language particle sets. Tokens are compared in their
// normalized (lowercased, accent-folded) form. English deliberately covers
// only the connectives that pad organization names; person-name particles
// like "van" or "de la" belong to their own languages.
var stopwords = map[string]map[string]struct{}{
	"en": wordSet("the", "of", "and"),
	"es": wordSet("de", "la", "el", "los", "las", "del", "y"),
	"pt": wordSet("de", "da", "do", "dos", "das", "e"),
	"fr": wordSet("de", "la", "le", "les", "du", "des", "et"),
	"it": wordSet("di", "del", "della", "la", "il", "e"),
	"de": wordSet("der", "die", "das", "und", "von", "zu"),
	"nl": wordSet("van", "de", "der", "den", "het"),
	"tr": wordSet("ve"),
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// RemoveStopwords drops the language's particle tokens from a normalized
// name. If removal would erase every token the original name is returned, so
// a name made entirely of particles still matches something. Unknown
// languages pass through unchanged.
func RemoveStopwords(name, lang string) string {
	set, ok := stopwords[lang]
	if !ok {
		return name
	}
	tokens := strings.Fields(name)
	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, stop := set[token]; !stop {
			kept = append(kept, token)
		}
	}
	if len(kept) == 0 {
		return name
	}
	return strings.Join(kept, " ")
}
