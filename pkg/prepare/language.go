package prepare

import "strings"

// latinLanguages is the scoring order for Latin-script detection. Earlier
// entries win ties, so shared particles ("de", "la") resolve the same way on
// every run.
var latinLanguages = []string{"en", "es", "pt", "fr", "it", "de", "nl"}

// accentHints maps characters that are strongly indicative of a single
// language. Each occurrence counts as an extra particle hit.
var accentHints = map[rune]string{
	'ñ': "es",
	'ß': "de",
	'ã': "pt",
	'õ': "pt",
	'ı': "tr",
}

// Detect guesses the dominant language of a name. Non-Latin scripts are
// identified by Unicode block; Latin-script names are scored against
// per-language particle sets, defaulting to English. Detection is heuristic
// and only steers stop-word selection, so a wrong guess degrades matching
// slightly rather than breaking it.
func Detect(name string) string {
	if name == "" {
		return "en"
	}

	for _, r := range name {
		switch {
		case r >= 0x4E00 && r <= 0x9FFF:
			return "zh"
		case r >= 0x3040 && r <= 0x30FF:
			return "ja"
		case r >= 0xAC00 && r <= 0xD7AF:
			return "ko"
		case r >= 0x0600 && r <= 0x06FF:
			return "ar"
		case r >= 0x0590 && r <= 0x05FF:
			return "he"
		case r >= 0x0400 && r <= 0x04FF:
			return "ru"
		case r >= 0x0900 && r <= 0x097F:
			return "hi"
		case r >= 0x0E00 && r <= 0x0E7F:
			return "th"
		}
	}

	scores := map[string]int{}
	for _, r := range strings.ToLower(name) {
		if lang, ok := accentHints[r]; ok {
			scores[lang]++
		}
	}
	for _, token := range strings.Fields(Normalize(name)) {
		for lang, set := range stopwords {
			if _, ok := set[token]; ok {
				scores[lang]++
			}
		}
	}

	best := "en"
	bestScore := 0
	for _, lang := range latinLanguages {
		if scores[lang] > bestScore {
			best = lang
			bestScore = scores[lang]
		}
	}
	if score, ok := scores["tr"]; ok && score > bestScore {
		return "tr"
	}
	return best
}
