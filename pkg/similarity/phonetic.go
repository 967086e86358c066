package similarity

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"github.com/sentriq/screend/pkg/config"
)

// soundexClass maps consonants to their Soundex digit. Vowels, h, w, y and
// anything outside a-z carry no digit and are dropped after the first letter.
var soundexClass = map[rune]byte{
	'b': '1', 'f': '1', 'p': '1', 'v': '1',
	'c': '2', 'g': '2', 'j': '2', 'k': '2', 'q': '2', 's': '2', 'x': '2', 'z': '2',
	'd': '3', 't': '3',
	'l': '4',
	'm': '5', 'n': '5',
	'r': '6',
}

// Soundex returns the 4-character code of a single token: the uppercased
// first letter followed by up to three digit classes with adjacent equal
// digits collapsed, zero-padded. Tokens that do not start with an ASCII
// letter return "", meaning no phonetic signal.
func Soundex(token string) string {
	first, size := utf8.DecodeRuneInString(token)
	first = unicode.ToLower(first)
	if first < 'a' || first > 'z' {
		return ""
	}

	code := make([]byte, 0, 4)
	code = append(code, byte(unicode.ToUpper(first)))
	prev := byte(0)
	for _, r := range strings.ToLower(token[size:]) {
		cls, ok := soundexClass[r]
		if !ok {
			continue
		}
		if cls == prev {
			continue
		}
		code = append(code, cls)
		prev = cls
		if len(code) == 4 {
			break
		}
	}
	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}

// Compatible reports whether two names could plausibly be the same word
// phonetically. It is a cheap veto run before the expensive tokenized
// comparison, never a score. Multi-word names compare as code sets so word
// order does not trigger a veto. Fail-open cases return true: filtering
// disabled, an input shorter than two characters, or names that produce no
// codes at all (non-Latin scripts, digits).
func Compatible(a, b string, cfg config.SimilarityConfig) bool {
	if cfg.PhoneticFilteringDisabled {
		return true
	}
	if len(a) < 2 || len(b) < 2 {
		return true
	}

	encode := soundexCodes
	if cfg.PhoneticAlgorithm == config.PhoneticMetaphone {
		encode = metaphoneCodes
	}

	aCodes := encode(a)
	bCodes := encode(b)
	if len(aCodes) == 0 || len(bCodes) == 0 {
		return true
	}
	for code := range aCodes {
		if _, ok := bCodes[code]; ok {
			return true
		}
	}
	return false
}

func soundexCodes(name string) map[string]struct{} {
	codes := map[string]struct{}{}
	for _, token := range strings.Fields(name) {
		if code := Soundex(token); code != "" {
			codes[code] = struct{}{}
		}
	}
	return codes
}

func metaphoneCodes(name string) map[string]struct{} {
	codes := map[string]struct{}{}
	for _, token := range strings.Fields(name) {
		primary, secondary := matchr.DoubleMetaphone(token)
		if primary != "" {
			codes[primary] = struct{}{}
		}
		if secondary != "" {
			codes[secondary] = struct{}{}
		}
	}
	return codes
}
