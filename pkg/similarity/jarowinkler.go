// Package similarity implements the string-distance primitives matching is
// built on: a tuned Jaro-Winkler, a token-level best-pairs comparer, and a
// phonetic compatibility veto. All scores are in [0,1] and all functions are
// pure, so they are safe to call from concurrent scorers.
package similarity

import (
	"github.com/sentriq/screend/pkg/config"
)

// JaroWinkler compares two normalized strings. Beyond the textbook
// algorithm it applies the tuning knobs that make short-name matching
// usable in screening: a length-difference penalty so "li" does not match
// "liberation", and a different-first-letter penalty since first letters
// rarely differ in true aliases.
func JaroWinkler(a, b string, cfg config.SimilarityConfig) float64 {
	if a == b {
		// Equality includes empty == empty. Favoritism keeps the score
		// pinned at the cap rather than above it.
		return clamp01(1.0 + cfg.ExactMatchFavoritism)
	}
	if a == "" || b == "" {
		return 0.0
	}

	ra := []rune(a)
	rb := []rune(b)
	la := len(ra)
	lb := len(rb)

	window := max(la, lb)/2 - 1
	if window < 0 {
		window = 0
	}

	aMatched := make([]bool, la)
	bMatched := make([]bool, lb)
	matches := 0
	for i := 0; i < la; i++ {
		lo := max(0, i-window)
		hi := min(lb-1, i+window)
		for j := lo; j <= hi; j++ {
			if !bMatched[j] && rb[j] == ra[i] {
				aMatched[i] = true
				bMatched[j] = true
				matches++
				break
			}
		}
	}
	if matches == 0 {
		return 0.0
	}

	// Transpositions are matched characters that appear in a different
	// order on each side, counted in halves.
	transposed := 0
	j := 0
	for i := 0; i < la; i++ {
		if !aMatched[i] {
			continue
		}
		for !bMatched[j] {
			j++
		}
		if ra[i] != rb[j] {
			transposed++
		}
		j++
	}

	m := float64(matches)
	t := float64(transposed) / 2.0
	jaro := (m/float64(la) + m/float64(lb) + (m-t)/m) / 3.0

	score := jaro
	if jaro >= cfg.JaroWinklerBoostThreshold {
		prefix := 0
		limit := min(min(la, lb), cfg.JaroWinklerPrefixSize)
		for i := 0; i < limit; i++ {
			if ra[i] != rb[i] {
				break
			}
			prefix++
		}
		score = jaro + float64(prefix)*0.1*(1.0-jaro)
	}

	short := float64(min(la, lb))
	long := float64(max(la, lb))
	if short < long*cfg.LengthDifferenceCutoffFactor {
		score *= 1.0 - cfg.LengthDifferencePenaltyWeight*(1.0-short/long)
	}

	if ra[0] != rb[0] {
		score *= cfg.DifferentLetterPenaltyWeight
	}

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
