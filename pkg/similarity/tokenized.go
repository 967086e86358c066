package similarity

import (
	"strings"

	"github.com/sentriq/screend/pkg/config"
)

// Tokenized compares multi-word names by pairing tokens greedily on their
// Jaro-Winkler scores. Pairing instead of whole-string comparison makes
// "nicolas maduro" score 0.93 against "nicolas maduro moros" even though
// the strings diverge halfway through: candidate tokens the query never
// asked about count at unmatchedIndexTokenWeight in the denominator
// instead of a full token. Unmatched query tokens always count in full; a
// two-word query cannot be rescued by a long candidate.
func Tokenized(query, candidate string, cfg config.SimilarityConfig) float64 {
	qTokens := strings.Fields(query)
	cTokens := strings.Fields(candidate)
	if len(qTokens) == 0 || len(cTokens) == 0 {
		return 0.0
	}

	matrix := make([][]float64, len(qTokens))
	for i, qt := range qTokens {
		matrix[i] = make([]float64, len(cTokens))
		for j, ct := range cTokens {
			matrix[i][j] = JaroWinkler(qt, ct, cfg)
		}
	}

	// Greedy extraction: take the highest remaining cell, retire its row
	// and column, repeat. Strict > with ascending iteration makes ties
	// resolve to the earliest query token, then the earliest candidate
	// token, keeping results reproducible.
	usedQ := make([]bool, len(qTokens))
	usedC := make([]bool, len(cTokens))
	pairs := min(len(qTokens), len(cTokens))
	matched := 0.0
	for p := 0; p < pairs; p++ {
		bestI, bestJ := -1, -1
		bestV := -1.0
		for i := range qTokens {
			if usedQ[i] {
				continue
			}
			for j := range cTokens {
				if usedC[j] {
					continue
				}
				if matrix[i][j] > bestV {
					bestI, bestJ, bestV = i, j, matrix[i][j]
				}
			}
		}
		usedQ[bestI] = true
		usedC[bestJ] = true
		matched += bestV
	}

	unmatchedCandidate := len(cTokens) - pairs
	if unmatchedCandidate < 0 {
		unmatchedCandidate = 0
	}
	denominator := float64(len(qTokens)) + float64(unmatchedCandidate)*cfg.UnmatchedIndexTokenWeight
	return clamp01(matched / denominator)
}

// TokenizedMax runs Tokenized against every candidate form and returns the
// best score. Entity matching calls this with a name's prepared variants.
func TokenizedMax(query string, candidates []string, cfg config.SimilarityConfig) float64 {
	best := 0.0
	for _, c := range candidates {
		if s := Tokenized(query, c, cfg); s > best {
			best = s
		}
	}
	return best
}
