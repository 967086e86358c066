package prepare

import "strings"

// particles are the name connectives that sources join inconsistently:
// "de la cruz", "dela cruz" and "delacruz" all appear in real feeds.
var particles = wordSet(
	"de", "la", "el", "du", "van", "von", "der", "da", "di", "dos", "das",
)

// Combinations generates spelling variants of a normalized name by merging
// particle tokens. The input is always element zero. Pass one joins each run
// of consecutive particles into a single token ("jean de la cruz" ->
// "jean dela cruz"); pass two additionally joins the run onto the following
// word ("jean delacruz"). A pass only contributes a variant when it changed
// the token count, and duplicates are dropped.
func Combinations(name string) []string {
	out := []string{name}
	tokens := strings.Fields(name)
	if len(tokens) < 2 {
		return out
	}

	seen := map[string]struct{}{name: {}}
	for _, mergeFollowing := range []bool{false, true} {
		merged := mergeParticleRuns(tokens, mergeFollowing)
		if len(merged) == len(tokens) {
			continue
		}
		variant := strings.Join(merged, " ")
		if _, dup := seen[variant]; dup {
			continue
		}
		seen[variant] = struct{}{}
		out = append(out, variant)
	}
	return out
}

// mergeParticleRuns rewrites the token list with each maximal run of
// particles collapsed into one token. With mergeFollowing set, the run also
// swallows the word after it; a trailing run with nothing after it merges
// alone. Runs of a single particle only merge when swallowing a word.
func mergeParticleRuns(tokens []string, mergeFollowing bool) []string {
	result := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if _, isParticle := particles[tokens[i]]; !isParticle {
			result = append(result, tokens[i])
			i++
			continue
		}
		j := i
		for j < len(tokens) {
			if _, isParticle := particles[tokens[j]]; !isParticle {
				break
			}
			j++
		}
		run := tokens[i:j]
		switch {
		case mergeFollowing && j < len(tokens):
			result = append(result, strings.Join(run, "")+tokens[j])
			i = j + 1
		case len(run) >= 2:
			result = append(result, strings.Join(run, ""))
			i = j
		default:
			result = append(result, run[0])
			i = j
		}
	}
	return result
}
