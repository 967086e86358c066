package scoring

import (
	"github.com/sentriq/screend/pkg/config"
	"github.com/sentriq/screend/pkg/entity"
	"github.com/sentriq/screend/pkg/prepare"
	"github.com/sentriq/screend/pkg/similarity"
)

// CompareAddresses scores two address lists as the best pairing across the
// Cartesian product. Lists are small (rarely more than a handful per
// entity), so the quadratic sweep is fine.
func CompareAddresses(qAddrs, cAddrs []entity.Address, cfg config.SimilarityConfig) float64 {
	best := 0.0
	for _, qa := range qAddrs {
		for _, ca := range cAddrs {
			if score := compareAddress(qa, ca, cfg); score > best {
				best = score
			}
		}
	}
	return best
}

// compareAddress weights the fields that survive transcription differences:
// country equality 0.3, city Jaro-Winkler 0.3, street line tokenized 0.4. A
// field pair only participates when both sides have it; a pair of addresses
// sharing no populated fields scores 0.
func compareAddress(qa, ca entity.Address, cfg config.SimilarityConfig) float64 {
	present := false
	score := 0.0

	qCountry := prepare.NormalizeAddressField(qa.Country)
	cCountry := prepare.NormalizeAddressField(ca.Country)
	if qCountry != "" && cCountry != "" {
		present = true
		if qCountry == cCountry {
			score += 0.3
		}
	}

	qCity := prepare.NormalizeAddressField(qa.City)
	cCity := prepare.NormalizeAddressField(ca.City)
	if qCity != "" && cCity != "" {
		present = true
		score += 0.3 * similarity.JaroWinkler(qCity, cCity, cfg)
	}

	qLine := prepare.NormalizeAddressField(qa.Line1)
	cLine := prepare.NormalizeAddressField(ca.Line1)
	if qLine != "" && cLine != "" {
		present = true
		score += 0.4 * similarity.Tokenized(qLine, cLine, cfg)
	}

	if !present {
		return 0.0
	}
	return clamp01(score)
}
