package scoring

import (
	"strings"

	"github.com/sentriq/screend/pkg/config"
	"github.com/sentriq/screend/pkg/entity"
	"github.com/sentriq/screend/pkg/prepare"
	"github.com/sentriq/screend/pkg/similarity"
	"github.com/sentriq/screend/pkg/trace"
)

// Scorer computes match breakdowns under one config snapshot. It holds the
// snapshot by value, so a scorer constructed per request can never observe
// half of an admin update.
type Scorer struct {
	cfg config.ScoreConfig
}

// NewScorer returns a scorer bound to the given config snapshot.
func NewScorer(cfg config.ScoreConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score compares a prepared query against one candidate. It never mutates
// either side. The recorder may be nil; tracing then costs a pointer check
// per phase.
func (s *Scorer) Score(q PreparedQuery, c *entity.Entity, rec *trace.Recorder) Breakdown {
	// Matching source ids identify the same record outright.
	if q.SourceID != "" && c.SourceID != "" && q.SourceID == c.SourceID {
		rec.Recordf("sourceId", "exact source id %s on entity %s", c.SourceID, c.ID)
		return exactBreakdown()
	}

	pf := c.Prepared
	if pf == nil {
		// Unprepared candidates come from callers bypassing the index.
		pf = prepare.NewPipeline(s.cfg.Similarity.KeepStopwords).Prepare(c)
	}

	var b Breakdown
	sim := s.cfg.Similarity
	w := s.cfg.Weights

	if w.Phases.Name && q.Name != "" && pf.NormalizedPrimaryName != "" {
		if similarity.Compatible(q.Name, pf.NormalizedPrimaryName, sim) {
			forms := make([]string, 0, 1+len(pf.WordCombinations))
			forms = append(forms, pf.NormalizedPrimaryName)
			forms = append(forms, pf.WordCombinations...)
			b.NameScore = similarity.TokenizedMax(q.Name, forms, sim)
			rec.Recordf("name", "entity %s nameScore %.4f over %d forms", c.ID, b.NameScore, len(forms))
		} else {
			rec.Recordf("name", "entity %s phonetic veto against %q", c.ID, pf.NormalizedPrimaryName)
		}
	}

	if w.Phases.AltName && q.Name != "" && len(pf.NormalizedAltNames) > 0 {
		b.AltNamesScore = similarity.TokenizedMax(q.Name, pf.NormalizedAltNames, sim)
		rec.Recordf("altNames", "entity %s altNamesScore %.4f over %d alts", c.ID, b.AltNamesScore, len(pf.NormalizedAltNames))
	}

	if w.Phases.GovID && len(q.GovIDs) > 0 && len(c.GovernmentIDs) > 0 {
		b.GovIDScore = scoreGovIDs(q.GovIDs, c.GovernmentIDs)
	}

	if w.Phases.Crypto && len(q.Cryptos) > 0 && len(c.CryptoAddresses) > 0 {
		b.CryptoScore = scoreCrypto(q.Cryptos, c.CryptoAddresses)
	}

	if w.Phases.Contact {
		b.ContactScore = scoreContact(q, c, pf)
	}

	if w.Phases.Address && len(q.Addresses) > 0 && len(c.Addresses) > 0 {
		b.AddressScore = CompareAddresses(q.Addresses, c.Addresses, sim)
	}

	if w.Phases.Date && q.BirthDate != "" {
		if cd := strings.TrimSpace(c.BirthDate()); cd != "" && cd == q.BirthDate {
			b.DateScore = 1.0
		}
	}

	s.aggregate(&b, q, c, rec)
	return b
}

// aggregate fills TotalWeightedScore per the two-mode policy: a critical
// identifier at or above the exact-match threshold dominates; otherwise the
// total is the weighted mean over the factors that produced a signal.
// Absent factors stay out of the denominator so sparse records are not
// punished for fields nobody supplied.
func (s *Scorer) aggregate(b *Breakdown, q PreparedQuery, c *entity.Entity, rec *trace.Recorder) {
	w := s.cfg.Weights
	bestName := max(b.NameScore, b.AltNamesScore)

	hasExactMatch := b.GovIDScore >= w.ExactMatchThreshold ||
		b.CryptoScore >= w.ExactMatchThreshold ||
		b.ContactScore >= w.ExactMatchThreshold
	if hasExactMatch {
		b.TotalWeightedScore = 0.7 + 0.3*bestName
		rec.Recordf("total", "entity %s critical identifier dominates, bestName %.4f total %.4f", c.ID, bestName, b.TotalWeightedScore)
		return
	}

	sum := bestName * w.NameWeight
	weights := w.NameWeight

	// A source-id mismatch on both sides is a real negative signal: the
	// critical weight enters the denominator with a zero score.
	if q.SourceID != "" && c.SourceID != "" && q.SourceID != c.SourceID {
		weights += w.CriticalIDWeight
	}
	if b.AddressScore > 0 {
		sum += b.AddressScore * w.AddressWeight
		weights += w.AddressWeight
	}
	if b.GovIDScore > 0 {
		sum += b.GovIDScore * w.CriticalIDWeight
		weights += w.CriticalIDWeight
	}
	if b.CryptoScore > 0 {
		sum += b.CryptoScore * w.CriticalIDWeight
		weights += w.CriticalIDWeight
	}
	if b.ContactScore > 0 {
		sum += b.ContactScore * w.CriticalIDWeight
		weights += w.CriticalIDWeight
	}
	if b.DateScore > 0 {
		sum += b.DateScore * w.SupportingInfoWeight
		weights += w.SupportingInfoWeight
	}

	if weights > 0 {
		b.TotalWeightedScore = clamp01(sum / weights)
	}
	rec.Recordf("total", "entity %s weighted total %.4f", c.ID, b.TotalWeightedScore)
}

// scoreGovIDs returns the best pairwise id score. A pair counts when the
// normalized identifiers match and the types, where both sides specify one,
// agree. Country codes grade the match: both present and equal is certain,
// one side missing drops to 0.9, a conflict drops to 0.7. The policy is the
// same for persons and organizations.
func scoreGovIDs(qIDs, cIDs []entity.GovernmentID) float64 {
	best := 0.0
	for _, qid := range qIDs {
		for _, cid := range cIDs {
			cNorm := prepare.NormalizeID(cid.Identifier)
			if cNorm == "" || !strings.EqualFold(qid.Identifier, cNorm) {
				continue
			}
			if qid.Type != "" && cid.Type != "" && !strings.EqualFold(qid.Type, cid.Type) {
				continue
			}
			score := 1.0
			qc := qid.CountryCode
			cc := strings.TrimSpace(cid.CountryCode)
			switch {
			case qc == "" || cc == "":
				if qc != cc {
					score = 0.9
				}
			case !strings.EqualFold(qc, cc):
				score = 0.7
			}
			if score > best {
				best = score
			}
		}
	}
	return best
}

// scoreCrypto returns 1.0 when any wallet pair matches: currency compared
// case-insensitively, address byte-exact since most chains are
// case-sensitive.
func scoreCrypto(qWallets, cWallets []entity.CryptoAddress) float64 {
	for _, qw := range qWallets {
		if qw.Address == "" {
			continue
		}
		for _, cw := range cWallets {
			if qw.Address == cw.Address && strings.EqualFold(qw.Currency, cw.Currency) {
				return 1.0
			}
		}
	}
	return 0.0
}

// scoreContact returns 1.0 when the email (case-insensitive) or the phone
// (separators stripped) matches exactly.
func scoreContact(q PreparedQuery, c *entity.Entity, pf *entity.PreparedFields) float64 {
	if q.Email != "" {
		if cEmail := strings.ToLower(strings.TrimSpace(c.Contact.Email)); cEmail != "" && cEmail == q.Email {
			return 1.0
		}
	}
	if q.Phone != "" {
		cPhone := pf.NormalizedPhone
		if cPhone == "" {
			cPhone = prepare.NormalizeID(c.Contact.Phone)
		}
		if cPhone != "" && cPhone == q.Phone {
			return 1.0
		}
	}
	return 0.0
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
