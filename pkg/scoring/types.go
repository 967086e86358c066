// Package scoring turns a query and a candidate entity into a multi-factor
// match score. Names go through tokenized Jaro-Winkler, identifiers through
// exact comparison with country awareness, and the factors aggregate into a
// weighted total with critical identifiers dominating when they hit.
package scoring

import (
	"strings"

	"github.com/sentriq/screend/pkg/entity"
	"github.com/sentriq/screend/pkg/prepare"
)

// Breakdown reports every factor the scorer computed plus the aggregate.
// All values are in [0,1]. The search layer applies the match floor; the
// scorer always returns the full breakdown.
type Breakdown struct {
	NameScore          float64 `json:"nameScore"`
	AltNamesScore      float64 `json:"altNamesScore"`
	AddressScore       float64 `json:"addressScore"`
	GovIDScore         float64 `json:"govIdScore"`
	CryptoScore        float64 `json:"cryptoScore"`
	ContactScore       float64 `json:"contactScore"`
	DateScore          float64 `json:"dateScore"`
	TotalWeightedScore float64 `json:"totalWeightedScore"`
}

// exactBreakdown is returned for source-id identity: every factor pinned.
func exactBreakdown() Breakdown {
	return Breakdown{
		NameScore:          1.0,
		AltNamesScore:      1.0,
		AddressScore:       1.0,
		GovIDScore:         1.0,
		CryptoScore:        1.0,
		ContactScore:       1.0,
		DateScore:          1.0,
		TotalWeightedScore: 1.0,
	}
}

// PreparedQuery is a query with every comparable field pre-normalized, so
// scoring one query against thousands of candidates does not repeat the
// preparation work per candidate.
type PreparedQuery struct {
	SourceID  string
	Name      string
	Type      entity.Type
	Source    entity.Source
	GovIDs    []entity.GovernmentID
	Cryptos   []entity.CryptoAddress
	Email     string
	Phone     string
	BirthDate string
	Addresses []entity.Address
}

// PrepareQuery normalizes a raw query once: the name runs through the same
// pipeline entity names do, identifiers and phones lose separators, email
// lowercases. Government ids whose identifier normalizes to nothing are
// dropped.
func PrepareQuery(q *entity.Query, pipe *prepare.Pipeline) PreparedQuery {
	pq := PreparedQuery{
		SourceID:  strings.TrimSpace(q.SourceID),
		Name:      pipe.PrepareQueryName(q.Name),
		Type:      q.Type,
		Source:    q.Source,
		Email:     strings.ToLower(strings.TrimSpace(q.Contact.Email)),
		Phone:     prepare.NormalizeID(q.Contact.Phone),
		BirthDate: strings.TrimSpace(q.BirthDate),
		Addresses: q.Addresses,
		Cryptos:   q.CryptoAddresses,
	}
	for _, id := range q.GovernmentIDs {
		normalized := prepare.NormalizeID(id.Identifier)
		if normalized == "" {
			continue
		}
		pq.GovIDs = append(pq.GovIDs, entity.GovernmentID{
			Type:        strings.TrimSpace(id.Type),
			Identifier:  normalized,
			CountryCode: strings.TrimSpace(id.CountryCode),
		})
	}
	return pq
}
