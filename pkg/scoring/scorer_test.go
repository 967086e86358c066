package scoring

import (
	"testing"

	"github.com/sentriq/screend/pkg/config"
	"github.com/sentriq/screend/pkg/entity"
	"github.com/sentriq/screend/pkg/prepare"
)

func newScorer() *Scorer {
	return NewScorer(config.DefaultScoreConfig())
}

func prepared(q *entity.Query) PreparedQuery {
	return PrepareQuery(q, prepare.NewPipeline(false))
}

func candidate(t *testing.T, e *entity.Entity) *entity.Entity {
	t.Helper()
	e.Prepared = prepare.NewPipeline(false).Prepare(e)
	return e
}

func TestScoreSourceIDShortcut(t *testing.T) {
	s := newScorer()
	c := candidate(t, &entity.Entity{
		ID:          "sdn-1",
		SourceID:    "22790",
		PrimaryName: "Completely Different Name",
	})

	b := s.Score(prepared(&entity.Query{SourceID: "22790", Name: "nobody"}), c, nil)

	if b.TotalWeightedScore != 1.0 || b.NameScore != 1.0 || b.GovIDScore != 1.0 {
		t.Errorf("matching source ids should pin every component, got %+v", b)
	}
}

func TestScoreSourceIDMismatchPenalty(t *testing.T) {
	s := newScorer()
	c := candidate(t, &entity.Entity{
		ID:          "sdn-1",
		SourceID:    "11111",
		PrimaryName: "Nicolas Maduro",
	})

	withMismatch := s.Score(prepared(&entity.Query{SourceID: "99999", Name: "Nicolas Maduro"}), c, nil)
	without := s.Score(prepared(&entity.Query{Name: "Nicolas Maduro"}), c, nil)

	if withMismatch.TotalWeightedScore >= without.TotalWeightedScore {
		t.Errorf("source id mismatch should drag the total down: %v >= %v",
			withMismatch.TotalWeightedScore, without.TotalWeightedScore)
	}
	if without.TotalWeightedScore != 1.0 {
		t.Errorf("identical name alone should score 1.0, got %v", without.TotalWeightedScore)
	}
}

func TestScoreGovIDGrading(t *testing.T) {
	tests := []struct {
		name  string
		query entity.GovernmentID
		cand  entity.GovernmentID
		want  float64
	}{
		{
			"identifier and country agree",
			entity.GovernmentID{Type: "passport", Identifier: "A-123-456", CountryCode: "VE"},
			entity.GovernmentID{Type: "Passport", Identifier: "A123456", CountryCode: "ve"},
			1.0,
		},
		{
			"one side missing country",
			entity.GovernmentID{Identifier: "A123456"},
			entity.GovernmentID{Identifier: "A123456", CountryCode: "VE"},
			0.9,
		},
		{
			"country conflict",
			entity.GovernmentID{Identifier: "A123456", CountryCode: "CO"},
			entity.GovernmentID{Identifier: "A123456", CountryCode: "VE"},
			0.7,
		},
		{
			"type conflict blocks the pair",
			entity.GovernmentID{Type: "passport", Identifier: "A123456"},
			entity.GovernmentID{Type: "tax-id", Identifier: "A123456"},
			0.0,
		},
		{
			"different identifiers",
			entity.GovernmentID{Identifier: "A123456"},
			entity.GovernmentID{Identifier: "B999999"},
			0.0,
		},
	}
	s := newScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := candidate(t, &entity.Entity{
				ID:            "sdn-1",
				PrimaryName:   "Test Person",
				GovernmentIDs: []entity.GovernmentID{tt.cand},
			})
			q := prepared(&entity.Query{Name: "unrelated", GovernmentIDs: []entity.GovernmentID{tt.query}})
			b := s.Score(q, c, nil)
			if b.GovIDScore != tt.want {
				t.Errorf("GovIDScore = %v, want %v", b.GovIDScore, tt.want)
			}
		})
	}
}

func TestScoreExactMatchDominance(t *testing.T) {
	s := newScorer()
	c := candidate(t, &entity.Entity{
		ID:            "sdn-1",
		PrimaryName:   "MADURO MOROS, Nicolas",
		GovernmentIDs: []entity.GovernmentID{{Identifier: "V5892464", CountryCode: "VE"}},
	})

	q := prepared(&entity.Query{
		Name:          "Nicolas Maduro Moros",
		GovernmentIDs: []entity.GovernmentID{{Identifier: "V5892464", CountryCode: "VE"}},
	})
	b := s.Score(q, c, nil)

	bestName := max(b.NameScore, b.AltNamesScore)
	want := 0.7 + 0.3*bestName
	if b.TotalWeightedScore != want {
		t.Errorf("TotalWeightedScore = %v, want dominance formula %v", b.TotalWeightedScore, want)
	}
	if b.TotalWeightedScore < 0.95 {
		t.Errorf("exact id with near-exact name should be high confidence, got %v", b.TotalWeightedScore)
	}
}

func TestScoreCryptoExact(t *testing.T) {
	s := newScorer()
	wallet := "1Kys8fqDen8NGFUJ6AFcXfFW5qquuTH4eh"
	c := candidate(t, &entity.Entity{
		ID:              "sdn-1",
		PrimaryName:     "Lazarus Group",
		CryptoAddresses: []entity.CryptoAddress{{Currency: "XBT", Address: wallet}},
	})

	hit := s.Score(prepared(&entity.Query{
		Name:            "unknown org",
		CryptoAddresses: []entity.CryptoAddress{{Currency: "xbt", Address: wallet}},
	}), c, nil)
	if hit.CryptoScore != 1.0 {
		t.Errorf("CryptoScore = %v, want 1.0 for byte-equal wallet", hit.CryptoScore)
	}

	// Address comparison is case-sensitive; a case-folded wallet is a
	// different wallet.
	miss := s.Score(prepared(&entity.Query{
		Name:            "unknown org",
		CryptoAddresses: []entity.CryptoAddress{{Currency: "XBT", Address: "1kys8fqden8ngfuj6afcxffw5qquuth4eh"}},
	}), c, nil)
	if miss.CryptoScore != 0.0 {
		t.Errorf("CryptoScore = %v, want 0.0 for case-mismatched wallet", miss.CryptoScore)
	}
}

func TestScoreContact(t *testing.T) {
	s := newScorer()
	c := candidate(t, &entity.Entity{
		ID:          "sdn-1",
		PrimaryName: "Acme Trading",
		Contact:     entity.Contact{Email: "Front@Example.com", Phone: "+58 (212) 555-0199"},
	})

	byEmail := s.Score(prepared(&entity.Query{
		Name:    "whoever",
		Contact: entity.Contact{Email: "front@example.com"},
	}), c, nil)
	if byEmail.ContactScore != 1.0 {
		t.Errorf("ContactScore = %v, want 1.0 for case-insensitive email", byEmail.ContactScore)
	}

	byPhone := s.Score(prepared(&entity.Query{
		Name:    "whoever",
		Contact: entity.Contact{Phone: "58-212-555-0199"},
	}), c, nil)
	if byPhone.ContactScore != 1.0 {
		t.Errorf("ContactScore = %v, want 1.0 for separator-stripped phone", byPhone.ContactScore)
	}
}

func TestScoreBirthDate(t *testing.T) {
	s := newScorer()
	c := candidate(t, &entity.Entity{
		ID:          "sdn-1",
		PrimaryName: "Nicolas Maduro Moros",
		Person:      &entity.Person{BirthDate: "1962-11-23"},
	})

	hit := s.Score(prepared(&entity.Query{Name: "Nicolas Maduro", BirthDate: "1962-11-23"}), c, nil)
	if hit.DateScore != 1.0 {
		t.Errorf("DateScore = %v, want 1.0", hit.DateScore)
	}
	miss := s.Score(prepared(&entity.Query{Name: "Nicolas Maduro", BirthDate: "1962-11-24"}), c, nil)
	if miss.DateScore != 0.0 {
		t.Errorf("DateScore = %v, want 0.0", miss.DateScore)
	}
}

func TestScorePhoneticVetoZeroesName(t *testing.T) {
	s := newScorer()
	c := candidate(t, &entity.Entity{ID: "sdn-1", PrimaryName: "Washington Holdings"})

	b := s.Score(prepared(&entity.Query{Name: "Kuznetsov Partners"}), c, nil)
	if b.NameScore != 0.0 {
		t.Errorf("phonetically incompatible names should veto, NameScore = %v", b.NameScore)
	}
}

func TestScoreAltNameRescuesVetoedPrimary(t *testing.T) {
	s := newScorer()
	c := candidate(t, &entity.Entity{
		ID:          "sdn-1",
		PrimaryName: "Hidden Cobra",
		AltNames:    []string{"Lazarus Group"},
	})

	b := s.Score(prepared(&entity.Query{Name: "Lazarus Group"}), c, nil)
	if b.AltNamesScore < 0.99 {
		t.Errorf("AltNamesScore = %v, want ~1.0 for exact alias", b.AltNamesScore)
	}
	if b.TotalWeightedScore < 0.99 {
		t.Errorf("TotalWeightedScore = %v, want ~1.0 via bestName", b.TotalWeightedScore)
	}
}

func TestScorePhaseFlagsDisableFactors(t *testing.T) {
	cfg := config.DefaultScoreConfig()
	cfg.Weights.Phases.GovID = false
	s := NewScorer(cfg)

	c := candidate(t, &entity.Entity{
		ID:            "sdn-1",
		PrimaryName:   "Test Person",
		GovernmentIDs: []entity.GovernmentID{{Identifier: "A123456"}},
	})
	q := prepared(&entity.Query{Name: "test person", GovernmentIDs: []entity.GovernmentID{{Identifier: "A123456"}}})

	b := s.Score(q, c, nil)
	if b.GovIDScore != 0.0 {
		t.Errorf("disabled phase still scored: GovIDScore = %v", b.GovIDScore)
	}
}

func TestScoreBoundsAndBreakdownConsistency(t *testing.T) {
	s := newScorer()
	queries := []*entity.Query{
		{Name: "nicolas maduro"},
		{Name: "x"},
		{Name: "acme trading company llc", BirthDate: "1980-01-01"},
		{Name: "Иван Петров"},
	}
	candidates := []*entity.Entity{
		{ID: "a", PrimaryName: "MADURO MOROS, Nicolas"},
		{ID: "b", PrimaryName: "Acme Trading", Addresses: []entity.Address{{City: "Caracas", Country: "VE"}}},
		{ID: "c", PrimaryName: "X Y Z Shipping", AltNames: []string{"XYZ"}},
	}
	for _, q := range queries {
		pq := prepared(q)
		for _, c := range candidates {
			b := s.Score(pq, candidate(t, c), nil)
			for name, v := range map[string]float64{
				"NameScore": b.NameScore, "AltNamesScore": b.AltNamesScore,
				"AddressScore": b.AddressScore, "GovIDScore": b.GovIDScore,
				"CryptoScore": b.CryptoScore, "ContactScore": b.ContactScore,
				"DateScore": b.DateScore, "TotalWeightedScore": b.TotalWeightedScore,
			} {
				if v < 0.0 || v > 1.0 {
					t.Errorf("query %q vs %s: %s = %v outside [0,1]", q.Name, c.ID, name, v)
				}
			}
		}
	}
}

func TestScoreUnpreparedCandidate(t *testing.T) {
	s := newScorer()
	c := &entity.Entity{ID: "raw-1", PrimaryName: "MADURO MOROS, Nicolas"}

	b := s.Score(prepared(&entity.Query{Name: "Nicolas Maduro Moros"}), c, nil)
	if b.TotalWeightedScore < 0.99 {
		t.Errorf("scorer should prepare on the fly, total = %v", b.TotalWeightedScore)
	}
}
