// Package entity defines the watchlist data model shared by the prepare
// pipeline, the scorer, and the index: sanctioned entities as delivered by
// list parsers, the precomputed fields matching runs on, and the partial
// query records callers submit at search time.
package entity

// Address is one structured location attached to an entity.
type Address struct {
	Line1      string `json:"line1,omitempty" yaml:"line1,omitempty"`
	Line2      string `json:"line2,omitempty" yaml:"line2,omitempty"`
	City       string `json:"city,omitempty" yaml:"city,omitempty"`
	State      string `json:"state,omitempty" yaml:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty" yaml:"postalCode,omitempty"`
	Country    string `json:"country,omitempty" yaml:"country,omitempty"`
}

// GovernmentID is a passport, national id, tax id, or similar identifier
// assigned by a government body.
type GovernmentID struct {
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Identifier  string `json:"identifier" yaml:"identifier"`
	CountryCode string `json:"countryCode,omitempty" yaml:"countryCode,omitempty"`
}

// CryptoAddress is a cryptocurrency wallet attributed to an entity.
// Address comparison is byte-exact and case-sensitive.
type CryptoAddress struct {
	Currency string `json:"currency,omitempty" yaml:"currency,omitempty"`
	Address  string `json:"address" yaml:"address"`
}

// Contact holds the reachable-identity fields carried by some lists.
type Contact struct {
	Email   string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone   string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Fax     string `json:"fax,omitempty" yaml:"fax,omitempty"`
	Website string `json:"website,omitempty" yaml:"website,omitempty"`
}

// Person is the type-specific payload for PERSON entities.
type Person struct {
	BirthDate    string   `json:"birthDate,omitempty" yaml:"birthDate,omitempty"`
	PlaceOfBirth string   `json:"placeOfBirth,omitempty" yaml:"placeOfBirth,omitempty"`
	Titles       []string `json:"titles,omitempty" yaml:"titles,omitempty"`
}

// Business is the type-specific payload for BUSINESS and ORGANIZATION
// entities.
type Business struct {
	RegistrationNumber   string `json:"registrationNumber,omitempty" yaml:"registrationNumber,omitempty"`
	IncorporationCountry string `json:"incorporationCountry,omitempty" yaml:"incorporationCountry,omitempty"`
}

// SanctionsInfo carries the designation metadata published with a record.
type SanctionsInfo struct {
	Programs []string `json:"programs,omitempty" yaml:"programs,omitempty"`
	Remarks  string   `json:"remarks,omitempty" yaml:"remarks,omitempty"`
}

// PreparedFields holds the precomputed normalization outputs matching runs
// on. They are produced once per entity when the index is rebuilt; parsers
// never populate them.
type PreparedFields struct {
	// NormalizedPrimaryName is the normalized primary name with stop words
	// removed in the detected language (unless keepStopwords is set).
	NormalizedPrimaryName string `json:"normalizedPrimaryName"`

	// NormalizedAltNames are the alternate names, normalized and
	// stop-word-filtered the same way, deduped with empties dropped.
	NormalizedAltNames []string `json:"normalizedAltNames,omitempty"`

	// NormalizedNamesWithoutStopwords is the union of primary and alternate
	// names with stop words removed, deduped.
	NormalizedNamesWithoutStopwords []string `json:"normalizedNamesWithoutStopwords,omitempty"`

	// NormalizedNamesWithoutCompanyTitles is the union of names with trailing
	// corporate suffixes iteratively stripped, deduped.
	NormalizedNamesWithoutCompanyTitles []string `json:"normalizedNamesWithoutCompanyTitles,omitempty"`

	// WordCombinations are particle-merged variants of every name, generated
	// from the pre-stop-word forms so particles like "de la" survive long
	// enough to merge. The first element is always the pre-stop-word
	// normalized primary name.
	WordCombinations []string `json:"wordCombinations,omitempty"`

	// NormalizedAddresses are display strings built from lowercased address
	// fields with commas and periods dropped.
	NormalizedAddresses []string `json:"normalizedAddresses,omitempty"`

	// NormalizedPhone is the contact phone with separators stripped.
	NormalizedPhone string `json:"normalizedPhone,omitempty"`

	// DetectedLanguage is the heuristic language tag of the primary name,
	// used to pick the stop-word list.
	DetectedLanguage string `json:"detectedLanguage,omitempty"`
}

// Entity is one identity known to be on a watchlist. Parsers populate every
// field except Prepared; the index owns preparation.
type Entity struct {
	ID              string          `json:"id" yaml:"id"`
	SourceID        string          `json:"sourceId,omitempty" yaml:"sourceId,omitempty"`
	PrimaryName     string          `json:"primaryName" yaml:"primaryName"`
	AltNames        []string        `json:"altNames,omitempty" yaml:"altNames,omitempty"`
	Type            Type            `json:"type" yaml:"type"`
	Source          Source          `json:"source" yaml:"source"`
	Addresses       []Address       `json:"addresses,omitempty" yaml:"addresses,omitempty"`
	GovernmentIDs   []GovernmentID  `json:"governmentIds,omitempty" yaml:"governmentIds,omitempty"`
	CryptoAddresses []CryptoAddress `json:"cryptoAddresses,omitempty" yaml:"cryptoAddresses,omitempty"`
	Contact         Contact         `json:"contact,omitempty" yaml:"contact,omitempty"`
	Person          *Person         `json:"person,omitempty" yaml:"person,omitempty"`
	Business        *Business       `json:"business,omitempty" yaml:"business,omitempty"`
	SanctionsInfo   SanctionsInfo   `json:"sanctionsInfo,omitempty" yaml:"sanctionsInfo,omitempty"`
	Prepared        *PreparedFields `json:"-" yaml:"-"`
}

// BirthDate returns the entity's birthdate when it carries a person payload.
func (e *Entity) BirthDate() string {
	if e.Person == nil {
		return ""
	}
	return e.Person.BirthDate
}

// Query is a partial entity submitted at search time. Any subset of fields
// may be empty; the scorer only reads it.
type Query struct {
	SourceID        string          `json:"sourceId,omitempty"`
	Name            string          `json:"name"`
	Type            Type            `json:"type,omitempty"`
	Source          Source          `json:"source,omitempty"`
	Addresses       []Address       `json:"addresses,omitempty"`
	GovernmentIDs   []GovernmentID  `json:"governmentIds,omitempty"`
	CryptoAddresses []CryptoAddress `json:"cryptoAddresses,omitempty"`
	Contact         Contact         `json:"contact,omitempty"`
	BirthDate       string          `json:"birthDate,omitempty"`
}
