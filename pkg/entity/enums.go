package entity

import "strings"

// Source identifies the government watchlist an entity was aggregated from.
type Source string

const (
	SourceOFACSDN Source = "OFAC_SDN"
	SourceUSCSL   Source = "US_CSL"
	SourceEUCSL   Source = "EU_CSL"
	SourceUKCSL   Source = "UK_CSL"
)

// String returns the wire representation of a Source.
func (s Source) String() string {
	return string(s)
}

// SourceNames provides human-readable names for list info and reports.
var SourceNames = map[Source]string{
	SourceOFACSDN: "OFAC Specially Designated Nationals",
	SourceUSCSL:   "US Consolidated Screening List",
	SourceEUCSL:   "EU Consolidated Sanctions List",
	SourceUKCSL:   "UK Consolidated Sanctions List",
}

// Name returns the human-readable name for a Source.
func (s Source) Name() string {
	if name, ok := SourceNames[s]; ok {
		return name
	}
	return string(s)
}

// sourceAliases maps the spellings accepted on the wire to canonical sources.
var sourceAliases = map[string]Source{
	"ofac_sdn": SourceOFACSDN,
	"sdn":      SourceOFACSDN,
	"ofac":     SourceOFACSDN,
	"us_csl":   SourceUSCSL,
	"uscsl":    SourceUSCSL,
	"eu_csl":   SourceEUCSL,
	"eucsl":    SourceEUCSL,
	"uk_csl":   SourceUKCSL,
	"ukcsl":    SourceUKCSL,
}

// ParseSource converts a wire string to a Source. The empty string parses to
// the empty Source (no filter); unknown values report ok=false.
func ParseSource(s string) (Source, bool) {
	if s == "" {
		return "", true
	}
	if src, ok := sourceAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return src, true
	}
	return "", false
}

// AllSources returns every supported watchlist source.
func AllSources() []Source {
	return []Source{SourceOFACSDN, SourceUSCSL, SourceEUCSL, SourceUKCSL}
}

// Type classifies the kind of identity an entity record describes.
type Type string

const (
	TypePerson       Type = "PERSON"
	TypeBusiness     Type = "BUSINESS"
	TypeOrganization Type = "ORGANIZATION"
	TypeVessel       Type = "VESSEL"
	TypeAircraft     Type = "AIRCRAFT"
	TypeUnknown      Type = "UNKNOWN"
)

// String returns the wire representation of a Type.
func (t Type) String() string {
	return string(t)
}

// typeAliases maps the spellings accepted on the wire to canonical types.
var typeAliases = map[string]Type{
	"person":       TypePerson,
	"individual":   TypePerson,
	"business":     TypeBusiness,
	"company":      TypeBusiness,
	"organization": TypeOrganization,
	"organisation": TypeOrganization,
	"org":          TypeOrganization,
	"vessel":       TypeVessel,
	"ship":         TypeVessel,
	"aircraft":     TypeAircraft,
	"plane":        TypeAircraft,
	"unknown":      TypeUnknown,
}

// ParseType converts a wire string to a Type. The empty string parses to the
// empty Type (no filter); unknown values report ok=false.
func ParseType(s string) (Type, bool) {
	if s == "" {
		return "", true
	}
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, true
	}
	return "", false
}

// AllTypes returns every filterable entity type. TypeUnknown is a valid record
// state but not a filter value.
func AllTypes() []Type {
	return []Type{TypePerson, TypeBusiness, TypeOrganization, TypeVessel, TypeAircraft}
}
