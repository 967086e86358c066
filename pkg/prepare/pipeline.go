package prepare

import (
	"strings"

	"github.com/sentriq/screend/pkg/entity"
)

// Pipeline runs the full preparation sequence over an entity. It is stateless
// apart from the stop-word toggle, so one instance can prepare a whole list
// concurrently.
type Pipeline struct {
	// KeepStopwords leaves particles in normalizedPrimaryName and
	// normalizedAltNames. Word combinations always build from the
	// pre-stop-word forms either way.
	KeepStopwords bool
}

// NewPipeline returns a pipeline with the given stop-word behavior.
func NewPipeline(keepStopwords bool) *Pipeline {
	return &Pipeline{KeepStopwords: keepStopwords}
}

// Prepare computes PreparedFields for one entity. It never fails: missing
// inputs contribute empty strings or lists. The steps run in a fixed order
// so two runs over the same entity produce identical output.
func (p *Pipeline) Prepare(e *entity.Entity) *entity.PreparedFields {
	pf := &entity.PreparedFields{}
	if e == nil {
		return pf
	}

	lang := Detect(e.PrimaryName)
	pf.DetectedLanguage = lang

	primaryPre := p.preNormalize(e.PrimaryName)
	pf.NormalizedPrimaryName = p.applyStopwords(primaryPre, lang)

	// Alternate names keep two forms: the pre-stop-word form feeds word
	// combinations, the filtered form is matched directly. Language is
	// detected per alt since lists mix scripts within one record.
	altsPre := make([]string, 0, len(e.AltNames))
	altLangs := make([]string, 0, len(e.AltNames))
	seenPre := map[string]struct{}{}
	if primaryPre != "" {
		seenPre[primaryPre] = struct{}{}
	}
	seenAlt := map[string]struct{}{}
	if pf.NormalizedPrimaryName != "" {
		// An alt identical to the primary adds nothing to matching.
		seenAlt[pf.NormalizedPrimaryName] = struct{}{}
	}
	for _, alt := range e.AltNames {
		altPre := p.preNormalize(alt)
		if altPre == "" {
			continue
		}
		altLang := Detect(altPre)
		if _, dup := seenPre[altPre]; !dup {
			seenPre[altPre] = struct{}{}
			altsPre = append(altsPre, altPre)
			altLangs = append(altLangs, altLang)
		}
		filtered := p.applyStopwords(altPre, altLang)
		if filtered == "" {
			continue
		}
		if _, dup := seenAlt[filtered]; !dup {
			seenAlt[filtered] = struct{}{}
			pf.NormalizedAltNames = append(pf.NormalizedAltNames, filtered)
		}
	}

	allPre := make([]string, 0, 1+len(altsPre))
	if primaryPre != "" {
		allPre = append(allPre, primaryPre)
	}
	allPre = append(allPre, altsPre...)

	seenCombo := map[string]struct{}{}
	for _, name := range allPre {
		for _, variant := range Combinations(name) {
			if _, dup := seenCombo[variant]; dup {
				continue
			}
			seenCombo[variant] = struct{}{}
			pf.WordCombinations = append(pf.WordCombinations, variant)
		}
	}

	// Stop-word-free and title-free unions are built regardless of the
	// KeepStopwords toggle; that flag only changes the primary/alt fields.
	seenNoStop := map[string]struct{}{}
	if primaryPre != "" {
		addUnique(&pf.NormalizedNamesWithoutStopwords, seenNoStop, RemoveStopwords(primaryPre, lang))
	}
	for i, altPre := range altsPre {
		addUnique(&pf.NormalizedNamesWithoutStopwords, seenNoStop, RemoveStopwords(altPre, altLangs[i]))
	}

	seenNoTitle := map[string]struct{}{}
	for _, name := range pf.NormalizedNamesWithoutStopwords {
		addUnique(&pf.NormalizedNamesWithoutCompanyTitles, seenNoTitle, StripCompanyTitles(name))
	}

	seenAddr := map[string]struct{}{}
	for _, addr := range e.Addresses {
		addUnique(&pf.NormalizedAddresses, seenAddr, AddressDisplay(addr))
	}

	pf.NormalizedPhone = NormalizeID(e.Contact.Phone)
	return pf
}

// PrepareQueryName normalizes a search-time name the same way entity names
// are prepared, so query and candidate compare in the same form.
func (p *Pipeline) PrepareQueryName(name string) string {
	pre := p.preNormalize(name)
	return p.applyStopwords(pre, Detect(name))
}

// preNormalize is steps two of the pipeline: apostrophe strip, SDN comma
// reorder, then full normalization.
func (p *Pipeline) preNormalize(name string) string {
	return Normalize(ReorderSDNName(stripApostrophes(name)))
}

func (p *Pipeline) applyStopwords(name, lang string) string {
	if p.KeepStopwords {
		return name
	}
	return RemoveStopwords(name, lang)
}

// AddressDisplay builds the single matchable string for one address:
// normalized line1, city, state, postal code and country joined by single
// spaces, empty fields skipped.
func AddressDisplay(a entity.Address) string {
	fields := []string{a.Line1, a.City, a.State, a.PostalCode, a.Country}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if n := NormalizeAddressField(f); n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, " ")
}

func addUnique(dst *[]string, seen map[string]struct{}, value string) {
	if value == "" {
		return
	}
	if _, dup := seen[value]; dup {
		return
	}
	seen[value] = struct{}{}
	*dst = append(*dst, value)
}
