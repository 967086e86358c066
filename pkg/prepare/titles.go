package prepare

import "strings"

// companyTitles lists the corporate designators stripped from the end of
// normalized names, longest first so " corporation" wins over " corp". Each
// entry keeps its leading space: a name that consists only of a designator
// ("llc") is left alone.
var companyTitles = []string{
	" incorporated",
	" corporation",
	" l l c",
	" limited",
	" company",
	" llc",
	" inc",
	" corp",
	" ltd",
	" co",
	" sa",
	" srl",
	" gmbh",
}

// StripCompanyTitles removes trailing corporate designators, repeating until
// none match so stacked suffixes ("acme corporation llc") collapse fully.
func StripCompanyTitles(name string) string {
	for {
		stripped := false
		for _, suffix := range companyTitles {
			if strings.HasSuffix(name, suffix) {
				name = strings.TrimSpace(strings.TrimSuffix(name, suffix))
				stripped = true
				break
			}
		}
		if !stripped {
			return name
		}
	}
}
