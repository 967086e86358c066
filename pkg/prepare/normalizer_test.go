package prepare

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "ACME GLOBAL", "acme global"},
		{"accents fold", "José Ángel Muñoz", "jose angel munoz"},
		{"apostrophe removed not spaced", "O'Brien", "obrien"},
		{"typographic apostrophe", "O’Brien", "obrien"},
		{"punctuation becomes space", "al-Qaida: the base", "al qaida the base"},
		{"whitespace collapsed", "  acme \t global  ", "acme global"},
		{"digits kept", "unit 42", "unit 42"},
		{"empty", "", ""},
		{"only punctuation", "-- ... --", ""},
		{"compatibility fold", "Ｆｕｌｌｗｉｄｔｈ", "fullwidth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"José de la Cruz Corporation LLC",
		"O'Brien & Sons, Ltd.",
		"ОАО «Газпром»",
		"plain name",
	}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestReorderSDNName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"last-first swapped", "SMITH, John Michael", "John Michael SMITH"},
		{"no comma unchanged", "John Michael Smith", "John Michael Smith"},
		{"two commas unchanged", "SMITH, John, Jr.", "SMITH, John, Jr."},
		{"tight comma", "MADURO MOROS,Nicolas", "Nicolas MADURO MOROS"},
		{"empty after comma", "SMITH,", "SMITH"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReorderSDNName(tt.input)
			if got != tt.want {
				t.Errorf("ReorderSDNName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"passport with separators", "PA-123 456", "PA123456"},
		{"phone", "+1 (555) 123-4567", "15551234567"},
		{"already clean", "X123", "X123"},
		{"empty", "", ""},
		{"only separators", "--- ---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeID(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeAddressField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"commas and periods dropped", "123 Main St., Suite 4", "123 main st suite 4"},
		{"internal spacing kept", "Av.  Libertador", "av  libertador"},
		{"hyphen kept", "Port-au-Prince", "port-au-prince"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAddressField(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeAddressField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
