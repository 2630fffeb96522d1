package language

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		input string
		code  string
		label string
	}{
		{"", AutoCode, "Auto-detect"},
		{"auto", AutoCode, "Auto-detect"},
		{"en", "en", "English"},
		{"EN", "en", "English"},
		{"eng", "en", "English"},
		{"fre", "fr", "French"},
		{"German", "de", "German"},
		{"en-US", "en", "English"},
		{"pt-BR", "pt", "Portuguese"},
		{"ca", "ca", "Catalan"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			sel, err := Resolve(tt.input)
			if err != nil {
				t.Fatalf("Resolve(%q) returned error: %v", tt.input, err)
			}
			if sel.Code != tt.code {
				t.Fatalf("Resolve(%q).Code = %q, want %q", tt.input, sel.Code, tt.code)
			}
			if sel.Label != tt.label {
				t.Fatalf("Resolve(%q).Label = %q, want %q", tt.input, sel.Label, tt.label)
			}
		})
	}
}

func TestResolveRejectsGarbage(t *testing.T) {
	for _, input := range []string{"not a language", "english!!"} {
		if _, err := Resolve(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestSelectorHelpers(t *testing.T) {
	if !Auto().IsAuto() {
		t.Fatal("expected auto selector to report IsAuto")
	}
	sel := Selector{Label: "English", Code: "en"}
	if sel.IsAuto() {
		t.Fatal("expected explicit selector not to be auto")
	}
	if sel.String() != "English (en)" {
		t.Fatalf("unexpected String(): %q", sel.String())
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName(""); got != "Unknown" {
		t.Fatalf("DisplayName(\"\") = %q", got)
	}
	if got := DisplayName("ja"); got != "Japanese" {
		t.Fatalf("DisplayName(ja) = %q", got)
	}
}
