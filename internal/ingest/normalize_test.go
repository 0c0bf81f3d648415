package ingest

import "testing"

func TestCleanValue(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "ABC-1", "ABC-1"},
		{"surrounding whitespace", "  ABC-1  ", "ABC-1"},
		{"bom prefix", "\ufeff" + "ABC-1", "ABC-1"},
		{"internal whitespace collapsed", "Cordless   Drill\t18V", "Cordless Drill 18V"},
		{"control characters removed", "Wid\x01get\x7f", "Widget"},
		{"only whitespace", " \t\n ", ""},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CleanValue(tc.input)
			if got != tc.want {
				t.Fatalf("CleanValue(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestCleanValueIdempotent(t *testing.T) {
	inputs := []string{"\ufeff  Café   Crème ", "Widget", " a \t b ", "éclair"}
	for _, input := range inputs {
		once := CleanValue(input)
		twice := CleanValue(once)
		if once != twice {
			t.Fatalf("CleanValue not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestCleanValueNormalizesComposition(t *testing.T) {
	// Decomposed e + combining acute must equal the precomposed form.
	decomposed := "e\u0301clair"
	precomposed := "\u00e9clair"
	if CleanValue(decomposed) != CleanValue(precomposed) {
		t.Fatal("expected NFC to unify decomposed and precomposed forms")
	}
	if CleanValue(decomposed) != precomposed {
		t.Fatalf("expected precomposed output, got %q", CleanValue(decomposed))
	}
}

func TestCoerceNumber(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"plain integer", "10", 10, true},
		{"decimal", "12.50", 12.5, true},
		{"currency prefix", "$12.50", 12.5, true},
		{"currency suffix", "12.50 €", 12.5, true},
		{"negative", "-5", -5, true},
		{"thousands separated by spaces", "1 234.5", 1234.5, true},
		{"empty", "", 0, false},
		{"whitespace only", "   ", 0, false},
		{"letters only", "abc", 0, false},
		{"lone dot", ".", 0, false},
		{"lone minus", "-", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := CoerceNumber(tc.input)
			if ok != tc.ok {
				t.Fatalf("CoerceNumber(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("CoerceNumber(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}
