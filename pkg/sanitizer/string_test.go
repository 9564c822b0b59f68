package sanitizer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  Rooftop Jazz Night  ", want: "Rooftop Jazz Night"},
		{name: "multiple spaces between words", input: "Rooftop    Jazz", want: "Rooftop Jazz"},
		{name: "tabs and newlines", input: "Rooftop\t\nJazz", want: "Rooftop Jazz"},
		{name: "control characters", input: "Jazz\x00\x07 Night", want: "Jazz Night"},
		{name: "empty string", input: "", want: ""},
		{name: "only whitespace", input: "   \t\n  ", want: ""},
		{name: "preserve special characters", input: " Café & Spa™ ", want: "Café & Spa™"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.input); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeFreeTextKeepsLineBreaks(t *testing.T) {
	got := NormalizeFreeText("  vegetarian meal\nwheelchair access \x01 ")
	want := "vegetarian meal\nwheelchair access"
	if got != want {
		t.Errorf("NormalizeFreeText() = %q, want %q", got, want)
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	input := strings.Repeat("é", MaxReasonLength+10)
	got := NormalizeReason(input)
	if n := utf8.RuneCountInString(got); n != MaxReasonLength {
		t.Errorf("expected %d runes, got %d", MaxReasonLength, n)
	}
}

func TestNormalizeCurrency(t *testing.T) {
	if got := NormalizeCurrency(" USD "); got != "usd" {
		t.Errorf("NormalizeCurrency() = %q, want %q", got, "usd")
	}
}

func TestNormalizersAreIdempotent(t *testing.T) {
	inputs := []string{"  a  b ", "x\ny", "\x00z", ""}
	for _, in := range inputs {
		once := NormalizeFreeText(in)
		if twice := NormalizeFreeText(once); twice != once {
			t.Errorf("NormalizeFreeText not idempotent for %q: %q vs %q", in, once, twice)
		}
		once = NormalizeTitle(in)
		if twice := NormalizeTitle(once); twice != once {
			t.Errorf("NormalizeTitle not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestNormalizeIDs(t *testing.T) {
	got := NormalizeIDs([]string{" a ", "b", "a", "", "  "})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("NormalizeIDs() = %v, want [a b]", got)
	}
}
