package validation

import (
	"reflect"
	"strings"
	"testing"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		valid   bool
		wantMsg string
	}{
		{"simple", "how is the economy", true, ""},
		{"question", "What's inflation doing?", true, ""},
		{"unicode", "économie française", true, ""},
		{"empty", "", false, "query is required"},
		{"whitespace only", "   ", false, "query is required"},
		{"too long", strings.Repeat("a", MaxQueryLength+1), false, "query is too long"},
		{"max length", strings.Repeat("a", MaxQueryLength), true, ""},
		{"control character", "jobs\x00report", false, "query contains control characters"},
		{"invalid utf8", "jobs\xff", false, "query must be valid UTF-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, msg := ValidateQuery(tt.query)
			if valid != tt.valid {
				t.Errorf("ValidateQuery(%q) valid = %v, want %v", tt.query, valid, tt.valid)
			}
			if msg != tt.wantMsg {
				t.Errorf("ValidateQuery(%q) msg = %q, want %q", tt.query, msg, tt.wantMsg)
			}
		})
	}
}

func TestValidateSeriesID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"fred id", "UNRATE", true},
		{"digits", "A191RO1Q156NBEA", true},
		{"underscore", "MY_SERIES", true},
		{"dot", "BAMLH0A0HYM2.EY", true},
		{"lowercase", "unrate", false},
		{"empty", "", false},
		{"leading hyphen", "-UNRATE", false},
		{"space", "UN RATE", false},
		{"too long", strings.Repeat("A", 41), false},
		{"injection", "UNRATE;DROP", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateSeriesID(tt.id); got != tt.want {
				t.Errorf("ValidateSeriesID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestSanitizeSeriesIDs(t *testing.T) {
	got := SanitizeSeriesIDs([]string{" unrate", "PAYEMS", "UNRATE", "bad id", "", "cpiaucsl"})
	want := []string{"UNRATE", "PAYEMS", "CPIAUCSL"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SanitizeSeriesIDs() = %v, want %v", got, want)
	}
}

func TestContainsPhrase(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		phrase string
		want   bool
	}{
		{"single word", "black unemployment", "black", true},
		{"case insensitive", "Black Unemployment", "black", true},
		{"multi word", "African American jobs", "african american", true},
		{"not inside word", "women's wages", "men", false},
		{"possessive", "women's wages", "women", true},
		{"prefix of word", "manufacturing jobs", "man", false},
		{"punctuation boundary", "jobs (hispanic)", "hispanic", true},
		{"partial phrase", "american jobs", "african american", false},
		{"empty phrase", "anything", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsPhrase(tt.text, tt.phrase); got != tt.want {
				t.Errorf("ContainsPhrase(%q, %q) = %v, want %v", tt.text, tt.phrase, got, tt.want)
			}
		})
	}
}

func TestFirstPhrase(t *testing.T) {
	got, ok := FirstPhrase("latino workers", []string{"hispanic", "latino", "latina"})
	if !ok || got != "latino" {
		t.Errorf("FirstPhrase() = %q, %v, want latino, true", got, ok)
	}
	if _, ok := FirstPhrase("inflation", []string{"hispanic"}); ok {
		t.Error("FirstPhrase() matched unexpectedly")
	}
}
