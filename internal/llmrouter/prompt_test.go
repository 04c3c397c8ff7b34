package llmrouter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestOneLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"collapses whitespace", "  how is\n\tthe   economy ", 200, "how is the economy"},
		{"short is untouched", "inflation", 9, "inflation"},
		{"cuts ascii", "unemployment", 5, "unemp..."},
		{"cuts on rune boundary", "prix à la consommation", 6, "prix à..."},
		{"multibyte only", "日本の失業率", 3, "日本の..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := oneLine(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestBuildPromptTruncatesHistory(t *testing.T) {
	long := strings.Repeat("é", 300)
	prompt := buildPrompt("and wages?", "CATALOG", []Turn{{Query: long, Answer: "Shown: UNRATE"}})

	assert.True(t, utf8.ValidString(prompt))
	assert.Contains(t, prompt, "- User: "+strings.Repeat("é", 200)+"...\n")
	assert.Contains(t, prompt, "USER QUERY: \"and wages?\"")
}
