package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxQueryLength caps the size of a natural-language query.
const MaxQueryLength = 500

// SeriesIDPattern defines the valid series id format: uppercase alphanumerics
// plus underscore, dot and hyphen.
var SeriesIDPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_.-]{0,39}$`)

// ValidateQuery checks that a query is non-empty, printable and not too long.
func ValidateQuery(query string) (bool, string) {
	q := strings.TrimSpace(query)
	if q == "" {
		return false, "query is required"
	}
	if !utf8.ValidString(q) {
		return false, "query must be valid UTF-8"
	}
	if utf8.RuneCountInString(q) > MaxQueryLength {
		return false, "query is too long"
	}
	for _, r := range q {
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			return false, "query contains control characters"
		}
	}
	return true, ""
}

// NormalizeSeriesID uppercases and trims a series id so lookups are case-insensitive.
func NormalizeSeriesID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// ValidateSeriesID checks if an already-normalized series id matches the allowed pattern.
func ValidateSeriesID(id string) bool {
	return SeriesIDPattern.MatchString(id)
}

// SanitizeSeriesIDs normalizes ids, drops invalid ones and removes
// duplicates while keeping first-seen order.
func SanitizeSeriesIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = NormalizeSeriesID(id)
		if !ValidateSeriesID(id) || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Words lowercases text and splits it into words, treating anything other
// than letters, digits and apostrophes as a separator.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// ContainsPhrase reports whether phrase occurs in text on word boundaries,
// ignoring case. "men" does not match inside "women" and "man" does not
// match inside "manufacturing".
func ContainsPhrase(text, phrase string) bool {
	want := Words(phrase)
	if len(want) == 0 {
		return false
	}
	have := Words(text)
	for i := 0; i+len(want) <= len(have); i++ {
		match := true
		for j, w := range want {
			if trimPossessive(have[i+j]) != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// FirstPhrase returns the first phrase from phrases found in text.
func FirstPhrase(text string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if ContainsPhrase(text, p) {
			return p, true
		}
	}
	return "", false
}

func trimPossessive(w string) string {
	w = strings.TrimSuffix(w, "'s")
	return strings.Trim(w, "'")
}
