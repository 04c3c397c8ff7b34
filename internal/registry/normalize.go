package registry

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	versusAbbrevRe = regexp.MustCompile(`\bv\.?\s+`)
	versusWordRe   = regexp.MustCompile(`\bversus\b`)
	possessiveRe   = regexp.MustCompile(`(\w)'s\b`)
	pluralPossRe   = regexp.MustCompile(`(\w)s'(\s|$)`)
	trailingPunct  = regexp.MustCompile(`[?!.]+$`)
	prefixFillerRe = regexp.MustCompile(`^(?:what is|what are|what's|whats|show me|show|tell me about|how is|how are|how has|how have|give me)\s+`)
	suffixFillerRe = regexp.MustCompile(`\s+(?:changed|doing|looking|trending)$`)
	articleRe      = regexp.MustCompile(`\bthe\b`)

	quoteFolder = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`)
)

// maxNormalizePasses bounds the rewrite loop; real queries settle in two or three.
const maxNormalizePasses = 32

// Normalize maps a free-text query to the form plan keys are stored under:
// lowercase, "v."/"versus" spelled "vs", possessives, question fillers,
// trailing state verbs, trailing punctuation and the article "the" removed,
// whitespace collapsed. Rules are applied until nothing changes, so
// Normalize(Normalize(q)) == Normalize(q).
func Normalize(query string) string {
	q := norm.NFKC.String(query)
	q = quoteFolder.Replace(q)
	q = norm.NFKC.String(strings.ToLower(q))
	q = collapse(q)

	for i := 0; i < maxNormalizePasses; i++ {
		next := normalizeOnce(q)
		if next == q {
			break
		}
		q = next
	}
	return q
}

func normalizeOnce(q string) string {
	q = versusAbbrevRe.ReplaceAllString(q, "vs ")
	q = versusWordRe.ReplaceAllString(q, "vs")
	q = trailingPunct.ReplaceAllString(q, "")
	q = strings.TrimSpace(q)
	// fillers first: "what's" must not be read as a possessive
	q = prefixFillerRe.ReplaceAllString(q, "")
	q = suffixFillerRe.ReplaceAllString(q, "")
	q = possessiveRe.ReplaceAllString(q, "${1}")
	q = pluralPossRe.ReplaceAllString(q, "${1}s${2}")
	q = articleRe.ReplaceAllString(q, " ")
	return collapse(q)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
