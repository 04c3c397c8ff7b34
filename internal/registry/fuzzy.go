package registry

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// closestMatch returns the candidate most similar to word whose similarity
// ratio is at least cutoff. The ratio is 2*M/T over characters, where M is
// the number of matched characters and T the combined length. Ties go to the
// lexicographically smallest candidate.
func closestMatch(word string, candidates []string, cutoff float64) (string, float64, bool) {
	if word == "" || len(candidates) == 0 {
		return "", 0, false
	}

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	m := difflib.NewMatcher(nil, chars(word))
	best, bestScore := "", -1.0
	for _, c := range sorted {
		m.SetSeq1(chars(c))
		if m.RealQuickRatio() < cutoff || m.QuickRatio() < cutoff {
			continue
		}
		score := m.Ratio()
		if score >= cutoff && score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < 0 {
		return "", 0, false
	}
	return best, bestScore, true
}

// Similarity returns the character-level similarity ratio of a and b in [0, 1].
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

func chars(s string) []string {
	return strings.Split(s, "")
}
