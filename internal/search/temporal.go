package search

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"econstats/internal/models"
)

// Lookback presets
const (
	// AllHistory asks the data source for every available observation.
	AllHistory = 0
	// ContextYears is the lookback for historical or comparative questions.
	ContextYears = 20
)

// minFilterYear is the earliest year a temporal phrase may name.
const minFilterYear = 1950

// TemporalFilter is a date window named in a query, such as "since 2015"
// or "pre-covid".
type TemporalFilter struct {
	Focus       string    `json:"focus"`
	Start       time.Time `json:"start,omitzero"`
	End         time.Time `json:"end,omitzero"`
	Years       int       `json:"years,omitempty"`
	Invalid     bool      `json:"invalid,omitempty"`
	Explanation string    `json:"explanation"`

	// phrase is the matched text, removed from the query before routing.
	phrase string
}

var (
	sinceYearRe   = regexp.MustCompile(`\bsince\s+((?:19|20)\d{2})\b`)
	inYearRe      = regexp.MustCompile(`\b(?:in|during|for)\s+((?:19|20)\d{2})\b`)
	yearRangeRe   = regexp.MustCompile(`\b(?:from|between)\s*((?:19|20)\d{2})\s*(?:to|and|-)\s*((?:19|20)\d{2})\b`)
	lastYearRe    = regexp.MustCompile(`\blast\s+year\b`)
	thisYearRe    = regexp.MustCompile(`\bthis\s+year\b`)
	pastYearsRe   = regexp.MustCompile(`\b(?:(?:over|in)\s+)?(?:the\s+)?(?:past|last)\s+(\d+)\s+years?\b`)
	preCovidRe    = regexp.MustCompile(`\b(?:pre[\s-]?(?:covid|pandemic|2020)|before\s+(?:covid|pandemic|the\s+pandemic|2020))\b`)
	duringCovidRe = regexp.MustCompile(`\b(?:during\s+(?:covid|pandemic|the\s+pandemic)|covid\s+era|pandemic\s+period)\b`)
	postCovidRe   = regexp.MustCompile(`\b(?:post[\s-]?(?:covid|pandemic)|after\s+(?:covid|pandemic|the\s+pandemic)|recovery\s+period)\b`)
	greatRecRe    = regexp.MustCompile(`\b(?:(?:during\s+)?(?:the\s+)?great\s+recession|during\s+(?:the\s+)?recession|2008\s+(?:recession|crisis)|financial\s+crisis)\b`)
)

// allHistoryPhrases ask for every available observation.
var allHistoryPhrases = []string{
	"all time", "all data", "full history", "max data", "complete history",
	"since 1950", "since 1960", "since 1970", "since 1980",
	"historical trend", "long-term trend", "long term trend",
	"over the decades", "over decades",
}

// contextPhrases ask for a longer window than the default.
var contextPhrases = []string{
	"great recession", "2008", "financial crisis", "housing crisis",
	"compared to", "comparison", "vs pre-pandemic", "before covid",
	"over the years", "historically", "history of",
	"long-run", "long run", "long-term", "long term", "secular trend",
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ExtractTemporalFilter finds the first date window named in query. Years
// in the future yield an Invalid filter that only carries a note.
func ExtractTemporalFilter(query string, now time.Time) (TemporalFilter, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	current := now.Year()

	if m := sinceYearRe.FindStringSubmatch(q); m != nil {
		year, _ := strconv.Atoi(m[1])
		if year >= minFilterYear && year <= current {
			return TemporalFilter{
				Focus:       fmt.Sprintf("since %d", year),
				Start:       date(year, time.January, 1),
				Years:       current - year + 2,
				Explanation: fmt.Sprintf("Showing data from %d to present.", year),
				phrase:      m[0],
			}, true
		}
	}

	if m := inYearRe.FindStringSubmatch(q); m != nil {
		year, _ := strconv.Atoi(m[1])
		switch {
		case year >= minFilterYear && year <= current:
			return TemporalFilter{
				Focus:       strconv.Itoa(year),
				Start:       date(year, time.January, 1),
				End:         date(year, time.December, 31),
				Years:       max(2, current-year+2),
				Explanation: fmt.Sprintf("Showing data for %d.", year),
				phrase:      m[0],
			}, true
		case year > current:
			return TemporalFilter{
				Focus:       fmt.Sprintf("%d (future)", year),
				Invalid:     true,
				Explanation: fmt.Sprintf("Note: %d is in the future. Showing latest available data.", year),
				phrase:      m[0],
			}, true
		}
	}

	if m := yearRangeRe.FindStringSubmatch(q); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if start > end {
			start, end = end, start
		}
		end = min(end, current)
		if start >= minFilterYear && start <= current {
			return TemporalFilter{
				Focus:       fmt.Sprintf("%d-%d", start, end),
				Start:       date(start, time.January, 1),
				End:         date(end, time.December, 31),
				Years:       max(2, current-start+2),
				Explanation: fmt.Sprintf("Showing data from %d to %d.", start, end),
				phrase:      m[0],
			}, true
		}
	}

	if m := lastYearRe.FindString(q); m != "" {
		last := current - 1
		return TemporalFilter{
			Focus:       strconv.Itoa(last),
			Start:       date(last, time.January, 1),
			End:         date(last, time.December, 31),
			Years:       3,
			Explanation: fmt.Sprintf("Showing data for %d.", last),
			phrase:      m,
		}, true
	}

	if m := thisYearRe.FindString(q); m != "" {
		return TemporalFilter{
			Focus:       strconv.Itoa(current),
			Start:       date(current, time.January, 1),
			Years:       2,
			Explanation: fmt.Sprintf("Showing data for %d so far.", current),
			phrase:      m,
		}, true
	}

	if m := pastYearsRe.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return TemporalFilter{
				Focus:       fmt.Sprintf("past %d years", n),
				Years:       n,
				Explanation: fmt.Sprintf("Showing data for the past %d years.", n),
				phrase:      m[0],
			}, true
		}
	}

	if m := preCovidRe.FindString(q); m != "" {
		return TemporalFilter{
			Focus:       "pre-COVID",
			End:         date(2020, time.February, 29),
			Years:       current - 2017 + 1,
			Explanation: "Showing pre-COVID data (through February 2020).",
			phrase:      m,
		}, true
	}

	if m := duringCovidRe.FindString(q); m != "" {
		return TemporalFilter{
			Focus:       "COVID period",
			Start:       date(2020, time.March, 1),
			End:         date(2021, time.December, 31),
			Years:       5,
			Explanation: "Showing COVID pandemic period (March 2020 - December 2021).",
			phrase:      m,
		}, true
	}

	if m := postCovidRe.FindString(q); m != "" {
		return TemporalFilter{
			Focus:       "post-COVID",
			Start:       date(2022, time.January, 1),
			Years:       4,
			Explanation: "Showing post-COVID recovery period (2022 onward).",
			phrase:      m,
		}, true
	}

	if m := greatRecRe.FindString(q); m != "" {
		return TemporalFilter{
			Focus:       "Great Recession",
			Start:       date(2007, time.December, 1),
			End:         date(2009, time.June, 30),
			Years:       current - 2007 + 1,
			Explanation: "Showing Great Recession period (December 2007 - June 2009).",
			phrase:      m,
		}, true
	}

	return TemporalFilter{}, false
}

// SmartYears picks a lookback from the wording of query: AllHistory for
// "all time" style questions, ContextYears for historical or comparative
// ones, otherwise defaultYears.
func SmartYears(query string, defaultYears int) int {
	q := strings.ToLower(query)
	for _, p := range allHistoryPhrases {
		if strings.Contains(q, p) {
			return AllHistory
		}
	}
	for _, p := range contextPhrases {
		if strings.Contains(q, p) {
			return ContextYears
		}
	}
	return defaultYears
}

// HasWindow reports whether the filter restricts displayed dates.
func (f TemporalFilter) HasWindow() bool {
	return !f.Invalid && (!f.Start.IsZero() || !f.End.IsZero())
}

// Window keeps the observations of s inside the filter's dates, both ends
// inclusive. A window that excludes every observation returns s unchanged.
func (f TemporalFilter) Window(s models.SeriesData) models.SeriesData {
	if !f.HasWindow() {
		return s
	}
	out := s
	out.Dates = nil
	out.Values = nil
	for i := 0; i < s.Len(); i++ {
		d := s.Dates[i]
		if !f.Start.IsZero() && d.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && d.After(f.End) {
			continue
		}
		out.Dates = append(out.Dates, d)
		out.Values = append(out.Values, s.Values[i])
	}
	if len(out.Dates) == 0 {
		return s
	}
	return out
}

// stripPhrase removes the temporal phrase from query so routing sees the
// topic alone. The original query is kept when nothing else remains.
func (f TemporalFilter) stripPhrase(query string) string {
	if f.phrase == "" {
		return query
	}
	lower := strings.ToLower(query)
	i := strings.Index(lower, f.phrase)
	if i < 0 || len(lower) != len(query) {
		return query
	}
	rest := strings.Join(strings.Fields(query[:i]+" "+query[i+len(f.phrase):]), " ")
	rest = strings.Trim(rest, " ,;:-")
	if rest == "" {
		return query
	}
	return rest
}
