package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econstats/internal/testutil"
)

var temporalNow = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

func TestExtractTemporalFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		focus   string
		start   time.Time
		end     time.Time
		years   int
		invalid bool
		explain string
	}{
		{
			name:    "since year",
			query:   "Unemployment since 2015",
			focus:   "since 2015",
			start:   date(2015, time.January, 1),
			years:   13,
			explain: "Showing data from 2015 to present.",
		},
		{
			name:    "in year",
			query:   "inflation in 2022",
			focus:   "2022",
			start:   date(2022, time.January, 1),
			end:     date(2022, time.December, 31),
			years:   6,
			explain: "Showing data for 2022.",
		},
		{
			name:    "during current year",
			query:   "gdp during 2026",
			focus:   "2026",
			start:   date(2026, time.January, 1),
			end:     date(2026, time.December, 31),
			years:   2,
			explain: "Showing data for 2026.",
		},
		{
			name:    "future year",
			query:   "gdp in 2031",
			focus:   "2031 (future)",
			invalid: true,
			explain: "Note: 2031 is in the future. Showing latest available data.",
		},
		{
			name:    "year range",
			query:   "wages from 2010 to 2015",
			focus:   "2010-2015",
			start:   date(2010, time.January, 1),
			end:     date(2015, time.December, 31),
			years:   18,
			explain: "Showing data from 2010 to 2015.",
		},
		{
			name:    "reversed range is swapped",
			query:   "wages between 2015 and 2010",
			focus:   "2010-2015",
			start:   date(2010, time.January, 1),
			end:     date(2015, time.December, 31),
			years:   18,
			explain: "Showing data from 2010 to 2015.",
		},
		{
			name:    "range end capped at current year",
			query:   "rates from 2024-2030",
			focus:   "2024-2026",
			start:   date(2024, time.January, 1),
			end:     date(2026, time.December, 31),
			years:   4,
			explain: "Showing data from 2024 to 2026.",
		},
		{
			name:    "last year",
			query:   "how did jobs do last year",
			focus:   "2025",
			start:   date(2025, time.January, 1),
			end:     date(2025, time.December, 31),
			years:   3,
			explain: "Showing data for 2025.",
		},
		{
			name:    "this year",
			query:   "inflation this year",
			focus:   "2026",
			start:   date(2026, time.January, 1),
			years:   2,
			explain: "Showing data for 2026 so far.",
		},
		{
			name:    "past n years",
			query:   "mortgage rates over the past 5 years",
			focus:   "past 5 years",
			years:   5,
			explain: "Showing data for the past 5 years.",
		},
		{
			name:    "last n years",
			query:   "payrolls last 3 years",
			focus:   "past 3 years",
			years:   3,
			explain: "Showing data for the past 3 years.",
		},
		{
			name:    "pre covid",
			query:   "unemployment pre-covid",
			focus:   "pre-COVID",
			end:     date(2020, time.February, 29),
			years:   10,
			explain: "Showing pre-COVID data (through February 2020).",
		},
		{
			name:    "before the pandemic",
			query:   "wages before the pandemic",
			focus:   "pre-COVID",
			end:     date(2020, time.February, 29),
			years:   10,
			explain: "Showing pre-COVID data (through February 2020).",
		},
		{
			name:    "during covid",
			query:   "jobs during the pandemic",
			focus:   "COVID period",
			start:   date(2020, time.March, 1),
			end:     date(2021, time.December, 31),
			years:   5,
			explain: "Showing COVID pandemic period (March 2020 - December 2021).",
		},
		{
			name:    "post covid",
			query:   "inflation post-covid",
			focus:   "post-COVID",
			start:   date(2022, time.January, 1),
			years:   4,
			explain: "Showing post-COVID recovery period (2022 onward).",
		},
		{
			name:    "great recession",
			query:   "unemployment during the great recession",
			focus:   "Great Recession",
			start:   date(2007, time.December, 1),
			end:     date(2009, time.June, 30),
			years:   20,
			explain: "Showing Great Recession period (December 2007 - June 2009).",
		},
		{
			name:    "financial crisis",
			query:   "housing in the financial crisis",
			focus:   "Great Recession",
			start:   date(2007, time.December, 1),
			end:     date(2009, time.June, 30),
			years:   20,
			explain: "Showing Great Recession period (December 2007 - June 2009).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := ExtractTemporalFilter(tt.query, temporalNow)
			require.True(t, ok)
			assert.Equal(t, tt.focus, f.Focus)
			assert.Equal(t, tt.start, f.Start)
			assert.Equal(t, tt.end, f.End)
			assert.Equal(t, tt.years, f.Years)
			assert.Equal(t, tt.invalid, f.Invalid)
			assert.Equal(t, tt.explain, f.Explanation)
		})
	}
}

func TestExtractTemporalFilterNoMatch(t *testing.T) {
	for _, q := range []string{
		"fed funds rate",
		"since 1900 prices",
		"top 2000 companies",
		"",
	} {
		_, ok := ExtractTemporalFilter(q, temporalNow)
		assert.False(t, ok, q)
	}
}

func TestSmartYears(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"unemployment all time", AllHistory},
		{"long-term trend in productivity", AllHistory},
		{"inflation since 1970", AllHistory},
		{"housing crisis", ContextYears},
		{"wages compared to 2019", ContextYears},
		{"gdp historically", ContextYears},
		{"fed funds rate", DefaultYears},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, SmartYears(tt.query, DefaultYears))
		})
	}
}

func TestWindow(t *testing.T) {
	s := testutil.Monthly("UNRATE", "Unemployment Rate", "Percent", rising(24, 3, 0.1)...)

	f, _ := ExtractTemporalFilter("unemployment in 2021", temporalNow)
	got := f.Window(s)
	require.Len(t, got.Dates, 12)
	assert.Equal(t, date(2021, time.January, 1), got.Dates[0])
	assert.Equal(t, date(2021, time.December, 1), got.Dates[11])
	assert.InDelta(t, 4.2, got.Values[0], 1e-9)
	assert.Equal(t, s.Info, got.Info)
	assert.Len(t, s.Dates, 24)

	pre, _ := ExtractTemporalFilter("unemployment pre-covid", temporalNow)
	assert.Len(t, pre.Window(s).Dates, 2)

	post, _ := ExtractTemporalFilter("unemployment post-covid", temporalNow)
	assert.Equal(t, s, post.Window(s))

	future, _ := ExtractTemporalFilter("unemployment in 2031", temporalNow)
	assert.False(t, future.HasWindow())
	assert.Equal(t, s, future.Window(s))

	past, _ := ExtractTemporalFilter("unemployment past 2 years", temporalNow)
	assert.False(t, past.HasWindow())
}

func TestStripPhrase(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"Fed funds rate since 2021", "Fed funds rate"},
		{"In 2022, inflation", "inflation"},
		{"unemployment during the great recession", "unemployment"},
		{"jobs over the past 5 years", "jobs"},
		{"since 2021", "since 2021"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f, ok := ExtractTemporalFilter(tt.query, temporalNow)
			require.True(t, ok)
			assert.Equal(t, tt.want, f.stripPhrase(tt.query))
		})
	}
}
