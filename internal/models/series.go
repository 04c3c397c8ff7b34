package models

import "time"

// DataKind classifies what a series measures. It decides whether a
// year-over-year transform is meaningful.
type DataKind string

// Data kind constants
const (
	KindLevel      DataKind = "level"
	KindRate       DataKind = "rate"
	KindIndex      DataKind = "index"
	KindGrowthRate DataKind = "growth_rate"
	KindSpread     DataKind = "spread"
)

// Frequency is the native observation frequency of a series.
type Frequency string

// Frequency constants
const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnual    Frequency = "annual"
)

// PeriodsPerYear returns how many observations a year spans at this frequency.
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case FrequencyDaily:
		return 252
	case FrequencyWeekly:
		return 52
	case FrequencyQuarterly:
		return 4
	case FrequencyAnnual:
		return 1
	default:
		return 12
	}
}

// SeriesDescriptor is the static metadata the catalog holds for one series.
type SeriesDescriptor struct {
	ID                 string    `json:"id" yaml:"id"`
	Name               string    `json:"name" yaml:"name"`
	Unit               string    `json:"unit" yaml:"unit"`
	Source             string    `json:"source" yaml:"source"`
	Kind               DataKind  `json:"data_kind" yaml:"data_kind"`
	Frequency          Frequency `json:"frequency" yaml:"frequency"`
	SeasonallyAdjusted bool      `json:"seasonally_adjusted" yaml:"seasonally_adjusted"`
	ShowYoY            bool      `json:"default_show_yoy" yaml:"default_show_yoy"`
	ShowAbsoluteChange bool      `json:"show_absolute_change,omitempty" yaml:"show_absolute_change"`
	YoYName            string    `json:"yoy_display_name,omitempty" yaml:"yoy_display_name"`
	YoYUnit            string    `json:"yoy_display_unit,omitempty" yaml:"yoy_display_unit"`
	Benchmark          *float64  `json:"benchmark,omitempty" yaml:"benchmark"`
	Description        string    `json:"description,omitempty" yaml:"description"`
}

// SeriesData is a fetched series: descriptor-like info plus ordered observations.
type SeriesData struct {
	ID     string      `json:"id"`
	Info   SeriesInfo  `json:"info"`
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// SeriesInfo carries the display metadata attached to fetched data.
type SeriesInfo struct {
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Frequency Frequency `json:"frequency"`
	Source    string    `json:"source,omitempty"`
}

// Len returns the number of aligned observations.
func (s SeriesData) Len() int {
	if len(s.Dates) < len(s.Values) {
		return len(s.Dates)
	}
	return len(s.Values)
}

// MaxAbs returns the peak magnitude of the series, or 0 when empty.
func (s SeriesData) MaxAbs() float64 {
	peak := 0.0
	for _, v := range s.Values {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}
