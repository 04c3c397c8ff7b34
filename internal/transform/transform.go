// Package transform turns raw series observations into the values a chart
// shows: raw levels, year-over-year percent change, or 12-month absolute change.
package transform

import (
	"sort"
	"time"

	"econstats/internal/catalog"
	"econstats/internal/models"
)

// MaxMatchGap is the furthest an observation may sit from the exact
// year-ago date and still count as the prior-year value.
const MaxMatchGap = 45 * 24 * time.Hour

// Mode is the display transform applied to a series.
type Mode string

// Display modes
const (
	ModeRaw            Mode = "raw"
	ModeYoYPercent     Mode = "yoy_percent"
	ModeAbsoluteChange Mode = "absolute_change"
)

// Engine applies transforms using catalog metadata.
type Engine struct {
	catalog *catalog.Catalog
}

// New creates a transform engine backed by the given catalog.
func New(c *catalog.Catalog) *Engine {
	return &Engine{catalog: c}
}

// ShouldApplyYoY decides whether a series is shown as year-over-year change.
// Rates, growth rates and spreads never are; indexes always are; levels
// follow the override when given and the catalog default otherwise. Series
// outside the catalog follow the override, defaulting to raw.
func (e *Engine) ShouldApplyYoY(seriesID string, override *bool) bool {
	desc, ok := e.catalog.Lookup(seriesID)
	if !ok {
		return override != nil && *override
	}
	return ShouldApplyYoY(desc, override)
}

// ShouldApplyYoY is the data-kind rule for a known descriptor.
func ShouldApplyYoY(desc models.SeriesDescriptor, override *bool) bool {
	switch desc.Kind {
	case models.KindRate, models.KindGrowthRate, models.KindSpread:
		return false
	case models.KindIndex:
		return true
	default:
		if override != nil {
			return *override
		}
		return desc.ShowYoY
	}
}

// ComputeYoY returns the percent change of each observation against the
// observation nearest to exactly one year earlier. Points whose year-ago
// match is further than MaxMatchGap away, or whose prior value is zero, are
// dropped. Mismatched input lengths, or a series spanning no more than one
// year of observations at freq, yield an empty result.
func ComputeYoY(dates []time.Time, values []float64, freq models.Frequency) ([]time.Time, []float64) {
	return yearOverYear(dates, values, freq, func(cur, prior float64) (float64, bool) {
		if prior == 0 {
			return 0, false
		}
		return (cur - prior) / abs(prior) * 100, true
	})
}

// ComputeAbsoluteChange returns the raw difference of each observation
// against its year-ago match, using the same matching rule as ComputeYoY.
func ComputeAbsoluteChange(dates []time.Time, values []float64, freq models.Frequency) ([]time.Time, []float64) {
	return yearOverYear(dates, values, freq, func(cur, prior float64) (float64, bool) {
		return cur - prior, true
	})
}

type point struct {
	date  time.Time
	value float64
}

func yearOverYear(dates []time.Time, values []float64, freq models.Frequency, diff func(cur, prior float64) (float64, bool)) ([]time.Time, []float64) {
	if len(dates) == 0 || len(dates) != len(values) {
		return []time.Time{}, []float64{}
	}

	pts := sortedPoints(dates, values)
	// a series no longer than one year has nothing to compare against
	if len(pts) <= freq.PeriodsPerYear() {
		return []time.Time{}, []float64{}
	}
	outDates := make([]time.Time, 0, len(pts))
	outValues := make([]float64, 0, len(pts))

	// a year-ago date more than half a period before the first observation
	// is outside the series, even when the first observation is near it
	first := pts[0].date
	slack := max(365*24*time.Hour/time.Duration(2*freq.PeriodsPerYear()), 72*time.Hour)

	for _, p := range pts {
		target := p.date.AddDate(-1, 0, 0)
		if first.Sub(target) > slack {
			continue
		}
		prior, ok := nearest(pts, target)
		if !ok {
			continue
		}
		v, ok := diff(p.value, prior.value)
		if !ok {
			continue
		}
		outDates = append(outDates, p.date)
		outValues = append(outValues, v)
	}
	return outDates, outValues
}

// sortedPoints pairs dates with values, orders them by date and keeps the
// last value seen for a repeated date.
func sortedPoints(dates []time.Time, values []float64) []point {
	pts := make([]point, len(dates))
	for i := range dates {
		pts[i] = point{date: dates[i], value: values[i]}
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].date.Before(pts[j].date) })

	out := pts[:0]
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1].date.Equal(p.date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// nearest finds the observation closest to target within MaxMatchGap.
func nearest(pts []point, target time.Time) (point, bool) {
	idx := sort.Search(len(pts), func(i int) bool { return !pts[i].date.Before(target) })

	best := -1
	var bestGap time.Duration
	for _, i := range []int{idx - 1, idx} {
		if i < 0 || i >= len(pts) {
			continue
		}
		gap := absDuration(pts[i].date.Sub(target))
		if best == -1 || gap < bestGap {
			best, bestGap = i, gap
		}
	}
	if best == -1 || bestGap > MaxMatchGap {
		return point{}, false
	}
	return pts[best], true
}

// Result is a series after its display transform.
type Result struct {
	Series      models.SeriesData
	Mode        Mode
	Unavailable bool
}

// Apply transforms fetched data for display. A YoY request on a series the
// catalog marks for absolute-change display shows the 12-month change in the
// series' own units. When the transform yields nothing the raw data is
// returned with Unavailable set.
func (e *Engine) Apply(data models.SeriesData, override *bool) Result {
	if !e.ShouldApplyYoY(data.ID, override) {
		return Result{Series: data, Mode: ModeRaw}
	}

	desc, known := e.catalog.Lookup(data.ID)
	freq := data.Info.Frequency
	if known {
		freq = desc.Frequency
	}

	mode := ModeYoYPercent
	var dates []time.Time
	var values []float64
	if known && desc.ShowAbsoluteChange {
		mode = ModeAbsoluteChange
		dates, values = ComputeAbsoluteChange(data.Dates, data.Values, freq)
	} else {
		dates, values = ComputeYoY(data.Dates, data.Values, freq)
	}

	if len(values) == 0 {
		return Result{Series: data, Mode: ModeRaw, Unavailable: true}
	}

	out := data
	out.Dates, out.Values = dates, values
	switch {
	case known && desc.YoYName != "":
		out.Info.Name = desc.YoYName
	case mode == ModeAbsoluteChange:
		out.Info.Name = data.Info.Name + " (12-Month Change)"
	default:
		out.Info.Name = data.Info.Name + " (YoY %)"
	}
	switch {
	case known && desc.YoYUnit != "":
		out.Info.Unit = desc.YoYUnit
	case mode == ModeYoYPercent:
		out.Info.Unit = "% Change YoY"
	}
	return Result{Series: out, Mode: mode}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
