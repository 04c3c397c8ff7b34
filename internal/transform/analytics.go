package transform

import (
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"econstats/internal/models"
)

// Trend directions
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendFlat    = "flat"
)

// trendLookback is how many observations back the trend compares against.
const trendLookback = 3

// Analytics are the pre-computed facts about one displayed series. The
// narrative layer only ever sees these numbers.
type Analytics struct {
	SeriesID       string    `json:"series_id"`
	Name           string    `json:"name"`
	Unit           string    `json:"unit"`
	Mode           Mode      `json:"mode"`
	Points         int       `json:"points"`
	Latest         float64   `json:"latest"`
	LatestDate     time.Time `json:"latest_date"`
	YearAgoChange  *float64  `json:"year_ago_change,omitempty"`
	ChangeUnit     string    `json:"change_unit,omitempty"`
	Trend          string    `json:"trend"`
	Min            float64   `json:"min"`
	MinDate        time.Time `json:"min_date"`
	Max            float64   `json:"max"`
	MaxDate        time.Time `json:"max_date"`
	Benchmark      *float64  `json:"benchmark,omitempty"`
	AboveBenchmark *bool     `json:"above_benchmark,omitempty"`
}

// Analyze computes analytics for a transformed series.
func (e *Engine) Analyze(res Result) (Analytics, bool) {
	desc, known := e.catalog.Lookup(res.Series.ID)
	return ComputeAnalytics(res.Series, res.Mode, desc, known)
}

// ComputeAnalytics summarizes displayed values. Changes on rates, spreads,
// growth rates and already-transformed series are differences in percentage
// points (or series units); changes on raw levels and indexes are percents.
func ComputeAnalytics(data models.SeriesData, mode Mode, desc models.SeriesDescriptor, known bool) (Analytics, bool) {
	if data.Len() == 0 || len(data.Dates) != len(data.Values) {
		return Analytics{}, false
	}
	pts := sortedPoints(data.Dates, data.Values)
	last := pts[len(pts)-1]

	a := Analytics{
		SeriesID:   data.ID,
		Name:       data.Info.Name,
		Unit:       data.Info.Unit,
		Mode:       mode,
		Points:     len(pts),
		Latest:     last.value,
		LatestDate: last.date,
		Min:        math.Inf(1),
		Max:        math.Inf(-1),
		Trend:      TrendFlat,
	}
	for _, p := range pts {
		if p.value < a.Min {
			a.Min, a.MinDate = p.value, p.date
		}
		if p.value > a.Max {
			a.Max, a.MaxDate = p.value, p.date
		}
	}

	if prior, ok := nearest(pts, last.date.AddDate(-1, 0, 0)); ok && prior.date.Before(last.date) {
		pointsChange := mode != ModeRaw || (known && desc.Kind != models.KindLevel && desc.Kind != models.KindIndex)
		switch {
		case pointsChange && mode == ModeAbsoluteChange:
			a.YearAgoChange = ptr(last.value - prior.value)
			a.ChangeUnit = a.Unit
		case pointsChange:
			a.YearAgoChange = ptr(last.value - prior.value)
			a.ChangeUnit = "pp"
		case prior.value != 0:
			a.YearAgoChange = ptr((last.value - prior.value) / math.Abs(prior.value) * 100)
			a.ChangeUnit = "%"
		}
	}

	if len(pts) > trendLookback {
		ref := pts[len(pts)-1-trendLookback].value
		delta := last.value - ref
		tolerance := math.Max(math.Abs(ref)*0.001, 1e-9)
		switch {
		case delta > tolerance:
			a.Trend = TrendRising
		case delta < -tolerance:
			a.Trend = TrendFalling
		}
	}

	if known && desc.Benchmark != nil && mode == ModeRaw {
		b := *desc.Benchmark
		a.Benchmark = &b
		above := last.value >= b
		a.AboveBenchmark = &above
	}
	return a, true
}

// Text renders the analytics as one line of plain English.
func (a Analytics) Text() string {
	p := message.NewPrinter(language.English)
	s := p.Sprintf("%s: %.2f %s as of %s", a.Name, a.Latest, a.Unit, a.LatestDate.Format("Jan 2006"))
	if a.YearAgoChange != nil {
		switch a.ChangeUnit {
		case "%":
			s += p.Sprintf("; %+.1f%% from a year earlier", *a.YearAgoChange)
		case "pp":
			s += p.Sprintf("; %+.2f percentage points from a year earlier", *a.YearAgoChange)
		default:
			s += p.Sprintf("; %+.1f %s from a year earlier", *a.YearAgoChange, a.ChangeUnit)
		}
	}
	s += p.Sprintf("; %s over the last %d readings", a.Trend, trendLookback)
	s += p.Sprintf("; range %.2f (%s) to %.2f (%s)", a.Min, a.MinDate.Format("Jan 2006"), a.Max, a.MaxDate.Format("Jan 2006"))
	if a.Benchmark != nil && a.AboveBenchmark != nil {
		rel := "below"
		if *a.AboveBenchmark {
			rel = "at or above"
		}
		s += p.Sprintf("; %s the %.2f threshold", rel, *a.Benchmark)
	}
	return s
}

func ptr(v float64) *float64 {
	return &v
}
