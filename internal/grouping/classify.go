package grouping

import (
	"regexp"
	"strings"

	"econstats/internal/catalog"
	"econstats/internal/models"
)

// Unit categories. Members of one group always share a category.
const (
	unitPercent = "percent"
	unitDollars = "dollars"
	unitIndex   = "index"
	unitCount   = "count"
	unitOther   = "other"
)

const regionNational = "national"

// Semantic tags used for pairing.
const (
	tagUnemployment = "unemployment"
	tagEmployment   = "employment"
	tagInflation    = "inflation"
	tagInterestRate = "interest_rate"
	tagGDP          = "gdp"
	tagHousing      = "housing"
)

var (
	stateRatePattern     = regexp.MustCompile(`^([A-Z]{2})UR$`)
	statePayrollsPattern = regexp.MustCompile(`^([A-Z]{2})NA$`)
)

// classified is a fetched series plus the metadata grouping decisions use.
type classified struct {
	data      models.SeriesData
	name      string
	frequency models.Frequency
	unit      string
	kind      models.DataKind
	peak      float64
	region    string
	tags      map[string]bool
}

func (c *classified) id() string { return c.data.ID }

func (c *classified) sharesTag(other *classified) bool {
	for t := range c.tags {
		if other.tags[t] {
			return true
		}
	}
	return false
}

func (g *Grouper) classify(s models.SeriesData) *classified {
	desc, known := g.catalog.Lookup(s.ID)

	c := &classified{
		data:      s,
		name:      s.Info.Name,
		frequency: s.Info.Frequency,
		kind:      models.KindLevel,
		peak:      s.MaxAbs(),
		region:    regionOf(s.ID),
	}
	unit := s.Info.Unit
	if known {
		c.name = desc.Name
		c.kind = desc.Kind
		if desc.Frequency != "" {
			c.frequency = desc.Frequency
		}
		if desc.Unit != "" {
			unit = desc.Unit
		}
	}
	if c.name == "" {
		c.name = s.ID
	}
	c.frequency = normalizeFrequency(c.frequency)
	c.unit = unitCategory(unit)
	c.tags = semanticTags(s.ID, c.name)
	return c
}

func normalizeFrequency(f models.Frequency) models.Frequency {
	s := strings.ToLower(string(f))
	switch {
	case strings.Contains(s, "quarter"):
		return models.FrequencyQuarterly
	case strings.Contains(s, "annual"), strings.Contains(s, "year"):
		return models.FrequencyAnnual
	case strings.Contains(s, "week"):
		return models.FrequencyWeekly
	case strings.Contains(s, "daily"), strings.Contains(s, "day"):
		return models.FrequencyDaily
	default:
		return models.FrequencyMonthly
	}
}

// unitCategory buckets a unit label. The label decides, never the values.
func unitCategory(unit string) string {
	u := strings.ToLower(unit)
	switch {
	case strings.Contains(u, "percent"), strings.Contains(u, "rate"), strings.Contains(u, "%"):
		return unitPercent
	case strings.Contains(u, "dollar"), strings.Contains(u, "$"), strings.Contains(u, "usd"):
		return unitDollars
	case strings.Contains(u, "index"):
		return unitIndex
	case strings.Contains(u, "thousand"), strings.Contains(u, "million"), strings.Contains(u, "billion"):
		return unitCount
	default:
		return unitOther
	}
}

// stateCode returns the state code of a state rate or payrolls id.
func stateCode(id string) (string, bool) {
	for _, p := range []*regexp.Regexp{stateRatePattern, statePayrollsPattern} {
		if m := p.FindStringSubmatch(id); m != nil {
			if _, ok := catalog.StateByCode(m[1]); ok {
				return m[1], true
			}
		}
	}
	return "", false
}

func regionOf(id string) string {
	if code, ok := stateCode(id); ok {
		return code
	}
	return regionNational
}

// nationalCounterpart maps a state series to the national series it is
// compared against.
func nationalCounterpart(id string) (string, bool) {
	if _, ok := stateCode(id); !ok {
		return "", false
	}
	if stateRatePattern.MatchString(id) {
		return "UNRATE", true
	}
	return "PAYEMS", true
}

func semanticTags(id, name string) map[string]bool {
	tags := make(map[string]bool)
	lowerName := strings.ToLower(name)
	lowerID := strings.ToLower(id)
	_, isState := stateCode(id)

	unemployment := strings.Contains(lowerName, "unemploy")
	if unemployment || (isState && stateRatePattern.MatchString(id)) || id == "UNRATE" || id == "U6RATE" {
		tags[tagUnemployment] = true
	}
	// "employ" is a substring of "unemployment"; the two tags must not overlap.
	if (strings.Contains(lowerName, "employ") && !unemployment) ||
		strings.Contains(lowerName, "payroll") || strings.Contains(lowerName, "nonfarm") ||
		(isState && statePayrollsPattern.MatchString(id)) || id == "PAYEMS" {
		tags[tagEmployment] = true
	}
	if strings.Contains(lowerID, "cpi") || strings.Contains(lowerID, "pce") ||
		strings.Contains(lowerName, "inflation") || strings.Contains(lowerName, "price") {
		tags[tagInflation] = true
	}
	if strings.Contains(lowerName, "rate") &&
		(strings.Contains(lowerName, "fed") || strings.Contains(lowerName, "treasury") || strings.HasPrefix(lowerID, "dgs")) {
		tags[tagInterestRate] = true
	}
	switch id {
	case "FEDFUNDS", "DGS10", "DGS2", "DGS30":
		tags[tagInterestRate] = true
	}
	if strings.Contains(lowerID, "gdp") || strings.Contains(lowerName, "gdp") {
		tags[tagGDP] = true
	}
	if strings.Contains(lowerName, "hous") || strings.Contains(lowerName, "home") || strings.Contains(lowerName, "mortgage") {
		tags[tagHousing] = true
	}
	return tags
}
