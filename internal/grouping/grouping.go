// Package grouping decides which fetched series share a chart.
//
// Frequency and unit category are hard constraints: a group never mixes
// either. Within those, known pairs, state/national counterparts and shared
// topics are overlaid when their peak magnitudes are within ScaleThreshold
// of each other.
package grouping

import (
	"log/slog"

	"econstats/internal/catalog"
	"econstats/internal/models"
)

// Grouping defaults
const (
	DefaultScaleThreshold = 10.0
	DefaultMaxGroupSize   = 4
)

// Options tunes the grouping heuristics.
type Options struct {
	ScaleThreshold float64 `yaml:"scale_threshold"`
	MaxGroupSize   int     `yaml:"max_group_size"`
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{ScaleThreshold: DefaultScaleThreshold, MaxGroupSize: DefaultMaxGroupSize}
}

func (o Options) withDefaults() Options {
	if o.ScaleThreshold <= 1 {
		o.ScaleThreshold = DefaultScaleThreshold
	}
	if o.MaxGroupSize < 1 {
		o.MaxGroupSize = DefaultMaxGroupSize
	}
	return o
}

// Known overlays: headline/core variants and short/long policy rates.
var explicitPairs = map[string]string{
	"CPIAUCSL": "CPILFESL",
	"CPILFESL": "CPIAUCSL",
	"PCEPI":    "PCEPILFE",
	"PCEPILFE": "PCEPI",
	"FEDFUNDS": "DGS10",
	"DGS10":    "FEDFUNDS",
	"UNRATE":   "U6RATE",
	"U6RATE":   "UNRATE",
	"DGS2":     "DGS10",
}

// Grouper builds chart groups.
type Grouper struct {
	catalog *catalog.Catalog
	opts    Options
	logger  *slog.Logger
}

// New creates a grouper. A nil catalog uses the default series catalog.
func New(c *catalog.Catalog, opts Options, logger *slog.Logger) *Grouper {
	if c == nil {
		c = catalog.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Grouper{catalog: c, opts: opts.withDefaults(), logger: logger}
}

// Options returns the effective options.
func (g *Grouper) Options() Options {
	return g.opts
}

// Group splits fetched series into chart groups. Curated chart groups win,
// then combine_chart, then the automatic rules. Every emitted group obeys
// the frequency, unit and size constraints.
func (g *Grouper) Group(data []models.SeriesData, res *models.RoutingResult) []models.ChartGroup {
	if len(data) == 0 {
		return nil
	}
	if res == nil {
		res = &models.RoutingResult{}
	}

	items := make([]*classified, len(data))
	for i, s := range data {
		items[i] = g.classify(s)
	}

	var groups []models.ChartGroup
	switch {
	case len(res.ChartGroups) > 0:
		groups = g.curated(items, res)
	case res.CombineChart && len(items) > 1:
		groups = g.constrained(items, "", res.ShowYoY)
	case len(items) == 1:
		groups = []models.ChartGroup{g.makeGroup(items, "", res.ShowYoY)}
	default:
		groups = g.auto(items, res.ShowYoY)
	}

	for i := range groups {
		if len(groups[i].Members) > 1 && groups[i].Title == "" {
			groups[i].Title = g.title(groups[i].Members)
		}
	}
	return groups
}

// curated maps declared subsets onto fetched data. Unmentioned series get
// solo groups.
func (g *Grouper) curated(items []*classified, res *models.RoutingResult) []models.ChartGroup {
	byID := make(map[string]*classified, len(items))
	for _, it := range items {
		byID[it.id()] = it
	}

	assigned := make(map[string]bool)
	var groups []models.ChartGroup
	for _, spec := range res.ChartGroups {
		var members []*classified
		for _, id := range spec.Series {
			it, ok := byID[id]
			if !ok || assigned[id] {
				continue
			}
			members = append(members, it)
			assigned[id] = true
		}
		if len(members) == 0 {
			continue
		}
		yoy := res.ShowYoY
		if spec.ShowYoY != nil {
			yoy = *spec.ShowYoY
		}
		groups = append(groups, g.constrained(members, spec.Title, yoy)...)
	}

	for _, it := range items {
		if !assigned[it.id()] {
			groups = append(groups, g.makeGroup([]*classified{it}, "", res.ShowYoY))
		}
	}
	return groups
}

// constrained enforces the hard constraints on a caller-chosen set. The
// title survives only when the set did not need splitting.
func (g *Grouper) constrained(items []*classified, title string, yoy bool) []models.ChartGroup {
	var parts [][]*classified
	for _, byFreq := range partition(items, func(c *classified) string { return string(c.frequency) }) {
		for _, byUnit := range partition(byFreq, func(c *classified) string { return c.unit }) {
			parts = append(parts, chunk(byUnit, g.opts.MaxGroupSize)...)
		}
	}
	if len(parts) > 1 {
		g.logger.Debug("Split chart group on hard constraints", "title", title, "parts", len(parts))
		title = ""
	}

	groups := make([]models.ChartGroup, len(parts))
	for i, p := range parts {
		groups[i] = g.makeGroup(p, title, yoy)
	}
	return groups
}

func (g *Grouper) auto(items []*classified, defaultYoY bool) []models.ChartGroup {
	var groups []models.ChartGroup
	for _, byFreq := range partition(items, func(c *classified) string { return string(c.frequency) }) {
		for _, byUnit := range partition(byFreq, func(c *classified) string { return c.unit }) {
			for _, members := range g.pair(byUnit) {
				groups = append(groups, g.makeGroup(members, "", yoyFor(members, defaultYoY)))
			}
		}
	}
	return groups
}

// pair groups unit-compatible series: explicit pairs, then state with
// national counterpart, then shared tags. Leftovers are solo.
func (g *Grouper) pair(items []*classified) [][]*classified {
	if len(items) <= 1 {
		return [][]*classified{items}
	}

	byID := make(map[string]*classified, len(items))
	for _, it := range items {
		byID[it.id()] = it
	}
	assigned := make(map[string]bool)
	var groups [][]*classified

	tryPair := func(it *classified, partnerID string) {
		partner, ok := byID[partnerID]
		if !ok || assigned[partnerID] || partnerID == it.id() {
			return
		}
		candidate := []*classified{it, partner}
		if !g.scaleCompatible(candidate) {
			return
		}
		groups = append(groups, candidate)
		assigned[it.id()] = true
		assigned[partnerID] = true
	}

	for _, it := range items {
		if assigned[it.id()] {
			continue
		}
		if partnerID, ok := explicitPairs[it.id()]; ok {
			tryPair(it, partnerID)
		}
	}

	for _, it := range items {
		if assigned[it.id()] {
			continue
		}
		if nationalID, ok := nationalCounterpart(it.id()); ok {
			tryPair(it, nationalID)
		}
	}

	var rest []*classified
	for _, it := range items {
		if !assigned[it.id()] {
			rest = append(rest, it)
		}
	}
	if len(rest) > 1 {
		for _, tagged := range groupByTags(rest) {
			if !g.scaleCompatible(tagged) {
				continue
			}
			for _, c := range chunk(tagged, g.opts.MaxGroupSize) {
				groups = append(groups, c)
				for _, it := range c {
					assigned[it.id()] = true
				}
			}
		}
	}

	for _, it := range items {
		if !assigned[it.id()] {
			groups = append(groups, []*classified{it})
		}
	}
	return groups
}

// groupByTags greedily lets the first unassigned tagged series pull in every
// later series sharing at least one tag with it. Only multi-member groups
// are returned.
func groupByTags(items []*classified) [][]*classified {
	taken := make(map[string]bool)
	var groups [][]*classified
	for i, it := range items {
		if taken[it.id()] || len(it.tags) == 0 {
			continue
		}
		group := []*classified{it}
		taken[it.id()] = true
		for _, other := range items[i+1:] {
			if taken[other.id()] || !it.sharesTag(other) {
				continue
			}
			group = append(group, other)
			taken[other.id()] = true
		}
		if len(group) > 1 {
			groups = append(groups, group)
		}
	}
	return groups
}

// scaleCompatible reports whether the largest and smallest non-zero peaks
// are within the scale threshold.
func (g *Grouper) scaleCompatible(items []*classified) bool {
	var lowest, highest float64
	n := 0
	for _, it := range items {
		if it.peak <= 0 {
			continue
		}
		if n == 0 || it.peak < lowest {
			lowest = it.peak
		}
		if it.peak > highest {
			highest = it.peak
		}
		n++
	}
	if n <= 1 {
		return true
	}
	return highest/lowest <= g.opts.ScaleThreshold
}

// yoyFor applies the per-group year-over-year rule.
func yoyFor(items []*classified, defaultYoY bool) bool {
	if len(items) == 0 {
		return defaultYoY
	}
	allRate, allIndex := true, true
	for _, it := range items {
		switch it.kind {
		case models.KindGrowthRate, models.KindSpread:
			return false
		}
		allRate = allRate && it.kind == models.KindRate
		allIndex = allIndex && it.kind == models.KindIndex
	}
	switch {
	case allRate:
		return false
	case allIndex:
		return true
	default:
		return defaultYoY
	}
}

func (g *Grouper) makeGroup(items []*classified, title string, yoy bool) models.ChartGroup {
	members := make([]models.SeriesData, len(items))
	for i, it := range items {
		members[i] = it.data
	}
	return models.ChartGroup{Members: members, Title: title, ShowYoY: yoy}
}

// partition splits items by key, keeping first-seen key order and the
// original order inside each part.
func partition(items []*classified, key func(*classified) string) [][]*classified {
	index := make(map[string]int)
	var parts [][]*classified
	for _, it := range items {
		k := key(it)
		i, ok := index[k]
		if !ok {
			i = len(parts)
			index[k] = i
			parts = append(parts, nil)
		}
		parts[i] = append(parts[i], it)
	}
	return parts
}

func chunk(items []*classified, size int) [][]*classified {
	if size < 1 {
		size = DefaultMaxGroupSize
	}
	var out [][]*classified
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}
