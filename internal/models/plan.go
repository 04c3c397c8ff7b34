package models

// ChartGroupSpec is a curated grouping declared by a plan.
type ChartGroupSpec struct {
	Series  []string `json:"series" yaml:"series"`
	Title   string   `json:"title,omitempty" yaml:"title"`
	ShowYoY *bool    `json:"show_yoy,omitempty" yaml:"show_yoy"`
}

// QueryPlan is a curated query-to-series mapping.
type QueryPlan struct {
	Series       []string         `json:"series" yaml:"series"`
	ShowYoY      *bool            `json:"show_yoy,omitempty" yaml:"show_yoy"`
	CombineChart bool             `json:"combine_chart,omitempty" yaml:"combine_chart"`
	Explanation  string           `json:"explanation,omitempty" yaml:"explanation"`
	ChartGroups  []ChartGroupSpec `json:"chart_groups,omitempty" yaml:"chart_groups"`
	Synonyms     []string         `json:"synonyms,omitempty" yaml:"synonyms"`
	IsComparison bool             `json:"is_comparison,omitempty" yaml:"is_comparison"`
}

// YoY returns the plan's year-over-year preference, false when unset.
func (p *QueryPlan) YoY() bool {
	return p != nil && p.ShowYoY != nil && *p.ShowYoY
}

// Bool returns a pointer to b, for optional plan fields.
func Bool(b bool) *bool {
	return &b
}
