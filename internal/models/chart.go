package models

// ChartGroup is a set of fetched series that render together.
type ChartGroup struct {
	Members []SeriesData `json:"members"`
	Title   string       `json:"title"`
	ShowYoY bool         `json:"show_yoy"`
}

// IDs returns the member series ids in order.
func (g ChartGroup) IDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}
