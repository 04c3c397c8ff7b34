// Package catalog holds the static metadata for every economic series the
// router knows about.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"econstats/internal/models"
)

//go:embed series.yaml
var builtinSeries []byte

const blsSource = "U.S. Bureau of Labor Statistics"

// Catalog is a read-only lookup of series descriptors keyed by id.
type Catalog struct {
	series map[string]models.SeriesDescriptor
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
)

// Default returns the built-in catalog: national series plus generated
// state unemployment and payroll series.
func Default() *Catalog {
	defaultOnce.Do(func() {
		descs, err := parseSeries(builtinSeries)
		if err != nil {
			panic(fmt.Sprintf("catalog: invalid built-in series table: %v", err))
		}
		descs = append(descs, stateSeries()...)
		defaultCatalog = New(descs...)
	})
	return defaultCatalog
}

// New builds a catalog from descriptors. Later duplicates replace earlier ones.
func New(descs ...models.SeriesDescriptor) *Catalog {
	c := &Catalog{series: make(map[string]models.SeriesDescriptor, len(descs))}
	for _, d := range descs {
		d.ID = NormalizeID(d.ID)
		if d.Frequency == "" {
			d.Frequency = models.FrequencyMonthly
		}
		if d.Kind == "" {
			d.Kind = models.KindLevel
		}
		c.series[d.ID] = d
	}
	return c
}

// Lookup returns the descriptor for a series id. Unknown ids report false;
// callers decide how to treat series outside the catalog.
func (c *Catalog) Lookup(id string) (models.SeriesDescriptor, bool) {
	if c == nil {
		return models.SeriesDescriptor{}, false
	}
	d, ok := c.series[NormalizeID(id)]
	return d, ok
}

// Has reports whether the catalog knows the series id.
func (c *Catalog) Has(id string) bool {
	_, ok := c.Lookup(id)
	return ok
}

// Len returns the number of series in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.series)
}

// IDs returns all known series ids, sorted.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, c.Len())
	for id := range c.series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NormalizeID uppercases and trims a series id.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// StateUnemploymentID returns the unemployment rate series id for a state.
func StateUnemploymentID(code string) string {
	return strings.ToUpper(code) + "UR"
}

// StatePayrollsID returns the nonfarm payrolls series id for a state.
func StatePayrollsID(code string) string {
	return strings.ToUpper(code) + "NA"
}

type seriesFile struct {
	Series []models.SeriesDescriptor `yaml:"series"`
}

func parseSeries(data []byte) ([]models.SeriesDescriptor, error) {
	var f seriesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse series table: %w", err)
	}
	for i, d := range f.Series {
		if d.ID == "" || d.Name == "" {
			return nil, fmt.Errorf("series entry %d: id and name are required", i)
		}
	}
	return f.Series, nil
}

func stateSeries() []models.SeriesDescriptor {
	out := make([]models.SeriesDescriptor, 0, 2*len(states))
	for _, s := range states {
		out = append(out,
			models.SeriesDescriptor{
				ID:                 StateUnemploymentID(s.Code),
				Name:               s.Name + " Unemployment Rate",
				Unit:               "Percent",
				Source:             blsSource,
				Kind:               models.KindRate,
				Frequency:          models.FrequencyMonthly,
				SeasonallyAdjusted: true,
			},
			models.SeriesDescriptor{
				ID:                 StatePayrollsID(s.Code),
				Name:               s.Name + " Nonfarm Payrolls",
				Unit:               "Thousands of Persons",
				Source:             blsSource,
				Kind:               models.KindLevel,
				Frequency:          models.FrequencyMonthly,
				SeasonallyAdjusted: true,
				ShowAbsoluteChange: true,
			},
		)
	}
	return out
}
