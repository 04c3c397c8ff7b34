// Package registry holds the curated query plans and resolves free-text
// queries to them by normalized exact match or fuzzy similarity.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"econstats/internal/catalog"
	"econstats/internal/models"
	"econstats/internal/validation"
)

// Fuzzy thresholds
const (
	DefaultFuzzyThreshold = 0.7
	KeywordFuzzyThreshold = 0.6
	minKeywordLength      = 3
)

// ErrPlanNotFound is returned when no plan matches a query.
var ErrPlanNotFound = errors.New("plan not found")

// Registry maps plan keys, their normalized forms and synonyms to plans.
// Loading is not safe for concurrent use; once loaded, lookups are pure reads.
type Registry struct {
	catalog  *catalog.Catalog
	logger   *slog.Logger
	plans    map[string]*models.QueryPlan
	aliases  map[string]string
	explicit map[string]bool
	keywords map[string]map[string]bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithCatalog drops plan series the catalog does not know. Without a
// catalog every syntactically valid id is kept.
func WithCatalog(c *catalog.Catalog) Option {
	return func(r *Registry) {
		r.catalog = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		logger:   slog.Default(),
		plans:    make(map[string]*models.QueryPlan),
		aliases:  make(map[string]string),
		explicit: make(map[string]bool),
		keywords: make(map[string]map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces the plan stored under key. The plan is also
// reachable through the normalized form of key and through each synonym.
// Series ids are normalized; unknown or invalid ids are dropped with a
// warning. It returns false when nothing usable is left.
func (r *Registry) Register(key string, plan models.QueryPlan) bool {
	canonical := canonicalKey(key)
	if canonical == "" {
		return false
	}

	plan.Series = r.cleanSeries(canonical, plan.Series)
	if len(plan.Series) == 0 {
		r.logger.Warn("Skipping plan with no usable series", "plan", canonical)
		return false
	}
	var groups []models.ChartGroupSpec
	for _, g := range plan.ChartGroups {
		g.Series = r.cleanSeries(canonical, g.Series)
		if len(g.Series) > 0 {
			groups = append(groups, g)
		}
	}
	plan.ChartGroups = groups

	p := &plan
	r.plans[canonical] = p
	r.explicit[canonical] = true
	r.aliases[canonical] = canonical
	r.addAlias(Normalize(canonical), canonical)
	r.index(canonical, canonical)

	for _, syn := range plan.Synonyms {
		s := canonicalKey(syn)
		if s == "" {
			continue
		}
		r.addAlias(s, canonical)
		r.addAlias(Normalize(s), canonical)
		r.index(s, canonical)
	}
	return true
}

// addAlias points alias at canonical unless alias is itself a plan key.
func (r *Registry) addAlias(alias, canonical string) {
	if alias == "" || (r.explicit[alias] && alias != canonical) {
		return
	}
	r.aliases[alias] = canonical
}

func (r *Registry) index(text, canonical string) {
	for _, w := range strings.Fields(text) {
		if len(w) < minKeywordLength {
			continue
		}
		if r.keywords[w] == nil {
			r.keywords[w] = make(map[string]bool)
		}
		r.keywords[w][canonical] = true
	}
}

func (r *Registry) cleanSeries(plan string, ids []string) []string {
	clean := validation.SanitizeSeriesIDs(ids)
	if r.catalog == nil {
		return clean
	}
	out := clean[:0]
	for _, id := range clean {
		if !r.catalog.Has(id) {
			r.logger.Warn("Dropping unknown series from plan", "plan", plan, "series", id)
			continue
		}
		out = append(out, id)
	}
	return out
}

// GetPlan looks a query up by its normalized form, then by its lowercased
// raw form. It returns the canonical plan key alongside the plan.
func (r *Registry) GetPlan(query string) (string, *models.QueryPlan, bool) {
	for _, k := range []string{Normalize(query), canonicalKey(query)} {
		if canonical, ok := r.aliases[k]; ok {
			return canonical, r.plans[canonical], true
		}
	}
	return "", nil, false
}

// MustGetPlan is GetPlan returning ErrPlanNotFound on a miss.
func (r *Registry) MustGetPlan(query string) (string, *models.QueryPlan, error) {
	key, plan, ok := r.GetPlan(query)
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrPlanNotFound, query)
	}
	return key, plan, nil
}

// FuzzyMatch finds the closest plan key to the normalized query with a
// similarity of at least threshold. Failing that, it narrows candidates to
// keys sharing a word of three or more letters with the query and retries
// at the lower keyword threshold.
func (r *Registry) FuzzyMatch(query string, threshold float64) (string, *models.QueryPlan, bool) {
	q := Normalize(query)
	if q == "" {
		return "", nil, false
	}

	if alias, _, ok := closestMatch(q, r.aliasKeys(), threshold); ok {
		canonical := r.aliases[alias]
		return canonical, r.plans[canonical], true
	}

	candidates := make(map[string]bool)
	for _, w := range strings.Fields(q) {
		for k := range r.keywords[w] {
			candidates[k] = true
		}
	}
	if len(candidates) == 0 {
		return "", nil, false
	}
	keys := make([]string, 0, len(candidates))
	for k := range candidates {
		keys = append(keys, k)
	}
	if key, _, ok := closestMatch(q, keys, min(threshold, KeywordFuzzyThreshold)); ok {
		return key, r.plans[key], true
	}
	return "", nil, false
}

func (r *Registry) aliasKeys() []string {
	keys := make([]string, 0, len(r.aliases))
	for k := range r.aliases {
		keys = append(keys, k)
	}
	return keys
}

// AllPlanKeys returns every canonical plan key, sorted. Synonyms are not included.
func (r *Registry) AllPlanKeys() []string {
	keys := make([]string, 0, len(r.plans))
	for k := range r.plans {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of canonical plans.
func (r *Registry) Len() int {
	return len(r.plans)
}

// planFile is the on-disk shape of a bulk plan file.
type planFile struct {
	Plans map[string]models.QueryPlan `yaml:"plans"`
}

// LoadFile registers every plan in a YAML or JSON plan file. Plans in later
// files replace plans with the same key from earlier ones.
func (r *Registry) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read plan file %s: %w", path, err)
	}
	return r.loadBytes(path, data)
}

// LoadDir registers every *.yaml, *.yml and *.json file in dir, in name order.
func (r *Registry) LoadDir(dir string) (int, error) {
	return r.LoadFS(os.DirFS(dir), ".")
}

// LoadFS registers every plan file under root in fsys, in name order.
func (r *Registry) LoadFS(fsys fs.FS, root string) (int, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return 0, fmt.Errorf("failed to list plan files: %w", err)
	}

	total := 0
	for _, e := range entries {
		if e.IsDir() || !isPlanFile(e.Name()) {
			continue
		}
		path := filepath.ToSlash(filepath.Join(root, e.Name()))
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return total, fmt.Errorf("failed to read plan file %s: %w", path, err)
		}
		n, err := r.loadBytes(path, data)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (r *Registry) loadBytes(name string, data []byte) (int, error) {
	// yaml.v3 also reads JSON documents
	var f planFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("failed to parse plan file %s: %w", name, err)
	}
	if f.Plans == nil {
		// bare key -> plan mapping
		if err := yaml.Unmarshal(data, &f.Plans); err != nil {
			return 0, fmt.Errorf("failed to parse plan file %s: %w", name, err)
		}
	}

	keys := make([]string, 0, len(f.Plans))
	for k := range f.Plans {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := 0
	for _, k := range keys {
		if r.Register(k, f.Plans[k]) {
			n++
		}
	}
	r.logger.Debug("Loaded plan file", "file", name, "plans", n)
	return n, nil
}

func isPlanFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func canonicalKey(key string) string {
	return collapse(strings.ToLower(strings.TrimSpace(key)))
}
