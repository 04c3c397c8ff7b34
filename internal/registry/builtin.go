package registry

import (
	"embed"
	"fmt"
	"strings"

	"econstats/internal/catalog"
	"econstats/internal/models"
)

//go:embed plans/*.yaml
var builtinPlans embed.FS

// NewDefault creates a registry holding the generated per-state plans and
// the curated plan files compiled into the binary.
func NewDefault(opts ...Option) (*Registry, error) {
	r := New(opts...)
	r.RegisterStatePlans()
	if _, err := r.LoadFS(builtinPlans, "plans"); err != nil {
		return nil, fmt.Errorf("failed to load built-in plans: %w", err)
	}
	return r, nil
}

// RegisterStatePlans adds "<state> economy" and "<state> unemployment" plans
// for every state, pairing state series with their national counterparts.
func (r *Registry) RegisterStatePlans() {
	for _, s := range catalog.States() {
		name := strings.ToLower(s.Name)
		ur, na := catalog.StateUnemploymentID(s.Code), catalog.StatePayrollsID(s.Code)

		r.Register(name+" economy", models.QueryPlan{
			Series:      []string{ur, na, "UNRATE", "PAYEMS"},
			Explanation: fmt.Sprintf("%s unemployment and payrolls alongside the national figures.", s.Name),
			Synonyms: []string{
				name, name + " labor market", name + " jobs", name + " payrolls",
				"jobs in " + name, "employment in " + name,
			},
		})
		r.Register(name+" unemployment", models.QueryPlan{
			Series:      []string{ur, "UNRATE"},
			Explanation: fmt.Sprintf("The %s unemployment rate against the national rate.", s.Name),
			Synonyms: []string{
				name + " unemployment rate", "unemployment in " + name,
				"unemployment rate in " + name,
			},
		})
	}
}
