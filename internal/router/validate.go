package router

import (
	"econstats/internal/catalog"
	"econstats/internal/metrics"
	"econstats/internal/models"
	"econstats/internal/plancatalog"
	"econstats/internal/validation"
)

// Override categories, in precedence order.
const (
	categoryDemographic = "demographic"
	categorySector      = "sector"
	categoryState       = "state"
)

// genericSeries are national headline labor series. A result made only of
// these is eligible for a keyword override.
var genericSeries = map[string]bool{
	"UNRATE":        true,
	"PAYEMS":        true,
	"CIVPART":       true,
	"EMRATIO":       true,
	"LNS12300060":   true,
	"ICSA":          true,
	"U6RATE":        true,
	"JTSJOL":        true,
	"CES0500000003": true,
}

type overrideRule struct {
	label    string
	phrases  []string
	series   []string
	excluded []string
}

var demographicRules = []overrideRule{
	{
		label:   "black",
		phrases: []string{"black", "african american", "african-american"},
		series:  []string{"LNS14000006", "LNS11300006", "LNS12300006"},
	},
	{
		label:   "hispanic",
		phrases: []string{"hispanic", "latino", "latina", "latinx"},
		series:  []string{"LNS14000009", "LNS11300009", "LNS12300009"},
	},
	{
		label:   "asian",
		phrases: []string{"asian"},
		series:  []string{"LNS14000004", "LNS11300004", "LNS12300004"},
	},
	{
		label:    "white",
		phrases:  []string{"white workers", "white unemployment", "white employment"},
		series:   []string{"LNS14000003", "LNS11300003", "LNS12300003"},
		excluded: []string{"white house", "white collar"},
	},
	{
		label:   "women",
		phrases: []string{"women", "woman", "female", "females"},
		series:  []string{"LNS14000002", "LNS11300002", "LNS12300002"},
	},
	{
		label:   "men",
		phrases: []string{"men", "male", "males"},
		series:  []string{"LNS14000001", "LNS11300001", "LNS12300001"},
	},
	{
		label:   "youth",
		phrases: []string{"youth", "teen", "teens", "teenage", "teenagers", "young workers"},
		series:  []string{"LNS14000012"},
	},
	{
		label:   "veterans",
		phrases: []string{"veteran", "veterans"},
		series:  []string{"LNS14049526"},
	},
}

var sectorRules = []overrideRule{
	{label: "manufacturing", phrases: []string{"manufacturing", "factory", "factories"}, series: []string{"MANEMP", "IPMAN"}},
	{label: "construction", phrases: []string{"construction"}, series: []string{"USCONS"}},
	{label: "retail", phrases: []string{"retail"}, series: []string{"USTRADE"}},
	{label: "restaurants", phrases: []string{"restaurant", "restaurants", "food service"}, series: []string{"CES7072200001"}},
	{label: "healthcare", phrases: []string{"healthcare", "health care", "hospital", "hospitals"}, series: []string{"CES6562000001"}},
	{label: "education", phrases: []string{"education", "teachers"}, series: []string{"CES6561000001"}},
	{label: "tech", phrases: []string{"tech", "technology", "information sector"}, series: []string{"USINFO"}},
	{label: "finance", phrases: []string{"finance", "financial", "banking"}, series: []string{"USFIRE"}},
	{label: "government", phrases: []string{"government"}, series: []string{"USGOVT"}},
	{label: "leisure", phrases: []string{"leisure", "hospitality"}, series: []string{"USLAH"}},
	{label: "transportation", phrases: []string{"transportation", "trucking", "warehousing"}, series: []string{"USTPU"}},
	{label: "oil and gas", phrases: []string{"oil and gas", "drilling"}, series: []string{"CES1021100001"}},
}

// labor buckets are treated as one topic for mismatch detection.
var laborBuckets = map[plancatalog.Bucket]bool{
	plancatalog.Employment:             true,
	plancatalog.EmploymentDemographics: true,
	plancatalog.EmploymentSectors:      true,
	plancatalog.WagesIncome:            true,
	plancatalog.States:                 true,
}

func (rule overrideRule) match(query string) bool {
	if _, ok := validation.FirstPhrase(query, rule.excluded); ok {
		return false
	}
	_, ok := validation.FirstPhrase(query, rule.phrases)
	return ok
}

func firstRule(query string, rules []overrideRule) (overrideRule, bool) {
	for _, rule := range rules {
		if rule.match(query) {
			return rule, true
		}
	}
	return overrideRule{}, false
}

func allGeneric(ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !genericSeries[id] {
			return false
		}
	}
	return true
}

// validate applies keyword overrides to results that only contain generic
// national series. Demographic beats sector beats state; the losing
// categories are logged. Curated exact plans with specific series are
// trusted as-is, unless a labor query names a state the plan has no data
// for.
func (r *Router) validate(query string, res *models.RoutingResult) {
	r.checkTopic(query, res)

	state, stateNamed := catalog.FindState(query)
	if !allGeneric(res.Series) {
		if stateNamed && !coversState(res.Series, state) && isLaborQuery(query) {
			r.overrideState(query, res, state)
		}
		return
	}

	var matched []string
	var override []string
	var label string

	if rule, ok := firstRule(query, demographicRules); ok {
		matched = append(matched, categoryDemographic)
		override, label = rule.series, rule.label
	}
	if rule, ok := firstRule(query, sectorRules); ok {
		matched = append(matched, categorySector)
		if override == nil {
			override, label = rule.series, rule.label
		}
	}
	if stateNamed {
		matched = append(matched, categoryState)
		if override == nil {
			override, label = stateSeries(state), state.Name
		}
	}
	if override == nil {
		return
	}

	if len(matched) > 1 {
		r.logger.Info("Query matched several override categories",
			"query", query,
			"categories", matched,
			"applied", matched[0],
		)
	}
	r.apply(query, res, matched[0], label, override)
}

// overrideState replaces a specific plan that ignores the state a query
// names. Demographic and sector plans keep precedence over the state.
func (r *Router) overrideState(query string, res *models.RoutingResult, state catalog.State) {
	if _, ok := firstRule(query, demographicRules); ok {
		return
	}
	if _, ok := firstRule(query, sectorRules); ok {
		return
	}
	r.apply(query, res, categoryState, state.Name, stateSeries(state))
}

func (r *Router) apply(query string, res *models.RoutingResult, category, label string, override []string) {
	r.logger.Info("Validation override",
		"query", query,
		"category", category,
		"match", label,
		"from", res.Series,
		"to", override,
	)
	metrics.RecordOverride(category)

	res.Correction = "Adjusted " + category + " series for " + label
	res.Series = append([]string(nil), override...)
	res.ChartGroups = nil
	res.CombineChart = false
}

func stateSeries(state catalog.State) []string {
	return []string{
		catalog.StateUnemploymentID(state.Code),
		catalog.StatePayrollsID(state.Code),
		"UNRATE",
		"PAYEMS",
	}
}

// coversState reports whether ids include a series for state.
func coversState(ids []string, state catalog.State) bool {
	ur, na := catalog.StateUnemploymentID(state.Code), catalog.StatePayrollsID(state.Code)
	for _, id := range ids {
		if id == ur || id == na {
			return true
		}
	}
	return false
}

// isLaborQuery reports whether query asks about jobs or unemployment, so
// "new york fed" keeps its rates plan and "texas wages" its wage plan.
func isLaborQuery(query string) bool {
	for _, b := range plancatalog.PreFilter(query) {
		switch b {
		case plancatalog.Employment, plancatalog.EmploymentDemographics, plancatalog.EmploymentSectors:
			return true
		}
	}
	return false
}

// checkTopic logs when the resolved plan sits in a different topic bucket
// than the query implies. It never changes the result.
func (r *Router) checkTopic(query string, res *models.RoutingResult) {
	if res.PlanKey == "" {
		return
	}
	expected := plancatalog.PreFilter(query)
	if len(expected) == 0 {
		return
	}
	got := plancatalog.Classify(res.PlanKey)
	for _, b := range expected {
		if b == got || (laborBuckets[b] && laborBuckets[got]) {
			return
		}
	}
	r.logger.Warn("Possible topic mismatch",
		"query", query,
		"plan_key", res.PlanKey,
		"plan_bucket", got,
		"query_buckets", expected,
	)
	metrics.RecordTopicMismatch()
}
