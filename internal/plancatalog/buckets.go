package plancatalog

import (
	"slices"
	"sort"

	"econstats/internal/catalog"
	"econstats/internal/validation"
)

// Bucket is a topic bucket name.
type Bucket string

// Topic buckets
const (
	Employment             Bucket = "EMPLOYMENT"
	EmploymentDemographics Bucket = "EMPLOYMENT_DEMOGRAPHICS"
	EmploymentSectors      Bucket = "EMPLOYMENT_SECTORS"
	Inflation              Bucket = "INFLATION"
	GDP                    Bucket = "GDP"
	Housing                Bucket = "HOUSING"
	FedRates               Bucket = "FED_RATES"
	Consumer               Bucket = "CONSUMER"
	WagesIncome            Bucket = "WAGES_INCOME"
	TradeMarkets           Bucket = "TRADE_MARKETS"
	Recession              Bucket = "RECESSION"
	Social                 Bucket = "SOCIAL"
	EconomyOverview        Bucket = "ECONOMY_OVERVIEW"
	International          Bucket = "INTERNATIONAL"
	States                 Bucket = "STATES"
)

type bucketDef struct {
	name     Bucket
	priority int
	keywords [][]string
}

func def(name Bucket, priority int, keywords ...string) bucketDef {
	d := bucketDef{name: name, priority: priority}
	for _, k := range keywords {
		d.keywords = append(d.keywords, validation.Words(k))
	}
	return d
}

// definitions in declaration order; ties in priority keep this order.
var definitions = []bucketDef{
	def(EmploymentDemographics, 10,
		"black unemployment", "black workers", "black employment", "black labor",
		"hispanic unemployment", "hispanic workers", "hispanic employment",
		"latino", "latina", "women unemployment", "women employment",
		"women labor", "women workers", "men unemployment", "men employment",
		"youth unemployment", "teen unemployment", "young workers",
		"asian unemployment", "asian workers", "asian employment",
		"veteran", "immigrant", "foreign born", "native born",
		"white unemployment", "white workers", "white employment",
		"by race", "by gender", "gender gap", "racial gap",
		"unemployment by", "employment by"),
	// home prices and homebuilding outrank the generic price and
	// construction keywords below
	def(Housing, 9,
		"home price", "house price", "housing price",
		"new construction", "homebuilding"),
	def(EmploymentSectors, 9,
		"manufacturing employment", "manufacturing job", "factory job",
		"construction job", "construction employment", "construction worker",
		"tech employment", "tech job", "tech sector",
		"healthcare job", "healthcare employment", "hospital",
		"restaurant", "food service", "hospitality",
		"government employment", "government job", "federal job",
		"retail employment", "retail job", "retail worker",
		"finance job", "banking job", "financial sector employment",
		"education job", "education employment",
		"transportation", "mining", "professional services",
		"leisure and hospitality", "information sector", "manufacturing",
		"construction"),
	def(Employment, 5,
		"job", "employment", "labor", "labour", "unemployment", "hiring",
		"payroll", "workforce", "jobless", "claims", "jolts", "openings",
		"participation", "prime age", "underemployment", "sahm",
		"labor force", "nonfarm", "beveridge", "quits", "hires",
		"layoffs", "employed", "epop"),
	def(Inflation, 5,
		"inflation", "cpi", "pce", "price", "cost of living",
		"food price", "shelter", "rent inflation", "energy price",
		"gas price", "gasoline", "deflation", "disinflation",
		"core inflation", "headline inflation", "breakeven",
		"inflation expectations", "inflation target", "sticky"),
	def(GDP, 5,
		"gdp", "economic growth", "output", "productivity",
		"industrial production", "durable goods", "gdpnow",
		"real gdp", "nominal gdp", "potential gdp", "gdp components",
		"gdp quarterly", "private demand", "final sales"),
	def(Housing, 5,
		"housing", "home price", "mortgage", "housing starts",
		"building permits", "affordability", "rent",
		"rental", "new home sales", "existing home sales",
		"case shiller", "home value", "zillow",
		"homebuilder", "housing supply", "housing market"),
	def(FedRates, 5,
		"fed", "federal reserve", "interest rate", "rates",
		"yield curve", "treasury", "dot plot", "fomc",
		"monetary policy", "rate cut", "rate hike", "fed funds",
		"powell", "tightening", "easing", "quantitative",
		"balance sheet", "spread", "10 year", "2 year"),
	def(Consumer, 5,
		"consumer", "spending", "retail sales", "sentiment",
		"confidence", "savings", "personal income", "disposable",
		"credit", "debt", "household", "consumption"),
	def(WagesIncome, 6,
		"wage", "earnings", "income", "pay",
		"compensation", "real wages", "wage growth",
		"wages vs inflation", "employment cost",
		"minimum wage", "median income"),
	def(TradeMarkets, 5,
		"trade", "export", "import", "tariff", "deficit",
		"surplus", "balance", "stock market", "stock", "s&p",
		"nasdaq", "dow", "gold", "oil", "commodity",
		"dollar", "forex", "exchange rate", "vix",
		"trading partner"),
	def(Recession, 7,
		"recession", "downturn", "contraction", "leading indicator",
		"recession risk", "recession probability", "headed for",
		"slowdown", "soft landing", "hard landing"),
	def(Social, 5,
		"poverty", "inequality", "gini", "food insecurity",
		"bankruptcy", "homelessness", "welfare", "snap",
		"social security", "disability"),
	def(EconomyOverview, 3,
		"economy", "economic", "overview", "how is", "outlook",
		"forecast", "state of", "what's happening"),
	def(International, 6,
		"eurozone", "europe", "uk", "china", "japan", "germany",
		"canada", "india", "brazil", "mexico", "korea", "australia",
		"us vs", "us compared", "compared to"),
	{name: States, priority: 8},
}

// byPriority is definitions sorted highest priority first.
var byPriority = func() []bucketDef {
	out := append([]bucketDef(nil), definitions...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].priority > out[j].priority
	})
	return out
}()

// displayOrder is the order buckets appear in the catalog text.
var displayOrder = []Bucket{
	Employment, EmploymentDemographics, EmploymentSectors,
	Inflation, GDP, Housing, FedRates, Consumer,
	WagesIncome, TradeMarkets, Recession, Social,
	EconomyOverview, International, States,
}

// matches reports whether any keyword occurs in words as a run of whole
// words. The last word of a keyword also matches its plural.
func (d bucketDef) matches(words []string) bool {
	for _, kw := range d.keywords {
		if containsRun(words, kw) {
			return true
		}
	}
	return false
}

func containsRun(words, kw []string) bool {
	if len(kw) == 0 {
		return false
	}
	last := len(kw) - 1
	for i := 0; i+len(kw) <= len(words); i++ {
		match := true
		for j, k := range kw {
			w := words[i+j]
			if w == k || (j == last && (w == k+"s" || w == k+"es")) {
				continue
			}
			match = false
			break
		}
		if match {
			return true
		}
	}
	return false
}

// isStatePlan reports whether text names a US state or an unambiguous
// two-letter state code.
func isStatePlan(text string) bool {
	_, ok := catalog.FindState(text)
	return ok
}

// Classify assigns a plan key to exactly one bucket. State plans are
// detected first; keys matching no bucket fall into ECONOMY_OVERVIEW.
func Classify(key string) Bucket {
	if isStatePlan(key) {
		return States
	}
	words := validation.Words(key)
	for _, d := range byPriority {
		if d.name == States {
			continue
		}
		if d.matches(words) {
			return d.name
		}
	}
	return EconomyOverview
}

// PreFilter guesses up to three buckets a query most likely belongs to,
// highest priority first. It is a hint, never an exclusion.
func PreFilter(query string) []Bucket {
	words := validation.Words(query)
	var out []Bucket
	for _, d := range byPriority {
		if slices.Contains(out, d.name) {
			continue
		}
		var ok bool
		if d.name == States {
			ok = isStatePlan(query)
		} else {
			ok = d.matches(words)
		}
		if !ok {
			continue
		}
		out = append(out, d.name)
		if len(out) == maxPreFilter {
			break
		}
	}
	return out
}

const maxPreFilter = 3
