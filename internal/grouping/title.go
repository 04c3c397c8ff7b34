package grouping

import (
	"fmt"
	"sort"
	"strings"

	"econstats/internal/catalog"
	"econstats/internal/models"
)

const maxTitleName = 40

var pairTitles = map[string]string{
	pairKey("CPIAUCSL", "CPILFESL"): "Headline vs Core CPI",
	pairKey("PCEPI", "PCEPILFE"):    "Headline vs Core PCE",
	pairKey("CPIAUCSL", "PCEPI"):    "CPI vs PCE Inflation",
	pairKey("CPILFESL", "PCEPILFE"): "Core CPI vs Core PCE",
	pairKey("FEDFUNDS", "DGS10"):    "Fed Funds Rate vs 10-Year Treasury",
	pairKey("FEDFUNDS", "DGS2"):     "Fed Funds Rate vs 2-Year Treasury",
	pairKey("DGS2", "DGS10"):        "2-Year vs 10-Year Treasury",
	pairKey("UNRATE", "U6RATE"):     "U-3 vs U-6 Unemployment Rate",
}

func pairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + "+" + ids[1]
}

// title names a multi-series group: a known pair, a state against its
// national counterpart, or "A vs B".
func (g *Grouper) title(members []models.SeriesData) string {
	if len(members) < 2 {
		return ""
	}
	if len(members) == 2 {
		if t, ok := pairTitles[pairKey(members[0].ID, members[1].ID)]; ok {
			return t
		}
		if t, ok := stateNationalTitle(members[0].ID, members[1].ID); ok {
			return t
		}
	}

	a, b := g.displayName(members[0]), g.displayName(members[1])
	if len(members) > 2 {
		return fmt.Sprintf("%s vs %s (+%d more)", a, b, len(members)-2)
	}
	return a + " vs " + b
}

func stateNationalTitle(a, b string) (string, bool) {
	for _, ids := range [][2]string{{a, b}, {b, a}} {
		national, ok := nationalCounterpart(ids[0])
		if !ok || national != ids[1] {
			continue
		}
		code, _ := stateCode(ids[0])
		state, _ := catalog.StateByCode(code)
		topic := "Nonfarm Payrolls"
		if stateRatePattern.MatchString(ids[0]) {
			topic = "Unemployment Rate"
		}
		return fmt.Sprintf("%s vs National %s", state.Name, topic), true
	}
	return "", false
}

func (g *Grouper) displayName(s models.SeriesData) string {
	name := s.Info.Name
	if desc, ok := g.catalog.Lookup(s.ID); ok {
		name = desc.Name
	}
	if strings.TrimSpace(name) == "" {
		name = s.ID
	}
	if r := []rune(name); len(r) > maxTitleName {
		name = string(r[:maxTitleName-3]) + "..."
	}
	return name
}
