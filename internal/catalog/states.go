package catalog

import (
	"sort"
	"strings"
)

// State is a US state (or DC) with its postal code.
type State struct {
	Name string
	Code string
}

var states = []State{
	{"Alabama", "AL"}, {"Alaska", "AK"}, {"Arizona", "AZ"}, {"Arkansas", "AR"},
	{"California", "CA"}, {"Colorado", "CO"}, {"Connecticut", "CT"}, {"Delaware", "DE"},
	{"District of Columbia", "DC"}, {"Florida", "FL"}, {"Georgia", "GA"}, {"Hawaii", "HI"},
	{"Idaho", "ID"}, {"Illinois", "IL"}, {"Indiana", "IN"}, {"Iowa", "IA"},
	{"Kansas", "KS"}, {"Kentucky", "KY"}, {"Louisiana", "LA"}, {"Maine", "ME"},
	{"Maryland", "MD"}, {"Massachusetts", "MA"}, {"Michigan", "MI"}, {"Minnesota", "MN"},
	{"Mississippi", "MS"}, {"Missouri", "MO"}, {"Montana", "MT"}, {"Nebraska", "NE"},
	{"Nevada", "NV"}, {"New Hampshire", "NH"}, {"New Jersey", "NJ"}, {"New Mexico", "NM"},
	{"New York", "NY"}, {"North Carolina", "NC"}, {"North Dakota", "ND"}, {"Ohio", "OH"},
	{"Oklahoma", "OK"}, {"Oregon", "OR"}, {"Pennsylvania", "PA"}, {"Rhode Island", "RI"},
	{"South Carolina", "SC"}, {"South Dakota", "SD"}, {"Tennessee", "TN"}, {"Texas", "TX"},
	{"Utah", "UT"}, {"Vermont", "VT"}, {"Virginia", "VA"}, {"Washington", "WA"},
	{"West Virginia", "WV"}, {"Wisconsin", "WI"}, {"Wyoming", "WY"},
}

var (
	statesByCode = make(map[string]State, len(states))
	statesByName = make(map[string]State, len(states))
	// longest names first so "west virginia" wins over "virginia"
	namesLongestFirst []string
)

// ambiguousCodes are postal codes that are also common English words. They
// never count as state mentions on their own.
var ambiguousCodes = map[string]bool{
	"in": true, "me": true, "or": true, "oh": true, "hi": true, "ok": true,
	"al": true, "la": true, "de": true, "co": true, "ma": true, "id": true,
}

func init() {
	for _, s := range states {
		statesByCode[s.Code] = s
		statesByName[strings.ToLower(s.Name)] = s
		namesLongestFirst = append(namesLongestFirst, strings.ToLower(s.Name))
	}
	sort.SliceStable(namesLongestFirst, func(i, j int) bool {
		return len(namesLongestFirst[i]) > len(namesLongestFirst[j])
	})
}

// States returns every state in alphabetical order.
func States() []State {
	out := make([]State, len(states))
	copy(out, states)
	return out
}

// StateByCode looks up a state by postal code (case-insensitive).
func StateByCode(code string) (State, bool) {
	s, ok := statesByCode[strings.ToUpper(code)]
	return s, ok
}

// StateByName looks up a state by full name (case-insensitive).
func StateByName(name string) (State, bool) {
	s, ok := statesByName[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// FindState returns the first state mentioned in text. Full names match as
// whole words in any case. Postal codes match as whole tokens, except codes
// that double as English words ("in", "me", "or").
func FindState(text string) (State, bool) {
	lower := " " + strings.Join(strings.Fields(tokenize(strings.ToLower(text))), " ") + " "
	for _, name := range namesLongestFirst {
		if strings.Contains(lower, " "+name+" ") {
			return statesByName[name], true
		}
	}
	for _, tok := range strings.Fields(tokenize(text)) {
		if len(tok) != 2 {
			continue
		}
		s, ok := statesByCode[strings.ToUpper(tok)]
		if !ok {
			continue
		}
		if ambiguousCodes[strings.ToLower(tok)] {
			continue
		}
		return s, true
	}
	return State{}, false
}

// tokenize replaces punctuation with spaces so words can be matched on
// space boundaries.
func tokenize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return ' '
		}
	}, s)
}
