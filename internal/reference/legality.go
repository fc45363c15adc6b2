// Package reference holds static display-only reference data: the
// per-state legality table and the closed terpene vocabulary.
package reference

import (
	"sort"
	"strings"
)

// LegalStatus describes the cannabis legality of a US state.
type LegalStatus string

// Legal statuses, coarsest useful granularity for display.
const (
	StatusRecreational LegalStatus = "recreational"
	StatusMedical      LegalStatus = "medical"
	StatusCBDOnly      LegalStatus = "cbd-only"
	StatusIllegal      LegalStatus = "illegal"
)

// StateLegality is one row of the legality table.
type StateLegality struct {
	Code   string      `json:"code"`
	Name   string      `json:"name"`
	Status LegalStatus `json:"status"`
	Notes  string      `json:"notes,omitempty"`
}

// stateLegality is the static table. It is informational only and not
// legal advice; it is not kept current automatically.
var stateLegality = map[string]StateLegality{
	"AL": {Code: "AL", Name: "Alabama", Status: StatusMedical},
	"AK": {Code: "AK", Name: "Alaska", Status: StatusRecreational},
	"AZ": {Code: "AZ", Name: "Arizona", Status: StatusRecreational},
	"AR": {Code: "AR", Name: "Arkansas", Status: StatusMedical},
	"CA": {Code: "CA", Name: "California", Status: StatusRecreational},
	"CO": {Code: "CO", Name: "Colorado", Status: StatusRecreational},
	"CT": {Code: "CT", Name: "Connecticut", Status: StatusRecreational},
	"DE": {Code: "DE", Name: "Delaware", Status: StatusRecreational},
	"FL": {Code: "FL", Name: "Florida", Status: StatusMedical},
	"GA": {Code: "GA", Name: "Georgia", Status: StatusCBDOnly, Notes: "Low-THC oil only"},
	"HI": {Code: "HI", Name: "Hawaii", Status: StatusMedical},
	"ID": {Code: "ID", Name: "Idaho", Status: StatusIllegal},
	"IL": {Code: "IL", Name: "Illinois", Status: StatusRecreational},
	"IN": {Code: "IN", Name: "Indiana", Status: StatusCBDOnly},
	"IA": {Code: "IA", Name: "Iowa", Status: StatusCBDOnly},
	"KS": {Code: "KS", Name: "Kansas", Status: StatusIllegal},
	"KY": {Code: "KY", Name: "Kentucky", Status: StatusMedical},
	"LA": {Code: "LA", Name: "Louisiana", Status: StatusMedical},
	"ME": {Code: "ME", Name: "Maine", Status: StatusRecreational},
	"MD": {Code: "MD", Name: "Maryland", Status: StatusRecreational},
	"MA": {Code: "MA", Name: "Massachusetts", Status: StatusRecreational},
	"MI": {Code: "MI", Name: "Michigan", Status: StatusRecreational},
	"MN": {Code: "MN", Name: "Minnesota", Status: StatusRecreational},
	"MS": {Code: "MS", Name: "Mississippi", Status: StatusMedical},
	"MO": {Code: "MO", Name: "Missouri", Status: StatusRecreational},
	"MT": {Code: "MT", Name: "Montana", Status: StatusRecreational},
	"NE": {Code: "NE", Name: "Nebraska", Status: StatusIllegal},
	"NV": {Code: "NV", Name: "Nevada", Status: StatusRecreational},
	"NH": {Code: "NH", Name: "New Hampshire", Status: StatusMedical},
	"NJ": {Code: "NJ", Name: "New Jersey", Status: StatusRecreational},
	"NM": {Code: "NM", Name: "New Mexico", Status: StatusRecreational},
	"NY": {Code: "NY", Name: "New York", Status: StatusRecreational},
	"NC": {Code: "NC", Name: "North Carolina", Status: StatusCBDOnly},
	"ND": {Code: "ND", Name: "North Dakota", Status: StatusMedical},
	"OH": {Code: "OH", Name: "Ohio", Status: StatusRecreational},
	"OK": {Code: "OK", Name: "Oklahoma", Status: StatusMedical},
	"OR": {Code: "OR", Name: "Oregon", Status: StatusRecreational},
	"PA": {Code: "PA", Name: "Pennsylvania", Status: StatusMedical},
	"RI": {Code: "RI", Name: "Rhode Island", Status: StatusRecreational},
	"SC": {Code: "SC", Name: "South Carolina", Status: StatusCBDOnly},
	"SD": {Code: "SD", Name: "South Dakota", Status: StatusMedical},
	"TN": {Code: "TN", Name: "Tennessee", Status: StatusCBDOnly},
	"TX": {Code: "TX", Name: "Texas", Status: StatusCBDOnly, Notes: "Compassionate use program"},
	"UT": {Code: "UT", Name: "Utah", Status: StatusMedical},
	"VT": {Code: "VT", Name: "Vermont", Status: StatusRecreational},
	"VA": {Code: "VA", Name: "Virginia", Status: StatusRecreational},
	"WA": {Code: "WA", Name: "Washington", Status: StatusRecreational},
	"WV": {Code: "WV", Name: "West Virginia", Status: StatusMedical},
	"WI": {Code: "WI", Name: "Wisconsin", Status: StatusCBDOnly},
	"WY": {Code: "WY", Name: "Wyoming", Status: StatusIllegal},
	"DC": {Code: "DC", Name: "District of Columbia", Status: StatusRecreational},
}

// AllStates returns the full legality table sorted by state code.
func AllStates() []StateLegality {
	states := make([]StateLegality, 0, len(stateLegality))
	for _, s := range stateLegality {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].Code < states[j].Code
	})
	return states
}

// StateByCode looks up a state by its two-letter code, case-insensitive.
func StateByCode(code string) (StateLegality, bool) {
	s, ok := stateLegality[strings.ToUpper(strings.TrimSpace(code))]
	return s, ok
}
