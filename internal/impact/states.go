package impact

import "strings"

// Representative sample analyzed when federal legislation is submitted
// without a target state. Analyzing all 51 jurisdictions per request would be
// prohibitively expensive.
var SampleStates = []string{"CA", "TX", "NY", "FL", "IL"}

var stateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
	"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming", "DC": "District of Columbia",
}

var stateCodesByName = func() map[string]string {
	m := make(map[string]string, len(stateNames))
	for code, name := range stateNames {
		m[strings.ToLower(name)] = code
	}
	return m
}()

// StateName returns the display name for a code, or the code itself when
// unrecognized.
func StateName(code string) string {
	if name, ok := stateNames[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}

// ResolveStateCode resolves a state name to its two-letter code,
// case-insensitively. Codes themselves also resolve.
func ResolveStateCode(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	if code, ok := stateCodesByName[strings.ToLower(trimmed)]; ok {
		return code, true
	}
	upper := strings.ToUpper(trimmed)
	if _, ok := stateNames[upper]; ok {
		return upper, true
	}
	return "", false
}

// IsValidStateCode reports whether code names a known jurisdiction.
func IsValidStateCode(code string) bool {
	_, ok := stateNames[strings.ToUpper(code)]
	return ok
}
