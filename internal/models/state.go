// internal/models/state.go
package models

import "strings"

// StateCodes maps the display names the UI submits to the two-letter codes
// stored on rate rows. Both Puducherry spellings are in circulation.
var StateCodes = map[string]string{
	"Tamil Nadu":     "TN",
	"Kerala":         "KL",
	"Karnataka":      "KA",
	"Puducherry":     "PY",
	"Pondicherry":    "PY",
	"Telangana":      "TS",
	"Andhra Pradesh": "AP",
	"Maharashtra":    "MH",
	"Madhya Pradesh": "MP",
	"Assam":          "AS",
	"Haryana":        "HR",
	"Rajasthan":      "RJ",
	"Uttar Pradesh":  "UP",
}

// StateDisplayNames maps codes back to display names for API responses.
var StateDisplayNames = map[string]string{
	"TN": "Tamil Nadu",
	"KL": "Kerala",
	"KA": "Karnataka",
	"PY": "Puducherry",
	"TS": "Telangana",
	"AP": "Andhra Pradesh",
	"MH": "Maharashtra",
	"MP": "Madhya Pradesh",
	"AS": "Assam",
	"HR": "Haryana",
	"RJ": "Rajasthan",
	"UP": "Uttar Pradesh",
}

// RTOEnabledStates is the set of states whose rate rows carry per-RTO
// predicates. An RTO code submitted for any other state is rejected.
var RTOEnabledStates = map[string]bool{
	"TN": true,
	"KA": true,
	"KL": true,
	"AP": true,
	"MH": true,
	"TS": true,
	"PY": true,
}

// ResolveStateCode folds a display name or code to the stored two-letter
// code. Unknown values pass through trimmed so exact-match rows still work.
func ResolveStateCode(state string) string {
	s := strings.TrimSpace(state)
	if code, ok := StateCodes[s]; ok {
		return code
	}
	return s
}
