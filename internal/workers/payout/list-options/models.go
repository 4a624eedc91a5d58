// internal/workers/payout/list-options/models.go
package listoptions

// Input names the dimension whose options are wanted, plus the cascade
// filters already chosen upstream (e.g. the vehicle category when asking for
// vehicle types).
type Input struct {
	Dimension string            `json:"dimension"`
	Filters   map[string]string `json:"filters,omitempty"`
}

// Output is the sorted option list for one dropdown.
type Output struct {
	Dimension string   `json:"dimension"`
	Values    []string `json:"values"`
	Count     int      `json:"count"`
}
