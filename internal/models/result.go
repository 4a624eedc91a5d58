// internal/models/result.go
package models

// Result statuses. NoMatch is a successful evaluation with zero eligible rows;
// it is never conflated with a failure to evaluate.
const (
	StatusSuccess = "success"
	StatusNoMatch = "no_match"
)

// PayoutLine is one (condition, payout) line inside a ranked group.
type PayoutLine struct {
	Condition string  `json:"condition"`
	Payout    float64 `json:"payout"`
}

// RankedGroup is all lines shown for one company under one rank.
type RankedGroup struct {
	Rank    int          `json:"rank"`
	Company string       `json:"company"`
	Lines   []PayoutLine `json:"lines"`
}

// RankedEntry is the flattened caller-facing row: one line with its rank and
// company repeated, matching the tabular layout the UI renders.
type RankedEntry struct {
	Rank      int     `json:"rank"`
	Company   string  `json:"company"`
	Condition string  `json:"condition"`
	Payout    float64 `json:"payout"`
}

// Diagnostics counts what the scan saw. MalformedRows counts rows skipped
// because a numeric or date predicate would not parse; they never fail the
// query.
type Diagnostics struct {
	RowsScanned   int `json:"rowsScanned"`
	EligibleRows  int `json:"eligibleRows"`
	MalformedRows int `json:"malformedRows"`
}

// Result is the ranked outcome of one payout check.
type Result struct {
	Status      string        `json:"status"`
	Message     string        `json:"message"`
	Groups      []RankedGroup `json:"groups"`
	Entries     []RankedEntry `json:"entries"`
	Diagnostics Diagnostics   `json:"diagnostics"`
}

// IsNoMatch reports whether the evaluation completed with zero eligible rows.
func (r *Result) IsNoMatch() bool {
	return r.Status == StatusNoMatch
}
