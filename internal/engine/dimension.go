// internal/engine/dimension.go
package engine

import (
	"strings"

	"posp-payout-workers/internal/models"
)

// vehicleTypeVariants maps a normalized vehicle type to the spelling variants
// the importer is known to emit. Matching any variant matches the row.
var vehicleTypeVariants = map[string][]string{
	"digger and boring machine":         {"Digger and Boring machine", "Digger & Boring machine"},
	"digger & boring machine":           {"Digger and Boring machine", "Digger & Boring machine"},
	"backho loader":                     {"Backho Loader", "Bacho Loader"},
	"bacho loader":                      {"Backho Loader", "Bacho Loader"},
	"educational bus":                   {"Educational Bus", "Educational Bus under school name"},
	"educational bus under school name": {"Educational Bus", "Educational Bus under school name"},
}

func expandVehicleType(value string) []string {
	if variants, ok := vehicleTypeVariants[norm(value)]; ok {
		return variants
	}
	return []string{value}
}

// slabWildcardTokens extends the base wildcard set with "no", which slab
// columns use to mean "not applicable here".
var slabWildcardTokens = map[string]bool{
	"":     true,
	"no":   true,
	"n/a":  true,
	"all":  true,
	"null": true,
	"none": true,
}

func isPCV(q *models.Query) bool {
	vcat := norm(q.VehicleCategory)
	return strings.Contains(vcat, "pcv") || strings.Contains(vcat, "passenger")
}

func isGCVFourWheeler(q *models.Query) bool {
	return strings.Contains(norm(q.VehicleCategory), "gcv") &&
		strings.Contains(norm(q.VehicleType), "4 wheeler")
}

// evalState handles the State dimension. "Others" is the caller's bucket for
// non-listed states: it matches blank rows and generic exclusion-style rows,
// never rows naming explicit states.
func evalState(row *models.RateRow, q *models.Query) bool {
	qv := norm(q.State)
	if qv == "" || qv == "n/a" {
		return true
	}
	if qv == "others" {
		switch InferKind(row.State) {
		case KindWildcard, KindExclusion:
			return true
		}
		return false
	}
	return EvalString(row.State, q.State)
}

// evalRTO handles the RTO dimension. A row is either an inclusion list of
// codes, or applies to every code in its state minus an exclusion list.
// "Others" from the caller matches only unrestricted applies-all rows.
func evalRTO(row *models.RateRow, q *models.Query) bool {
	qv := norm(q.RTOCode)
	if qv == "" || qv == "n/a" {
		return true
	}
	excluded := InferKind(row.RTOCode) == KindExclusion
	if qv == "others" {
		return row.AppliesAllRTO && !excluded
	}
	if !excluded {
		for _, t := range splitTokens(row.RTOCode) {
			if norm(t) == qv {
				return true
			}
		}
	}
	if row.AppliesAllRTO {
		if !excluded {
			return true
		}
		for _, t := range exclusionTokens(row.RTOCode) {
			if norm(t) == qv {
				return false
			}
		}
		return true
	}
	return false
}

// evalVehicleType matches against every known spelling variant of the query's
// vehicle type.
func evalVehicleType(row *models.RateRow, q *models.Query) bool {
	if norm(q.VehicleType) == "" {
		return true
	}
	for _, alias := range expandVehicleType(q.VehicleType) {
		if EvalString(row.VehicleType, alias) {
			return true
		}
	}
	return false
}

// evalSlab is the simple-slab rule: "No" and friends mean the slab does not
// apply to this row, which matches anything.
func evalSlab(raw, queryValue string) bool {
	if slabWildcardTokens[norm(raw)] {
		return true
	}
	return EvalString(raw, queryValue)
}

// evalSeating applies the seating slab with its category carve-out: N/A-style
// rows count as wildcards only for passenger commercial vehicles, and not for
// autos, where a missing seating value is a real restriction.
func evalSeating(row *models.RateRow, q *models.Query) bool {
	qv := strings.TrimSpace(q.SeatingCapacity)
	if norm(qv) == "other" {
		qv = "N/A"
	}
	if qv == "" {
		return true
	}
	if isPCV(q) && norm(q.VehicleType) != "auto" {
		return evalSlab(row.SeatingCapacity, qv)
	}
	rv := norm(row.SeatingCapacity)
	if seatingStrictWildcards[rv] {
		return true
	}
	// Outside passenger commercial, N/A and All are real seating values: they
	// only match when the query asks for them.
	if InferKind(row.SeatingCapacity) == KindWildcard {
		return rv == norm(qv)
	}
	return EvalString(row.SeatingCapacity, qv)
}

// seatingStrictWildcards are the only seating tokens that wildcard outside
// passenger commercial vehicles.
var seatingStrictWildcards = map[string]bool{
	"":     true,
	"null": true,
	"none": true,
}

// evalMake skips filtering for wildcard selections and otherwise applies the
// full exact/comma/exclusion rule set.
func evalMake(row *models.RateRow, q *models.Query) bool {
	switch norm(q.Make) {
	case "", "all", "all make", "n/a":
		return true
	}
	return EvalString(row.Make, q.Make)
}

func evalModel(row *models.RateRow, q *models.Query) bool {
	switch norm(q.Model) {
	case "", "all", "n/a", "other":
		return true
	}
	return EvalString(row.Model, q.Model)
}

// evalGVW applies interval overlap when the caller selected a weight slab and
// point-in-range when they entered an exact weight. Four-wheeler goods
// carriers get the strict form: only rows with a fully-bounded range that
// contains the value are eligible.
func evalGVW(row *models.RateRow, q *models.Query) bool {
	if !q.HasGVW {
		return true
	}
	if q.GVWMin != q.GVWMax {
		return EvalOverlap(row.GVWMin, row.GVWMax, q.GVWMin, q.GVWMax)
	}
	v := q.GVWMin
	if isGCVFourWheeler(q) {
		return row.GVWMin != nil && row.GVWMax != nil && *row.GVWMin <= v && *row.GVWMax >= v
	}
	if row.GVWMin == nil && row.GVWMax == nil {
		return true
	}
	return row.GVWMin != nil && row.GVWMax != nil && *row.GVWMin <= v && *row.GVWMax >= v
}
