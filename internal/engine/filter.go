// internal/engine/filter.go
package engine

import (
	"posp-payout-workers/internal/models"
)

// commaDims are the plain comma-list dimensions sharing one rule: blank or
// "All" rows match everything, comma lists match whole tokens, exclusion rows
// match everything they do not name.
var commaDims = []string{
	models.DimVehicleCategory,
	models.DimPolicyType,
	models.DimNCBSlab,
	models.DimCPACover,
	models.DimZeroDepreciation,
	models.DimTrailer,
}

// EligibleRow decides whether one stored row applies to the query. It
// short-circuits on the first failing dimension and returns its name for
// diagnostics. A non-nil error is always a MalformedError: the caller counts
// the row and moves on.
func EligibleRow(row *models.RateRow, q *models.Query) (bool, string, error) {
	ok, err := EvalDateWindow(row.DateFrom, row.DateTill, q.EffectiveDate())
	if err != nil {
		return false, models.DimDateWindow, err
	}
	if !ok {
		return false, models.DimDateWindow, nil
	}

	if !evalState(row, q) {
		return false, models.DimState, nil
	}
	if !evalRTO(row, q) {
		return false, models.DimRTOCode, nil
	}
	for _, dim := range commaDims {
		if !EvalString(row.Attr(dim), q.Value(dim)) {
			return false, dim, nil
		}
	}
	if !evalVehicleType(row, q) {
		return false, models.DimVehicleType, nil
	}
	// "Others" fuel from the caller means "not in the list", which never
	// narrows the scan.
	if fv := norm(q.FuelType); fv != "" && fv != "others" {
		if !EvalString(row.FuelType, q.FuelType) {
			return false, models.DimFuelType, nil
		}
	}
	if !EvalBusinessType(row.BusinessType, q.BusinessType) {
		return false, models.DimBusinessType, nil
	}

	// Capacity: electric vehicles are sized by watt slab, everything else by
	// engine displacement. The inactive one never filters.
	if q.IsEV() {
		if norm(q.WattSlab) != "" && norm(q.WattSlab) != "others" {
			if !evalSlab(row.WattSlab, q.WattSlab) {
				return false, models.DimWattSlab, nil
			}
		}
	} else {
		if norm(q.CCSlab) != "" && norm(q.CCSlab) != "others" {
			if !EvalString(row.CCSlab, q.CCSlab) {
				return false, models.DimCCSlab, nil
			}
		}
	}

	if !evalSeating(row, q) {
		return false, models.DimSeatingCapacity, nil
	}
	if !evalMake(row, q) {
		return false, models.DimMake, nil
	}
	if !evalModel(row, q) {
		return false, models.DimModel, nil
	}

	if !q.AgeIsNew && q.VehicleAge > 0 {
		if !EvalPointInRange(row.AgeMin, row.AgeMax, q.VehicleAge) {
			return false, models.DimVehicleAge, nil
		}
	}
	if !evalGVW(row, q) {
		return false, models.DimGVW, nil
	}
	return true, "", nil
}
