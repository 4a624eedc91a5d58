// internal/models/query.go
package models

import (
	"strings"
	"time"
)

// Query is one fully-resolved payout check request. The query-resolution
// collaborator guarantees internal consistency (required fields for the chosen
// category present, numeric fields pre-validated and pre-clamped); the engine
// consumes it once and never mutates it.
type Query struct {
	State           string `json:"state"`
	RTOCode         string `json:"rtoCode,omitempty"`
	VehicleCategory string `json:"vehicleCategory"`
	VehicleType     string `json:"vehicleType,omitempty"`
	Make            string `json:"make,omitempty"`
	Model           string `json:"model,omitempty"`
	FuelType        string `json:"fuelType,omitempty"`
	CCSlab          string `json:"ccSlab,omitempty"`
	WattSlab        string `json:"wattSlab,omitempty"`
	SeatingCapacity string `json:"seatingCapacity,omitempty"`
	NCBSlab         string `json:"ncbSlab,omitempty"`
	CPACover        string `json:"cpaCover,omitempty"`
	ZeroDep         string `json:"zeroDepreciation,omitempty"`
	Trailer         string `json:"trailer,omitempty"`
	BusinessType    string `json:"businessType"`
	PolicyType      string `json:"policyType"`

	// VehicleAge is 1-50, or 0 when the sentinel "New" was submitted.
	VehicleAge int  `json:"vehicleAge,omitempty"`
	AgeIsNew   bool `json:"ageIsNew,omitempty"`

	// GVW interval in tons, inclusive, already clamped to [0, 50] by the
	// caller. HasGVW distinguishes "no GVW collected" from a zero interval.
	HasGVW bool    `json:"hasGvw,omitempty"`
	GVWMin float64 `json:"gvwMin,omitempty"`
	GVWMax float64 `json:"gvwMax,omitempty"`

	// EvaluationDate defaults to the current date when zero.
	EvaluationDate time.Time `json:"evaluationDate,omitempty"`
}

// Value returns the query's value for a named string dimension, empty when the
// caller's category does not collect it.
func (q *Query) Value(name string) string {
	switch name {
	case DimState:
		return q.State
	case DimRTOCode:
		return q.RTOCode
	case DimVehicleCategory:
		return q.VehicleCategory
	case DimVehicleType:
		return q.VehicleType
	case DimMake:
		return q.Make
	case DimModel:
		return q.Model
	case DimFuelType:
		return q.FuelType
	case DimCCSlab:
		return q.CCSlab
	case DimWattSlab:
		return q.WattSlab
	case DimSeatingCapacity:
		return q.SeatingCapacity
	case DimNCBSlab:
		return q.NCBSlab
	case DimCPACover:
		return q.CPACover
	case DimZeroDepreciation:
		return q.ZeroDep
	case DimTrailer:
		return q.Trailer
	case DimBusinessType:
		return q.BusinessType
	case DimPolicyType:
		return q.PolicyType
	}
	return ""
}

// EffectiveDate is the evaluation date, defaulting to now.
func (q *Query) EffectiveDate() time.Time {
	if q.EvaluationDate.IsZero() {
		return time.Now()
	}
	return q.EvaluationDate
}

// NormalizedBusinessType folds Renewal and Rollover into Old, matching how the
// dropdowns present the choice.
func (q *Query) NormalizedBusinessType() string {
	switch strings.ToLower(strings.TrimSpace(q.BusinessType)) {
	case "renewal", "rollover":
		return "Old"
	}
	return strings.TrimSpace(q.BusinessType)
}

// IsEV reports whether the resolved fuel dimension is electric, which flips
// the active capacity predicate from CC slab to watt slab.
func (q *Query) IsEV() bool {
	return strings.EqualFold(strings.TrimSpace(q.FuelType), "EV")
}
