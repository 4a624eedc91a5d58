// internal/models/rate.go
package models

// RateRow is one normalized insurer payout offer as delivered by the import
// pipeline. Rows are immutable on the serving path; a snapshot is the full set
// of rows belonging to the current completed import batch.
type RateRow struct {
	ID        int64  `json:"id"`
	ImportID  int64  `json:"importId"`
	ImportSeq int    `json:"importSeq"` // 0-based position within the import batch
	Company   string `json:"company"`

	// Predicate source fields. Each is blank, an exact token, a comma list,
	// or an "Except ..."/"Declined ..." exclusion list.
	State            string `json:"state"`
	RTOCode          string `json:"rtoCode"`
	VehicleCategory  string `json:"vehicleCategory"`
	VehicleType      string `json:"vehicleType"`
	Make             string `json:"make"`
	Model            string `json:"model"`
	FuelType         string `json:"fuelType"`
	CCSlab           string `json:"ccSlab"`
	WattSlab         string `json:"wattSlab"`
	SeatingCapacity  string `json:"seatingCapacity"`
	NCBSlab          string `json:"ncbSlab"`
	CPACover         string `json:"cpaCover"`
	ZeroDepreciation string `json:"zeroDepreciation"`
	Trailer          string `json:"trailer"`
	BusinessType     string `json:"businessType"`
	PolicyType       string `json:"policyType"`

	// Numeric range predicates, inclusive bounds. Nil means open.
	AgeMin *int     `json:"ageMin,omitempty"`
	AgeMax *int     `json:"ageMax,omitempty"`
	GVWMin *float64 `json:"gvwMin,omitempty"`
	GVWMax *float64 `json:"gvwMax,omitempty"`

	// Validity window, as stored by the importer. Blank means the end is
	// open. Values may carry a timestamp suffix ("2026-01-15T00:00:00").
	DateFrom string `json:"dateFrom,omitempty"`
	DateTill string `json:"dateTill,omitempty"`

	Payout        float64 `json:"payout"` // percentage; fractions < 1 are scaled by 100 for display
	Condition     string  `json:"condition"`
	RankOverride  *int    `json:"rankOverride,omitempty"`
	AppliesAllRTO bool    `json:"appliesAllRto"`

	// Extra carries attributes the importer found no dedicated column for.
	// A non-empty dedicated field always wins over a same-named Extra value.
	Extra map[string]string `json:"extra,omitempty"`
}

// Attr returns the predicate source for a named dimension, falling back to the
// Extra map only when the dedicated field is empty.
func (r *RateRow) Attr(name string) string {
	var v string
	switch name {
	case DimState:
		v = r.State
	case DimRTOCode:
		v = r.RTOCode
	case DimVehicleCategory:
		v = r.VehicleCategory
	case DimVehicleType:
		v = r.VehicleType
	case DimMake:
		v = r.Make
	case DimModel:
		v = r.Model
	case DimFuelType:
		v = r.FuelType
	case DimCCSlab:
		v = r.CCSlab
	case DimWattSlab:
		v = r.WattSlab
	case DimSeatingCapacity:
		v = r.SeatingCapacity
	case DimNCBSlab:
		v = r.NCBSlab
	case DimCPACover:
		v = r.CPACover
	case DimZeroDepreciation:
		v = r.ZeroDepreciation
	case DimTrailer:
		v = r.Trailer
	case DimBusinessType:
		v = r.BusinessType
	case DimPolicyType:
		v = r.PolicyType
	}
	if v != "" {
		return v
	}
	if r.Extra != nil {
		return r.Extra[name]
	}
	return ""
}

// Dimension names. These double as the keys of the Extra map and as the
// diagnostic identifier of a failing predicate.
const (
	DimState            = "State"
	DimRTOCode          = "RTO_Code"
	DimVehicleCategory  = "Vehicle_Category"
	DimVehicleType      = "Vehicle_Type"
	DimMake             = "Make"
	DimModel            = "Model"
	DimFuelType         = "Fuel_Type"
	DimCCSlab           = "CC_Slab"
	DimWattSlab         = "Watt_Slab"
	DimSeatingCapacity  = "Seating_Capacity"
	DimNCBSlab          = "NCB_Slab"
	DimCPACover         = "CPA_Cover"
	DimZeroDepreciation = "Zero_Depreciation"
	DimTrailer          = "Trailer"
	DimBusinessType     = "Business_Type"
	DimPolicyType       = "Policy_Type"
	DimVehicleAge       = "Vehicle_Age"
	DimGVW              = "GVW_Slab"
	DimDateWindow       = "Date_Window"
)
