// internal/workers/payout/check-payout/models.go
package checkpayout

import "posp-payout-workers/internal/models"

// Input is the raw payout check request as submitted through the process
// variables. Every field arrives as a string; resolution into a typed query
// happens after shape and field validation.
type Input struct {
	State           string `json:"state"`
	RTONumber       string `json:"rtoNumber,omitempty"`
	VehicleCategory string `json:"vehicleCategory"`
	VehicleType     string `json:"vehicleType,omitempty"`
	Make            string `json:"make,omitempty"`
	Model           string `json:"model,omitempty"`
	FuelType        string `json:"fuelType,omitempty"`
	CCSlab          string `json:"ccSlab,omitempty"`
	WattSlab        string `json:"wattSlab,omitempty"`
	SeatingCapacity string `json:"seatingCapacity,omitempty"`
	GVWSlab         string `json:"gvwSlab,omitempty"`
	GVWValue        string `json:"gvwValue,omitempty"`
	VehicleAge      string `json:"vehicleAge,omitempty"`
	NCBSlab         string `json:"ncbSlab,omitempty"`
	CPACover        string `json:"cpaCover,omitempty"`
	ZeroDep         string `json:"zeroDepreciation,omitempty"`
	Trailer         string `json:"trailer,omitempty"`
	BusinessType    string `json:"businessType"`
	PolicyType      string `json:"policyType"`
}

// Output is the completed-job payload: the ranked result plus the combined
// RTO code the UI echoes back, and the analytics record id when one was
// written.
type Output struct {
	Status         string               `json:"status"`
	Message        string               `json:"message,omitempty"`
	RTOCode        string               `json:"rtoCode"`
	Groups         []models.RankedGroup `json:"groups"`
	Results        []models.RankedEntry `json:"results"`
	TotalCompanies int                  `json:"totalCompanies"`
	Diagnostics    models.Diagnostics   `json:"diagnostics"`
	QueryLogID     string               `json:"queryLogId,omitempty"`
}
