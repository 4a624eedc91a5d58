// internal/engine/filter_test.go
package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posp-payout-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func baseRow() *models.RateRow {
	return &models.RateRow{
		ID:            1,
		Company:       "New India",
		Payout:        25,
		AppliesAllRTO: true,
	}
}

func baseQuery() *models.Query {
	return &models.Query{
		State:           "TN",
		VehicleCategory: "Private Car",
		BusinessType:    "Old",
		PolicyType:      "Comprehensive",
		EvaluationDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func mustEligible(t *testing.T, row *models.RateRow, q *models.Query) {
	t.Helper()
	ok, dim, err := EligibleRow(row, q)
	require.NoError(t, err)
	assert.True(t, ok, "expected eligible, failed on %s", dim)
}

func mustFail(t *testing.T, row *models.RateRow, q *models.Query, wantDim string) {
	t.Helper()
	ok, dim, err := EligibleRow(row, q)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, wantDim, dim)
}

// ==========================
// State and RTO
// ==========================

func TestEligibleRowState(t *testing.T) {
	t.Run("blank row state matches any query state", func(t *testing.T) {
		mustEligible(t, baseRow(), baseQuery())
	})

	t.Run("explicit state must match", func(t *testing.T) {
		row := baseRow()
		row.State = "KA"
		mustFail(t, row, baseQuery(), models.DimState)
	})

	t.Run("comma state list", func(t *testing.T) {
		row := baseRow()
		row.State = "AP,TS,TN"
		mustEligible(t, row, baseQuery())
	})

	t.Run("exclusion state blocks named state only", func(t *testing.T) {
		row := baseRow()
		row.State = "Except TN"
		mustFail(t, row, baseQuery(), models.DimState)

		q := baseQuery()
		q.State = "KL"
		mustEligible(t, row, q)
	})

	t.Run("others matches blank and exclusion rows only", func(t *testing.T) {
		q := baseQuery()
		q.State = "Others"
		mustEligible(t, baseRow(), q)

		row := baseRow()
		row.State = "Declined MH"
		mustEligible(t, row, q)

		row.State = "TN"
		mustFail(t, row, q, models.DimState)
	})
}

func TestEligibleRowRTO(t *testing.T) {
	t.Run("no rto in query", func(t *testing.T) {
		row := baseRow()
		row.AppliesAllRTO = false
		mustEligible(t, row, baseQuery())
	})

	t.Run("included code list", func(t *testing.T) {
		row := baseRow()
		row.AppliesAllRTO = false
		row.RTOCode = "01,02,03"

		q := baseQuery()
		q.RTOCode = "02"
		mustEligible(t, row, q)

		q.RTOCode = "09"
		mustFail(t, row, q, models.DimRTOCode)
	})

	t.Run("applies all minus exclusions", func(t *testing.T) {
		row := baseRow()
		row.RTOCode = "Except 09,10"

		q := baseQuery()
		q.RTOCode = "02"
		mustEligible(t, row, q)

		q.RTOCode = "09"
		mustFail(t, row, q, models.DimRTOCode)
	})

	t.Run("others matches only unrestricted applies-all rows", func(t *testing.T) {
		q := baseQuery()
		q.RTOCode = "Others"
		mustEligible(t, baseRow(), q)

		row := baseRow()
		row.RTOCode = "Except 09"
		mustFail(t, row, q, models.DimRTOCode)

		row = baseRow()
		row.AppliesAllRTO = false
		row.RTOCode = "01"
		mustFail(t, row, q, models.DimRTOCode)
	})
}

// ==========================
// Category conditional slabs
// ==========================

func TestEligibleRowCapacitySlabs(t *testing.T) {
	t.Run("cc slab filters non electric", func(t *testing.T) {
		row := baseRow()
		row.CCSlab = "150 to 350 CC"

		q := baseQuery()
		q.FuelType = "Petrol"
		q.CCSlab = "75 to 150 CC"
		mustFail(t, row, q, models.DimCCSlab)

		q.CCSlab = "150 to 350 CC"
		mustEligible(t, row, q)
	})

	t.Run("composite cc slab lists match whole tokens", func(t *testing.T) {
		row := baseRow()
		row.CCSlab = "150 to 350 CC, 75 to 150 CC"

		q := baseQuery()
		q.FuelType = "Petrol"
		q.CCSlab = "75 to 150 CC"
		mustEligible(t, row, q)
	})

	t.Run("cc slab ignored for electric vehicles", func(t *testing.T) {
		row := baseRow()
		row.CCSlab = "150 to 350 CC"

		q := baseQuery()
		q.FuelType = "EV"
		q.CCSlab = "75 to 150 CC"
		mustEligible(t, row, q)
	})

	t.Run("watt slab filters electric only", func(t *testing.T) {
		row := baseRow()
		row.WattSlab = "Above 5 KW"

		q := baseQuery()
		q.FuelType = "EV"
		q.WattSlab = "Below 3 KW"
		mustFail(t, row, q, models.DimWattSlab)

		q.FuelType = "Petrol"
		mustEligible(t, row, q)
	})

	t.Run("others selection never narrows", func(t *testing.T) {
		row := baseRow()
		row.CCSlab = "150 to 350 CC"
		row.FuelType = "Petrol"

		q := baseQuery()
		q.FuelType = "Others"
		q.CCSlab = "Others"
		mustEligible(t, row, q)
	})

	t.Run("no slab row matches any selection", func(t *testing.T) {
		row := baseRow()
		row.WattSlab = "No"

		q := baseQuery()
		q.FuelType = "EV"
		q.WattSlab = "Below 3 KW"
		mustEligible(t, row, q)
	})
}

func TestEligibleRowSeating(t *testing.T) {
	t.Run("na row is wildcard for pcv non auto", func(t *testing.T) {
		row := baseRow()
		row.SeatingCapacity = "N/A"

		q := baseQuery()
		q.VehicleCategory = "PCV"
		q.VehicleType = "Bus"
		q.SeatingCapacity = "32"
		mustEligible(t, row, q)
	})

	t.Run("na row is not wildcard for pcv auto", func(t *testing.T) {
		row := baseRow()
		row.SeatingCapacity = "No"

		q := baseQuery()
		q.VehicleCategory = "PCV"
		q.VehicleType = "Auto"
		q.SeatingCapacity = "6"
		mustFail(t, row, q, models.DimSeatingCapacity)
	})

	t.Run("exact seating match outside pcv", func(t *testing.T) {
		row := baseRow()
		row.SeatingCapacity = "7"

		q := baseQuery()
		q.SeatingCapacity = "7"
		mustEligible(t, row, q)

		q.SeatingCapacity = "5"
		mustFail(t, row, q, models.DimSeatingCapacity)
	})

	t.Run("other selection maps to na", func(t *testing.T) {
		row := baseRow()
		row.SeatingCapacity = "N/A"

		q := baseQuery()
		q.SeatingCapacity = "Other"
		mustEligible(t, row, q)
	})

	t.Run("na row is a real value outside pcv", func(t *testing.T) {
		row := baseRow()
		row.SeatingCapacity = "N/A"

		q := baseQuery()
		q.SeatingCapacity = "7"
		mustFail(t, row, q, models.DimSeatingCapacity)
	})

	t.Run("blank row stays wildcard outside pcv", func(t *testing.T) {
		row := baseRow()
		row.SeatingCapacity = ""

		q := baseQuery()
		q.SeatingCapacity = "7"
		mustEligible(t, row, q)
	})
}

// ==========================
// Vehicle type, age, GVW
// ==========================

func TestEligibleRowVehicleType(t *testing.T) {
	t.Run("spelling variants match", func(t *testing.T) {
		row := baseRow()
		row.VehicleType = "Bacho Loader"

		q := baseQuery()
		q.VehicleCategory = "Misc"
		q.VehicleType = "Backho Loader"
		mustEligible(t, row, q)
	})

	t.Run("exclusion vehicle type", func(t *testing.T) {
		row := baseRow()
		row.VehicleType = "Except Ambulance"

		q := baseQuery()
		q.VehicleType = "Ambulance"
		mustFail(t, row, q, models.DimVehicleType)

		q.VehicleType = "School Bus"
		mustEligible(t, row, q)
	})
}

func TestEligibleRowAge(t *testing.T) {
	min2, max8 := 2, 8
	row := baseRow()
	row.AgeMin = &min2
	row.AgeMax = &max8

	q := baseQuery()
	q.VehicleAge = 5
	mustEligible(t, row, q)

	q.VehicleAge = 9
	mustFail(t, row, q, models.DimVehicleAge)

	t.Run("new vehicles skip the age predicate", func(t *testing.T) {
		q := baseQuery()
		q.AgeIsNew = true
		q.BusinessType = "New"
		row := baseRow()
		row.AgeMin = &min2
		row.AgeMax = &max8
		row.BusinessType = "New"
		mustEligible(t, row, q)
	})
}

func TestEligibleRowGVW(t *testing.T) {
	min10, max20 := 10.0, 20.0

	t.Run("strict containment for four wheeler goods", func(t *testing.T) {
		q := baseQuery()
		q.VehicleCategory = "GCV"
		q.VehicleType = "4 Wheeler Goods"
		q.HasGVW = true
		q.GVWMin, q.GVWMax = 15, 15

		row := baseRow()
		row.GVWMin = &min10
		row.GVWMax = &max20
		mustEligible(t, row, q)

		row = baseRow() // no range at all
		mustFail(t, row, q, models.DimGVW)
	})

	t.Run("rangeless rows pass outside four wheeler goods", func(t *testing.T) {
		q := baseQuery()
		q.VehicleCategory = "GCV"
		q.VehicleType = "3 Wheeler Goods"
		q.HasGVW = true
		q.GVWMin, q.GVWMax = 15, 15
		mustEligible(t, baseRow(), q)
	})

	t.Run("slab selection uses interval overlap", func(t *testing.T) {
		q := baseQuery()
		q.VehicleCategory = "GCV"
		q.VehicleType = "4 Wheeler Goods"
		q.HasGVW = true
		q.GVWMin, q.GVWMax = 25, 40

		row := baseRow()
		row.GVWMin = &min10
		row.GVWMax = &max20
		mustFail(t, row, q, models.DimGVW)

		max30 := 30.0
		row.GVWMax = &max30
		mustEligible(t, row, q)
	})
}

// ==========================
// Business type and dates
// ==========================

func TestEligibleRowBusinessType(t *testing.T) {
	t.Run("blank row rejects new business", func(t *testing.T) {
		q := baseQuery()
		q.BusinessType = "New"
		mustFail(t, baseRow(), q, models.DimBusinessType)
	})

	t.Run("rollover folds into old", func(t *testing.T) {
		row := baseRow()
		row.BusinessType = "Old"
		q := baseQuery()
		q.BusinessType = "Rollover"
		mustEligible(t, row, q)
	})
}

func TestEligibleRowDateWindow(t *testing.T) {
	t.Run("expired row excluded", func(t *testing.T) {
		row := baseRow()
		row.DateTill = "2026-01-31"
		mustFail(t, row, baseQuery(), models.DimDateWindow)
	})

	t.Run("malformed date reports error without matching", func(t *testing.T) {
		row := baseRow()
		row.DateFrom = "soon"
		ok, dim, err := EligibleRow(row, baseQuery())
		assert.False(t, ok)
		assert.Equal(t, models.DimDateWindow, dim)
		require.Error(t, err)
		assert.True(t, IsMalformed(err))
	})
}
