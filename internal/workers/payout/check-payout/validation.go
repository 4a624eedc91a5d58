// internal/workers/payout/check-payout/validation.go
package checkpayout

import (
	"fmt"
	"strconv"
	"strings"

	cerrors "posp-payout-workers/internal/common/errors"
	"posp-payout-workers/internal/models"
)

const (
	minVehicleAge = 1
	maxVehicleAge = 50
	maxGVWTons    = 50.0
)

// bundlePolicies are the long-term bundle policy spellings, compared with all
// whitespace removed.
var bundlePolicies = map[string]bool{
	"bundle(1+3)": true,
	"bundle(1+5)": true,
	"bundle(5+5)": true,
}

func isBundlePolicy(policyType string) bool {
	folded := strings.Join(strings.Fields(strings.ToLower(policyType)), "")
	return bundlePolicies[folded]
}

// resolveQuery validates the raw input field by field and builds the typed
// query the engine consumes. The returned display code is the combined
// "<state><rto>" string echoed back to the caller.
func resolveQuery(input *Input) (*models.Query, string, *cerrors.StandardError) {
	stateCode := models.ResolveStateCode(input.State)

	q := &models.Query{
		State:           stateCode,
		VehicleCategory: strings.TrimSpace(input.VehicleCategory),
		VehicleType:     strings.TrimSpace(input.VehicleType),
		Make:            strings.TrimSpace(input.Make),
		Model:           strings.TrimSpace(input.Model),
		FuelType:        strings.TrimSpace(input.FuelType),
		CCSlab:          strings.TrimSpace(input.CCSlab),
		WattSlab:        strings.TrimSpace(input.WattSlab),
		SeatingCapacity: strings.TrimSpace(input.SeatingCapacity),
		NCBSlab:         strings.TrimSpace(input.NCBSlab),
		CPACover:        strings.TrimSpace(input.CPACover),
		ZeroDep:         strings.TrimSpace(input.ZeroDep),
		Trailer:         strings.TrimSpace(input.Trailer),
		BusinessType:    strings.TrimSpace(input.BusinessType),
		PolicyType:      strings.TrimSpace(input.PolicyType),
	}

	if err := resolveAge(input.VehicleAge, q); err != nil {
		return nil, "", err
	}

	if err := resolveGVW(input, q); err != nil {
		return nil, "", err
	}

	if err := checkBusinessTypeRules(input, q); err != nil {
		return nil, "", err
	}

	rtoDisplay, err := resolveRTO(input, stateCode, q)
	if err != nil {
		return nil, "", err
	}

	return q, rtoDisplay, nil
}

func resolveAge(raw string, q *models.Query) *cerrors.StandardError {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	if strings.EqualFold(v, "new") {
		q.AgeIsNew = true
		return nil
	}
	age, err := strconv.Atoi(v)
	if err != nil || age < minVehicleAge || age > maxVehicleAge {
		return cerrors.NewInvalidAgeValueError(fmt.Sprintf("vehicle age %q", raw))
	}
	q.VehicleAge = age
	return nil
}

// resolveGVW reads the GVW interval from either the point value field or the
// slab field. A point value collapses to a zero-width interval.
func resolveGVW(input *Input, q *models.Query) *cerrors.StandardError {
	value := strings.TrimSpace(input.GVWValue)
	slab := strings.TrimSpace(input.GVWSlab)

	switch {
	case value != "":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return cerrors.NewInvalidGVWValueError(fmt.Sprintf("gvw value %q", input.GVWValue))
		}
		q.HasGVW = true
		q.GVWMin = v
		q.GVWMax = v
	case slab != "":
		lo, hi, ok := parseGVWSlab(slab)
		if !ok {
			return cerrors.NewInvalidGVWValueError(fmt.Sprintf("gvw slab %q", input.GVWSlab))
		}
		q.HasGVW = true
		q.GVWMin = lo
		q.GVWMax = hi
	default:
		return nil
	}

	if q.GVWMin < 0 || q.GVWMax > maxGVWTons || q.GVWMin > q.GVWMax {
		return cerrors.NewInvalidGVWValueError(
			fmt.Sprintf("gvw interval [%g, %g] outside [0, %g]", q.GVWMin, q.GVWMax, maxGVWTons))
	}
	return nil
}

// parseGVWSlab accepts "2.5-3.5", "2.5 - 3.5 Ton" and a bare "3.5".
func parseGVWSlab(slab string) (float64, float64, bool) {
	s := strings.ToLower(slab)
	s = strings.TrimSuffix(strings.TrimSpace(s), "tons")
	s = strings.TrimSuffix(strings.TrimSpace(s), "ton")
	s = strings.TrimSpace(s)

	parts := strings.SplitN(s, "-", 2)
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	if len(parts) == 1 {
		return lo, lo, true
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

// checkBusinessTypeRules enforces the cross-field pairing between business
// type, vehicle age and bundle policies: a New business type belongs to a
// first-year vehicle or a bundle policy, and vice versa.
func checkBusinessTypeRules(input *Input, q *models.Query) *cerrors.StandardError {
	business := strings.ToLower(strings.TrimSpace(input.BusinessType))
	bundle := isBundlePolicy(input.PolicyType)
	firstYear := q.AgeIsNew || q.VehicleAge == 1
	agePresent := q.AgeIsNew || q.VehicleAge > 0

	if agePresent && !firstYear && business == "new" && !bundle {
		return cerrors.NewValidationFailedError(
			"Business Type cannot be New when Vehicle Age is not 1.")
	}
	if (firstYear || bundle) && business != "new" {
		return cerrors.NewValidationFailedError(
			"Business Type must be New when Vehicle Age is 1 or Policy Type is Bundle(1+3)/Bundle(1+5).")
	}
	return nil
}

// resolveRTO strips any "<state>-" prefix off the submitted RTO number and
// rejects RTO input for states whose rows carry no per-RTO predicates.
func resolveRTO(input *Input, stateCode string, q *models.Query) (string, *cerrors.StandardError) {
	number := strings.TrimSpace(input.RTONumber)
	if number == "" {
		return "N/A", nil
	}

	if !models.RTOEnabledStates[strings.ToUpper(stateCode)] {
		return "", cerrors.NewRTONotApplicableError(stateCode)
	}

	if idx := strings.Index(number, "-"); idx >= 0 {
		number = number[idx+1:]
	}
	q.RTOCode = number
	return stateCode + number, nil
}
