// internal/workers/payout/check-payout/handler_test.go
package checkpayout

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posp-payout-workers/internal/common/database"
	cerrors "posp-payout-workers/internal/common/errors"
	"posp-payout-workers/internal/common/logger"
	"posp-payout-workers/internal/models"
	"posp-payout-workers/internal/store"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
		TopK:    5,
	}
}

func createTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	st := store.New(
		&database.PostgresClient{DB: db},
		&database.RedisClient{Client: rdb},
		time.Minute,
		0,
		logger.NewTestLogger(t),
	)
	return NewHandler(createTestConfig(), st, logger.NewTestLogger(t)), mock
}

func baseInput() *Input {
	return &Input{
		State:           "Tamil Nadu",
		VehicleCategory: "Private Car",
		FuelType:        "Petrol",
		BusinessType:    "Old",
		PolicyType:      "Comprehensive",
	}
}

var snapshotColumns = []string{
	"id", "import_id", "import_seq", "company",
	"state", "rto_code", "applies_all_rto",
	"vehicle_category", "vehicle_type", "make", "model",
	"fuel_type", "cc_slab", "watt_slab", "seating_capacity",
	"ncb_slab", "cpa_cover", "zero_depreciation", "trailer",
	"business_type", "policy_type",
	"age_min", "age_max", "gvw_min", "gvw_max",
	"date_from", "date_till",
	"final_payout", "conditions", "rank_override", "extra",
}

func privateCarRow(id int64, seq int, company, state, fuel string, payout float64) []driver.Value {
	return []driver.Value{
		id, int64(3), seq, company,
		state, "", true,
		"Private Car", "", "", "",
		fuel, "", "", "",
		"", "", "", "",
		"", "Comprehensive",
		nil, nil, nil, nil,
		nil, nil,
		payout, nil, nil, nil,
	}
}

func expectSnapshot(mock sqlmock.Sqlmock, rows ...[]driver.Value) {
	mock.ExpectQuery("SELECT id FROM imports").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	snapshot := sqlmock.NewRows(snapshotColumns)
	for _, r := range rows {
		snapshot.AddRow(r...)
	}
	mock.ExpectQuery("FROM rates").WillReturnRows(snapshot)
}

func expectQueryLog(mock sqlmock.Sqlmock) {
	mock.ExpectExec("INSERT INTO query_log").
		WillReturnResult(sqlmock.NewResult(0, 1))
}

// ==========================
// Shape Validation Tests
// ==========================

func TestValidateShape(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name: "complete payload",
			raw:  `{"state":"Tamil Nadu","vehicleCategory":"Private Car","businessType":"Old","policyType":"Comprehensive"}`,
		},
		{
			name:    "missing state",
			raw:     `{"vehicleCategory":"Private Car","businessType":"Old","policyType":"Comprehensive"}`,
			wantErr: true,
		},
		{
			name:    "numeric where string belongs",
			raw:     `{"state":"Tamil Nadu","vehicleCategory":"Private Car","businessType":"Old","policyType":"Comprehensive","vehicleAge":5}`,
			wantErr: true,
		},
		{
			name:    "blank mandatory field",
			raw:     `{"state":"","vehicleCategory":"Private Car","businessType":"Old","policyType":"Comprehensive"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateShape([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ==========================
// Field Validation Tests
// ==========================

func TestResolveQueryAge(t *testing.T) {
	tests := []struct {
		name     string
		age      string
		business string
		wantAge  int
		wantNew  bool
		wantCode cerrors.ErrorCode
	}{
		{name: "blank age", age: "", business: "Old"},
		{name: "numeric age", age: "7", business: "Old", wantAge: 7},
		{name: "new sentinel", age: "New", business: "New", wantNew: true},
		{name: "age one forces new business", age: "1", business: "New", wantAge: 1},
		{name: "zero age rejected", age: "0", business: "Old", wantCode: cerrors.ErrCodeInvalidAgeValue},
		{name: "age above cap rejected", age: "51", business: "Old", wantCode: cerrors.ErrCodeInvalidAgeValue},
		{name: "non numeric rejected", age: "old-ish", business: "Old", wantCode: cerrors.ErrCodeInvalidAgeValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := baseInput()
			input.VehicleAge = tt.age
			input.BusinessType = tt.business

			q, _, stdErr := resolveQuery(input)
			if tt.wantCode != "" {
				require.NotNil(t, stdErr)
				assert.Equal(t, tt.wantCode, stdErr.Code)
				return
			}
			require.Nil(t, stdErr)
			assert.Equal(t, tt.wantAge, q.VehicleAge)
			assert.Equal(t, tt.wantNew, q.AgeIsNew)
		})
	}
}

func TestResolveQueryGVW(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		slab    string
		wantMin float64
		wantMax float64
		wantErr bool
	}{
		{name: "no gvw"},
		{name: "point value", value: "3.5", wantMin: 3.5, wantMax: 3.5},
		{name: "slab range", slab: "2.5-3.5 Ton", wantMin: 2.5, wantMax: 3.5},
		{name: "bare slab value", slab: "12", wantMin: 12, wantMax: 12},
		{name: "value wins over slab", value: "7", slab: "2.5-3.5", wantMin: 7, wantMax: 7},
		{name: "non numeric value", value: "heavy", wantErr: true},
		{name: "above fifty tons", value: "55", wantErr: true},
		{name: "negative", value: "-1", wantErr: true},
		{name: "inverted slab", slab: "9-3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := baseInput()
			input.GVWValue = tt.value
			input.GVWSlab = tt.slab

			q, _, stdErr := resolveQuery(input)
			if tt.wantErr {
				require.NotNil(t, stdErr)
				assert.Equal(t, cerrors.ErrCodeInvalidGVWValue, stdErr.Code)
				return
			}
			require.Nil(t, stdErr)
			if tt.value == "" && tt.slab == "" {
				assert.False(t, q.HasGVW)
				return
			}
			assert.True(t, q.HasGVW)
			assert.Equal(t, tt.wantMin, q.GVWMin)
			assert.Equal(t, tt.wantMax, q.GVWMax)
		})
	}
}

func TestResolveQueryBusinessRules(t *testing.T) {
	tests := []struct {
		name     string
		age      string
		business string
		policy   string
		wantErr  bool
	}{
		{name: "old with numeric age", age: "5", business: "Old", policy: "Comprehensive"},
		{name: "new with age one", age: "1", business: "New", policy: "Comprehensive"},
		{name: "new with new sentinel", age: "New", business: "New", policy: "Comprehensive"},
		{name: "new with bundle and older vehicle", age: "3", business: "New", policy: "Bundle(1+3)"},
		{name: "bundle spelling with spaces", age: "", business: "New", policy: "Bundle (1+5)"},
		{name: "new with older vehicle", age: "5", business: "New", policy: "Comprehensive", wantErr: true},
		{name: "old with age one", age: "1", business: "Old", policy: "Comprehensive", wantErr: true},
		{name: "old with bundle", age: "5", business: "Old", policy: "Bundle(1+3)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := baseInput()
			input.VehicleAge = tt.age
			input.BusinessType = tt.business
			input.PolicyType = tt.policy

			_, _, stdErr := resolveQuery(input)
			if tt.wantErr {
				require.NotNil(t, stdErr)
				assert.Equal(t, cerrors.ErrCodeValidationFailed, stdErr.Code)
			} else {
				assert.Nil(t, stdErr)
			}
		})
	}
}

func TestResolveQueryRTO(t *testing.T) {
	tests := []struct {
		name        string
		state       string
		rto         string
		wantCode    string
		wantDisplay string
		wantErr     bool
	}{
		{name: "no rto", state: "Tamil Nadu", rto: "", wantCode: "", wantDisplay: "N/A"},
		{name: "enabled state", state: "Tamil Nadu", rto: "01", wantCode: "01", wantDisplay: "TN01"},
		{name: "prefixed number stripped", state: "Puducherry", rto: "PY-02", wantCode: "02", wantDisplay: "PY02"},
		{name: "state already a code", state: "KA", rto: "05", wantCode: "05", wantDisplay: "KA05"},
		{name: "disabled state rejects rto", state: "Haryana", rto: "26", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := baseInput()
			input.State = tt.state
			input.RTONumber = tt.rto

			q, display, stdErr := resolveQuery(input)
			if tt.wantErr {
				require.NotNil(t, stdErr)
				assert.Equal(t, cerrors.ErrCodeRTONotApplicable, stdErr.Code)
				return
			}
			require.Nil(t, stdErr)
			assert.Equal(t, tt.wantCode, q.RTOCode)
			assert.Equal(t, tt.wantDisplay, display)
		})
	}
}

// ==========================
// Execute Tests
// ==========================

func TestExecuteRanksMatchingRows(t *testing.T) {
	h, mock := createTestHandler(t)
	expectSnapshot(mock,
		privateCarRow(1, 0, "Shriram", "TN", "Petrol", 22),
		privateCarRow(2, 1, "Magma HDI", "TN", "Petrol", 31),
		privateCarRow(3, 2, "Royal Sundaram", "KL", "Petrol", 40),
	)
	expectQueryLog(mock)

	output, err := h.Execute(context.Background(), baseInput())
	require.NoError(t, err)

	assert.Equal(t, models.StatusSuccess, output.Status)
	assert.Equal(t, 2, output.TotalCompanies)
	require.Len(t, output.Results, 2)
	assert.Equal(t, "Magma HDI", output.Results[0].Company)
	assert.Equal(t, 1, output.Results[0].Rank)
	assert.Equal(t, "Shriram", output.Results[1].Company)
	assert.NotEmpty(t, output.QueryLogID)
	assert.Equal(t, 3, output.Diagnostics.RowsScanned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteNoMatch(t *testing.T) {
	h, mock := createTestHandler(t)
	expectSnapshot(mock,
		privateCarRow(1, 0, "Shriram", "KL", "Petrol", 22),
	)
	expectQueryLog(mock)

	output, err := h.Execute(context.Background(), baseInput())
	require.NoError(t, err)

	assert.Equal(t, models.StatusNoMatch, output.Status)
	assert.NotEmpty(t, output.Message)
	assert.Empty(t, output.Results)
	assert.Zero(t, output.TotalCompanies)
}

func TestExecuteEmptySnapshotIsNoMatch(t *testing.T) {
	h, mock := createTestHandler(t)
	mock.ExpectQuery("SELECT id FROM imports").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	expectQueryLog(mock)

	output, err := h.Execute(context.Background(), baseInput())
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoMatch, output.Status)
}

func TestExecuteSnapshotFailureIsRetryable(t *testing.T) {
	h, mock := createTestHandler(t)
	mock.ExpectQuery("SELECT id FROM imports").
		WillReturnError(assert.AnError)

	_, err := h.Execute(context.Background(), baseInput())
	require.Error(t, err)

	stdErr, ok := err.(*cerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, cerrors.ErrCodeSnapshotUnavailable, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestExecuteQueryLogFailureDoesNotFailJob(t *testing.T) {
	h, mock := createTestHandler(t)
	expectSnapshot(mock,
		privateCarRow(1, 0, "Shriram", "TN", "Petrol", 22),
	)
	mock.ExpectExec("INSERT INTO query_log").WillReturnError(assert.AnError)

	output, err := h.Execute(context.Background(), baseInput())
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, output.Status)
	assert.Empty(t, output.QueryLogID)
}

func TestExecuteQueryLogDisabled(t *testing.T) {
	h, mock := createTestHandler(t)
	h.config.QueryLogDisabled = true
	expectSnapshot(mock,
		privateCarRow(1, 0, "Shriram", "TN", "Petrol", 22),
	)

	output, err := h.Execute(context.Background(), baseInput())
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, output.Status)
	assert.Empty(t, output.QueryLogID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteNilInput(t *testing.T) {
	h, _ := createTestHandler(t)
	_, err := h.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilInput)
}

func TestExecuteInvalidInputShortCircuits(t *testing.T) {
	h, mock := createTestHandler(t)
	input := baseInput()
	input.VehicleAge = "120"

	_, err := h.Execute(context.Background(), input)
	require.Error(t, err)
	stdErr, ok := err.(*cerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, cerrors.ErrCodeInvalidAgeValue, stdErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet(), "validation failures must never hit the database")
}
