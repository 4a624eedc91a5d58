// internal/workers/payout/list-options/handler_test.go
package listoptions

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
	return NewHandler(&Config{Timeout: 5 * time.Second}, st, logger.NewTestLogger(t)), mock
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

func optionRow(id int64, seq int, state, category, vtype, fuel string) []driver.Value {
	return []driver.Value{
		id, int64(4), seq, "Shriram",
		state, "", true,
		category, vtype, "", "",
		fuel, "", "", "",
		"", "", "", "",
		"", "Comprehensive",
		nil, nil, nil, nil,
		nil, nil,
		25.0, nil, nil, nil,
	}
}

func expectSnapshot(mock sqlmock.Sqlmock, rows ...[]driver.Value) {
	mock.ExpectQuery("SELECT id FROM imports").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))
	mock.ExpectQuery("SELECT id FROM imports").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))
	snapshot := sqlmock.NewRows(snapshotColumns)
	for _, r := range rows {
		snapshot.AddRow(r...)
	}
	mock.ExpectQuery("FROM rates").WillReturnRows(snapshot)
}

// ==========================
// Execute Tests
// ==========================

func TestExecuteSplitsCommaValues(t *testing.T) {
	h, mock := createTestHandler(t)
	expectSnapshot(mock,
		optionRow(1, 0, "TN", "Private Car", "", "Petrol,Diesel"),
		optionRow(2, 1, "TN", "Private Car", "", "Diesel"),
	)

	output, err := h.Execute(context.Background(), &Input{Dimension: models.DimFuelType})
	require.NoError(t, err)
	assert.Equal(t, []string{"Diesel", "Petrol"}, output.Values)
	assert.Equal(t, 2, output.Count)
}

func TestExecuteCascadeFilter(t *testing.T) {
	h, mock := createTestHandler(t)
	expectSnapshot(mock,
		optionRow(1, 0, "TN", "GCV", "3 wheeler Goods", "Diesel"),
		optionRow(2, 1, "TN", "PCV", "Taxi", "Petrol"),
	)

	output, err := h.Execute(context.Background(), &Input{
		Dimension: models.DimVehicleType,
		Filters:   map[string]string{models.DimVehicleCategory: "GCV"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"3 wheeler Goods"}, output.Values)
}

func TestExecuteStateDisplayNames(t *testing.T) {
	h, mock := createTestHandler(t)
	expectSnapshot(mock,
		optionRow(1, 0, "TN", "Private Car", "", "Petrol"),
		optionRow(2, 1, "KL", "Private Car", "", "Petrol"),
	)

	output, err := h.Execute(context.Background(), &Input{Dimension: models.DimState})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kerala", "Tamil Nadu", "Others"}, output.Values)
}

func TestExecuteBusinessTypesFixedPair(t *testing.T) {
	h, mock := createTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{Dimension: models.DimBusinessType})
	require.NoError(t, err)
	assert.Equal(t, []string{"New", "Old"}, output.Values)
	assert.NoError(t, mock.ExpectationsWereMet(), "the fixed pair never touches the snapshot")
}

func TestExecuteUnknownDimension(t *testing.T) {
	h, _ := createTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{Dimension: "Shoe_Size"})
	require.Error(t, err)
	stdErr, ok := err.(*cerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, cerrors.ErrCodeValidationFailed, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestExecuteSnapshotFailure(t *testing.T) {
	h, mock := createTestHandler(t)
	mock.ExpectQuery("SELECT id FROM imports").WillReturnError(assert.AnError)

	_, err := h.Execute(context.Background(), &Input{Dimension: models.DimFuelType})
	require.Error(t, err)
	stdErr, ok := err.(*cerrors.StandardError)
	require.True(t, ok)
	assert.True(t, stdErr.Retryable)
}

func TestExecuteNilInput(t *testing.T) {
	h, _ := createTestHandler(t)
	_, err := h.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilInput)
}
