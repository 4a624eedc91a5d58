// internal/workers/payout/refresh-projections/handler_test.go
package refreshprojections

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

func createTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *miniredis.Miniredis) {
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
	return NewHandler(&Config{Timeout: 30 * time.Second}, st, logger.NewTestLogger(t)), mock, mr
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

func sampleRow(id int64, seq int) []driver.Value {
	return []driver.Value{
		id, int64(9), seq, "Shriram",
		"TN", "", true,
		"Private Car", "", "Maruti", "Swift",
		"Petrol,Diesel", "1000-1500", "", "",
		"20%", "With CPA", "Yes", "",
		"", "Comprehensive",
		nil, nil, nil, nil,
		nil, nil,
		25.0, nil, nil, nil,
	}
}

func expectImport(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT id FROM imports").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
}

func expectRates(mock sqlmock.Sqlmock) {
	snapshot := sqlmock.NewRows(snapshotColumns)
	snapshot.AddRow(sampleRow(1, 0)...)
	snapshot.AddRow(sampleRow(2, 1)...)
	mock.ExpectQuery("FROM rates").WillReturnRows(snapshot)
}

// expectWarmScan queues the query sequence one cold DistinctValues call
// produces: the import lookup, then the snapshot load (with its own import
// lookup).
func expectWarmScan(mock sqlmock.Sqlmock) {
	expectImport(mock)
	expectImport(mock)
	expectRates(mock)
}

// ==========================
// Execute Tests
// ==========================

func TestExecuteWarmsAllDimensions(t *testing.T) {
	h, mock, _ := createTestHandler(t)

	expectImport(mock)
	for range warmDimensions {
		expectWarmScan(mock)
	}

	output, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)

	assert.Equal(t, int64(9), output.ImportID)
	assert.Len(t, output.OptionCounts, len(warmDimensions))
	assert.Equal(t, 2, output.OptionCounts[models.DimFuelType], "comma cell splits into two options")
	assert.Equal(t, 1, output.OptionCounts[models.DimState])
	assert.Zero(t, output.OptionCounts[models.DimWattSlab], "blank cells hide the option entirely")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteDropsSupersededCache(t *testing.T) {
	h, mock, mr := createTestHandler(t)

	// Stale keys from the previous batch and a leftover from the current one.
	require.NoError(t, mr.Set("proj:8:State:abc", `["stale"]`))
	require.NoError(t, mr.Set("proj:9:State:abc", `["leftover"]`))

	expectImport(mock)
	for range warmDimensions {
		expectWarmScan(mock)
	}

	output, err := h.Execute(context.Background(), &Input{PreviousImportID: 8})
	require.NoError(t, err)
	assert.Equal(t, int64(8), output.InvalidatedImport)
	assert.False(t, mr.Exists("proj:8:State:abc"))
	assert.False(t, mr.Exists("proj:9:State:abc"))
}

func TestExecuteCacheWarmAfterRefresh(t *testing.T) {
	h, mock, mr := createTestHandler(t)

	expectImport(mock)
	for range warmDimensions {
		expectWarmScan(mock)
	}

	_, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)

	// Every warmed dimension left a cache entry behind.
	keys := mr.Keys()
	assert.Len(t, keys, len(warmDimensions))
}

func TestExecuteNoCompletedImport(t *testing.T) {
	h, mock, _ := createTestHandler(t)
	mock.ExpectQuery("SELECT id FROM imports").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)
	stdErr, ok := err.(*cerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, cerrors.ErrCodeProjectionRefreshFailed, stdErr.Code)
}

func TestExecuteSnapshotFailureSurfaces(t *testing.T) {
	h, mock, _ := createTestHandler(t)
	mock.ExpectQuery("SELECT id FROM imports").WillReturnError(assert.AnError)

	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)
	stdErr, ok := err.(*cerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, cerrors.ErrCodeSnapshotUnavailable, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestExecuteNilInput(t *testing.T) {
	h, _, _ := createTestHandler(t)
	_, err := h.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilInput)
}
