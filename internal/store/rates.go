// internal/store/rates.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	commonerrors "posp-payout-workers/internal/common/errors"
	"posp-payout-workers/internal/models"
)

// CurrentImportID returns the id of the most recent completed import batch.
// Zero with no error means nothing has ever been imported.
func (s *Store) CurrentImportID(ctx context.Context) (int64, error) {
	var id int64
	err := s.pg.QueryRow(ctx, `
		SELECT id FROM imports
		WHERE status = 'completed'
		ORDER BY completed_at DESC
		LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, commonerrors.NewSnapshotUnavailableError(err)
	}
	return id, nil
}

// Snapshot loads every rate row of the current completed import, in import
// order. The engine scans the slice as-is; rows are never filtered here so
// that malformed predicates stay visible to its diagnostics.
func (s *Store) Snapshot(ctx context.Context) ([]models.RateRow, int64, error) {
	importID, err := s.CurrentImportID(ctx)
	if err != nil {
		return nil, 0, err
	}
	if importID == 0 {
		return nil, 0, nil
	}

	rows, err := s.pg.Query(ctx, `
		SELECT id, import_id, import_seq, company,
		       state, rto_code, applies_all_rto,
		       vehicle_category, vehicle_type, make, model,
		       fuel_type, cc_slab, watt_slab, seating_capacity,
		       ncb_slab, cpa_cover, zero_depreciation, trailer,
		       business_type, policy_type,
		       age_min, age_max, gvw_min, gvw_max,
		       date_from, date_till,
		       final_payout, conditions, rank_override, extra
		FROM rates
		WHERE import_id = $1
		ORDER BY import_seq`, importID)
	if err != nil {
		return nil, 0, commonerrors.NewSnapshotQueryFailedError(err)
	}
	defer rows.Close()

	var out []models.RateRow
	for rows.Next() {
		var (
			r           models.RateRow
			ageMin      sql.NullInt64
			ageMax      sql.NullInt64
			gvwMin      sql.NullFloat64
			gvwMax      sql.NullFloat64
			dateFrom    sql.NullString
			dateTill    sql.NullString
			condition   sql.NullString
			rankOver    sql.NullInt64
			extraJSON   []byte
		)
		err := rows.Scan(
			&r.ID, &r.ImportID, &r.ImportSeq, &r.Company,
			&r.State, &r.RTOCode, &r.AppliesAllRTO,
			&r.VehicleCategory, &r.VehicleType, &r.Make, &r.Model,
			&r.FuelType, &r.CCSlab, &r.WattSlab, &r.SeatingCapacity,
			&r.NCBSlab, &r.CPACover, &r.ZeroDepreciation, &r.Trailer,
			&r.BusinessType, &r.PolicyType,
			&ageMin, &ageMax, &gvwMin, &gvwMax,
			&dateFrom, &dateTill,
			&r.Payout, &condition, &rankOver, &extraJSON,
		)
		if err != nil {
			return nil, 0, commonerrors.NewSnapshotQueryFailedError(err)
		}
		if ageMin.Valid {
			v := int(ageMin.Int64)
			r.AgeMin = &v
		}
		if ageMax.Valid {
			v := int(ageMax.Int64)
			r.AgeMax = &v
		}
		if gvwMin.Valid {
			v := gvwMin.Float64
			r.GVWMin = &v
		}
		if gvwMax.Valid {
			v := gvwMax.Float64
			r.GVWMax = &v
		}
		r.DateFrom = dateFrom.String
		r.DateTill = dateTill.String
		r.Condition = condition.String
		if rankOver.Valid {
			v := int(rankOver.Int64)
			r.RankOverride = &v
		}
		if len(extraJSON) > 0 {
			// A corrupt extra blob loses only its overflow attributes, never
			// the row.
			_ = json.Unmarshal(extraJSON, &r.Extra)
		}
		out = append(out, r)
		if len(out) > s.maxRows {
			return nil, 0, commonerrors.NewSnapshotQueryFailedError(
				fmt.Errorf("import %d exceeds the %d row snapshot cap", importID, s.maxRows))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, commonerrors.NewSnapshotQueryFailedError(err)
	}
	return out, importID, nil
}
