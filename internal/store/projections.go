// internal/store/projections.go
package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	commonerrors "posp-payout-workers/internal/common/errors"
	"posp-payout-workers/internal/common/metrics"
	"posp-payout-workers/internal/models"
)

// Filter narrows a projection to rows matching one dimension, the same way
// the evaluator would: exact value, comma-list token, or an "All" row.
type Filter struct {
	Dimension string `json:"dimension"`
	Value     string `json:"value"`
}

// hiddenTokens never show up as dropdown options.
var hiddenTokens = map[string]bool{
	"":     true,
	"all":  true,
	"n/a":  true,
	"no":   true,
	"null": true,
	"none": true,
}

// DistinctValues returns the sorted distinct single-token values of one
// dimension across the current snapshot, optionally narrowed by cascade
// filters. Comma cells are split so "Petrol,Diesel" contributes two options;
// exclusion cells contribute nothing. Results are cached in Redis per import.
func (s *Store) DistinctValues(ctx context.Context, dimension string, filters []Filter) ([]string, error) {
	importID, err := s.CurrentImportID(ctx)
	if err != nil {
		return nil, err
	}
	if importID == 0 {
		return nil, nil
	}

	key := projectionKey(importID, dimension, filters)
	if cached, err := s.redis.Get(ctx, key); err == nil {
		var values []string
		if json.Unmarshal([]byte(cached), &values) == nil {
			metrics.ProjectionCacheHits.WithLabelValues("hit").Inc()
			return values, nil
		}
	}
	metrics.ProjectionCacheHits.WithLabelValues("miss").Inc()

	rows, _, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	values := distinctSingleValues(rows, dimension, filters)

	if payload, err := json.Marshal(values); err == nil {
		if err := s.redis.Set(ctx, key, payload, s.projectionTTL); err != nil {
			// Cache trouble degrades to recomputation, the caller still gets
			// their options.
			s.log.Warn("projection cache write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return values, nil
}

// InvalidateProjections drops every cached projection of one import batch.
func (s *Store) InvalidateProjections(ctx context.Context, importID int64) error {
	pattern := fmt.Sprintf("proj:%d:*", importID)
	iter := s.redis.GetClient().Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return commonerrors.NewProjectionCacheFailedError(err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.redis.Del(ctx, keys...); err != nil {
		return commonerrors.NewProjectionCacheFailedError(err)
	}
	return nil
}

func projectionKey(importID int64, dimension string, filters []Filter) string {
	h := sha1.New()
	for _, f := range filters {
		fmt.Fprintf(h, "%s=%s;", strings.ToLower(f.Dimension), strings.ToLower(strings.TrimSpace(f.Value)))
	}
	return fmt.Sprintf("proj:%d:%s:%s", importID, dimension, hex.EncodeToString(h.Sum(nil)))
}

func distinctSingleValues(rows []models.RateRow, dimension string, filters []Filter) []string {
	seen := make(map[string]bool)
	sawNA := false
	var out []string
	for i := range rows {
		row := &rows[i]
		if !matchesFilters(row, filters) {
			continue
		}
		raw := row.Attr(dimension)
		for _, token := range strings.Split(raw, ",") {
			token = strings.TrimSpace(token)
			key := strings.ToLower(token)
			if key == "n/a" {
				sawNA = true
			}
			if hiddenTokens[key] || seen[key] {
				continue
			}
			if strings.HasPrefix(key, "except ") || strings.HasPrefix(key, "declined ") {
				continue
			}
			seen[key] = true
			out = append(out, token)
		}
	}
	// Seating sheets sometimes carry only N/A; an empty dropdown would hide
	// those rows, so the token survives as the lone option.
	if len(out) == 0 && sawNA && dimension == models.DimSeatingCapacity {
		out = append(out, "N/A")
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i]), strings.ToLower(out[j])
		if a != b {
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}

// matchesFilters applies cascade filters: each must hit the row exactly, as a
// comma token, or via an "All" wildcard cell.
func matchesFilters(row *models.RateRow, filters []Filter) bool {
	for _, f := range filters {
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		if !filterHits(row.Attr(f.Dimension), f.Dimension, f.Value) {
			return false
		}
	}
	return true
}

func filterHits(raw, dimension, value string) bool {
	if strings.EqualFold(strings.TrimSpace(raw), "all") {
		return true
	}
	candidates := []string{value}
	if dimension == models.DimVehicleType {
		candidates = vehicleTypeAliases(value)
	}
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		for _, c := range candidates {
			if strings.EqualFold(token, strings.TrimSpace(c)) {
				return true
			}
		}
	}
	return false
}

// vehicleTypeAliases mirrors the spelling variants the evaluator accepts, so
// cascaded dropdowns and matching agree on which rows count.
func vehicleTypeAliases(value string) []string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "digger and boring machine", "digger & boring machine":
		return []string{"Digger and Boring machine", "Digger & Boring machine"}
	case "backho loader", "bacho loader":
		return []string{"Backho Loader", "Bacho Loader"}
	case "educational bus", "educational bus under school name":
		return []string{"Educational Bus", "Educational Bus under school name"}
	}
	return []string{value}
}
