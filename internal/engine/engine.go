// internal/engine/engine.go
package engine

import (
	"context"

	"posp-payout-workers/internal/common/logger"
	"posp-payout-workers/internal/models"
)

// NoMatchMessage is returned verbatim when a scan finds nothing eligible.
const NoMatchMessage = "No matching payouts found for the selected filters"

// Config controls evaluation output.
type Config struct {
	// TopK is how many companies a result carries. Zero means the default 5.
	TopK int
}

// Engine evaluates a resolved query against a rate snapshot. It is pure: no
// storage, no clock beyond the query's evaluation date, safe for concurrent
// use.
type Engine struct {
	cfg Config
	log logger.Logger
}

func New(cfg Config, log logger.Logger) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Engine{cfg: cfg, log: log}
}

// Evaluate scans every row of the snapshot, ranks the eligible ones, and
// assembles the caller-facing result. Zero eligible rows is a successful
// no-match, never an error. Malformed stored predicates exclude their row and
// are counted, never surfaced.
func (e *Engine) Evaluate(ctx context.Context, q *models.Query, rows []models.RateRow) (*models.Result, error) {
	diag := models.Diagnostics{RowsScanned: len(rows)}
	eligible := make([]*models.RateRow, 0, 64)

	for i := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := &rows[i]
		ok, dim, err := EligibleRow(row, q)
		if err != nil {
			diag.MalformedRows++
			e.log.Warn("skipping malformed rate row", map[string]interface{}{
				"row_id":    row.ID,
				"dimension": dim,
				"error":     err.Error(),
			})
			continue
		}
		if ok {
			eligible = append(eligible, row)
		}
	}
	diag.EligibleRows = len(eligible)

	if len(eligible) == 0 {
		return &models.Result{
			Status:      models.StatusNoMatch,
			Message:     NoMatchMessage,
			Diagnostics: diag,
		}, nil
	}

	lines := buildLines(eligible, q)
	groups := rankGroups(lines, e.cfg.TopK)
	return assemble(groups, diag), nil
}

// assemble flattens ranked groups into the tabular entries callers render,
// keeping the structured groups alongside.
func assemble(groups []models.RankedGroup, diag models.Diagnostics) *models.Result {
	entries := make([]models.RankedEntry, 0, len(groups)*2)
	for _, g := range groups {
		for _, l := range g.Lines {
			entries = append(entries, models.RankedEntry{
				Rank:      g.Rank,
				Company:   g.Company,
				Condition: l.Condition,
				Payout:    l.Payout,
			})
		}
	}
	return &models.Result{
		Status:      models.StatusSuccess,
		Groups:      groups,
		Entries:     entries,
		Diagnostics: diag,
	}
}
