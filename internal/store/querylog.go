// internal/store/querylog.go
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	commonerrors "posp-payout-workers/internal/common/errors"
	"posp-payout-workers/internal/models"
)

// QueryLogEntry is one analytics record of a payout check.
type QueryLogEntry struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Status     string    `json:"status"`
	Matched    int       `json:"matched"`
	TopCompany string    `json:"topCompany,omitempty"`
	TopPayout  float64   `json:"topPayout,omitempty"`
}

// LogQuery records a served payout check for analytics. The caller decides
// whether a failure matters; on the serving path it is logged and dropped.
func (s *Store) LogQuery(ctx context.Context, q *models.Query, res *models.Result) (string, error) {
	id := uuid.New().String()

	payload, err := json.Marshal(q)
	if err != nil {
		return "", commonerrors.NewQueryLogFailedError(err)
	}

	var topCompany string
	var topPayout float64
	if len(res.Entries) > 0 {
		topCompany = res.Entries[0].Company
		topPayout = res.Entries[0].Payout
	}

	_, err = s.pg.Exec(ctx, `
		INSERT INTO query_log (id, created_at, filters, status, matched, top_company, top_payout)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, time.Now().UTC(), payload, res.Status, res.Diagnostics.EligibleRows, topCompany, topPayout)
	if err != nil {
		return "", commonerrors.NewQueryLogFailedError(err)
	}
	return id, nil
}

// LogQueryBestEffort is the serving-path variant: failures are logged, never
// returned.
func (s *Store) LogQueryBestEffort(ctx context.Context, q *models.Query, res *models.Result) {
	if _, err := s.LogQuery(ctx, q, res); err != nil {
		s.log.Warn("query log insert failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
