// internal/store/store.go

// Package store reads the imported rate sheet out of Postgres and serves the
// derived dropdown projections through Redis. Writes happen elsewhere, in the
// import pipeline; the serving path only ever sees the latest completed
// import batch.
package store

import (
	"time"

	"posp-payout-workers/internal/common/database"
	"posp-payout-workers/internal/common/logger"
)

type Store struct {
	pg            *database.PostgresClient
	redis         *database.RedisClient
	log           logger.Logger
	projectionTTL time.Duration
	maxRows       int
}

// New wires the serving store. maxRows caps how many rate rows one snapshot
// may carry; zero selects the default of 200000.
func New(pg *database.PostgresClient, redis *database.RedisClient, projectionTTL time.Duration, maxRows int, log logger.Logger) *Store {
	if projectionTTL <= 0 {
		projectionTTL = 5 * time.Minute
	}
	if maxRows <= 0 {
		maxRows = 200000
	}
	return &Store{
		pg:            pg,
		redis:         redis,
		log:           log,
		projectionTTL: projectionTTL,
		maxRows:       maxRows,
	}
}
