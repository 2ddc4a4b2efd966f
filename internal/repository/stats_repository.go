package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/datamatch-api/internal/models"
)

// StatsRepository computes platform totals.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Overview counts rows of the main tables in one round trip.
func (r *StatsRepository) Overview(ctx context.Context) (*models.Overview, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM users) AS users,
(SELECT COUNT(*) FROM datasets) AS datasets,
(SELECT COUNT(*) FROM payments) AS payments,
(SELECT COUNT(*) FROM api_keys) AS api_keys`
	var overview models.Overview
	if err := r.db.GetContext(ctx, &overview, query); err != nil {
		return nil, fmt.Errorf("load overview: %w", err)
	}
	return &overview, nil
}

// Ping checks database connectivity for readiness probes.
func (r *StatsRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
