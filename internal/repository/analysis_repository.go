package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/datamatch-api/internal/models"
)

// AnalysisRepository stores analysis history. Records are never updated.
type AnalysisRepository struct {
	db *sqlx.DB
}

// NewAnalysisRepository constructs the repository.
func NewAnalysisRepository(db *sqlx.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create appends a record.
func (r *AnalysisRepository) Create(ctx context.Context, rec *models.AnalysisRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO analysis_results (user_id, dataset_name, match_percentage, missing, extra, result, analyzed_value, image_url, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	row := r.db.QueryRowxContext(ctx, query, rec.UserID, rec.DatasetName, rec.MatchPercentage, rec.Missing, rec.Extra, rec.Result, rec.AnalyzedValue, rec.ImageURL, rec.CreatedAt)
	if err := row.Scan(&rec.ID); err != nil {
		return fmt.Errorf("create analysis record: %w", err)
	}
	return nil
}

// ListByUser returns the records of a user, newest first.
func (r *AnalysisRepository) ListByUser(ctx context.Context, userID int64) ([]models.AnalysisRecord, error) {
	const query = `SELECT id, user_id, dataset_name, match_percentage, missing, extra, result, analyzed_value, image_url, created_at FROM analysis_results WHERE user_id = $1 ORDER BY created_at DESC`
	var records []models.AnalysisRecord
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("list analysis records: %w", err)
	}
	return records, nil
}
