package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/datamatch-api/internal/models"
)

const referenceColumns = `id, dataset_name, name_key, final_value, combined_total, created_at, updated_at`

// ReferenceRepository stores instructor final values keyed by lower-cased dataset name.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// Upsert creates or replaces the entry for entry.DatasetName and returns the stored row.
func (r *ReferenceRepository) Upsert(ctx context.Context, entry *models.ReferenceEntry) (*models.ReferenceEntry, error) {
	now := time.Now().UTC()
	entry.NameKey = strings.ToLower(entry.DatasetName)
	query := `INSERT INTO dataset_references (dataset_name, name_key, final_value, combined_total, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (name_key) DO UPDATE SET dataset_name = EXCLUDED.dataset_name, final_value = EXCLUDED.final_value, combined_total = EXCLUDED.combined_total, updated_at = EXCLUDED.updated_at
RETURNING ` + referenceColumns
	var stored models.ReferenceEntry
	if err := r.db.GetContext(ctx, &stored, query, entry.DatasetName, entry.NameKey, entry.FinalValue, entry.CombinedTotal, now); err != nil {
		return nil, fmt.Errorf("upsert reference: %w", err)
	}
	return &stored, nil
}

// FindByName returns the entry for name, matched case-insensitively.
func (r *ReferenceRepository) FindByName(ctx context.Context, name string) (*models.ReferenceEntry, error) {
	query := `SELECT ` + referenceColumns + ` FROM dataset_references WHERE name_key = $1 LIMIT 1`
	var entry models.ReferenceEntry
	if err := r.db.GetContext(ctx, &entry, query, strings.ToLower(name)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find reference: %w", err)
	}
	return &entry, nil
}

// List returns every entry, most recently updated first.
func (r *ReferenceRepository) List(ctx context.Context) ([]models.ReferenceEntry, error) {
	query := `SELECT ` + referenceColumns + ` FROM dataset_references ORDER BY updated_at DESC`
	var entries []models.ReferenceEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	return entries, nil
}
